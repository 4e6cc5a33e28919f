package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/boyingliu01/pdf-translation/internal/engine"
	"golang.org/x/text/language"
)

// The batch protocol: fragments go out as a JSON array of
// {"id", "input"} objects and come back as {"id", "output"} objects.
type requestItem struct {
	ID    int    `json:"id"`
	Input string `json:"input"`
}

type responseItem struct {
	ID     int    `json:"id"`
	Output string `json:"output"`
}

type glossaryEntry struct {
	Source string
	Target string
}

// glossaryMaxWords bounds which fragments qualify as terms for the
// auto-extracted glossary.
const glossaryMaxWords = 4

// translatePage translates one page's fragments in a single model
// call. Fragments below the minimum length or already in the target
// language pass through untranslated. Any failure (call or parse)
// returns the source fragments and the error; the caller reports it
// as a non-fatal chunk error.
func (p *Pipeline) translatePage(ctx context.Context, chat ChatFunc, s engine.Settings, pg page) (page, []glossaryEntry, error) {
	out := page{Number: pg.Number, Fragments: append([]string(nil), pg.Fragments...)}

	var items []requestItem
	for i, frag := range pg.Fragments {
		if utf8.RuneCountInString(frag) < s.MinTextLength {
			continue
		}
		if alreadyInTarget(frag, s.LangOut) {
			continue
		}
		items = append(items, requestItem{ID: i, Input: frag})
	}
	if len(items) == 0 {
		return out, nil, nil
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return out, nil, fmt.Errorf("marshal request: %w", err)
	}

	raw, err := chat(ctx, p.systemPrompt(s), string(payload))
	if err != nil {
		return out, nil, fmt.Errorf("model call failed: %w", err)
	}

	cleaned := p.sanitizerFor(s)(raw)

	var replies []responseItem
	if err := json.Unmarshal([]byte(cleaned), &replies); err != nil {
		return out, nil, fmt.Errorf("model reply not parseable after cleanup: %w", err)
	}

	var pairs []glossaryEntry
	for _, reply := range replies {
		if reply.ID < 0 || reply.ID >= len(out.Fragments) || reply.Output == "" {
			continue
		}
		source := out.Fragments[reply.ID]
		out.Fragments[reply.ID] = reply.Output

		if s.AutoExtractGlossary && len(strings.Fields(source)) <= glossaryMaxWords {
			pairs = append(pairs, glossaryEntry{Source: source, Target: reply.Output})
		}
	}
	return out, pairs, nil
}

func (p *Pipeline) systemPrompt(s engine.Settings) string {
	if s.CustomSystemPrompt != "" {
		return s.CustomSystemPrompt
	}

	var prompt strings.Builder
	prompt.WriteString("You are a professional document translation engine. ")
	prompt.WriteString(fmt.Sprintf("Translate each input fragment from %s to %s.\n\n", s.LangIn, s.LangOut))
	prompt.WriteString("Input is a JSON array of {\"id\", \"input\"} objects.\n")
	prompt.WriteString("Return ONLY a JSON array of {\"id\", \"output\"} objects, one per input, same ids.\n")
	prompt.WriteString("Preserve line breaks inside fragments. Do not add explanations, notes, or markup.\n")
	return prompt.String()
}

// alreadyInTarget reports whether a fragment is confidently detected
// as being in the target language already, in which case the model
// call is skipped for it.
func alreadyInTarget(text string, target language.Tag) bool {
	base, conf := target.Base()
	if conf == language.No {
		return false
	}
	code := base.ISO3()
	if code == "zho" {
		// whatlanggo identifies Chinese as Mandarin.
		code = "cmn"
	}
	want := whatlanggo.CodeToLang(code)
	if want < 0 {
		return false
	}

	info := whatlanggo.Detect(text)
	return info.Lang == want && info.Confidence >= 0.9
}
