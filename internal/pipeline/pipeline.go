// Package pipeline is the built-in translation engine. It loads a
// text-extractable document, translates it page by page through an
// LLM using a JSON batch protocol, and composes the output artifacts,
// reporting lifecycle events over an engine.Stream.
//
// The raw model reply of every call goes through the configured
// sanitizer before JSON decoding; a page whose reply still fails to
// parse falls back to its source text and is reported as a non-fatal
// error event rather than aborting the run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/boyingliu01/pdf-translation/internal/engine"
	"github.com/boyingliu01/pdf-translation/internal/llm"
	"github.com/boyingliu01/pdf-translation/pkg/log"
	"github.com/boyingliu01/pdf-translation/pkg/sanitize"
)

// Stage progress weights: load 5%, translate 90%, compose 5%.
const (
	weightLoad      = 5.0
	weightTranslate = 90.0
)

// ChatFunc performs one system+user exchange against a language
// model and returns the raw reply text.
type ChatFunc func(ctx context.Context, systemPrompt, userMessage string) (string, error)

// Options configures a Pipeline.
type Options struct {
	// Sanitizer repairs raw model replies before JSON decoding. When
	// nil the pipeline degrades to its native trim-only cleanup and
	// logs a warning; it never refuses to start. A non-nil
	// Settings.Sanitizer overrides it for that run.
	Sanitizer sanitize.Func

	// NewChat builds the per-run chat function from run settings.
	// Defaults to an llm.Client sized from the settings; tests inject
	// fakes here.
	NewChat func(settings engine.Settings) (ChatFunc, error)
}

// Pipeline implements engine.Engine.
type Pipeline struct {
	sanitizer sanitize.Func
	newChat   func(settings engine.Settings) (ChatFunc, error)
}

func New(opts Options) *Pipeline {
	sanitizer := opts.Sanitizer
	if sanitizer == nil {
		log.Warn("No sanitizer installed, falling back to native cleanup")
		sanitizer = nativeClean
	}
	newChat := opts.NewChat
	if newChat == nil {
		newChat = defaultNewChat
	}
	return &Pipeline{
		sanitizer: sanitizer,
		newChat:   newChat,
	}
}

// nativeClean is the degraded cleanup used when no sanitizer is wired
// in: whitespace trimming only, matching what a strict upstream engine
// would do on its own.
func nativeClean(raw string) string {
	return strings.TrimSpace(raw)
}

// sanitizerFor resolves the sanitizer for one run: a non-nil
// per-run Settings.Sanitizer wins over the pipeline-wide one.
func (p *Pipeline) sanitizerFor(s engine.Settings) sanitize.Func {
	if s.Sanitizer != nil {
		return s.Sanitizer
	}
	return p.sanitizer
}

func defaultNewChat(s engine.Settings) (ChatFunc, error) {
	client, err := llm.NewClient(llm.Config{
		APIKey:  s.OpenAI.APIKey,
		BaseURL: s.OpenAI.BaseURL,
		Model:   s.OpenAI.Model,
		QPS:     s.QPS,
	})
	if err != nil {
		return nil, err
	}
	return client.Complete, nil
}

// TranslateStream starts one run and returns its event stream. The
// settings are assumed validated; the producer goroutine owns all
// further work and terminates the stream on every exit path.
func (p *Pipeline) TranslateStream(ctx context.Context, settings engine.Settings) (*engine.Stream, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	stream := engine.NewStream(cancel)
	go p.run(runCtx, settings, stream)
	return stream, nil
}

func (p *Pipeline) run(ctx context.Context, s engine.Settings, stream *engine.Stream) {
	start := time.Now()

	if !stream.Emit(ctx, progressEvent("load", 0, 0)) {
		stream.CloseSend(ctx.Err())
		return
	}

	doc, err := loadDocument(s.InputFile)
	if err != nil {
		stream.CloseSend(fmt.Errorf("load document: %w", err))
		return
	}

	selector, err := parsePageRange(s.Pages)
	if err != nil {
		stream.CloseSend(fmt.Errorf("invalid page range %q: %w", s.Pages, err))
		return
	}
	pages := selectPages(doc.Pages, selector)
	if len(pages) == 0 {
		stream.CloseSend(fmt.Errorf("page range %q selects no pages", s.Pages))
		return
	}

	if !stream.Emit(ctx, progressEvent("load", 100, weightLoad)) {
		stream.CloseSend(ctx.Err())
		return
	}

	chat, err := p.newChat(s)
	if err != nil {
		stream.CloseSend(fmt.Errorf("create translation client: %w", err))
		return
	}

	translated := make([]page, 0, len(pages))
	var glossary []glossaryEntry

	parts := partitionPages(pages, s.MaxPagesPerPart)
	done := 0
	for partIdx, part := range parts {
		if len(parts) > 1 {
			log.Debug("Translating part %d/%d (%d pages)", partIdx+1, len(parts), len(part))
		}
		for _, pg := range part {
			out, pairs, chunkErr := p.translatePage(ctx, chat, s, pg)
			if chunkErr != nil {
				if ctx.Err() != nil {
					stream.CloseSend(ctx.Err())
					return
				}
				// Non-fatal: this page keeps its source text and the
				// run continues.
				if !stream.Emit(ctx, engine.Event{
					Type:      engine.EventError,
					ErrorType: "translate",
					Message:   fmt.Sprintf("page %d fell back to source text: %v", pg.Number, chunkErr),
				}) {
					stream.CloseSend(ctx.Err())
					return
				}
			}
			translated = append(translated, out)
			glossary = append(glossary, pairs...)

			done++
			frac := float64(done) / float64(len(pages))
			if !stream.Emit(ctx, progressEvent("translate", frac*100, weightLoad+weightTranslate*frac)) {
				stream.CloseSend(ctx.Err())
				return
			}
		}
	}

	if !stream.Emit(ctx, progressEvent("compose", 0, weightLoad+weightTranslate)) {
		stream.CloseSend(ctx.Err())
		return
	}

	result, err := composeArtifacts(s, doc, translated, glossary)
	if err != nil {
		stream.CloseSend(fmt.Errorf("compose artifacts: %w", err))
		return
	}

	result.TotalSeconds = time.Since(start).Seconds()
	result.PeakMemoryMB = peakMemoryMB()

	if !stream.Emit(ctx, progressEvent("compose", 100, 100)) {
		stream.CloseSend(ctx.Err())
		return
	}
	if !stream.Emit(ctx, engine.Event{Type: engine.EventFinish, Result: result}) {
		stream.CloseSend(ctx.Err())
		return
	}
	stream.CloseSend(nil)
}

func progressEvent(stage string, stageProgress, overall float64) engine.Event {
	return engine.Event{
		Type:            engine.EventProgress,
		Stage:           stage,
		StageProgress:   stageProgress,
		OverallProgress: overall,
	}
}

func peakMemoryMB() float64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return float64(stats.HeapSys) / (1 << 20)
}

func loadDocument(path string) (document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document{}, err
	}
	return parseDocument(string(data)), nil
}
