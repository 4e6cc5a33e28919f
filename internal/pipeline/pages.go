package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// document is a parsed input file: pages of paragraph fragments.
// Pages are separated by form feed in the source; a document without
// form feeds is a single page.
type document struct {
	Pages []page
}

type page struct {
	Number    int // 1-based position in the source document
	Fragments []string
}

func parseDocument(text string) document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimPrefix(text, "\uFEFF")

	raw := strings.Split(text, "\f")
	pages := make([]page, 0, len(raw))
	for i, chunk := range raw {
		pages = append(pages, page{
			Number:    i + 1,
			Fragments: splitFragments(chunk),
		})
	}
	return document{Pages: pages}
}

// splitFragments breaks page text into paragraph fragments on blank
// lines, preserving intra-paragraph newlines.
func splitFragments(text string) []string {
	var fragments []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		fragments = append(fragments, block)
	}
	return fragments
}

// pageRange is one selected span; To == 0 means open-ended.
type pageRange struct {
	From int
	To   int
}

// parsePageRange parses the page subset syntax from the CLI:
// "1,2,1-,-3,3-5". An empty spec selects every page.
func parsePageRange(spec string) ([]pageRange, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var ranges []pageRange
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty range element")
		}

		if !strings.Contains(part, "-") {
			n, err := strconv.Atoi(part)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("bad page number %q", part)
			}
			ranges = append(ranges, pageRange{From: n, To: n})
			continue
		}

		fromStr, toStr, _ := strings.Cut(part, "-")
		r := pageRange{From: 1}
		if fromStr != "" {
			n, err := strconv.Atoi(fromStr)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("bad range start %q", part)
			}
			r.From = n
		}
		if toStr != "" {
			n, err := strconv.Atoi(toStr)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("bad range end %q", part)
			}
			r.To = n
		}
		if r.To != 0 && r.To < r.From {
			return nil, fmt.Errorf("inverted range %q", part)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// selectPages filters pages by the parsed ranges; nil ranges keep
// everything.
func selectPages(pages []page, ranges []pageRange) []page {
	if ranges == nil {
		return pages
	}
	var out []page
	for _, pg := range pages {
		for _, r := range ranges {
			if pg.Number >= r.From && (r.To == 0 || pg.Number <= r.To) {
				out = append(out, pg)
				break
			}
		}
	}
	return out
}

// partitionPages splits the selected pages into parts of at most
// maxPerPart pages. Zero means a single part.
func partitionPages(pages []page, maxPerPart int) [][]page {
	if maxPerPart <= 0 || len(pages) <= maxPerPart {
		return [][]page{pages}
	}
	var parts [][]page
	for start := 0; start < len(pages); start += maxPerPart {
		end := min(start+maxPerPart, len(pages))
		parts = append(parts, pages[start:end])
	}
	return parts
}
