package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/boyingliu01/pdf-translation/internal/engine"
	"github.com/boyingliu01/pdf-translation/pkg/log"
)

// Artifact name suffixes. Output files sit next to each other in the
// output directory, named <stem>.<lang>.<variant><ext>.
const (
	suffixMono        = "mono"
	suffixDual        = "dual"
	suffixNoWatermark = "no_watermark"
)

// composeArtifacts writes the output files selected by the run
// toggles and returns the result record pointing at them. Absent
// artifacts stay empty in the result, never fabricated.
func composeArtifacts(s engine.Settings, doc document, translated []page, glossary []glossaryEntry) (*engine.Result, error) {
	outputDir := s.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(s.InputFile)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	original, err := filepath.Abs(s.InputFile)
	if err != nil {
		original = s.InputFile
	}
	result := &engine.Result{OriginalPath: original}

	watermarked := s.Watermark == engine.WatermarkWatermarked || s.Watermark == engine.WatermarkBoth
	plain := s.Watermark == engine.WatermarkNone || s.Watermark == engine.WatermarkBoth

	write := func(variant string, content string, dest *string) error {
		path := artifactPath(s, outputDir, variant)
		if err := writeArtifact(path, content, s.EnhanceCompatibility); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Debug("Wrote artifact %s", path)
		*dest = path
		return nil
	}

	if !s.NoMono {
		content := renderMono(translated)
		if watermarked {
			if err := write(suffixMono, watermark(s)+content, &result.MonoPath); err != nil {
				return nil, err
			}
		}
		if plain {
			if err := write(suffixMono+"."+suffixNoWatermark, content, &result.NoWatermarkMonoPath); err != nil {
				return nil, err
			}
		}
	}

	if !s.NoDual {
		content := renderDual(doc, translated)
		if watermarked {
			if err := write(suffixDual, watermark(s)+content, &result.DualPath); err != nil {
				return nil, err
			}
		}
		if plain {
			if err := write(suffixDual+"."+suffixNoWatermark, content, &result.NoWatermarkDualPath); err != nil {
				return nil, err
			}
		}
	}

	if s.AutoExtractGlossary && len(glossary) > 0 {
		path := filepath.Join(outputDir, fmt.Sprintf("%s.%s.glossary.csv", inputStem(s), s.LangOut))
		if err := writeGlossary(path, glossary); err != nil {
			return nil, fmt.Errorf("write glossary: %w", err)
		}
		result.GlossaryPath = path
	}

	return result, nil
}

func inputStem(s engine.Settings) string {
	base := filepath.Base(s.InputFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func artifactPath(s engine.Settings, outputDir, variant string) string {
	ext := filepath.Ext(s.InputFile)
	return filepath.Join(outputDir, fmt.Sprintf("%s.%s.%s%s", inputStem(s), s.LangOut, variant, ext))
}

// watermark is the banner prepended to watermarked variants.
func watermark(s engine.Settings) string {
	return fmt.Sprintf("Translated by pdf-translation (%s -> %s)\n\n", s.LangIn, s.LangOut)
}

// renderMono joins the translated fragments back into pages, pages
// separated by form feed like the source.
func renderMono(pages []page) string {
	parts := make([]string, 0, len(pages))
	for _, pg := range pages {
		parts = append(parts, strings.Join(pg.Fragments, "\n\n"))
	}
	return strings.Join(parts, "\n\f\n") + "\n"
}

// renderDual interleaves each source fragment with its translation,
// fragment pairs separated by blank lines.
func renderDual(doc document, pages []page) string {
	originals := make(map[int][]string, len(doc.Pages))
	for _, pg := range doc.Pages {
		originals[pg.Number] = pg.Fragments
	}

	parts := make([]string, 0, len(pages))
	for _, pg := range pages {
		source := originals[pg.Number]
		var b strings.Builder
		for i, frag := range pg.Fragments {
			if i > 0 {
				b.WriteString("\n\n")
			}
			if i < len(source) && source[i] != frag {
				b.WriteString(source[i])
				b.WriteString("\n")
			}
			b.WriteString(frag)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\f\n") + "\n"
}

// writeArtifact writes content to path. Compatibility mode targets
// legacy Windows viewers: UTF-8 BOM plus CRLF line endings.
func writeArtifact(path, content string, enhanceCompatibility bool) error {
	if enhanceCompatibility {
		content = "\uFEFF" + strings.ReplaceAll(content, "\n", "\r\n")
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func writeGlossary(path string, entries []glossaryEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"source", "target"}); err != nil {
		return err
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Source] {
			continue
		}
		seen[e.Source] = true
		if err := w.Write([]string{e.Source, e.Target}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
