// Package engine defines the boundary to a translation engine: the
// validated run settings handed to it, the typed lifecycle events it
// emits while a run is in flight, and the result record it produces on
// completion. The job controller in internal/runner consumes this
// boundary; internal/pipeline provides the built-in implementation.
package engine

import (
	"context"
	"fmt"

	"github.com/boyingliu01/pdf-translation/pkg/file"
	"github.com/boyingliu01/pdf-translation/pkg/sanitize"
	"golang.org/x/text/language"
)

// Vendor selects which backend serves a run.
type Vendor string

const VendorOpenAI Vendor = "openai"

// WatermarkMode controls which output variants carry the translation
// watermark banner.
type WatermarkMode string

const (
	WatermarkWatermarked WatermarkMode = "watermarked"
	WatermarkNone        WatermarkMode = "no_watermark"
	WatermarkBoth        WatermarkMode = "both"
)

// OpenAISettings carries credentials for the OpenAI-compatible vendor.
type OpenAISettings struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Settings is the immutable configuration for one run. It is built by
// the caller, validated once, and then treated as read-only for the
// duration of the run.
type Settings struct {
	InputFile string
	OutputDir string
	LangIn    language.Tag
	LangOut   language.Tag

	Vendor Vendor
	OpenAI OpenAISettings

	// Behavior knobs with documented defaults (see internal/config).
	QPS                int
	MinTextLength      int
	CustomSystemPrompt string
	Debug              bool

	// Output toggles.
	NoDual               bool
	NoMono               bool
	Watermark            WatermarkMode
	Pages                string
	MaxPagesPerPart      int
	EnhanceCompatibility bool
	AutoExtractGlossary  bool

	// Sanitizer is applied to every raw model reply before JSON
	// decoding is attempted. Optional; implementations degrade to
	// their native cleanup when nil.
	Sanitizer sanitize.Func
}

// Validate checks the invariants a run depends on: exactly one vendor
// with complete credentials, an existing input document, and sane
// knob values.
func (s Settings) Validate() error {
	if s.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if !file.IsRegular(s.InputFile) {
		return fmt.Errorf("input file does not exist: %s", s.InputFile)
	}
	switch s.Vendor {
	case VendorOpenAI:
		if s.OpenAI.APIKey == "" {
			return fmt.Errorf("openai_api_key is required for vendor %q", s.Vendor)
		}
		if s.OpenAI.Model == "" {
			return fmt.Errorf("openai_model is required for vendor %q", s.Vendor)
		}
	default:
		return fmt.Errorf("unsupported translation engine: %q", s.Vendor)
	}
	switch s.Watermark {
	case WatermarkWatermarked, WatermarkNone, WatermarkBoth:
	case "":
		return fmt.Errorf("watermark mode is required")
	default:
		return fmt.Errorf("unsupported watermark mode: %q", s.Watermark)
	}
	if s.QPS < 0 {
		return fmt.Errorf("qps must not be negative")
	}
	if s.MinTextLength < 0 {
		return fmt.Errorf("min_text_length must not be negative")
	}
	if s.MaxPagesPerPart < 0 {
		return fmt.Errorf("max_pages_per_part must not be negative")
	}
	return nil
}

// Engine is the streaming entry point of a translation backend. The
// returned stream yields zero or more progress/error events and, on a
// successful run, a single terminal finish event. The caller owns the
// stream and must Close it on every exit path.
type Engine interface {
	TranslateStream(ctx context.Context, settings Settings) (*Stream, error)
}
