package engine

import "fmt"

// Result is the record produced exactly once at job completion.
// Artifact paths are independently optional depending on the run
// toggles; absent artifacts are reported as empty strings, never
// fabricated.
type Result struct {
	OriginalPath        string  `json:"original_path"`
	MonoPath            string  `json:"mono_path"`
	DualPath            string  `json:"dual_path"`
	NoWatermarkMonoPath string  `json:"no_watermark_mono_path"`
	NoWatermarkDualPath string  `json:"no_watermark_dual_path"`
	GlossaryPath        string  `json:"auto_extracted_glossary_path"`
	TotalSeconds        float64 `json:"total_seconds"`
	PeakMemoryMB        float64 `json:"peak_memory_usage"`
}

func (r Result) String() string {
	return fmt.Sprintf("TranslationResult{original: %s, mono: %s, dual: %s, time: %.2fs, memory: %.2fMB}",
		r.OriginalPath, r.MonoPath, r.DualPath, r.TotalSeconds, r.PeakMemoryMB)
}

// DecodeResult materializes a Result from a finish-event payload. Two
// payload shapes are accepted: an already-typed *Result, or a
// string-keyed map with the same field names where absent fields
// default to zero. Any other shape is a schema mismatch and fails
// loudly rather than defaulting silently.
func DecodeResult(payload any) (*Result, error) {
	switch v := payload.(type) {
	case *Result:
		if v == nil {
			return nil, fmt.Errorf("finish payload is a nil result")
		}
		out := *v
		return &out, nil
	case Result:
		out := v
		return &out, nil
	case map[string]any:
		return &Result{
			OriginalPath:        mapString(v, "original_path"),
			MonoPath:            mapString(v, "mono_path"),
			DualPath:            mapString(v, "dual_path"),
			NoWatermarkMonoPath: mapString(v, "no_watermark_mono_path"),
			NoWatermarkDualPath: mapString(v, "no_watermark_dual_path"),
			GlossaryPath:        mapString(v, "auto_extracted_glossary_path"),
			TotalSeconds:        mapFloat(v, "total_seconds"),
			PeakMemoryMB:        mapFloat(v, "peak_memory_usage"),
		}, nil
	default:
		return nil, fmt.Errorf("unrecognized finish payload shape %T", payload)
	}
}

func mapString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func mapFloat(m map[string]any, key string) float64 {
	switch n := m[key].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
