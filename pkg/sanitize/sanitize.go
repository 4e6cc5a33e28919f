// Package sanitize repairs semi-structured text returned by LLM calls
// before it is handed to a strict JSON decoder.
//
// Models occasionally wrap their JSON reply in <json> tags or fenced
// code blocks, and sometimes emit stray low-range control bytes next to
// multi-byte sequences. encoding/json rejects any unescaped control
// character, which used to push the caller onto a lossy fallback path
// that dropped fragments of translated text. Clean removes exactly the
// disallowed bytes and wrappers, nothing else.
package sanitize

import "strings"

// Func is the sanitizer contract. Engine implementations accept a Func
// so the repaired behavior is wired in by composition.
type Func func(raw string) string

// Clean normalizes a raw model reply into text suitable for a strict
// JSON parse attempt. It is total: it never fails and never drops
// anything except wrapper markers and disallowed control characters.
//
// Steps, in order:
//  1. trim surrounding whitespace
//  2. strip a leading <json> tag
//  3. strip a trailing </json> tag
//  4. strip a leading ```json fence, or a bare ``` fence
//  5. strip a trailing ``` fence
//  6. drop every control character in [0, 31] except \t, \n, \r
//  7. trim again
func Clean(raw string) string {
	s := strings.TrimSpace(raw)

	s = strings.TrimPrefix(s, "<json>")
	s = strings.TrimSuffix(s, "</json>")

	if rest, ok := strings.CutPrefix(s, "```json"); ok {
		s = rest
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(s, "```")

	s = strings.Map(dropControl, s)

	return strings.TrimSpace(s)
}

// dropControl removes C0 control characters that encoding/json rejects
// inside string literals. Tab, LF and CR survive; everything at or
// above 0x20, including all non-ASCII runes, passes through untouched.
func dropControl(r rune) rune {
	if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
		return -1
	}
	return r
}
