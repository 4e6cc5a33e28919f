package sanitize

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean_PassesThroughValidJSON(t *testing.T) {
	in := `[{"id": 0, "output": "你好世界"}]`
	require.Equal(t, in, Clean(in))
}

func TestClean_StripsJSONTagWrapper(t *testing.T) {
	in := `<json>[{"id": 0, "output": "你好世界"}]</json>`
	require.Equal(t, `[{"id": 0, "output": "你好世界"}]`, Clean(in))
}

func TestClean_StripsCodeFence(t *testing.T) {
	in := "```json\n[{\"id\": 0, \"output\": \"你好世界\"}]\n```"
	require.Equal(t, `[{"id": 0, "output": "你好世界"}]`, Clean(in))
}

func TestClean_StripsBareCodeFence(t *testing.T) {
	in := "```\n[{\"id\": 0}]\n```"
	require.Equal(t, `[{"id": 0}]`, Clean(in))
}

func TestClean_RemovesDisallowedControlCharacters(t *testing.T) {
	for code := 0; code < 32; code++ {
		if code == '\t' || code == '\n' || code == '\r' {
			continue
		}
		t.Run(fmt.Sprintf("code_%d", code), func(t *testing.T) {
			ch := string(rune(code))
			in := `[{"id": 0, "output": "你好` + ch + `世界"}]`
			got := Clean(in)
			assert.NotContains(t, got, ch)
			assert.Contains(t, got, "你好世界")
		})
	}
}

func TestClean_PreservesTabNewlineCarriageReturn(t *testing.T) {
	for _, ch := range []string{"\t", "\n", "\r"} {
		in := `{"output": "a` + ch + `b"}`
		assert.Contains(t, Clean(in), ch)
	}
}

func TestClean_RemovesConsecutiveControlCharacters(t *testing.T) {
	in := `[{"id": 0, "output": "This is` + "\x01\x02\x03" + `a test"}]`
	cleaned := Clean(in)

	var parsed []struct {
		ID     int    `json:"id"`
		Output string `json:"output"`
	}
	require.NoError(t, json.Unmarshal([]byte(cleaned), &parsed))
	require.Len(t, parsed, 1)
	require.Equal(t, "This isa test", parsed[0].Output)
}

func TestClean_ParseableAfterRepair(t *testing.T) {
	in := "```json\n" + `[{"id": 0, "output": "这是一个测试th` + "\x08\x1b" + `世界"}]` + "\n```"
	cleaned := Clean(in)

	var parsed []struct {
		ID     int    `json:"id"`
		Output string `json:"output"`
	}
	require.NoError(t, json.Unmarshal([]byte(cleaned), &parsed))
	require.Equal(t, "这是一个测试th世界", parsed[0].Output)
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		`[{"id": 0, "output": "plain"}]`,
		`<json>{"a": 1}</json>`,
		"```json\n{\"a\": 1}\n```",
		"```{\"a\": 1}```",
		"  \x00\x1f{\"a\": \"你好\tth\"}  ",
		"",
		"not json at all",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestClean_TotalOnGarbage(t *testing.T) {
	require.Equal(t, "", Clean(""))
	require.Equal(t, "", Clean("   \n\t  "))
	require.Equal(t, "", Clean(strings.Repeat("\x00", 16)))
}

func TestClean_UsableAsFunc(t *testing.T) {
	var f Func = Clean
	in := `<json>{"a": "b` + "\x00" + `"}</json>`
	require.Equal(t, Clean(in), f(in))
}
