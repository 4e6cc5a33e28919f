package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newModelServer fakes an OpenAI-compatible endpoint that translates
// the batch protocol by prefixing every input with "[T]".
func newModelServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)

		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		var items []struct {
			ID    int    `json:"id"`
			Input string `json:"input"`
		}
		require.NoError(t, json.Unmarshal([]byte(req.Messages[1].Content), &items))

		outputs := make([]map[string]any, len(items))
		for i, item := range items {
			outputs[i] = map[string]any{"id": item.ID, "output": "[T]" + item.Input}
		}
		payload, err := json.Marshal(outputs)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "```json\n" + string(payload) + "\n```"}},
			},
		})
	}))
}

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	content := fmt.Sprintf(`{
		"openai_api_key": "sk-test",
		"openai_base_url": %q,
		"qps": 0,
		"min_text_length": 1
	}`, baseURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Flag values stick between Execute calls on the shared rootCmd.
	for _, c := range rootCmd.Commands() {
		c.Flags().Visit(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTranslateCommand_EndToEnd(t *testing.T) {
	server := newModelServer(t)
	defer server.Close()

	dir := t.TempDir()
	input := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(input, []byte("hello world"), 0o644))

	output, err := runCommand(t,
		"translate",
		"-i", input,
		"-c", writeTestConfig(t, server.URL),
	)
	require.NoError(t, err, output)
	assert.Contains(t, output, "Translation complete")
	assert.Contains(t, output, "Mono output:")

	mono := filepath.Join(dir, "report.zh.mono.txt")
	content, err := os.ReadFile(mono)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[T]hello world")
}

func TestTranslateCommand_MissingInputFlag(t *testing.T) {
	_, err := runCommand(t, "translate", "-c", "unused.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--input")
}

func TestTranslateCommand_MissingInputFile(t *testing.T) {
	server := newModelServer(t)
	defer server.Close()

	output, err := runCommand(t,
		"translate",
		"-i", filepath.Join(t.TempDir(), "gone.txt"),
		"-c", writeTestConfig(t, server.URL),
	)
	require.Error(t, err)
	assert.Contains(t, output, "InputNotFound")
}

func TestCreateConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.json")

	output, err := runCommand(t, "create-config", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, output, "Example config written")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "your-api-key-here")
}
