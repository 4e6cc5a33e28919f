package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boyingliu01/pdf-translation/internal/jobs"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestService(t *testing.T, dirs ...string) (*Service, *jobs.Queue) {
	t.Helper()
	q := jobs.NewQueue(1, nil)
	svc := NewService(Config{
		Dirs:    dirs,
		LangIn:  "en",
		LangOut: "zh",
	}, q, nil)
	return svc, q
}

func TestScan_EnqueuesUntranslatedDocuments(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "report.txt", "hello world")
	writeDoc(t, dir, "notes.md", "some notes")
	writeDoc(t, dir, "image.png", "not a document")

	svc, q := newTestService(t, dir)
	require.NoError(t, svc.Scan(context.Background()))

	all := q.List()
	require.Len(t, all, 2)

	inputs := []string{all[0].Payload.InputFile, all[1].Payload.InputFile}
	assert.Contains(t, inputs, doc)
	for _, job := range all {
		assert.Equal(t, "watch", job.Source)
		assert.Equal(t, "zh", job.Payload.LangOut)
	}
}

func TestScan_SkipsAlreadyTranslated(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "report.txt", "hello world")
	writeDoc(t, dir, "report.zh.mono.txt", "translated output")

	svc, q := newTestService(t, dir)
	require.NoError(t, svc.Scan(context.Background()))

	assert.Empty(t, q.List(), "source with an existing mono artifact is skipped")
}

func TestScan_SkipsPipelineArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "report.zh.dual.txt", "dual output")
	writeDoc(t, dir, "report.zh.mono.no_watermark.txt", "plain output")

	svc, q := newTestService(t, dir)
	require.NoError(t, svc.Scan(context.Background()))

	assert.Empty(t, q.List(), "artifacts are never re-enqueued as inputs")
}

func TestScan_RepeatedScansDedupe(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "report.txt", "hello world")

	svc, q := newTestService(t, dir)
	require.NoError(t, svc.Scan(context.Background()))
	require.NoError(t, svc.Scan(context.Background()))

	assert.Len(t, q.List(), 1, "second scan dedupes on input path")
}

func TestScan_MissingDirFails(t *testing.T) {
	svc, _ := newTestService(t, "/does/not/exist")
	err := svc.Scan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestScan_WalksNestedDirs(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeDoc(t, nested, "deep.txt", "nested document")

	svc, q := newTestService(t, dir)
	require.NoError(t, svc.Scan(context.Background()))

	all := q.List()
	require.Len(t, all, 1)
	assert.Equal(t, filepath.Join(nested, "deep.txt"), all[0].Payload.InputFile)
}
