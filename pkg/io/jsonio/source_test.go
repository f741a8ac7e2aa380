package jsonio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/sparkify/pkg/frame"
	"github.com/wdm0006/sparkify/pkg/logger"
	"github.com/wdm0006/sparkify/pkg/storage"
	"github.com/wdm0006/sparkify/pkg/storage/local"
)

func writeFile(t *testing.T, p, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestSourceStreamsOneChunkPerFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "log_data", "2018", "11", "a.json"), "{\"id\":\"a\"}\n{\"id\":\"b\"}\n")
	writeFile(t, filepath.Join(dir, "log_data", "2018", "11", "b.json"), "{\"id\":\"c\"}\n{\"id\":1.5,\"n\":\"x\"}\n")
	writeFile(t, filepath.Join(dir, "log_data", "2018", "notes.txt"), "ignored")

	ctx := context.Background()
	loc, err := storage.Parse(dir)
	require.NoError(t, err)
	st := local.New()
	keys, err := storage.Glob(ctx, st, loc, "log_data/*/*/*.json")
	require.NoError(t, err)
	require.Len(t, keys, 2)

	log := logger.NewTestLogger()
	src := NewSource(ctx, st, keys, ReaderOptions{Schema: testSchema, Malformed: PolicySkip}, log)
	col := frame.NewCollector(testSchema)
	require.NoError(t, frame.RunStream(ctx, frame.NewPipeline(), src, col))

	assert.Equal(t, 3, col.Frame().Rows())
	assert.Equal(t, 1, src.Skipped())
	assert.Equal(t, 1, log.Count("WARN"))

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}
