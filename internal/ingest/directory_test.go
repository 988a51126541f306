package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepspec/deepspec/internal/store"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
}

func TestIngestDirectory_LoadsOnlyPDFs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf")
	writeFile(t, dir, "b.PDF")
	writeFile(t, dir, "notes.txt")
	writeFile(t, dir, ".hidden.pdf")

	st := store.New()
	results, stats, err := IngestDirectory(st, dir, nil)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(0), stats.Failed)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, st.Len())
}

func TestIngestDirectory_WalksSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2026")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, dir, "top.pdf")
	writeFile(t, sub, "nested.pdf")

	st := store.New()
	_, stats, err := IngestDirectory(st, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), stats.Succeeded)

	_, err = st.Get("nested.pdf")
	assert.NoError(t, err)
}

func TestIngestDirectory_DuplicateBasenameFails(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "copy")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, dir, "same.pdf")
	writeFile(t, sub, "same.pdf")

	st := store.New()
	_, stats, err := IngestDirectory(st, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Equal(t, 1, st.Len())
}

func TestIngestDirectory_EmptyRootRejected(t *testing.T) {
	_, _, err := IngestDirectory(store.New(), "  ", nil)
	assert.Error(t, err)
}
