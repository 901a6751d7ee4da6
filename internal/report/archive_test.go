package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, sampleReport()))
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, buf.Bytes()[:4], "zstd frame magic")

	got, err := ReadArchive(&buf)
	require.NoError(t, err)

	assert.Equal(t, "run-0001", got.RunID)
	assert.Len(t, got.Results, 4)
	assert.True(t, Summarize(got).BlocksValuation())
}

func TestSaveAndLoadArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run"+ArchiveExt)

	require.NoError(t, SaveArchive(path, sampleReport()))
	got, err := LoadArchive(path)
	require.NoError(t, err)

	assert.Equal(t, Summarize(sampleReport()), Summarize(got))
}

func TestLoadArchiveErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadArchive(filepath.Join(dir, "missing"+ArchiveExt))
	require.Error(t, err)

	plain := filepath.Join(dir, "plain.json")
	require.NoError(t, os.WriteFile(plain, []byte(`{"report":{}}`), 0o644))
	_, err = LoadArchive(plain)
	require.Error(t, err)
}
