package fetcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKeys_RejectsTrailingSlash(t *testing.T) {
	err := validateKeys([]string{"a/b.parquet", "prefix/"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTrailingSlashKey)
}

func TestValidateKeys_AllowsPlainKeys(t *testing.T) {
	err := validateKeys([]string{"a.parquet", "nested/b.parquet"})
	require.NoError(t, err)
}

func TestLocalPathFor_PreservesNesting(t *testing.T) {
	got := localPathFor("/tmp/downloads", "2024/01/file.parquet")
	assert.Equal(t, filepath.Join("/tmp/downloads", "2024", "01", "file.parquet"), got)
}

func TestS3Fetcher_Delete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leftover.parquet")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	f := NewS3Fetcher(nil, 0, nil)
	require.NoError(t, f.Delete(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestS3Fetcher_DeleteMissingFileFails(t *testing.T) {
	f := NewS3Fetcher(nil, 0, nil)
	err := f.Delete(filepath.Join(t.TempDir(), "nonexistent"))
	require.Error(t, err)
}
