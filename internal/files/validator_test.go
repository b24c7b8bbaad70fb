package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	info, err := ValidateFile(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.json", info.Name)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "application/json", info.Type)
	assert.True(t, filepath.IsAbs(info.Path))
}

func TestValidateFileAllowsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zzunknown")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	info, err := ValidateFile(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size)
	assert.Equal(t, "application/octet-stream", info.Type)
}

func TestValidateFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ValidateFile(filepath.Join(dir, "missing.txt"))
	assert.ErrorContains(t, err, "does not exist")

	_, err = ValidateFile(dir)
	assert.ErrorIs(t, err, ErrNotRegular)
}

func TestPrepareZipsDirectory(t *testing.T) {
	src := filepath.Join(t.TempDir(), "album")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("alpha"), 0o644))

	info, err := Prepare(src)
	require.NoError(t, err)
	assert.True(t, info.Archived)
	assert.Equal(t, "album.zip", info.Name)
	assert.Positive(t, info.Size)
	assert.FileExists(t, info.Path)

	info.Cleanup()
	assert.NoFileExists(t, info.Path)
}

func TestPrepareRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	info, err := Prepare(path)
	require.NoError(t, err)
	defer info.Cleanup()
	assert.False(t, info.Archived)
	assert.Equal(t, int64(3), info.Size)
}
