package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialRecord(t *testing.T) {
	w, err := NewFileWriter(FileMetadata{FileName: "movie.mkv", FileSize: 1000}, &TransferOptions{OutputDir: t.TempDir()})
	require.NoError(t, err)
	_, err = w.Write(make([]byte, 250))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path, err := WritePartialRecord(w, "channel closed", "session-1")
	require.NoError(t, err)
	assert.Equal(t, w.Path+PartialSuffix, path)

	record, err := ReadPartialRecord(path)
	require.NoError(t, err)
	assert.Equal(t, "movie.mkv", record.FileName)
	assert.Equal(t, w.Path, record.Path)
	assert.Equal(t, int64(1000), record.Expected)
	assert.Equal(t, int64(250), record.Received)
	assert.Equal(t, "session-1", record.Session)
	assert.False(t, record.RecordedAt.IsZero())
	assert.Equal(t, "movie.mkv: 250 of 1000 bytes (channel closed)", record.String())
}

func TestReadPartialRecordMissing(t *testing.T) {
	_, err := ReadPartialRecord("does-not-exist.partial")
	assert.Error(t, err)
}
