package transfer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboundCompletesOnAnnouncedSize(t *testing.T) {
	dir := t.TempDir()
	in := NewInbound(&TransferOptions{OutputDir: dir})

	w, done, err := in.Begin(FileMetadata{FileName: "a.bin", FileSize: 5})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Same(t, w, in.active())

	_, done, err = in.Append([]byte("abc"))
	require.NoError(t, err)
	assert.False(t, done)

	got, done, err := in.Append([]byte("de"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Same(t, w, got)
	assert.Nil(t, in.active())

	data, err := os.ReadFile(filepath.Join(dir, "received_a.bin"))
	require.NoError(t, err)
	assert.Equal(t, "abcde", string(data))

	_, _, err = in.Append([]byte("f"))
	assert.ErrorIs(t, err, ErrProtocolViolation, "a finished transfer takes no more chunks")
}

func TestInboundZeroSize(t *testing.T) {
	dir := t.TempDir()
	in := NewInbound(&TransferOptions{OutputDir: dir})

	w, done, err := in.Begin(FileMetadata{FileName: "empty", FileSize: 0})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Nil(t, in.active())

	info, err := os.Stat(w.Path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestInboundUniqueNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "received_a.txt"), []byte("old"), 0o644))

	in := NewInbound(&TransferOptions{OutputDir: dir})
	w, _, err := in.Begin(FileMetadata{FileName: "a.txt", FileSize: 1})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "received_a (1).txt"), w.Path)
	in.Abort()

	data, err := os.ReadFile(filepath.Join(dir, "received_a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data), "existing files are never overwritten")
}

func TestInboundConflict(t *testing.T) {
	in := NewInbound(&TransferOptions{OutputDir: t.TempDir()})

	first, _, err := in.Begin(FileMetadata{FileName: "first", FileSize: 10})
	require.NoError(t, err)
	_, _, err = in.Append([]byte("1234"))
	require.NoError(t, err)

	w, done, err := in.Begin(FileMetadata{FileName: "second", FileSize: 3})
	assert.Nil(t, w)
	assert.False(t, done)
	assert.ErrorIs(t, err, ErrConcurrentTransfer)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Same(t, first, conflict.Dropped)
	assert.Equal(t, int64(4), conflict.Dropped.ReceivedBytes)
	assert.Nil(t, in.active())
}

func TestInboundAbort(t *testing.T) {
	in := NewInbound(&TransferOptions{OutputDir: t.TempDir()})
	assert.Nil(t, in.Abort())

	w, _, err := in.Begin(FileMetadata{FileName: "x", FileSize: 10})
	require.NoError(t, err)
	assert.Same(t, w, in.Abort())
	assert.Nil(t, in.active())

	_, err = w.File.Write([]byte("late"))
	assert.Error(t, err, "sink is closed")
}

func TestInboundRejectsBadNames(t *testing.T) {
	in := NewInbound(&TransferOptions{OutputDir: t.TempDir()})
	_, _, err := in.Begin(FileMetadata{FileName: "../escape", FileSize: 1})
	assert.ErrorIs(t, err, ErrInvalidFileName)
	assert.Nil(t, in.active())
}
