package transfer

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleObserverPlainOutput(t *testing.T) {
	var out bytes.Buffer
	opened := false
	obs := NewConsoleObserver(&out)
	obs.ChatMode = true
	obs.OnOpen = func() { opened = true }

	obs.ChannelOpened(ChannelLabel)
	assert.True(t, opened)
	assert.Contains(t, out.String(), ChannelLabel)
	assert.Contains(t, out.String(), `"bye"`)

	obs.ChatReceived("hello")
	assert.Contains(t, out.String(), "hello")

	meta := FileMetadata{FileName: "a.bin", FileSize: 2048}
	obs.SendStarted(meta)
	obs.SendProgress(meta, 1024)
	obs.SendFinished(meta, time.Second, nil)
	assert.Contains(t, out.String(), "Sending a.bin")
	assert.Contains(t, out.String(), "Sent a.bin")

	obs.SendFinished(meta, time.Second, errors.New("boom"))
	assert.Contains(t, out.String(), "boom")

	obs.Warning(fmt.Errorf("%w: stray chunk", ErrProtocolViolation))
	assert.Contains(t, out.String(), "stray chunk")

	obs.ChannelClosed(fmt.Errorf("%w: ice", ErrTransportFailure))
	assert.Contains(t, out.String(), "Connection lost")
}

func TestConsoleObserverReceive(t *testing.T) {
	var out bytes.Buffer
	obs := NewConsoleObserver(&out)

	w, err := NewFileWriter(FileMetadata{FileName: "b.txt", FileSize: 3}, &TransferOptions{OutputDir: t.TempDir()})
	require.NoError(t, err)
	obs.ReceiveStarted(w)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	obs.ReceiveProgress(w)
	obs.ReceiveCompleted(w)

	assert.Contains(t, out.String(), "Receiving b.txt")
	assert.Contains(t, out.String(), w.Path)

	obs.ReceiveFailed(w, &TransferError{Op: "receive", File: "b.txt", Err: ErrIncompleteTransfer})
	assert.Contains(t, out.String(), "Partial file kept")
}
