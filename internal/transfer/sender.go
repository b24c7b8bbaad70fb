package transfer

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/tameszaza/p2p/internal/webrtc"
)

// FileSender streams one file as an announcement followed by fixed-size
// binary chunks. The last chunk is short and unpadded; nothing follows it.
type FileSender struct {
	// OnStart is called once the announcement has been sent.
	OnStart func(meta FileMetadata)

	channel webrtc.Channel
	buffer  []byte
}

func NewFileSender(ch webrtc.Channel, chunkSize int) *FileSender {
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}
	return &FileSender{
		channel: ch,
		buffer:  make([]byte, chunkSize),
	}
}

// SendFile announces name and streams the file at path. onProgress, if set,
// is called with the running byte count after every chunk.
func (s *FileSender) SendFile(ctx context.Context, path, name string, onProgress func(sent int64)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, NewFileError("open", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return 0, NewFileError("stat", path, err)
	}
	return s.Send(ctx, file, FileMetadata{FileName: name, FileSize: stat.Size()}, onProgress)
}

// Send announces meta and streams exactly meta.FileSize bytes from r. It
// returns once the peer has acknowledged every chunk, so a nil error means
// the data has left this side.
func (s *FileSender) Send(ctx context.Context, r io.Reader, meta FileMetadata, onProgress func(sent int64)) (int64, error) {
	if s.channel.ReadyState() != webrtc.StateOpen {
		return 0, NewFileError("send", meta.FileName, ErrChannelNotOpen)
	}

	announcement, err := EncodeFileMeta(meta)
	if err != nil {
		return 0, NewFileError("send", meta.FileName, err)
	}
	if err := s.channel.SendText(announcement); err != nil {
		return 0, NewFileError("announce", meta.FileName, err)
	}
	if s.OnStart != nil {
		s.OnStart(meta)
	}

	src := io.LimitReader(r, meta.FileSize)
	var sent int64
	for {
		if err := ctx.Err(); err != nil {
			return sent, NewFileError("send", meta.FileName, err)
		}
		if s.channel.ReadyState() != webrtc.StateOpen {
			return sent, NewFileError("send", meta.FileName, ErrChannelClosed)
		}

		n, err := io.ReadFull(src, s.buffer)
		if n > 0 {
			if sendErr := s.channel.Send(s.buffer[:n]); sendErr != nil {
				return sent, NewFileError("send chunk", meta.FileName, sendErr)
			}
			sent += int64(n)
			if onProgress != nil {
				onProgress(sent)
			}
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			if sent < meta.FileSize {
				return sent, WrapError("send "+meta.FileName, ErrIncompleteTransfer, "file shrank while sending")
			}
			if err := s.channel.Flush(ctx); err != nil {
				return sent, NewFileError("flush", meta.FileName, err)
			}
			return sent, nil
		default:
			return sent, NewFileError("read", meta.FileName, err)
		}
	}
}
