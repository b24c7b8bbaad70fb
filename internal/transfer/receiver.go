package transfer

import (
	"os"
	"path/filepath"
	"time"

	"github.com/tameszaza/p2p/internal/utils"
)

// FileWriter is the sink of one inbound transfer.
type FileWriter struct {
	File          *os.File
	Path          string
	Metadata      FileMetadata
	ReceivedBytes int64
	StartedAt     time.Time
}

// NewFileWriter creates "received_<name>" in the output directory, picking
// a free name if one already exists.
func NewFileWriter(meta FileMetadata, opts *TransferOptions) (*FileWriter, error) {
	if err := meta.Validate(); err != nil {
		return nil, NewFileError("receive", meta.FileName, err)
	}

	dir := "."
	if opts != nil && opts.OutputDir != "" {
		dir = opts.OutputDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewFileError("create directory", dir, err)
		}
	}

	path := utils.GetUniqueFilename(filepath.Join(dir, ReceivedPrefix+meta.FileName))
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, NewFileError("create file", meta.FileName, err)
	}

	return &FileWriter{
		File:      file,
		Path:      path,
		Metadata:  meta,
		StartedAt: time.Now(),
	}, nil
}

func (w *FileWriter) Write(data []byte) (int, error) {
	n, err := w.File.Write(data)
	w.ReceivedBytes += int64(n)
	if err != nil {
		return n, NewFileError("write", w.Metadata.FileName, err)
	}
	return n, nil
}

// IsComplete reports whether the announced size has been reached. A final
// chunk may overshoot it.
func (w *FileWriter) IsComplete() bool {
	return w.ReceivedBytes >= w.Metadata.FileSize
}

// Overshoot is how many bytes beyond the announced size were written.
func (w *FileWriter) Overshoot() int64 {
	return max(0, w.ReceivedBytes-w.Metadata.FileSize)
}

func (w *FileWriter) Elapsed() time.Duration {
	return time.Since(w.StartedAt)
}

func (w *FileWriter) Close() error {
	return w.File.Close()
}
