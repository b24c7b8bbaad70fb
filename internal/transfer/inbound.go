package transfer

import (
	"sync"
)

// Inbound holds the single in-flight incoming transfer. Every
// check-then-act runs under the lock.
type Inbound struct {
	mu      sync.Mutex
	current *FileWriter
	opts    *TransferOptions
}

func NewInbound(opts *TransferOptions) *Inbound {
	return &Inbound{opts: opts}
}

// Begin starts receiving meta. If a transfer is already running it is
// detached and closed, and a *ConflictError carrying it is returned; meta is
// not started. A zero-size file is created and finished at once, reported by
// done.
func (in *Inbound) Begin(meta FileMetadata) (w *FileWriter, done bool, err error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.current != nil {
		dropped := in.current
		in.current = nil
		_ = dropped.Close()
		return nil, false, &ConflictError{Announced: meta, Dropped: dropped}
	}

	w, err = NewFileWriter(meta, in.opts)
	if err != nil {
		return nil, false, err
	}

	if w.IsComplete() {
		if err := w.Close(); err != nil {
			return w, true, NewFileError("close", meta.FileName, err)
		}
		return w, true, nil
	}

	in.current = w
	return w, false, nil
}

// Append writes one chunk to the running transfer. With no transfer running
// the chunk is rejected with ErrProtocolViolation. When the announced size is
// reached the sink is closed and the slot cleared, exactly once.
func (in *Inbound) Append(data []byte) (w *FileWriter, done bool, err error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.current == nil {
		return nil, false, WrapError("receive chunk", ErrProtocolViolation, "binary data without a file announcement")
	}

	w = in.current
	if _, err := w.Write(data); err != nil {
		in.current = nil
		_ = w.Close()
		return w, false, err
	}

	if !w.IsComplete() {
		return w, false, nil
	}

	in.current = nil
	if err := w.Close(); err != nil {
		return w, true, NewFileError("close", w.Metadata.FileName, err)
	}
	return w, true, nil
}

// active returns the running transfer, if any.
func (in *Inbound) active() *FileWriter {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current
}

// Abort detaches and closes the running transfer, leaving the partial file
// on disk. It returns nil when nothing was running.
func (in *Inbound) Abort() *FileWriter {
	in.mu.Lock()
	defer in.mu.Unlock()

	w := in.current
	if w == nil {
		return nil
	}
	in.current = nil
	_ = w.Close()
	return w
}
