// Package console turns blocking terminal input into a channel of lines so
// the handshake and the chat loop can select on it alongside network events.
package console

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// maxLineSize fits a pasted session description with many candidates.
const maxLineSize = 1 << 20

// Reader reads lines from an io.Reader on its own goroutine.
type Reader struct {
	lines chan string
	done  chan struct{}
	once  sync.Once

	mu  sync.Mutex
	err error
}

// NewReader starts reading r. The Lines channel is closed at EOF or on a
// read error.
func NewReader(r io.Reader) *Reader {
	cr := &Reader{
		lines: make(chan string),
		done:  make(chan struct{}),
	}
	go cr.run(r)
	return cr
}

func (r *Reader) run(src io.Reader) {
	defer close(r.lines)

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		select {
		case <-r.done:
			return
		default:
		}
		select {
		case r.lines <- line:
		case <-r.done:
			return
		}
	}

	r.mu.Lock()
	r.err = scanner.Err()
	r.mu.Unlock()
}

// Lines returns the channel of input lines without their line endings.
func (r *Reader) Lines() <-chan string {
	return r.lines
}

// Err reports the read error that ended the stream, nil at EOF.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Stop makes the reader drop further lines. A read already blocked on the
// underlying source is not interrupted.
func (r *Reader) Stop() {
	r.once.Do(func() { close(r.done) })
}
