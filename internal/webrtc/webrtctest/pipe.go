// Package webrtctest provides an in-memory implementation of webrtc.Channel
// for exercising code that sits on top of a data channel.
package webrtctest

import (
	"context"
	"sync"

	"github.com/tameszaza/p2p/internal/webrtc"
)

const queueSize = 1024

// Channel is one end of an in-memory channel pair.
type Channel struct {
	label string
	peer  *Channel
	link  *link

	events chan webrtc.Event
	done   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	sent     []webrtc.Message
	closeErr error
	// hold is non-nil while the simulated send buffer is not drained.
	hold    chan struct{}
	flushes int
}

type link struct {
	mu    sync.Mutex
	state webrtc.State
}

// Pipe returns two connected channels in the connecting state. Call Open to
// deliver the open event to both ends.
func Pipe(label string) (*Channel, *Channel) {
	l := &link{state: webrtc.StateConnecting}
	a := newChannel(label, l)
	b := newChannel(label, l)
	a.peer, b.peer = b, a
	return a, b
}

func newChannel(label string, l *link) *Channel {
	return &Channel{
		label:  label,
		link:   l,
		events: make(chan webrtc.Event, queueSize),
		done:   make(chan struct{}),
	}
}

// Open moves both ends to open and emits the open events.
func (c *Channel) Open() {
	c.link.mu.Lock()
	c.link.state = webrtc.StateOpen
	c.link.mu.Unlock()
	c.deliver(webrtc.Event{Type: webrtc.EventOpen})
	c.peer.deliver(webrtc.Event{Type: webrtc.EventOpen})
}

// Fail emits a transport error on both ends.
func (c *Channel) Fail(err error) {
	c.deliver(webrtc.Event{Type: webrtc.EventError, Err: err})
	c.peer.deliver(webrtc.Event{Type: webrtc.EventError, Err: err})
}

// Inject delivers a message to this end as if the peer had sent it.
func (c *Channel) Inject(msg webrtc.Message) {
	c.deliver(webrtc.Event{Type: webrtc.EventMessage, Message: msg})
}

func (c *Channel) deliver(ev webrtc.Event) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Sent returns every message written on this end.
func (c *Channel) Sent() []webrtc.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]webrtc.Message(nil), c.sent...)
}

// HoldFlush simulates unacknowledged data: Flush blocks until
// ReleaseFlush is called.
func (c *Channel) HoldFlush() {
	c.mu.Lock()
	if c.hold == nil {
		c.hold = make(chan struct{})
	}
	c.mu.Unlock()
}

// ReleaseFlush lets pending and future Flush calls return.
func (c *Channel) ReleaseFlush() {
	c.mu.Lock()
	if c.hold != nil {
		close(c.hold)
		c.hold = nil
	}
	c.mu.Unlock()
}

// Flushes returns how many times Flush was called.
func (c *Channel) Flushes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushes
}

// SetCloseError makes Close return err.
func (c *Channel) SetCloseError(err error) {
	c.mu.Lock()
	c.closeErr = err
	c.mu.Unlock()
}

func (c *Channel) Label() string {
	return c.label
}

func (c *Channel) ReadyState() webrtc.State {
	c.link.mu.Lock()
	defer c.link.mu.Unlock()
	return c.link.state
}

func (c *Channel) SendText(text string) error {
	return c.send(webrtc.Message{IsString: true, Data: []byte(text)})
}

func (c *Channel) Send(data []byte) error {
	return c.send(webrtc.Message{Data: append([]byte(nil), data...)})
}

func (c *Channel) send(msg webrtc.Message) error {
	switch c.ReadyState() {
	case webrtc.StateOpen:
	case webrtc.StateConnecting:
		return webrtc.ErrChannelNotOpen
	default:
		return webrtc.ErrChannelClosed
	}

	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()

	c.peer.deliver(webrtc.Event{Type: webrtc.EventMessage, Message: msg})
	return nil
}

func (c *Channel) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.flushes++
	hold := c.hold
	c.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return webrtc.ErrChannelClosed
		}
	}
	if c.ReadyState() != webrtc.StateOpen {
		return webrtc.ErrChannelClosed
	}
	return nil
}

func (c *Channel) Events() <-chan webrtc.Event {
	return c.events
}

// Close closes the pair. The remote end receives a close event; this end
// stops delivering events.
func (c *Channel) Close() error {
	c.link.mu.Lock()
	wasClosed := c.link.state == webrtc.StateClosed
	c.link.state = webrtc.StateClosed
	c.link.mu.Unlock()

	c.once.Do(func() { close(c.done) })
	if !wasClosed {
		c.peer.deliver(webrtc.Event{Type: webrtc.EventClose})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

var _ webrtc.Channel = (*Channel)(nil)
