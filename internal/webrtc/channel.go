package webrtc

import (
	"context"
	"log/slog"
	"sync"
	"time"

	pion "github.com/pion/webrtc/v4"
)

// Buffer management
const (
	HighWaterMark = 2 * 1024 * 1024 // backpressure threshold
	LowWaterMark  = 512 * 1024      // resume threshold

	SendTimeout = 60 * time.Second

	flushPollInterval = 20 * time.Millisecond

	eventQueueSize = 256
)

// dataChannel adapts a pion DataChannel to Channel. pion callbacks run on
// pion goroutines; each one is turned into an Event on a single queue.
type dataChannel struct {
	dc     *pion.DataChannel
	logger *slog.Logger

	events   chan Event
	closed   chan struct{}
	stopOnce sync.Once
	lowWater chan struct{}

	sendMu sync.Mutex
}

func newDataChannel(dc *pion.DataChannel, logger *slog.Logger) *dataChannel {
	c := &dataChannel{
		dc:       dc,
		logger:   logger.With("channel", dc.Label()),
		events:   make(chan Event, eventQueueSize),
		closed:   make(chan struct{}),
		lowWater: make(chan struct{}, 1),
	}

	dc.SetBufferedAmountLowThreshold(LowWaterMark)
	dc.OnBufferedAmountLow(func() {
		select {
		case c.lowWater <- struct{}{}:
		default:
		}
	})

	dc.OnOpen(func() {
		c.logger.Debug("data channel open")
		c.push(Event{Type: EventOpen})
	})

	dc.OnMessage(func(msg pion.DataChannelMessage) {
		c.push(Event{
			Type:    EventMessage,
			Message: Message{IsString: msg.IsString, Data: msg.Data},
		})
	})

	dc.OnError(func(err error) {
		c.logger.Warn("data channel error", "error", err)
		c.push(Event{Type: EventError, Err: err})
	})

	dc.OnClose(func() {
		c.logger.Debug("data channel closed")
		c.push(Event{Type: EventClose})
		c.stop()
	})

	return c
}

// push blocks until the event is consumed or the channel is gone, so no
// message is ever dropped while someone is listening.
func (c *dataChannel) push(ev Event) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.events <- ev:
	case <-c.closed:
	}
}

// fail reports a transport failure seen on the peer connection.
func (c *dataChannel) fail(err error) {
	c.push(Event{Type: EventError, Err: err})
}

func (c *dataChannel) stop() {
	c.stopOnce.Do(func() { close(c.closed) })
}

func (c *dataChannel) Label() string {
	return c.dc.Label()
}

func (c *dataChannel) ReadyState() State {
	switch c.dc.ReadyState() {
	case pion.DataChannelStateOpen:
		return StateOpen
	case pion.DataChannelStateClosing:
		return StateClosing
	case pion.DataChannelStateClosed:
		return StateClosed
	}
	return StateConnecting
}

func (c *dataChannel) Events() <-chan Event {
	return c.events
}

func (c *dataChannel) SendText(text string) error {
	if c.ReadyState() != StateOpen {
		return ErrChannelNotOpen
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.dc.SendText(text)
}

// Send queues a binary message, waiting while the send buffer is above the
// high-water mark.
func (c *dataChannel) Send(data []byte) error {
	if c.ReadyState() != StateOpen {
		return ErrChannelNotOpen
	}
	if err := c.waitForWindow(); err != nil {
		return err
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.dc.Send(data)
}

func (c *dataChannel) waitForWindow() error {
	buffered := c.dc.BufferedAmount()
	if buffered < HighWaterMark {
		return nil
	}

	timer := time.NewTimer(SendTimeout)
	defer timer.Stop()

	for c.dc.BufferedAmount() >= HighWaterMark {
		select {
		case <-c.lowWater:
		case <-c.closed:
			return ErrChannelClosed
		case <-timer.C:
			if c.dc.BufferedAmount() < buffered {
				return nil
			}
			return ErrBufferTimeout
		}
	}
	return nil
}

// Flush blocks until the send buffer is empty, meaning the peer has
// acknowledged every queued message. It gives up with ErrBufferTimeout when
// the buffer stops draining for SendTimeout.
func (c *dataChannel) Flush(ctx context.Context) error {
	buffered := c.dc.BufferedAmount()
	if buffered == 0 {
		return nil
	}

	ticker := time.NewTicker(flushPollInterval)
	defer ticker.Stop()
	stalled := time.NewTimer(SendTimeout)
	defer stalled.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return ErrChannelClosed
		case <-stalled.C:
			return ErrBufferTimeout
		case <-ticker.C:
		}

		now := c.dc.BufferedAmount()
		if now == 0 {
			return nil
		}
		if c.ReadyState() != StateOpen {
			return ErrChannelClosed
		}
		if now < buffered {
			buffered = now
			stalled.Reset(SendTimeout)
		}
	}
}

// Close closes the data channel. Events that arrive afterwards, including
// the close notification, are discarded.
func (c *dataChannel) Close() error {
	c.stop()
	return c.dc.Close()
}
