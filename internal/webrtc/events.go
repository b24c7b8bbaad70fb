package webrtc

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoRemoteDescription = errors.New("no remote offer has been applied")
	ErrChannelNotOpen      = errors.New("channel not open")
	ErrChannelClosed       = errors.New("channel closed")
	ErrBufferTimeout       = errors.New("buffer drain timeout")
	ErrConnectionFailed    = errors.New("peer connection failed")
)

// State mirrors the data channel ready-state.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EventType identifies what happened on a channel.
type EventType int

const (
	EventOpen EventType = iota
	EventMessage
	EventClose
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Message is one data channel message. Text and binary messages stay
// distinguishable so control text never mixes with file payload.
type Message struct {
	IsString bool
	Data     []byte
}

// Text returns the message payload as a string.
func (m Message) Text() string {
	return string(m.Data)
}

// Event is delivered in order on a channel's event queue.
type Event struct {
	Type    EventType
	Message Message
	Err     error
}

// Channel is an ordered, reliable, message-oriented duplex channel.
type Channel interface {
	Label() string
	ReadyState() State
	SendText(text string) error
	Send(data []byte) error
	// Flush waits until everything queued has been handed to the peer.
	Flush(ctx context.Context) error
	// Events yields open, message, close and error events in arrival order.
	Events() <-chan Event
	Close() error
}
