package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tameszaza/p2p/internal/webrtc"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is the side a peer plays in the handshake.
type Role string

const (
	RoleOffer  Role = "offer"
	RoleAnswer Role = "answer"
)

// ParseRole accepts "offer" or "answer" in any case.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleOffer:
		return RoleOffer, nil
	case RoleAnswer:
		return RoleAnswer, nil
	}
	return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownRole, s, RoleOffer, RoleAnswer)
}

// PeerSession is the state of one process run.
type PeerSession struct {
	ID       string
	Role     Role
	FilePath string

	mu      sync.Mutex
	channel webrtc.Channel
}

func NewPeerSession(role Role, filePath string) *PeerSession {
	return &PeerSession{
		ID:       uuid.NewString(),
		Role:     role,
		FilePath: filePath,
	}
}

// Attach records the negotiated channel.
func (s *PeerSession) Attach(ch webrtc.Channel) {
	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()
}

// Channel returns the negotiated channel, nil before the handshake ends.
func (s *PeerSession) Channel() webrtc.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

// State is connecting until a channel exists, then the channel's state.
func (s *PeerSession) State() webrtc.State {
	ch := s.Channel()
	if ch == nil {
		return webrtc.StateConnecting
	}
	return ch.ReadyState()
}
