package session

import (
	"context"
	"fmt"
	"log/slog"

	pion "github.com/pion/webrtc/v4"

	"github.com/tameszaza/p2p/internal/webrtc"
)

// Engine is the part of the WebRTC engine the handshake drives.
type Engine interface {
	CreateChannel(label string) (webrtc.Channel, error)
	RemoteChannels() <-chan webrtc.Channel
	CreateOffer() (pion.SessionDescription, error)
	CreateAnswer() (pion.SessionDescription, error)
	SetLocalDescription(desc pion.SessionDescription) error
	SetRemoteDescription(desc pion.SessionDescription) error
	LocalDescription(ctx context.Context) (pion.SessionDescription, error)
}

// Exchange moves descriptions between the peers out of band.
type Exchange interface {
	Publish(desc pion.SessionDescription) error
	Await(ctx context.Context, want pion.SDPType) (pion.SessionDescription, error)
}

// Negotiator runs the offer/answer handshake for one role.
type Negotiator struct {
	engine   Engine
	exchange Exchange
	label    string
	logger   *slog.Logger
}

func NewNegotiator(engine Engine, exchange Exchange, label string, logger *slog.Logger) *Negotiator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Negotiator{
		engine:   engine,
		exchange: exchange,
		label:    label,
		logger:   logger,
	}
}

// Negotiate performs the handshake for role and returns the data channel.
// The channel may still be connecting; its open event arrives on Events.
func (n *Negotiator) Negotiate(ctx context.Context, role Role) (webrtc.Channel, error) {
	switch role {
	case RoleOffer:
		return n.Offer(ctx)
	case RoleAnswer:
		return n.Answer(ctx)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// Offer creates the channel and the offer, publishes it and applies the
// pasted answer.
func (n *Negotiator) Offer(ctx context.Context) (webrtc.Channel, error) {
	channel, err := n.engine.CreateChannel(n.label)
	if err != nil {
		return nil, err
	}

	offer, err := n.engine.CreateOffer()
	if err != nil {
		return nil, err
	}
	if err := n.publishLocal(ctx, offer); err != nil {
		return nil, err
	}

	answer, err := n.exchange.Await(ctx, pion.SDPTypeAnswer)
	if err != nil {
		return nil, err
	}
	n.logger.Debug("answer received")

	if err := n.engine.SetRemoteDescription(answer); err != nil {
		return nil, err
	}
	return channel, nil
}

// Answer reads the pasted offer first, answers it and waits for the
// offerer's channel to arrive.
func (n *Negotiator) Answer(ctx context.Context) (webrtc.Channel, error) {
	offer, err := n.exchange.Await(ctx, pion.SDPTypeOffer)
	if err != nil {
		return nil, err
	}
	n.logger.Debug("offer received")

	if err := n.engine.SetRemoteDescription(offer); err != nil {
		return nil, err
	}

	answer, err := n.engine.CreateAnswer()
	if err != nil {
		return nil, err
	}
	if err := n.publishLocal(ctx, answer); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case channel := <-n.engine.RemoteChannels():
			if channel.Label() == n.label {
				return channel, nil
			}
			n.logger.Warn("ignoring data channel with unexpected label", "label", channel.Label())
			_ = channel.Close()
		}
	}
}

func (n *Negotiator) publishLocal(ctx context.Context, desc pion.SessionDescription) error {
	if err := n.engine.SetLocalDescription(desc); err != nil {
		return err
	}
	full, err := n.engine.LocalDescription(ctx)
	if err != nil {
		return err
	}
	n.logger.Debug("local description ready", "type", full.Type.String())
	return n.exchange.Publish(full)
}
