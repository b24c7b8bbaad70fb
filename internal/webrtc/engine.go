package webrtc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"
	"github.com/tameszaza/p2p/internal/config"
	"github.com/tameszaza/p2p/internal/dns"
	"github.com/tameszaza/p2p/internal/logging"
	"github.com/tameszaza/p2p/internal/utils"
)

// Option customises the pion SettingEngine before the peer connection is
// built. Tests use it to attach a virtual network.
type Option func(*pion.SettingEngine)

// Engine wraps a pion PeerConnection. Descriptions are handled whole (no
// trickle ICE): LocalDescription waits until gathering is complete so the
// printed description carries every candidate.
type Engine struct {
	pc     *pion.PeerConnection
	logger *slog.Logger

	remoteChannels chan Channel

	mu        sync.Mutex
	channels  []*dataChannel
	gathered  <-chan struct{}
	hasRemote bool
	closed    bool
}

// ICEConfiguration builds the pion configuration from cfg. STUN and TURN
// hosts go through lookup when it is not nil.
func ICEConfiguration(cfg *config.Config, lookup dns.LookupFunc) pion.Configuration {
	stunServers := cfg.GetSTUNServers()
	turnServers := cfg.GetTURNServers()
	if lookup != nil {
		stunServers = dns.ResolveICEURLs(stunServers, lookup)
		turnServers = dns.ResolveICEURLs(turnServers, lookup)
	}

	var iceServers []pion.ICEServer
	if len(stunServers) > 0 {
		iceServers = append(iceServers, pion.ICEServer{URLs: stunServers})
	}
	if turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	policy := pion.ICETransportPolicyAll
	if turnServers != nil && (cfg.ForceRelay || utils.ShouldForceRelay()) {
		policy = pion.ICETransportPolicyRelay
	}

	return pion.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	}
}

// NewEngine creates the peer connection described by iceConfig.
func NewEngine(iceConfig pion.Configuration, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	se := pion.SettingEngine{}
	se.LoggerFactory = logging.NewPionFactory(logger.With("component", "pion"))
	for _, opt := range opts {
		opt(&se)
	}

	api := pion.NewAPI(pion.WithSettingEngine(se))
	pc, err := api.NewPeerConnection(iceConfig)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	e := &Engine{
		pc:             pc,
		logger:         logger,
		remoteChannels: make(chan Channel, 4),
	}

	pc.OnDataChannel(func(dc *pion.DataChannel) {
		e.logger.Debug("remote data channel", "label", dc.Label())
		ch := e.track(dc)
		select {
		case e.remoteChannels <- ch:
		default:
			e.logger.Warn("dropping extra remote data channel", "label", dc.Label())
			_ = ch.Close()
		}
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		e.logger.Debug("peer connection state", "state", state.String())
		if state == pion.PeerConnectionStateFailed {
			e.failChannels(ErrConnectionFailed)
		}
	})

	return e, nil
}

func (e *Engine) track(dc *pion.DataChannel) *dataChannel {
	ch := newDataChannel(dc, e.logger)
	e.mu.Lock()
	e.channels = append(e.channels, ch)
	e.mu.Unlock()
	return ch
}

func (e *Engine) failChannels(err error) {
	e.mu.Lock()
	channels := append([]*dataChannel(nil), e.channels...)
	e.mu.Unlock()

	for _, ch := range channels {
		go ch.fail(err)
	}
}

// CreateChannel opens an ordered, reliable data channel.
func (e *Engine) CreateChannel(label string) (Channel, error) {
	ordered := true
	dc, err := e.pc.CreateDataChannel(label, &pion.DataChannelInit{
		Ordered: &ordered,
	})
	if err != nil {
		return nil, fmt.Errorf("create data channel: %w", err)
	}
	return e.track(dc), nil
}

// RemoteChannels delivers channels opened by the remote peer.
func (e *Engine) RemoteChannels() <-chan Channel {
	return e.remoteChannels
}

func (e *Engine) CreateOffer() (pion.SessionDescription, error) {
	offer, err := e.pc.CreateOffer(nil)
	if err != nil {
		return pion.SessionDescription{}, fmt.Errorf("create offer: %w", err)
	}
	return offer, nil
}

// CreateAnswer fails with ErrNoRemoteDescription until a remote offer has
// been applied.
func (e *Engine) CreateAnswer() (pion.SessionDescription, error) {
	e.mu.Lock()
	hasRemote := e.hasRemote
	e.mu.Unlock()
	if !hasRemote {
		return pion.SessionDescription{}, ErrNoRemoteDescription
	}

	answer, err := e.pc.CreateAnswer(nil)
	if err != nil {
		return pion.SessionDescription{}, fmt.Errorf("create answer: %w", err)
	}
	return answer, nil
}

func (e *Engine) SetLocalDescription(desc pion.SessionDescription) error {
	gathered := pion.GatheringCompletePromise(e.pc)
	if err := e.pc.SetLocalDescription(desc); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	e.mu.Lock()
	e.gathered = gathered
	e.mu.Unlock()
	return nil
}

func (e *Engine) SetRemoteDescription(desc pion.SessionDescription) error {
	if err := e.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	if desc.Type == pion.SDPTypeOffer {
		e.mu.Lock()
		e.hasRemote = true
		e.mu.Unlock()
	}
	return nil
}

// LocalDescription waits for ICE gathering to finish and returns the
// committed local description.
func (e *Engine) LocalDescription(ctx context.Context) (pion.SessionDescription, error) {
	e.mu.Lock()
	gathered := e.gathered
	e.mu.Unlock()
	if gathered == nil {
		return pion.SessionDescription{}, fmt.Errorf("local description not set")
	}

	select {
	case <-gathered:
	case <-ctx.Done():
		return pion.SessionDescription{}, ctx.Err()
	}

	desc := e.pc.LocalDescription()
	if desc == nil {
		return pion.SessionDescription{}, fmt.Errorf("local description not set")
	}
	return *desc, nil
}

// Close closes every channel and the peer connection.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	channels := e.channels
	e.mu.Unlock()

	for _, ch := range channels {
		ch.stop()
	}
	return e.pc.Close()
}
