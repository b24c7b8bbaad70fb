package webrtc_test

import (
	"context"
	"testing"
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tameszaza/p2p/internal/config"
	"github.com/tameszaza/p2p/internal/webrtc"
	"github.com/tameszaza/p2p/internal/webrtc/webrtctest"
)

func waitForEvent(ctx context.Context, t *testing.T, ch webrtc.Channel, want webrtc.EventType) webrtc.Event {
	t.Helper()
	for {
		select {
		case ev := <-ch.Events():
			if ev.Type == want {
				return ev
			}
			require.NotEqual(t, webrtc.EventError, ev.Type, "unexpected error: %v", ev.Err)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}

func TestCreateAnswerRequiresRemoteOffer(t *testing.T) {
	engine, err := webrtc.NewEngine(pion.Configuration{}, webrtctest.QuietLogger())
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.CreateAnswer()
	assert.ErrorIs(t, err, webrtc.ErrNoRemoteDescription)
}

func TestLocalDescriptionBeforeSet(t *testing.T) {
	engine, err := webrtc.NewEngine(pion.Configuration{}, webrtctest.QuietLogger())
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.LocalDescription(context.Background())
	assert.Error(t, err)
}

// connect runs a full offer/answer exchange between two engines and returns
// both ends of the data channel once they are open.
func connect(ctx context.Context, t *testing.T, offerer, answerer *webrtc.Engine) (local, remote webrtc.Channel) {
	t.Helper()

	local, err := offerer.CreateChannel("p2p-data-channel")
	require.NoError(t, err)

	offer, err := offerer.CreateOffer()
	require.NoError(t, err)
	require.NoError(t, offerer.SetLocalDescription(offer))
	offer, err = offerer.LocalDescription(ctx)
	require.NoError(t, err)

	require.NoError(t, answerer.SetRemoteDescription(offer))
	answer, err := answerer.CreateAnswer()
	require.NoError(t, err)
	require.NoError(t, answerer.SetLocalDescription(answer))
	answer, err = answerer.LocalDescription(ctx)
	require.NoError(t, err)
	require.NoError(t, offerer.SetRemoteDescription(answer))

	select {
	case remote = <-answerer.RemoteChannels():
	case <-ctx.Done():
		t.Fatal("remote channel never arrived")
	}
	waitForEvent(ctx, t, local, webrtc.EventOpen)
	waitForEvent(ctx, t, remote, webrtc.EventOpen)
	return local, remote
}

func TestEngineHandshakeOverVirtualNetwork(t *testing.T) {
	offerer, answerer := webrtctest.NewVNetPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	local, err := offerer.CreateChannel("p2p-data-channel")
	require.NoError(t, err)
	assert.Equal(t, webrtc.StateConnecting, local.ReadyState())
	assert.ErrorIs(t, local.SendText("too early"), webrtc.ErrChannelNotOpen)

	offer, err := offerer.CreateOffer()
	require.NoError(t, err)
	require.NoError(t, offerer.SetLocalDescription(offer))
	offer, err = offerer.LocalDescription(ctx)
	require.NoError(t, err)
	assert.Equal(t, pion.SDPTypeOffer, offer.Type)

	require.NoError(t, answerer.SetRemoteDescription(offer))
	answer, err := answerer.CreateAnswer()
	require.NoError(t, err)
	require.NoError(t, answerer.SetLocalDescription(answer))
	answer, err = answerer.LocalDescription(ctx)
	require.NoError(t, err)

	require.NoError(t, offerer.SetRemoteDescription(answer))

	var remote webrtc.Channel
	select {
	case remote = <-answerer.RemoteChannels():
	case <-ctx.Done():
		t.Fatal("remote channel never arrived")
	}
	assert.Equal(t, "p2p-data-channel", remote.Label())

	waitForEvent(ctx, t, local, webrtc.EventOpen)
	waitForEvent(ctx, t, remote, webrtc.EventOpen)
	assert.Equal(t, webrtc.StateOpen, local.ReadyState())

	require.NoError(t, local.SendText("hello"))
	require.NoError(t, local.Send([]byte{0x00, 0x01, 0xff}))

	ev := waitForEvent(ctx, t, remote, webrtc.EventMessage)
	assert.True(t, ev.Message.IsString)
	assert.Equal(t, "hello", ev.Message.Text())

	ev = waitForEvent(ctx, t, remote, webrtc.EventMessage)
	assert.False(t, ev.Message.IsString)
	assert.Equal(t, []byte{0x00, 0x01, 0xff}, ev.Message.Data)

	require.NoError(t, local.Close())
	waitForEvent(ctx, t, remote, webrtc.EventClose)
}

func TestICEConfiguration(t *testing.T) {
	cfg := &config.Config{
		STUNServer: "stun:stun.example.com:19302",
		TURNServer: "turn:relay.example.com:3478",
		TURNUser:   "user",
		TURNPass:   "secret",
		ForceRelay: true,
	}
	lookup := func(host string) (string, error) { return "192.0.2.1", nil }

	ice := webrtc.ICEConfiguration(cfg, lookup)
	require.Len(t, ice.ICEServers, 2)
	assert.Equal(t, []string{"stun:192.0.2.1:19302"}, ice.ICEServers[0].URLs)
	assert.Equal(t, []string{"turn:192.0.2.1:3478"}, ice.ICEServers[1].URLs)
	assert.Equal(t, "user", ice.ICEServers[1].Username)
	assert.Equal(t, "secret", ice.ICEServers[1].Credential)
	assert.Equal(t, pion.ICETransportPolicyRelay, ice.ICETransportPolicy)

	cfg = &config.Config{STUNServer: "stun:stun.example.com:19302"}
	ice = webrtc.ICEConfiguration(cfg, nil)
	require.Len(t, ice.ICEServers, 1)
	assert.Equal(t, []string{"stun:stun.example.com:19302"}, ice.ICEServers[0].URLs)
	assert.Equal(t, pion.ICETransportPolicyAll, ice.ICETransportPolicy)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "connecting", webrtc.StateConnecting.String())
	assert.Equal(t, "open", webrtc.StateOpen.String())
	assert.Equal(t, "closing", webrtc.StateClosing.String())
	assert.Equal(t, "closed", webrtc.StateClosed.String())
	assert.Equal(t, "message", webrtc.EventMessage.String())
}

func TestFlushDeliversEverythingBeforeTeardown(t *testing.T) {
	offerer, answerer := webrtctest.NewVNetPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	local, remote := connect(ctx, t, offerer, answerer)

	const total = 8 << 20
	received := make(chan int64, 1)
	go func() {
		var n int64
		for n < total {
			select {
			case ev := <-remote.Events():
				if ev.Type == webrtc.EventMessage {
					n += int64(len(ev.Message.Data))
				}
				if ev.Type == webrtc.EventClose || ev.Type == webrtc.EventError {
					received <- n
					return
				}
			case <-ctx.Done():
				received <- n
				return
			}
		}
		received <- n
	}()

	chunk := make([]byte, 16000)
	for sent := 0; sent < total; sent += len(chunk) {
		n := min(len(chunk), total-sent)
		require.NoError(t, local.Send(chunk[:n]))
	}
	require.NoError(t, local.Flush(ctx))

	// Tear the sender down the way an interrupt does.
	require.NoError(t, local.Close())
	require.NoError(t, offerer.Close())

	assert.Equal(t, int64(total), <-received)
}

func TestSetRemoteDescriptionJudgesSDPContent(t *testing.T) {
	_, answerer := webrtctest.NewVNetPair(t)
	err := answerer.SetRemoteDescription(pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: "hello"})
	assert.Error(t, err)
}
