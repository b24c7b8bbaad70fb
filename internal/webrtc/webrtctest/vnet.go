package webrtctest

import (
	"io"
	"log/slog"
	"testing"
	"time"

	pionlog "github.com/pion/logging"
	"github.com/pion/transport/v3/vnet"
	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/tameszaza/p2p/internal/webrtc"
)

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewVNetPair returns two engines attached to one virtual LAN, so a full
// handshake runs without touching the host network. Everything is torn
// down when the test ends.
func NewVNetPair(t testing.TB) (offerer, answerer *webrtc.Engine) {
	t.Helper()

	wan, err := vnet.NewRouter(&vnet.RouterConfig{
		CIDR:          "1.2.3.0/24",
		LoggerFactory: pionlog.NewDefaultLoggerFactory(),
	})
	require.NoError(t, err)

	newNet := func(ip string) *vnet.Net {
		n, err := vnet.NewNet(&vnet.NetConfig{StaticIPs: []string{ip}})
		require.NoError(t, err)
		require.NoError(t, wan.AddNet(n))
		return n
	}
	offerNet := newNet("1.2.3.4")
	answerNet := newNet("1.2.3.5")

	require.NoError(t, wan.Start())
	t.Cleanup(func() { _ = wan.Stop() })

	withNet := func(n *vnet.Net) webrtc.Option {
		return func(se *pion.SettingEngine) {
			se.SetNet(n)
			se.SetICETimeouts(time.Second, time.Second, 200*time.Millisecond)
		}
	}

	offerer, err = webrtc.NewEngine(pion.Configuration{}, QuietLogger(), withNet(offerNet))
	require.NoError(t, err)
	t.Cleanup(func() { _ = offerer.Close() })

	answerer, err = webrtc.NewEngine(pion.Configuration{}, QuietLogger(), withNet(answerNet))
	require.NoError(t, err)
	t.Cleanup(func() { _ = answerer.Close() })

	return offerer, answerer
}
