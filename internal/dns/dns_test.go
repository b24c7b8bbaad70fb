package dns

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLookup(table map[string]string) LookupFunc {
	return func(host string) (string, error) {
		if ip, ok := table[host]; ok {
			return ip, nil
		}
		return "", errors.New("no such host")
	}
}

func TestResolveICEURL(t *testing.T) {
	lookup := stubLookup(map[string]string{
		"stun.example.com":  "203.0.113.7",
		"relay.example.com": "198.51.100.2",
		"v6.example.com":    "2001:db8::1",
	})

	tests := []struct {
		in   string
		want string
	}{
		{"stun:stun.example.com:19302", "stun:203.0.113.7:19302"},
		{"turn:relay.example.com:3478?transport=udp", "turn:198.51.100.2:3478?transport=udp"},
		{"stun:v6.example.com:3478", "stun:[2001:db8::1]:3478"},
		{"stun:v6.example.com", "stun:[2001:db8::1]"},
		{"stun:stun.example.com", "stun:203.0.113.7"},
		{"turns:relay.example.com:5349?transport=tcp", "turns:relay.example.com:5349?transport=tcp"},
		{"stun:192.0.2.1:3478", "stun:192.0.2.1:3478"},
		{"stun:unknown.example.com:3478", "stun:unknown.example.com:3478"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveICEURL(tt.in, lookup))
		})
	}
}

func TestResolveICEURLs(t *testing.T) {
	lookup := stubLookup(map[string]string{"stun.example.com": "203.0.113.7"})

	assert.Nil(t, ResolveICEURLs(nil, lookup))
	assert.Equal(t,
		[]string{"stun:203.0.113.7:3478", "turns:stun.example.com:5349"},
		ResolveICEURLs([]string{"stun:stun.example.com:3478", "turns:stun.example.com:5349"}, lookup),
	)
}

func TestPickIPPrefersIPv4(t *testing.T) {
	ip, err := pickIP([]string{"2001:db8::1", "192.0.2.10"})
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.10", ip)

	ip, err = pickIP([]string{"2001:db8::1"})
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", ip)

	_, err = pickIP(nil)
	assert.Error(t, err)
}
