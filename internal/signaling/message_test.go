package signaling

import (
	"encoding/base64"
	"testing"

	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tameszaza/p2p/internal/config"
)

const testSDP = "v=0\r\no=- 4215 2 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\n"

func TestEncodeDecodeJSON(t *testing.T) {
	offer := pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: testSDP}

	blob, err := Encode(offer, config.EncodingJSON)
	require.NoError(t, err)
	assert.Contains(t, blob, `"type":"offer"`)
	assert.NotContains(t, blob, "\n", "description must fit on one line")

	got, err := Decode(blob, pion.SDPTypeOffer)
	require.NoError(t, err)
	assert.Equal(t, offer, got)
}

func TestDecodeAcceptsBase64(t *testing.T) {
	answer := pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: testSDP}

	blob, err := Encode(answer, config.EncodingBase64)
	require.NoError(t, err)
	_, err = base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	got, err := Decode("  "+blob+"  ", pion.SDPTypeAnswer)
	require.NoError(t, err)
	assert.Equal(t, answer, got)
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  pion.SDPType
	}{
		{"empty", "   ", pion.SDPTypeAnswer},
		{"garbage", "this is not a description", pion.SDPTypeAnswer},
		{"truncated json", `{"sdp":"v=0`, pion.SDPTypeAnswer},
		{"missing sdp", `{"type":"answer"}`, pion.SDPTypeAnswer},
		{"missing type", `{"sdp":"v=0\r\n"}`, pion.SDPTypeAnswer},
		{"sdp not a string", `{"sdp":42,"type":"answer"}`, pion.SDPTypeAnswer},
		{"empty sdp", `{"sdp":"","type":"answer"}`, pion.SDPTypeAnswer},
		{"unknown type", `{"sdp":"v=0\r\n","type":"pranswer-ish"}`, pion.SDPTypeAnswer},
		{"wrong kind", `{"sdp":"v=0\r\n","type":"offer"}`, pion.SDPTypeAnswer},
		{"array", `[1,2,3]`, pion.SDPTypeOffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input, tt.want)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrHandshakeParse)

			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
			assert.NotEmpty(t, perr.Reason)
		})
	}
}

func TestDecodeLeavesSDPContentAlone(t *testing.T) {
	got, err := Decode(`{"sdp":"hello","type":"answer"}`, pion.SDPTypeAnswer)
	require.NoError(t, err)
	assert.Equal(t, pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: "hello"}, got)
}
