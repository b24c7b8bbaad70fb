package signaling

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pion "github.com/pion/webrtc/v4"

	"github.com/tameszaza/p2p/internal/config"
)

// ErrHandshakeParse marks a pasted description that could not be used.
var ErrHandshakeParse = errors.New("malformed session description")

// ParseError explains why a pasted description was rejected.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrHandshakeParse, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrHandshakeParse, e.Reason)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrHandshakeParse, e.Err}
	}
	return []error{ErrHandshakeParse}
}

// Envelope is the JSON form of a session description exchanged by hand.
type Envelope struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}

// Encode renders desc as a single line in the given encoding.
func Encode(desc pion.SessionDescription, encoding string) (string, error) {
	data, err := json.Marshal(Envelope{SDP: desc.SDP, Type: desc.Type.String()})
	if err != nil {
		return "", fmt.Errorf("encode description: %w", err)
	}
	if encoding == config.EncodingBase64 {
		return base64.StdEncoding.EncodeToString(data), nil
	}
	return string(data), nil
}

// Decode parses a pasted description. Both raw JSON and base64-wrapped JSON
// are accepted. The description must be of kind want. The SDP body is passed
// through untouched; the peer connection judges its content.
func Decode(text string, want pion.SDPType) (pion.SessionDescription, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return pion.SessionDescription{}, &ParseError{Reason: "empty input"}
	}

	data := []byte(text)
	if !strings.HasPrefix(text, "{") {
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return pion.SessionDescription{}, &ParseError{Reason: "not JSON or base64", Err: err}
		}
		data = decoded
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return pion.SessionDescription{}, &ParseError{Reason: "invalid JSON", Err: err}
	}

	var env Envelope
	fields := []struct {
		name string
		dst  *string
	}{{"sdp", &env.SDP}, {"type", &env.Type}}
	for _, f := range fields {
		field, dst := f.name, f.dst
		value, ok := raw[field]
		if !ok {
			return pion.SessionDescription{}, &ParseError{Reason: fmt.Sprintf("missing %q field", field)}
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return pion.SessionDescription{}, &ParseError{Reason: fmt.Sprintf("field %q is not a string", field), Err: err}
		}
	}

	if strings.TrimSpace(env.SDP) == "" {
		return pion.SessionDescription{}, &ParseError{Reason: "empty sdp"}
	}

	kind := pion.NewSDPType(env.Type)
	switch kind {
	case pion.SDPTypeOffer, pion.SDPTypeAnswer:
	default:
		return pion.SessionDescription{}, &ParseError{Reason: fmt.Sprintf("unknown description type %q", env.Type)}
	}
	if kind != want {
		return pion.SessionDescription{}, &ParseError{Reason: fmt.Sprintf("expected %s, got %s", want, kind)}
	}

	return pion.SessionDescription{Type: kind, SDP: env.SDP}, nil
}
