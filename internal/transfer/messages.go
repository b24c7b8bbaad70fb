package transfer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FileMetadata announces one outgoing file.
type FileMetadata struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// Validate checks the name is a bare file name and the size is sane.
func (m FileMetadata) Validate() error {
	if err := ValidateFileName(m.FileName); err != nil {
		return err
	}
	if m.FileSize < 0 {
		return fmt.Errorf("%w: negative size %d", ErrMalformedAnnouncement, m.FileSize)
	}
	return nil
}

// ValidateFileName rejects names that could escape the output directory.
func ValidateFileName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator or NUL", ErrInvalidFileName, name)
	}
	return nil
}

type controlEnvelope struct {
	Type     string `json:"type"`
	FileName string `json:"file_name,omitempty"`
	FileSize *int64 `json:"file_size,omitempty"`
}

// EncodeFileMeta renders the announcement sent before a file's chunks.
func EncodeFileMeta(meta FileMetadata) (string, error) {
	if err := meta.Validate(); err != nil {
		return "", err
	}
	size := meta.FileSize
	data, err := json.Marshal(controlEnvelope{
		Type:     MessageTypeFileMeta,
		FileName: meta.FileName,
		FileSize: &size,
	})
	if err != nil {
		return "", NewError("encode file metadata", err)
	}
	return string(data), nil
}

// EncodeKeepAlive renders the keep-alive envelope.
func EncodeKeepAlive() string {
	return `{"type":"` + MessageTypeKeepAlive + `"}`
}

// ControlKind classifies an inbound text message.
type ControlKind int

const (
	KindChat ControlKind = iota
	KindFileMeta
	KindKeepAlive
)

// ParseControl decides whether text is chat or a control envelope. Anything
// that is not a JSON object with a recognized "type" is chat. A file_meta
// envelope with bad fields returns ErrMalformedAnnouncement.
func ParseControl(text string) (ControlKind, FileMetadata, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return KindChat, FileMetadata{}, nil
	}

	var probe struct {
		Type any `json:"type"`
	}
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return KindChat, FileMetadata{}, nil
	}

	switch probe.Type {
	case MessageTypeKeepAlive:
		return KindKeepAlive, FileMetadata{}, nil
	case MessageTypeFileMeta:
	default:
		return KindChat, FileMetadata{}, nil
	}

	var env struct {
		FileName *string         `json:"file_name"`
		FileSize json.RawMessage `json:"file_size"`
	}
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return KindFileMeta, FileMetadata{}, fmt.Errorf("%w: %v", ErrMalformedAnnouncement, err)
	}
	if env.FileName == nil {
		return KindFileMeta, FileMetadata{}, fmt.Errorf("%w: missing file_name", ErrMalformedAnnouncement)
	}
	if len(env.FileSize) == 0 || string(env.FileSize) == "null" {
		return KindFileMeta, FileMetadata{}, fmt.Errorf("%w: missing file_size", ErrMalformedAnnouncement)
	}
	size, err := strconv.ParseInt(string(env.FileSize), 10, 64)
	if err != nil {
		return KindFileMeta, FileMetadata{}, fmt.Errorf("%w: file_size %s is not an integer", ErrMalformedAnnouncement, env.FileSize)
	}

	meta := FileMetadata{FileName: *env.FileName, FileSize: size}
	if err := meta.Validate(); err != nil {
		return KindFileMeta, meta, fmt.Errorf("%w: %v", ErrMalformedAnnouncement, err)
	}
	return KindFileMeta, meta, nil
}
