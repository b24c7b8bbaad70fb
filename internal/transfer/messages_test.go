package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseControl(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind ControlKind
		meta FileMetadata
		err  error
	}{
		{"plain chat", "hello", KindChat, FileMetadata{}, nil},
		{"brace but not json", "{oops", KindChat, FileMetadata{}, nil},
		{"json without type", `{"file_name":"a.txt"}`, KindChat, FileMetadata{}, nil},
		{"unknown type", `{"type":"ping"}`, KindChat, FileMetadata{}, nil},
		{"non-string type", `{"type":3}`, KindChat, FileMetadata{}, nil},
		{"keepalive", `{"type":"keepalive"}`, KindKeepAlive, FileMetadata{}, nil},
		{"file meta", `{"type":"file_meta","file_name":"a.txt","file_size":40000}`, KindFileMeta, FileMetadata{FileName: "a.txt", FileSize: 40000}, nil},
		{"zero size", `{"type":"file_meta","file_name":"e","file_size":0}`, KindFileMeta, FileMetadata{FileName: "e"}, nil},
		{"missing name", `{"type":"file_meta","file_size":1}`, KindFileMeta, FileMetadata{}, ErrMalformedAnnouncement},
		{"missing size", `{"type":"file_meta","file_name":"a"}`, KindFileMeta, FileMetadata{}, ErrMalformedAnnouncement},
		{"fractional size", `{"type":"file_meta","file_name":"a","file_size":1.5}`, KindFileMeta, FileMetadata{}, ErrMalformedAnnouncement},
		{"string size", `{"type":"file_meta","file_name":"a","file_size":"12"}`, KindFileMeta, FileMetadata{}, ErrMalformedAnnouncement},
		{"negative size", `{"type":"file_meta","file_name":"a","file_size":-1}`, KindFileMeta, FileMetadata{FileName: "a", FileSize: -1}, ErrMalformedAnnouncement},
		{"path in name", `{"type":"file_meta","file_name":"dir/a","file_size":1}`, KindFileMeta, FileMetadata{FileName: "dir/a", FileSize: 1}, ErrMalformedAnnouncement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, meta, err := ParseControl(tt.text)
			assert.Equal(t, tt.kind, kind)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.meta, meta)
		})
	}
}

func TestEncodeFileMeta(t *testing.T) {
	text, err := EncodeFileMeta(FileMetadata{FileName: "report.pdf", FileSize: 1234})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"file_meta","file_name":"report.pdf","file_size":1234}`, text)

	text, err = EncodeFileMeta(FileMetadata{FileName: "empty"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"file_meta","file_name":"empty","file_size":0}`, text, "zero size is still sent")

	_, err = EncodeFileMeta(FileMetadata{FileName: "a/b", FileSize: 1})
	assert.ErrorIs(t, err, ErrInvalidFileName)

	kind, _, err := ParseControl(EncodeKeepAlive())
	require.NoError(t, err)
	assert.Equal(t, KindKeepAlive, kind)
}

func TestValidateFileName(t *testing.T) {
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "nul\x00"} {
		assert.ErrorIs(t, ValidateFileName(name), ErrInvalidFileName, "%q", name)
	}
	for _, name := range []string{"a.txt", "..hidden", "résumé.pdf", "with space"} {
		assert.NoError(t, ValidateFileName(name), "%q", name)
	}
}

func TestIsBye(t *testing.T) {
	for _, line := range []string{"bye", "BYE", " Bye\t"} {
		assert.True(t, IsBye(line), "%q", line)
	}
	for _, line := range []string{"goodbye", "bye!", "", "by e"} {
		assert.False(t, IsBye(line), "%q", line)
	}
}
