package filesystem

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeContent tests the supported write encodings
func TestEncodeContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		encoding string
		want     []byte
	}{
		{"default", "héllo", "", []byte("héllo")},
		{"utf8 alias", "abc", "UTF8", []byte("abc")},
		{"base64", base64.StdEncoding.EncodeToString([]byte{0, 1, 2}), "base64", []byte{0, 1, 2}},
		{"latin1", "café", "iso-8859-1", []byte{'c', 'a', 'f', 0xe9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeContent(tt.content, tt.encoding)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestEncodeContentErrors tests malformed input
func TestEncodeContentErrors(t *testing.T) {
	_, err := EncodeContent("%%%", "base64")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = EncodeContent("x", "klingon-8")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// TestDecodeContent tests text, binary and forced-binary reads
func TestDecodeContent(t *testing.T) {
	text := decodeContent([]byte("plain text\n"), false)
	assert.Equal(t, "plain text\n", text.Content)
	assert.Equal(t, "utf-8", text.Encoding)
	assert.False(t, text.Binary)
	assert.Contains(t, text.MimeType, "text/plain")

	raw := []byte{0x89, 'P', 'N', 'G', 0, 0, 0, 0}
	bin := decodeContent(raw, false)
	assert.True(t, bin.Binary)
	assert.Equal(t, "base64", bin.Encoding)
	assert.Equal(t, base64.StdEncoding.EncodeToString(raw), bin.Content)

	forced := decodeContent([]byte("abc"), true)
	assert.Equal(t, "base64", forced.Encoding)
	assert.False(t, forced.Binary)
	assert.Equal(t, "YWJj", forced.Content)
}

// TestIsBinary tests NUL sniffing limited to the leading chunk
func TestIsBinary(t *testing.T) {
	assert.False(t, isBinary([]byte("hello")))
	assert.True(t, isBinary([]byte("he\x00llo")))

	late := make([]byte, sniffLen+10)
	for i := range late {
		late[i] = 'a'
	}
	late[sniffLen+5] = 0
	assert.False(t, isBinary(late))
}
