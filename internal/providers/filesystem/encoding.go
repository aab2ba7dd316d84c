package filesystem

import (
	"bytes"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// sniffLen is how much of a file is inspected for NUL bytes
const sniffLen = 1024

// EncodeContent converts caller text into the bytes to store. "utf-8" is the
// default, "base64" decodes binary payloads, and any other IANA charset name
// transcodes from UTF-8.
func EncodeContent(content, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return []byte(content), nil
	case "base64":
		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, invalidf("content is not valid base64: %v", err)
		}
		return data, nil
	}

	enc, name := charset.Lookup(encoding)
	if enc == nil {
		return nil, invalidf("unsupported encoding %q", encoding)
	}
	data, err := enc.NewEncoder().Bytes([]byte(content))
	if err != nil {
		return nil, invalidf("content not representable in %s: %v", name, err)
	}
	return data, nil
}

// isBinary reports whether data looks binary: a NUL byte in the leading chunk.
func isBinary(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0
}

// decodedText is the caller-facing form of file content.
type decodedText struct {
	Content  string
	Encoding string
	Charset  string
	MimeType string
	Binary   bool
}

// decodeContent renders file bytes for a caller. Binary data (or any data
// when forceBinary is set) is base64 encoded. Non-UTF-8 text is detected
// with chardet and transcoded to UTF-8.
func decodeContent(data []byte, forceBinary bool) decodedText {
	mime := mimetype.Detect(data).String()
	binary := isBinary(data)

	if binary || forceBinary {
		return decodedText{
			Content:  base64.StdEncoding.EncodeToString(data),
			Encoding: "base64",
			MimeType: mime,
			Binary:   binary,
		}
	}

	if utf8.Valid(data) {
		return decodedText{Content: string(data), Encoding: "utf-8", Charset: "utf-8", MimeType: mime}
	}

	detected := detectCharset(data)
	if enc, name := charset.Lookup(detected); enc != nil {
		if text, err := enc.NewDecoder().Bytes(data); err == nil {
			return decodedText{Content: string(text), Encoding: "utf-8", Charset: name, MimeType: mime}
		}
	}

	return decodedText{
		Content:  base64.StdEncoding.EncodeToString(data),
		Encoding: "base64",
		Charset:  detected,
		MimeType: mime,
		Binary:   true,
	}
}

func detectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}
