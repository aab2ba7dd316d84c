package paths

import (
	"path/filepath"
	"strings"
)

// Mapper converts resolved absolute paths into caller-visible paths.
type Mapper struct {
	root     string
	display  string
	relative bool
}

// NewMapper builds a mapper for a canonical root. An empty displayRoot
// means the real root is presented.
func NewMapper(root, displayRoot string, relative bool) *Mapper {
	display := root
	if displayRoot != "" {
		display = filepath.Clean(displayRoot)
	}
	return &Mapper{root: root, display: display, relative: relative}
}

// IsSpoofed reports whether callers see a root other than the real one.
func (m *Mapper) IsSpoofed() bool {
	return m.display != m.root
}

// DisplayRoot returns the root as callers see it.
func (m *Mapper) DisplayRoot() string {
	if !m.relative {
		return m.root
	}
	if m.IsSpoofed() {
		return m.display
	}
	return "."
}

// Relative reports whether relative-path mode is on.
func (m *Mapper) Relative() bool {
	return m.relative
}

// ToDisplay maps an absolute path under the root to its display form.
// Paths outside the root are returned unchanged.
func (m *Mapper) ToDisplay(abs string) string {
	if !m.relative {
		return abs
	}

	rel, ok := relativeTo(m.root, abs)
	if !ok {
		return abs
	}

	if m.IsSpoofed() {
		return filepath.Join(m.display, rel)
	}
	return rel
}

// ToDisplayAll maps every path in place and returns the slice.
func (m *Mapper) ToDisplayAll(abs []string) []string {
	for i, p := range abs {
		abs[i] = m.ToDisplay(p)
	}
	return abs
}

// Scrub replaces occurrences of the real root inside free text, such as
// wrapped OS error messages, with the display root.
func (m *Mapper) Scrub(msg string) string {
	if !m.relative || m.root == string(filepath.Separator) {
		return msg
	}

	sep := string(filepath.Separator)
	public := m.DisplayRoot()
	publicDir := strings.TrimSuffix(public, sep) + sep

	var b strings.Builder
	for {
		i := strings.Index(msg, m.root)
		if i < 0 {
			b.WriteString(msg)
			return b.String()
		}
		b.WriteString(msg[:i])
		rest := msg[i+len(m.root):]

		switch {
		case i > 0 && isPathByte(msg[i-1]):
			b.WriteString(m.root)
		case strings.HasPrefix(rest, sep):
			b.WriteString(publicDir)
			rest = rest[len(sep):]
		case tokenEnds(rest):
			b.WriteString(public)
		default:
			b.WriteString(m.root)
		}
		msg = rest
	}
}

// tokenEnds reports whether a path token stops at the start of rest.
// A trailing period counts as punctuation, not as part of a name.
func tokenEnds(rest string) bool {
	if rest == "" {
		return true
	}
	if rest[0] == '.' {
		return len(rest) == 1 || rest[1] == ' '
	}
	return !isPathByte(rest[0])
}

func isPathByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '_', c == '-', c == '~', c == '/', c == filepath.Separator:
		return true
	}
	return c >= 0x80
}
