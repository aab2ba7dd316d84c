package paths

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDisplay(t *testing.T) {
	root := filepath.FromSlash("/srv/real/root")

	tests := []struct {
		name     string
		display  string
		relative bool
		in       string
		want     string
	}{
		{"relative mode off", "", false, filepath.Join(root, "a.txt"), filepath.Join(root, "a.txt")},
		{"relative to real root", "", true, filepath.Join(root, "dir", "a.txt"), filepath.Join("dir", "a.txt")},
		{"root itself", "", true, root, "."},
		{"display root prefix", "/workspace", true, filepath.Join(root, "dir", "a.txt"), filepath.FromSlash("/workspace/dir/a.txt")},
		{"display root for root", "/workspace", true, root, filepath.FromSlash("/workspace")},
		{"display equal to root", root, true, filepath.Join(root, "a.txt"), "a.txt"},
		{"outside root unchanged", "/workspace", true, "/etc/passwd", "/etc/passwd"},
		{"sibling prefix unchanged", "/workspace", true, root + "2/x", root + "2/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMapper(root, tt.display, tt.relative)
			assert.Equal(t, tt.want, m.ToDisplay(tt.in))
		})
	}
}

func TestDisplaySpoofingNeverLeaksRoot(t *testing.T) {
	root := filepath.FromSlash("/var/lib/sandbox-7f3a")
	m := NewMapper(root, "/home/agent", true)
	assert.True(t, m.IsSpoofed())

	inputs := []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "deep", "nested", "file.tar.gz"),
	}
	for _, in := range inputs {
		out := m.ToDisplay(in)
		assert.True(t, strings.HasPrefix(out, filepath.FromSlash("/home/agent")), out)
		assert.NotContains(t, out, root)
	}
}

func TestScrub(t *testing.T) {
	root := filepath.FromSlash("/var/lib/sandbox")

	spoofed := NewMapper(root, "/home/agent", true)
	msg := "open " + filepath.Join(root, "x.txt") + ": permission denied"
	assert.Equal(t, "open "+filepath.FromSlash("/home/agent/x.txt")+": permission denied", spoofed.Scrub(msg))

	plain := NewMapper(root, "", true)
	assert.Equal(t, "open "+filepath.FromSlash("./x.txt")+": permission denied", plain.Scrub(msg))
	assert.Equal(t, ".", plain.DisplayRoot())

	absolute := NewMapper(root, "/home/agent", false)
	assert.Equal(t, msg, absolute.Scrub(msg))
	assert.Equal(t, root, absolute.DisplayRoot())
}

func TestScrubRespectsPathBoundaries(t *testing.T) {
	root := filepath.FromSlash("/var/lib/sandbox")
	spoofed := NewMapper(root, "/home/agent", true)
	plain := NewMapper(root, "", true)

	tests := []struct {
		name   string
		msg    string
		mapper *Mapper
		want   string
	}{
		{"sibling suffix", "open " + root + "2/x.txt: denied", spoofed, "open " + root + "2/x.txt: denied"},
		{"sibling suffix plain", "open " + root + "2/x.txt: denied", plain, "open " + root + "2/x.txt: denied"},
		{"nested prefix", "open /opt" + root + "/x: denied", spoofed, "open /opt" + root + "/x: denied"},
		{"bare root", "stat " + root + ": denied", spoofed, "stat /home/agent: denied"},
		{"sentence end", "outside " + root + ".", spoofed, "outside /home/agent."},
		{"sibling with dot", "copy " + root + ".bak", spoofed, "copy " + root + ".bak"},
		{"mixed", root + "2 and " + root + "/a", spoofed, root + "2 and " + filepath.FromSlash("/home/agent/a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mapper.Scrub(tt.msg))
		})
	}
}

func TestToDisplayAll(t *testing.T) {
	root := filepath.FromSlash("/r")
	m := NewMapper(root, "/w", true)
	got := m.ToDisplayAll([]string{filepath.FromSlash("/r/a"), filepath.FromSlash("/r/b/c")})
	assert.Equal(t, []string{filepath.FromSlash("/w/a"), filepath.FromSlash("/w/b/c")}, got)
}
