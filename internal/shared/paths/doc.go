// Package paths confines caller-supplied paths to a single sandbox root.
//
// A Resolver joins a candidate onto the root, canonicalizes the result
// component by component (following symlinks to their real targets) and
// rejects anything that lands outside the root with an *EscapeError.
// A Mapper turns resolved absolute paths back into the form shown to
// callers, optionally substituting a display root for the real one.
//
// # Usage
//
//	import "github.com/GriffinCanCode/sandboxfs/internal/shared/paths"
//
//	r, err := paths.NewResolver("/srv/sandbox")
//	abs, err := r.Resolve("notes/today.md")   // /srv/sandbox/notes/today.md
//	_, err = r.Resolve("../../etc/passwd")    // *paths.EscapeError
//
//	m := paths.NewMapper(r.Root(), "/workspace", true)
//	m.ToDisplay(abs)                          // /workspace/notes/today.md
package paths
