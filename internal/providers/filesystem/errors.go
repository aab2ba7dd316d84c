package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/paths"
	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
)

var (
	// ErrSymlink refuses an operation whose subject is a symlink
	ErrSymlink = errors.New("cannot operate on symlinks")

	// ErrInvalidArgument marks missing or malformed tool parameters
	ErrInvalidArgument = errors.New("invalid argument")
)

// ArchiveFormatError reports an unrecognized or corrupt archive container.
type ArchiveFormatError struct {
	Name   string
	Reason string
	Err    error
}

func (e *ArchiveFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive %s: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("archive %s: %s", e.Name, e.Reason)
}

func (e *ArchiveFormatError) Unwrap() error { return e.Err }

// UnsafeMemberError reports an archive member whose destination would land
// outside the extraction directory. Extraction is aborted as a whole.
type UnsafeMemberError struct {
	Member string
}

func (e *UnsafeMemberError) Error() string {
	return fmt.Sprintf("unsafe archive member %q: resolves outside the output directory", e.Member)
}

// VersionRangeError reports a restore index outside [1, Available].
type VersionRangeError struct {
	Requested int
	Available int
}

func (e *VersionRangeError) Error() string {
	return fmt.Sprintf("version %d does not exist (available: %d)", e.Requested, e.Available)
}

// VersionMissingError reports a recorded snapshot deleted from disk.
type VersionMissingError struct {
	Index    int
	Snapshot string
}

func (e *VersionMissingError) Error() string {
	return fmt.Sprintf("version %d snapshot no longer exists", e.Index)
}

// Classify maps an error onto the envelope's error kind.
func Classify(err error) types.ErrorKind {
	var (
		escape  *paths.EscapeError
		unsafe  *UnsafeMemberError
		format  *ArchiveFormatError
		vrange  *VersionRangeError
		missing *VersionMissingError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &escape):
		return types.ErrorEscape
	case errors.As(err, &unsafe):
		return types.ErrorUnsafeMember
	case errors.As(err, &format):
		return types.ErrorArchiveFormat
	case errors.As(err, &vrange):
		return types.ErrorVersionRange
	case errors.As(err, &missing):
		return types.ErrorVersionMissing
	case errors.Is(err, ErrSymlink):
		return types.ErrorSymlink
	case errors.Is(err, ErrInvalidArgument):
		return types.ErrorInvalidArgument
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.ErrorCanceled
	case errors.Is(err, fs.ErrNotExist):
		return types.ErrorNotFound
	default:
		return types.ErrorIO
	}
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
