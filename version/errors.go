package version

import (
	"errors"
	"fmt"

	"github.com/jeffrom/semrel/commit"
)

// ErrOverflow is wrapped by InvalidVersionError when the component being
// bumped is already at its maximum value.
var ErrOverflow = errors.New("version: component overflows uint64")

// MalformedVersionError is returned when a string is not a semantic
// version. Arg names the argument that failed, if there was more than one.
type MalformedVersionError struct {
	Arg     string
	Version string
	Err     error
}

func (e *MalformedVersionError) Error() string {
	if e.Arg != "" {
		return fmt.Sprintf("version: malformed %s version %q: %v", e.Arg, e.Version, e.Err)
	}
	return fmt.Sprintf("version: malformed version %q: %v", e.Version, e.Err)
}

func (e *MalformedVersionError) Unwrap() error { return e.Err }

// InvalidVersionError is returned by Apply when the current version is not
// a valid semantic version.
type InvalidVersionError struct {
	Version string
	Err     error
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("version: invalid current version %q: %v", e.Version, e.Err)
}

func (e *InvalidVersionError) Unwrap() error { return e.Err }

// InvalidBumpError is returned by Apply for BumpNone or an unknown bump.
// It indicates a caller bug: check for "no release" before applying.
type InvalidBumpError struct {
	Bump commit.Bump
}

func (e *InvalidBumpError) Error() string {
	return fmt.Sprintf("version: cannot apply bump %s", e.Bump)
}
