// Package commit classifies commit messages and resolves the version bump
// they call for.
package commit

import (
	"fmt"
	"strings"
)

// Bump is a version bump directive. Values are ordered by precedence, so
// the larger of two bumps wins.
type Bump int

const (
	_ Bump = iota

	BumpNone
	BumpPatch
	BumpMinor
	BumpMajor
)

func (b Bump) String() string {
	switch b {
	case BumpNone:
		return "none"
	case BumpPatch:
		return "patch"
	case BumpMinor:
		return "minor"
	case BumpMajor:
		return "major"
	case 0:
		return "<INVALID>"
	default:
		return "<UNKNOWN>"
	}
}

func (b Bump) Valid() bool {
	return b >= BumpNone && b <= BumpMajor
}

func ParseBump(s string) (Bump, error) {
	switch strings.ToLower(s) {
	case "none", "skip":
		return BumpNone, nil
	case "patch":
		return BumpPatch, nil
	case "minor":
		return BumpMinor, nil
	case "major":
		return BumpMajor, nil
	}
	return 0, fmt.Errorf("commit: unknown bump %q", s)
}

func (b Bump) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bump) UnmarshalText(text []byte) error {
	parsed, err := ParseBump(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
