// Package version implements semantic version arithmetic and validation of
// proposed version transitions.
package version

import (
	"math"

	"github.com/blang/semver/v4"

	"github.com/jeffrom/semrel/commit"
)

// Parse strictly parses s as MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]. No
// "v" prefix or surrounding whitespace is accepted.
func Parse(s string) (semver.Version, error) {
	return parseArg("", s)
}

func parseArg(arg, s string) (semver.Version, error) {
	v, err := semver.Parse(s)
	if err != nil {
		return semver.Version{}, &MalformedVersionError{Arg: arg, Version: s, Err: err}
	}
	return v, nil
}

// Apply returns the version that follows current after bump b. The result
// never carries prerelease or build metadata.
func Apply(current semver.Version, b commit.Bump) (semver.Version, error) {
	if err := current.Validate(); err != nil {
		return semver.Version{}, &InvalidVersionError{Version: current.String(), Err: err}
	}

	next := semver.Version{Major: current.Major, Minor: current.Minor, Patch: current.Patch}
	var component uint64
	switch b {
	case commit.BumpMajor:
		component = current.Major
	case commit.BumpMinor:
		component = current.Minor
	case commit.BumpPatch:
		component = current.Patch
	}
	if component == math.MaxUint64 {
		return semver.Version{}, &InvalidVersionError{Version: current.String(), Err: ErrOverflow}
	}

	switch b {
	case commit.BumpMajor:
		next.Major++
		next.Minor = 0
		next.Patch = 0
	case commit.BumpMinor:
		next.Minor++
		next.Patch = 0
	case commit.BumpPatch:
		next.Patch++
	default:
		return semver.Version{}, &InvalidBumpError{Bump: b}
	}
	return next, nil
}

// ApplyString parses current and applies b to it.
func ApplyString(current string, b commit.Bump) (semver.Version, error) {
	v, err := Parse(current)
	if err != nil {
		return semver.Version{}, &InvalidVersionError{Version: current, Err: err}
	}
	return Apply(v, b)
}
