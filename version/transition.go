package version

import (
	"fmt"

	"github.com/blang/semver/v4"

	"github.com/jeffrom/semrel/commit"
)

// ReasonNotGreater prefixes the reason of every transition whose candidate
// does not sort after its base.
const ReasonNotGreater = "not greater than base"

// Transition is the outcome of validating a proposed version against its
// base. An invalid transition is an expected result, not an error.
type Transition struct {
	Candidate semver.Version `json:"candidate"`
	Base      semver.Version `json:"base"`
	Valid     bool           `json:"valid"`
	Reason    string         `json:"reason"`

	// Bump is the single bump the transition is shaped like. It is BumpNone
	// when the transition is invalid.
	Bump commit.Bump `json:"bump"`

	// Component is the version component that was bumped, or that jumped or
	// failed to reset when the transition is invalid.
	Component string `json:"component,omitempty"`
}

// ValidateIncrement checks that candidate is exactly one major, minor or
// patch bump above base. It only returns an error when either argument is
// not a semantic version.
func ValidateIncrement(candidate, base string) (Transition, error) {
	cand, err := parseArg("candidate", candidate)
	if err != nil {
		return Transition{}, err
	}
	bv, err := parseArg("base", base)
	if err != nil {
		return Transition{}, err
	}
	return validateIncrement(cand, bv), nil
}

func validateIncrement(cand, base semver.Version) Transition {
	t := Transition{Candidate: cand, Base: base, Bump: commit.BumpNone}

	switch cmp := cand.Compare(base); {
	case cmp == 0:
		t.Reason = fmt.Sprintf("%s: %s is identical to %s", ReasonNotGreater, cand, base)
		return t
	case cmp < 0:
		t.Reason = fmt.Sprintf("%s: %s went backward from %s", ReasonNotGreater, cand, base)
		return t
	}

	switch {
	case cand.Major != base.Major:
		t.Component = "major"
		if cand.Major != base.Major+1 {
			t.Reason = fmt.Sprintf("major jumped from %d to %d", base.Major, cand.Major)
			return t
		}
		if cand.Minor != 0 {
			t.Component = "minor"
			t.Reason = fmt.Sprintf("minor must reset to 0 on a major bump, got %s", cand)
			return t
		}
		if cand.Patch != 0 {
			t.Component = "patch"
			t.Reason = fmt.Sprintf("patch must reset to 0 on a major bump, got %s", cand)
			return t
		}
		t.Bump = commit.BumpMajor

	case cand.Minor != base.Minor:
		t.Component = "minor"
		if cand.Minor != base.Minor+1 {
			t.Reason = fmt.Sprintf("minor jumped from %d to %d", base.Minor, cand.Minor)
			return t
		}
		if cand.Patch != 0 {
			t.Component = "patch"
			t.Reason = fmt.Sprintf("patch must reset to 0 on a minor bump, got %s", cand)
			return t
		}
		t.Bump = commit.BumpMinor

	case cand.Patch != base.Patch:
		t.Component = "patch"
		if cand.Patch != base.Patch+1 {
			t.Reason = fmt.Sprintf("patch jumped from %d to %d", base.Patch, cand.Patch)
			return t
		}
		t.Bump = commit.BumpPatch

	default:
		t.Reason = fmt.Sprintf("no version component was bumped from %s to %s", base, cand)
		return t
	}

	t.Valid = true
	t.Reason = t.Bump.String() + " bump"
	return t
}
