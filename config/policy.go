package config

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// Changelog group names a commit type may be rendered under. Breaking
// commits always go to the breaking group regardless of type.
const (
	GroupAdded   = "added"
	GroupFixed   = "fixed"
	GroupChanged = "changed"
)

var validBumps = []string{"none", "patch", "minor", "major"}
var validGroups = []string{GroupAdded, GroupFixed, GroupChanged}

// Policy describes how a commit message is classified. SubjectRE must
// capture the named groups "type" and "description", and may capture
// "scope" (including its parentheses) and "breaking".
type Policy struct {
	Name                  string            `json:"name"`
	SubjectRE             string            `json:"subject_regex"`
	BreakingChangeMarkers []string          `json:"breaking_change_markers,omitempty"`
	CommitTypes           map[string]string `json:"commit_types,omitempty"`
	ChangelogGroups       map[string]string `json:"changelog_groups,omitempty"`
}

func (p *Policy) CompileSubjectRE() (*regexp.Regexp, error) {
	if p.SubjectRE == "" {
		return nil, fmt.Errorf("config: policy %q: subject_regex is required", p.Name)
	}
	re, err := regexp.Compile(p.SubjectRE)
	if err != nil {
		return nil, fmt.Errorf("config: policy %q: %w", p.Name, err)
	}
	return re, nil
}

func (p *Policy) Validate() error {
	re, err := p.CompileSubjectRE()
	if err != nil {
		return err
	}
	for _, name := range []string{"type", "description"} {
		if re.SubexpIndex(name) < 0 {
			return fmt.Errorf("config: policy %q: subject_regex must capture (?P<%s>...)", p.Name, name)
		}
	}
	for typ, bump := range p.CommitTypes {
		if !slices.Contains(validBumps, strings.ToLower(bump)) {
			return fmt.Errorf("config: policy %q: commit type %q has unknown bump %q", p.Name, typ, bump)
		}
	}
	for typ, group := range p.ChangelogGroups {
		if !slices.Contains(validGroups, group) {
			return fmt.Errorf("config: policy %q: commit type %q has unknown changelog group %q", p.Name, typ, group)
		}
	}
	return nil
}

func (p *Policy) TextSummary(w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(fmt.Sprintf("Name: %s\n", p.Name))
	bw.WriteString(fmt.Sprintf("Subject regexp: %s\n", p.SubjectRE))

	if len(p.BreakingChangeMarkers) > 0 {
		bw.WriteString(fmt.Sprintf("Breaking change marker(s): %s\n", strings.Join(p.BreakingChangeMarkers, ", ")))
	}

	if len(p.CommitTypes) > 0 {
		bw.WriteString("Commit types:\n")
		for _, k := range sortedKeys(p.CommitTypes) {
			bw.WriteString(fmt.Sprintf("  %16s: %s\n", k, strings.ToLower(p.CommitTypes[k])))
		}
	}

	if len(p.ChangelogGroups) > 0 {
		bw.WriteString("Changelog groups:\n")
		for _, k := range sortedKeys(p.ChangelogGroups) {
			bw.WriteString(fmt.Sprintf("  %16s: %s\n", k, p.ChangelogGroups[k]))
		}
	}

	return bw.Flush()
}

var builtinPolicies = []Policy{
	{
		Name:                  "conventional",
		SubjectRE:             `^(?P<type>\w+)(?P<scope>\([^)]+\))?(?P<breaking>!)?:\s*(?P<description>.+)$`,
		BreakingChangeMarkers: []string{"BREAKING CHANGE:", "BREAKING-CHANGE:"},
		CommitTypes: map[string]string{
			"feat":     "minor",
			"feature":  "minor",
			"fix":      "patch",
			"bugfix":   "patch",
			"chore":    "patch",
			"docs":     "patch",
			"style":    "patch",
			"refactor": "patch",
			"perf":     "patch",
			"test":     "patch",
			"build":    "patch",
			"ci":       "patch",
		},
		ChangelogGroups: map[string]string{
			"feat":     GroupAdded,
			"feature":  GroupAdded,
			"fix":      GroupFixed,
			"bugfix":   GroupFixed,
			"docs":     GroupChanged,
			"perf":     GroupChanged,
			"refactor": GroupChanged,
		},
	},
}

func getBuiltinPolicy(name string) *Policy {
	for _, pol := range builtinPolicies {
		if name == pol.Name {
			p := pol
			return &p
		}
	}
	return nil
}

// BuiltinPolicyNames returns the names of the policies shipped with semrel.
func BuiltinPolicyNames() []string {
	names := make([]string, len(builtinPolicies))
	for i, pol := range builtinPolicies {
		names[i] = pol.Name
	}
	return names
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
