package commit

import (
	"regexp"
	"strings"

	"github.com/jeffrom/semrel/config"
	"github.com/jeffrom/semrel/model"
)

// AnalyzedCommit is a commit message broken into its conventional commit
// parts. Type is empty when the header did not match any policy.
type AnalyzedCommit struct {
	ID          string `json:"commit"`
	Type        string `json:"type,omitempty"`
	Scope       string `json:"scope,omitempty"`
	Breaking    bool   `json:"breaking,omitempty"`
	Description string `json:"description"`
	Body        string `json:"body,omitempty"`
	Policy      string `json:"policy,omitempty"`
	Bump        Bump   `json:"bump"`
	Group       string `json:"group,omitempty"`
}

// Valid reports whether the header matched a policy.
func (ac *AnalyzedCommit) Valid() bool { return ac.Policy != "" }

// GroupBreaking is the changelog group of every breaking commit.
const GroupBreaking = "breaking"

// ReleaseBump returns the bump this commit calls for on its own. Commits
// built by hand rather than by a Classifier fall back to the builtin
// conventional commit mapping.
func (ac *AnalyzedCommit) ReleaseBump() Bump {
	if ac.Breaking {
		return BumpMajor
	}
	if ac.Bump.Valid() {
		return ac.Bump
	}
	if b, ok := defaultClassifier.policies[0].bumps[ac.Type]; ok {
		return b
	}
	return BumpNone
}

// ChangelogGroup returns the changelog group the commit renders under, or
// "" if it is omitted from the changelog.
func (ac *AnalyzedCommit) ChangelogGroup() string {
	if ac.Breaking {
		return GroupBreaking
	}
	if ac.Group != "" || ac.Policy != "" {
		return ac.Group
	}
	return defaultClassifier.policies[0].groups[ac.Type]
}

func (ac *AnalyzedCommit) ShortID() string { return model.ShortID(ac.ID) }

type AnalyzedCommits []*AnalyzedCommit

type compiledPolicy struct {
	policy   config.Policy
	re       *regexp.Regexp
	typeIdx  int
	scopeIdx int
	breakIdx int
	descIdx  int
	bumps    map[string]Bump
	groups   map[string]string
}

// Classifier matches commit messages against an ordered list of policies.
// The first policy whose subject regexp matches the header wins. A
// Classifier is immutable once built and safe for concurrent use.
type Classifier struct {
	policies []*compiledPolicy
	markers  []string
}

var defaultClassifier = mustDefaultClassifier()

func mustDefaultClassifier() *Classifier {
	c, err := NewClassifier(config.New(nil).GetPolicies())
	if err != nil {
		panic(err)
	}
	return c
}

// NewClassifier compiles policies into a Classifier.
func NewClassifier(policies []*config.Policy) (*Classifier, error) {
	c := &Classifier{}
	seen := make(map[string]bool)
	for _, pol := range policies {
		if err := pol.Validate(); err != nil {
			return nil, err
		}
		re, err := pol.CompileSubjectRE()
		if err != nil {
			return nil, err
		}
		cp := &compiledPolicy{
			policy:   *pol,
			re:       re,
			typeIdx:  re.SubexpIndex("type"),
			scopeIdx: re.SubexpIndex("scope"),
			breakIdx: re.SubexpIndex("breaking"),
			descIdx:  re.SubexpIndex("description"),
			bumps:    make(map[string]Bump, len(pol.CommitTypes)),
			groups:   make(map[string]string, len(pol.ChangelogGroups)),
		}
		for typ, name := range pol.CommitTypes {
			b, err := ParseBump(name)
			if err != nil {
				return nil, err
			}
			cp.bumps[strings.ToLower(typ)] = b
		}
		for typ, group := range pol.ChangelogGroups {
			cp.groups[strings.ToLower(typ)] = group
		}
		for _, marker := range pol.BreakingChangeMarkers {
			if !seen[marker] {
				seen[marker] = true
				c.markers = append(c.markers, marker)
			}
		}
		c.policies = append(c.policies, cp)
	}
	return c, nil
}

// Classify parses a raw commit message using the builtin conventional
// commit policy.
func Classify(id, rawMessage string) *AnalyzedCommit {
	return defaultClassifier.Classify(id, rawMessage)
}

// Classify parses rawMessage. It never fails: a header no policy matches
// yields an unclassified commit whose description is the whole header.
func (c *Classifier) Classify(id, rawMessage string) *AnalyzedCommit {
	header, body := splitMessage(rawMessage)
	ac := &AnalyzedCommit{ID: id, Description: header, Body: body, Bump: BumpNone}

	for _, cp := range c.policies {
		m := cp.re.FindStringSubmatch(header)
		if m == nil {
			continue
		}
		ac.Policy = cp.policy.Name
		ac.Type = strings.ToLower(m[cp.typeIdx])
		ac.Description = m[cp.descIdx]
		if cp.scopeIdx >= 0 {
			ac.Scope = strings.TrimSuffix(strings.TrimPrefix(m[cp.scopeIdx], "("), ")")
		}
		if cp.breakIdx >= 0 && m[cp.breakIdx] != "" {
			ac.Breaking = true
		}
		if b, ok := cp.bumps[ac.Type]; ok {
			ac.Bump = b
		}
		ac.Group = cp.groups[ac.Type]
		break
	}

	for _, marker := range c.markers {
		if strings.Contains(rawMessage, marker) {
			ac.Breaking = true
			break
		}
	}
	if ac.Breaking {
		ac.Bump = BumpMajor
	}
	return ac
}

// ClassifyCommit classifies a commit read from version control.
func (c *Classifier) ClassifyCommit(mc *model.Commit) *AnalyzedCommit {
	return c.Classify(mc.ID, mc.Message())
}

func (c *Classifier) ClassifyCommits(commits []*model.Commit) AnalyzedCommits {
	acs := make(AnalyzedCommits, len(commits))
	for i, mc := range commits {
		acs[i] = c.ClassifyCommit(mc)
	}
	return acs
}

// splitMessage splits off the header line. A trailing "\r" is dropped from
// the header, so an unclassified commit's Description is the header without
// its CRLF line ending.
func splitMessage(msg string) (string, string) {
	header, body, _ := strings.Cut(msg, "\n")
	return strings.TrimSuffix(header, "\r"), body
}
