// Package config holds semrel configuration and the commit policies used to
// classify commit messages.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/imdario/mergo"
)

const (
	BackendGit   = "git"
	BackendGoGit = "go-git"
)

type Config struct {
	Debug          bool       `json:"debug,omitempty"`
	Quiet          bool       `json:"quiet,omitempty"`
	Dryrun         bool       `json:"dryrun,omitempty"`
	InCI           bool       `json:"ci,omitempty"`
	AlwaysBump     bool       `json:"always_bump,omitempty"`
	Name           string     `json:"name,omitempty"`
	Backend        string     `json:"backend,omitempty"`
	BaseRef        string     `json:"base,omitempty"`
	ChangelogPath  string     `json:"changelog,omitempty"`
	ManifestPath   string     `json:"manifest,omitempty"`
	RepoURL        string     `json:"repo_url,omitempty"`
	LinkTemplate   string     `json:"link_template,omitempty"`
	TagTemplate    string     `json:"tag_template,omitempty"`
	LogTemplate    string     `json:"shortlog_template,omitempty"`
	AllowedTypes   []string   `json:"allowed_types,omitempty"`
	AllowedScopes  []string   `json:"allowed_scopes,omitempty"`
	Policies       []string   `json:"policies,omitempty"`
	CustomPolicies []Policy   `json:"custom_policies,omitempty"`
	Term           TerminalIO `json:"-"`
}

func New(overrides *Config) Config {
	return NewWithTerminalIO(overrides, nil)
}

func NewWithTerminalIO(overrides *Config, termio *TerminalIO) Config {
	cfg := GetDefault()
	if overrides != nil {
		if err := mergo.Merge(&cfg, *overrides, mergo.WithOverride); err != nil {
			panic(err)
		}
	}
	if termio == nil {
		termio = &DefaultTermIO
	}
	cfg.Term = *termio
	return cfg
}

func (c Config) Printf(msg string, args ...interface{}) {
	if c.Quiet {
		return
	}
	fmt.Fprintf(c.Term.Stdout, msg+"\n", args...)
}

func (c Config) Errorf(msg string, args ...interface{}) {
	fmt.Fprintf(c.Term.Stderr, msg+"\n", args...)
}

func (c Config) Debugf(msg string, args ...interface{}) {
	if !c.Debug {
		return
	}
	c.Printf(msg, args...)
}

// Warningf prints msg to stderr unless Quiet is set.
func (c Config) Warningf(msg string, args ...interface{}) {
	if c.Quiet {
		return
	}
	c.Errorf("warning: "+msg, args...)
}

// GetPolicies returns the active policies in the order they were declared.
// Custom policies shadow builtin policies of the same name.
func (c Config) GetPolicies() []*Policy {
	var pols []*Policy
	for _, name := range c.Policies {
		if pol := c.findPolicy(name); pol != nil {
			pols = append(pols, pol)
		}
	}
	return pols
}

func (c Config) findPolicy(name string) *Policy {
	for _, pol := range c.CustomPolicies {
		if pol.Name == name {
			p := pol
			return &p
		}
	}
	return getBuiltinPolicy(name)
}

func (c Config) Validate() error {
	if len(c.Policies) == 0 {
		return errors.New("config: at least one policy is required")
	}
	for _, name := range c.Policies {
		pol := c.findPolicy(name)
		if pol == nil {
			return fmt.Errorf("config: unknown policy %q", name)
		}
		if err := pol.Validate(); err != nil {
			return err
		}
	}

	switch c.Backend {
	case "", BackendGit, BackendGoGit:
	default:
		return fmt.Errorf("config: unknown backend %q (expected %s or %s)", c.Backend, BackendGit, BackendGoGit)
	}

	for _, typ := range c.AllowedTypes {
		if typ != strings.ToLower(typ) {
			return fmt.Errorf("config: allowed type %q must be lower case", typ)
		}
	}
	return nil
}
