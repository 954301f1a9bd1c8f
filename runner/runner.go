// Package runner ties commit classification, version arithmetic and
// changelog rendering to a repository.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/blang/semver/v4"

	"github.com/jeffrom/semrel/changelog"
	"github.com/jeffrom/semrel/commit"
	"github.com/jeffrom/semrel/config"
	"github.com/jeffrom/semrel/manifest"
	"github.com/jeffrom/semrel/model"
	"github.com/jeffrom/semrel/vcs"
	"github.com/jeffrom/semrel/version"
)

type Runner struct {
	cfg        config.Config
	vcs        vcs.Interface
	classifier *commit.Classifier
	renderer   *changelog.Renderer
	tag        *version.Tag
}

func New(cfg config.Config, vcs vcs.Interface) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tag, err := version.NewTag(cfg.TagTemplate, cfg.Name)
	if err != nil {
		return nil, err
	}
	classifier, err := commit.NewClassifier(cfg.GetPolicies())
	if err != nil {
		return nil, err
	}
	renderer, err := changelog.NewRenderer(cfg.RepoURL, cfg.LinkTemplate)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:        cfg,
		vcs:        vcs,
		classifier: classifier,
		renderer:   renderer,
		tag:        tag,
	}, nil
}

// Release is a planned release. Nothing has been written yet.
type Release struct {
	Current semver.Version
	Next    semver.Version
	Bump    commit.Bump

	// Base is the ref commits were read from, empty for the first release.
	Base string
	Head string
	Tag  string

	Commits  []*model.Commit
	Analyzed commit.AnalyzedCommits
	Entry    *changelog.Entry
}

// Skip reports whether there is nothing to release.
func (rel *Release) Skip() bool {
	return rel.Bump == commit.BumpNone
}

func (rel *Release) String() string {
	if rel.Skip() {
		return fmt.Sprintf("%s (no release)", rel.Current)
	}
	return fmt.Sprintf("%s -> %s (%s)", rel.Current, rel.Next, rel.Bump)
}

// current returns the released version and the ref it was tagged at. The
// manifest wins over tags when one is configured.
func (r *Runner) current(ctx context.Context) (semver.Version, string, error) {
	glob, err := r.tag.Glob()
	if err != nil {
		return semver.Version{}, "", err
	}
	tags, err := r.vcs.ReadTags(ctx, glob)
	if err != nil {
		return semver.Version{}, "", err
	}

	var curr semver.Version
	var base string
	latest, err := r.tag.Latest(tags)
	if err != nil && !errors.Is(err, version.ErrNoTags) {
		return semver.Version{}, "", err
	}
	if err == nil {
		curr = latest
		base, err = r.tag.ExecuteString(latest)
		if err != nil {
			return semver.Version{}, "", err
		}
	}

	if r.cfg.ManifestPath != "" {
		raw, err := manifest.Read(r.cfg.ManifestPath)
		if err != nil {
			return semver.Version{}, "", err
		}
		v, err := version.Parse(raw)
		if err != nil {
			return semver.Version{}, "", err
		}
		if !v.Equals(curr) {
			r.cfg.Debugf("manifest version %s differs from latest tag %q", v, base)
			curr = v
			// Commits before the latest tag are already released even when
			// the manifest is ahead of it.
			if t := r.tagFor(v, tags); t != "" {
				base = t
			}
		}
	}

	if r.cfg.BaseRef != "" {
		base = r.cfg.BaseRef
	}
	return curr, base, nil
}

func (r *Runner) tagFor(v semver.Version, tags []string) string {
	name, err := r.tag.ExecuteString(v)
	if err != nil {
		return ""
	}
	for _, t := range tags {
		if t == name {
			return name
		}
	}
	return ""
}

// Plan computes the next release from the commits since the last one. The
// changelog entry is dated now.
func (r *Runner) Plan(ctx context.Context, now time.Time) (*Release, error) {
	curr, base, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	head, err := r.vcs.CurrentCommit(ctx)
	if err != nil && !errors.Is(err, vcs.NotFoundError{}) {
		return nil, err
	}

	commits, err := r.vcs.ReadCommits(ctx, base, "")
	if err != nil {
		return nil, err
	}
	r.cfg.Debugf("read %d commit(s) since %q", len(commits), base)

	rel := &Release{
		Current:  curr,
		Next:     curr,
		Base:     base,
		Head:     head,
		Commits:  commits,
		Analyzed: r.classifier.ClassifyCommits(commits),
	}
	rel.Bump = commit.Resolve(rel.Analyzed)
	if r.cfg.AlwaysBump && len(commits) > 0 {
		rel.Bump = commit.Always(rel.Bump, commit.BumpPatch)
	}
	if rel.Skip() {
		return rel, nil
	}

	rel.Next, err = version.Apply(curr, rel.Bump)
	if err != nil {
		return nil, err
	}
	rel.Tag, err = r.tag.ExecuteString(rel.Next)
	if err != nil {
		return nil, err
	}
	rel.Entry = r.renderer.RenderTime(rel.Next.String(), now, rel.Analyzed)
	return rel, nil
}

// Write applies a planned release: the changelog entry is merged, the
// manifest is bumped and the release tag is created. Under Dryrun nothing is
// written.
func (r *Runner) Write(ctx context.Context, rel *Release) error {
	if rel.Skip() {
		r.cfg.Printf("no release: nothing to bump since %s", rel.Current)
		return nil
	}
	if err := r.writeChangelog(rel); err != nil {
		return err
	}
	if err := r.writeManifest(rel); err != nil {
		return err
	}
	return r.createTag(ctx, rel)
}

func (r *Runner) writeChangelog(rel *Release) error {
	p := r.cfg.ChangelogPath
	if p == "" || rel.Entry == nil {
		return nil
	}
	b, err := os.ReadFile(p)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	doc := string(b)
	if changelog.Contains(doc, rel.Entry.Version) {
		r.cfg.Warningf("%s already has a section for %s, skipping", p, rel.Entry.Version)
		return nil
	}

	if r.cfg.Dryrun {
		r.cfg.Printf("+ update %s (dryrun)", p)
		r.cfg.Debugf("%s", rel.Entry)
		return nil
	}
	r.cfg.Printf("updating %s...", p)
	return os.WriteFile(p, []byte(changelog.MergeEntry(doc, rel.Entry)), 0o644)
}

func (r *Runner) writeManifest(rel *Release) error {
	p := r.cfg.ManifestPath
	if p == "" {
		return nil
	}
	if r.cfg.Dryrun {
		r.cfg.Printf("+ set %s version to %s (dryrun)", p, rel.Next)
		return nil
	}
	r.cfg.Printf("setting %s version to %s...", p, rel.Next)
	return manifest.Update(p, rel.Next.String())
}

func (r *Runner) createTag(ctx context.Context, rel *Release) error {
	b := &bytes.Buffer{}
	if err := r.shortlog(b, rel); err != nil {
		return err
	}
	msg := b.String()
	r.cfg.Debugf("shortlog:\n\n---\n%s", msg)

	if r.cfg.Dryrun {
		r.cfg.Printf("+ tag %s (dryrun)", rel.Tag)
		return nil
	}
	r.cfg.Printf("creating tag %q for commit %s...", rel.Tag, model.ShortID(rel.Head))
	return r.vcs.CreateTag(ctx, rel.Head, rel.Tag, vcs.TagOpts{Message: msg})
}

// PushTags pushes release tags upstream.
func (r *Runner) PushTags(ctx context.Context) error {
	return r.vcs.Push(ctx, "origin", "", vcs.PushOpts{Tags: true})
}

// VersionCheck is the result of checking a proposed version.
type VersionCheck struct {
	version.Transition

	// Expected is the bump the commits since base call for. It is only set
	// when CommitsRead is true.
	Expected    commit.Bump
	CommitsRead bool
}

// Agrees reports whether the transition is valid and matches the bump the
// commits call for.
func (vc *VersionCheck) Agrees() bool {
	if !vc.Valid {
		return false
	}
	return !vc.CommitsRead || vc.Bump == vc.Expected
}

// CheckVersion validates going from base to candidate. An empty base means
// the current released version.
func (r *Runner) CheckVersion(ctx context.Context, candidate, base string) (*VersionCheck, error) {
	var ref string
	if base == "" {
		curr, currRef, err := r.current(ctx)
		if err != nil {
			return nil, err
		}
		base, ref = curr.String(), currRef
	} else if v, err := version.Parse(base); err == nil {
		ref, _ = r.tag.ExecuteString(v)
	}

	tr, err := version.ValidateIncrement(candidate, base)
	if err != nil {
		return nil, err
	}
	vc := &VersionCheck{Transition: tr}

	if ref == "" {
		return vc, nil
	}
	commits, err := r.vcs.ReadCommits(ctx, ref, "")
	if err != nil {
		if errors.Is(err, vcs.NotFoundError{}) {
			r.cfg.Debugf("not checking commits: %v", err)
			return vc, nil
		}
		return nil, err
	}
	vc.Expected = commit.Resolve(r.classifier.ClassifyCommits(commits))
	vc.CommitsRead = true
	return vc, nil
}
