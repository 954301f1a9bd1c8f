package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jeffrom/semrel/commit"
	"github.com/jeffrom/semrel/model"
)

var errUnconventional = errors.New("commit message is not a conventional commit")

type CheckFailure struct {
	Failures []FailureEntry
}

type FailureEntry struct {
	commitID    string
	commitTitle string
	err         error
}

func (fe FailureEntry) Err() error { return fe.err }

func (cf CheckFailure) Error() string {
	return fmt.Sprintf("%d check(s) failed", len(cf.Failures))
}

func (cf CheckFailure) Is(other error) bool {
	_, ok := other.(CheckFailure)
	return ok
}

// WriteFailure writes the failures grouped by commit.
func (cf CheckFailure) WriteFailure(w io.Writer) error {
	if len(cf.Failures) == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)

	var byCommit [][]FailureEntry
	for _, failure := range cf.Failures {
		foundPrev := false
		for i, c := range byCommit {
			if sameCommit(c[0], failure) {
				byCommit[i] = append(byCommit[i], failure)
				foundPrev = true
				break
			}
		}
		if !foundPrev {
			byCommit = append(byCommit, []FailureEntry{failure})
		}
	}

	for _, c := range byCommit {
		title := c[0].commitTitle
		if id := model.ShortID(c[0].commitID); id != "" {
			title = id + " " + title
		}
		bw.WriteString(title)
		bw.WriteString("\n")
		for _, failure := range c {
			bw.WriteString("  ")
			bw.WriteString(failure.err.Error())
			bw.WriteString("\n")
		}
	}
	return bw.Flush()
}

func sameCommit(a, b FailureEntry) bool {
	if a.commitID != "" || b.commitID != "" {
		return a.commitID == b.commitID
	}
	return a.commitTitle == b.commitTitle
}

// CheckCommits lints raw commit messages.
func (r *Runner) CheckCommits(ctx context.Context, commits []string) (commit.AnalyzedCommits, error) {
	mcs := make([]*model.Commit, len(commits))
	for i, c := range commits {
		mcs[i] = parseCommit(c)
	}
	return r.checkModelCommits(mcs)
}

func (r *Runner) checkModelCommits(commits []*model.Commit) (commit.AnalyzedCommits, error) {
	var failures []FailureEntry
	var acs commit.AnalyzedCommits
	for _, mc := range commits {
		ac := r.classifier.ClassifyCommit(mc)
		acs = append(acs, ac)
		failures = append(failures, r.checkCommit(mc, ac)...)
	}
	if len(failures) > 0 {
		return nil, CheckFailure{Failures: failures}
	}
	return acs, nil
}

func (r *Runner) checkCommit(mc *model.Commit, ac *commit.AnalyzedCommit) []FailureEntry {
	fail := func(err error) FailureEntry {
		return FailureEntry{commitID: mc.ID, commitTitle: mc.Subject, err: err}
	}

	if !ac.Valid() {
		return []FailureEntry{fail(errUnconventional)}
	}
	var failures []FailureEntry
	if ac.Scope != "" && len(r.cfg.AllowedScopes) > 0 && !slices.Contains(r.cfg.AllowedScopes, ac.Scope) {
		failures = append(failures, fail(fmt.Errorf("scope %q is disallowed", ac.Scope)))
	}
	if len(r.cfg.AllowedTypes) > 0 && !slices.Contains(r.cfg.AllowedTypes, ac.Type) {
		failures = append(failures, fail(fmt.Errorf("commit type %q is disallowed", ac.Type)))
	}
	return failures
}

// parseCommit reads a raw commit message, as found in COMMIT_EDITMSG. Lines
// starting with "#" are comments, and everything below the scissors line
// is ignored.
func parseCommit(s string) *model.Commit {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, "# ---") && strings.Contains(line, ">8") {
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return &model.Commit{}
	}
	body := strings.TrimLeft(strings.Join(lines[1:], "\n"), "\n")
	return &model.Commit{Subject: lines[0], Body: strings.TrimRight(body, "\n")}
}

// CheckReadCommit lints a single commit message read from rdr.
func (r *Runner) CheckReadCommit(ctx context.Context, rdr io.Reader) (commit.AnalyzedCommits, error) {
	raw, err := io.ReadAll(rdr)
	if err != nil {
		return nil, err
	}
	return r.CheckCommits(ctx, []string{string(raw)})
}

// CheckCommitsFromVCS checks all commits since the last release.
func (r *Runner) CheckCommitsFromVCS(ctx context.Context) (commit.AnalyzedCommits, error) {
	_, base, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	commits, err := r.vcs.ReadCommits(ctx, base, "")
	if err != nil {
		return nil, err
	}
	return r.checkModelCommits(commits)
}
