package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jeffrom/semrel/vcs"
)

func TestStats(t *testing.T) {
	m := vcs.NewMock().SetCommits(commits(
		"feat(api): one",
		"fix(api): two",
		"fix: three",
		"hello",
	)...)
	rnr := newTestRunner(t, nil, m)

	stats, err := rnr.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Commits != 4 {
		t.Errorf("expected 4 commits, got %d", stats.Commits)
	}
	if len(stats.Counts) != 3 {
		t.Errorf("expected 3 counters, got %d", len(stats.Counts))
	}

	checks := []struct {
		bucket string
		name   string
		n      int64
	}{
		{"scope", "api", 2},
		{"scope", "", 2},
		{"commit_type", "fix", 2},
		{"commit_type", "feat", 1},
		{"commit_type", "", 1},
		{"bump", "patch", 2},
		{"bump", "minor", 1},
		{"bump", "none", 1},
	}
	for _, c := range checks {
		if got := stats.Count(c.bucket, c.name); got != c.n {
			t.Errorf("expected %s/%q to be %d, got %d", c.bucket, c.name, c.n, got)
		}
	}

	b := &bytes.Buffer{}
	if err := stats.TextSummary(b); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	t.Logf("stats output:\n%s", out)
	if !strings.HasPrefix(out, "4 commits\n\nBump:\n") {
		t.Errorf("unexpected summary: %q", out)
	}
	if !strings.Contains(out, "Commit Type:\n") {
		t.Errorf("expected title cased bucket name, got %q", out)
	}
	if !strings.Contains(out, "n/a") {
		t.Errorf("expected empty labels to print as n/a, got %q", out)
	}
}

func TestToTitle(t *testing.T) {
	for in, expect := range map[string]string{
		"scope":       "Scope",
		"commit_type": "Commit Type",
		"bump":        "Bump",
	} {
		if got := toTitle(in); got != expect {
			t.Errorf("toTitle(%q): expected %q, got %q", in, expect, got)
		}
	}
}
