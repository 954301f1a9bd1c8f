package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeffrom/semrel/config"
	"github.com/jeffrom/semrel/runner"
	"github.com/jeffrom/semrel/vcs/gitcli"
)

type testOperation struct {
	Commit     string
	Tag        string
	File       string
	Content    string
	GitArgs    []string
	Args       []string
	ShouldFail bool
}

func strs(args ...string) []string { return args }

func requireGit(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("-short")
	}
	gitPath, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not found")
	}
	return gitPath
}

func call(ctx context.Context, t *testing.T, arg string, args ...string) {
	t.Helper()
	t.Logf("+ %s %s", arg, gitcli.ArgsString(args))
	cmd := exec.CommandContext(ctx, arg, args...)
	out := &bytes.Buffer{}
	cmd.Stdout = out
	cmd.Stderr = out
	if arg == "git" {
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=semrel-test",
			"GIT_AUTHOR_EMAIL=semrel-test@example.com",
			"GIT_COMMITTER_NAME=semrel-test",
			"GIT_COMMITTER_EMAIL=semrel-test@example.com",
		)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("%s %s: %v\n%s", arg, gitcli.ArgsString(args), err, out.String())
	}
}

func gitOutput(ctx context.Context, t *testing.T, args ...string) string {
	t.Helper()
	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err != nil {
		t.Fatalf("git %s: %v", gitcli.ArgsString(args), err)
	}
	return string(out)
}

func callSemrel(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Logf("semrel(%s)", gitcli.ArgsString(args))
	stdout := &bytes.Buffer{}
	termio := &config.TerminalIO{Stdin: strings.NewReader(""), Stdout: stdout, Stderr: stdout}
	err := run(append([]string{"semrel"}, args...), termio)
	t.Logf("output:\n%s", stdout.String())
	return stdout.String(), err
}

// runOp applies one operation and returns the output of semrel, if it ran.
func runOp(ctx context.Context, t *testing.T, op testOperation) string {
	t.Helper()
	if op.File != "" {
		if err := os.WriteFile(op.File, []byte(op.Content), 0o644); err != nil {
			t.Fatal(err)
		}
		call(ctx, t, "git", "add", op.File)
	}
	if op.Commit != "" {
		call(ctx, t, "git", "commit", "--allow-empty", "-m", op.Commit)
	}
	if op.Tag != "" {
		call(ctx, t, "git", "tag", "-a", op.Tag, "-m", op.Tag)
	}
	if op.GitArgs != nil {
		call(ctx, t, "git", op.GitArgs...)
	}
	if op.Args == nil {
		return ""
	}
	out, err := callSemrel(t, op.Args...)
	if op.ShouldFail {
		if err == nil {
			t.Fatalf("expected semrel %s to fail", gitcli.ArgsString(op.Args))
		}
		return out
	}
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// setupRepo creates a repository in a temp dir and changes into it.
func setupRepo(ctx context.Context, t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	call(ctx, t, "git", "init", "-q")
	call(ctx, t, "git", "config", "--local", "user.email", "semrel-test@example.com")
	call(ctx, t, "git", "config", "--local", "user.name", "semrel-test")
	call(ctx, t, "git", "config", "--local", "tag.gpgSign", "false")
	call(ctx, t, "git", "config", "--local", "commit.gpgSign", "false")
	return dir
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

type releaseTestCase struct {
	name  string
	ops   []testOperation
	check func(ctx context.Context, t *testing.T, dir, out string)
}

var releaseTestCases = []releaseTestCase{
	{
		name: "release",
		ops: []testOperation{
			{Commit: "chore: init"},
			{Tag: "v0.1.0"},
			{Commit: "feat: a thing"},
			{Commit: "fix(api): a bug"},
			{Args: strs("--date", "2024-01-15")},
		},
		check: func(ctx context.Context, t *testing.T, dir, out string) {
			if !strings.Contains(out, "0.1.0 -> 0.2.0 (minor)") {
				t.Errorf("unexpected output: %q", out)
			}
			if tags := gitOutput(ctx, t, "tag", "-l"); tags != "v0.1.0\nv0.2.0\n" {
				t.Errorf("unexpected tags: %q", tags)
			}
			msg := gitOutput(ctx, t, "tag", "-l", "--format=%(contents)", "v0.2.0")
			if !strings.HasPrefix(msg, "release: v0.2.0\n") || !strings.Contains(msg, "* feat: a thing (") {
				t.Errorf("unexpected tag message: %q", msg)
			}

			cl := readFile(t, filepath.Join(dir, "CHANGELOG.md"))
			if !strings.HasPrefix(cl, "## [0.2.0] - 2024-01-15\n\n### Added\n- a thing ([") {
				t.Errorf("unexpected changelog:\n%s", cl)
			}
			if !strings.Contains(cl, "\n\n### Fixed\n- **api**: a bug ([") {
				t.Errorf("expected fixed section:\n%s", cl)
			}
		},
	},
	{
		name: "first-release",
		ops: []testOperation{
			{Commit: "feat: a thing"},
			{Args: strs("-q", "--changelog", "HISTORY.md")},
		},
		check: func(ctx context.Context, t *testing.T, dir, out string) {
			if out != "v0.1.0\n" {
				t.Errorf("expected quiet output to be the tag, got %q", out)
			}
			if tags := gitOutput(ctx, t, "tag", "-l"); tags != "v0.1.0\n" {
				t.Errorf("unexpected tags: %q", tags)
			}
			if cl := readFile(t, filepath.Join(dir, "HISTORY.md")); !strings.HasPrefix(cl, "## [0.1.0] - ") {
				t.Errorf("unexpected changelog:\n%s", cl)
			}
		},
	},
	{
		name: "next",
		ops: []testOperation{
			{Commit: "chore: init"},
			{Tag: "v1.2.3"},
			{Commit: "feat!: drop support"},
			{Args: strs("--next")},
		},
		check: func(ctx context.Context, t *testing.T, dir, out string) {
			if out != "2.0.0\n" {
				t.Errorf("expected 2.0.0, got %q", out)
			}
			if tags := gitOutput(ctx, t, "tag", "-l"); tags != "v1.2.3\n" {
				t.Errorf("expected no new tags, got %q", tags)
			}
		},
	},
	{
		name: "skip",
		ops: []testOperation{
			{Commit: "chore: init"},
			{Tag: "v1.0.0"},
			{Commit: "wip: not done"},
			{Args: strs()},
		},
		check: func(ctx context.Context, t *testing.T, dir, out string) {
			if !strings.Contains(out, "skip 1.0.0 (no release)") {
				t.Errorf("unexpected output: %q", out)
			}
			if tags := gitOutput(ctx, t, "tag", "-l"); tags != "v1.0.0\n" {
				t.Errorf("expected no new tags, got %q", tags)
			}
			if _, err := os.Stat(filepath.Join(dir, "CHANGELOG.md")); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("expected no changelog, got %v", err)
			}
		},
	},
	{
		name: "dry-run",
		ops: []testOperation{
			{Commit: "chore: init"},
			{Tag: "v1.0.0"},
			{Commit: "fix: a bug"},
			{Args: strs("-n")},
		},
		check: func(ctx context.Context, t *testing.T, dir, out string) {
			if !strings.Contains(out, "1.0.0 -> 1.0.1 (patch)") {
				t.Errorf("unexpected output: %q", out)
			}
			if tags := gitOutput(ctx, t, "tag", "-l"); tags != "v1.0.0\n" {
				t.Errorf("expected no new tags, got %q", tags)
			}
			if _, err := os.Stat(filepath.Join(dir, "CHANGELOG.md")); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("expected no changelog, got %v", err)
			}
		},
	},
	{
		name: "manifest",
		ops: []testOperation{
			{File: "package.json", Content: "{\n  \"name\": \"cool\",\n  \"version\": \"0.1.0\"\n}\n", Commit: "chore: init"},
			{Tag: "v0.1.0"},
			{Commit: "feat: a thing"},
			{Args: strs("--manifest", "package.json", "--repo-url", "https://github.com/jeffrom/cool")},
		},
		check: func(ctx context.Context, t *testing.T, dir, out string) {
			if got := readFile(t, filepath.Join(dir, "package.json")); got != "{\n  \"name\": \"cool\",\n  \"version\": \"0.2.0\"\n}\n" {
				t.Errorf("unexpected manifest: %q", got)
			}
			if cl := readFile(t, filepath.Join(dir, "CHANGELOG.md")); !strings.Contains(cl, "](https://github.com/jeffrom/cool/commit/") {
				t.Errorf("expected commit links in changelog:\n%s", cl)
			}
		},
	},
	{
		name: "existing-changelog",
		ops: []testOperation{
			{File: "CHANGELOG.md", Content: "# Changelog\n\n## [0.1.0] - 2024-01-01\n\n### Added\n- init\n", Commit: "feat: init"},
			{Tag: "v0.1.0"},
			{Commit: "fix: a bug"},
			{Args: strs("--date", "2024-02-01")},
		},
		check: func(ctx context.Context, t *testing.T, dir, out string) {
			cl := readFile(t, filepath.Join(dir, "CHANGELOG.md"))
			if !strings.HasPrefix(cl, "# Changelog\n\n## [0.1.1] - 2024-02-01\n\n### Fixed\n- a bug ([") {
				t.Errorf("unexpected changelog:\n%s", cl)
			}
			if !strings.HasSuffix(cl, "\n\n## [0.1.0] - 2024-01-01\n\n### Added\n- init\n") {
				t.Errorf("expected old entries to be kept:\n%s", cl)
			}
		},
	},
	{
		name: "validate",
		ops: []testOperation{
			{Commit: "chore: init"},
			{Tag: "v1.0.0"},
			{Commit: "feat: a thing"},
			{Args: strs("--validate", "1.1.0")},
			{Args: strs("--validate", "1.2.0"), ShouldFail: true},
			{Args: strs("--validate", "2.0.0"), ShouldFail: true},
			{Args: strs("--validate", "0.9.0", "--against", "0.8.1")},
		},
	},
	{
		name: "check",
		ops: []testOperation{
			{Commit: "not conventional"},
			{Tag: "v1.0.0"},
			{Commit: "feat: fine"},
			{Args: strs("--check")},
			{Commit: "also not conventional"},
			{Args: strs("--check"), ShouldFail: true},
		},
	},
	{
		name: "stats",
		ops: []testOperation{
			{Commit: "feat(api): one"},
			{Commit: "fix(api): two"},
			{Args: strs("--stats")},
		},
		check: func(ctx context.Context, t *testing.T, dir, out string) {
			if !strings.HasPrefix(out, "2 commits\n") || !strings.Contains(out, "Scope:\n") {
				t.Errorf("unexpected stats:\n%s", out)
			}
		},
	},
}

func TestSemrel(t *testing.T) {
	requireGit(t)
	t.Setenv("CI", "")

	for _, backend := range []string{config.BackendGit, config.BackendGoGit} {
		for _, tc := range releaseTestCases {
			t.Run(backend+"/"+tc.name, func(t *testing.T) {
				ctx := context.Background()
				dir := setupRepo(ctx, t)

				var out string
				for _, op := range tc.ops {
					if op.Args != nil {
						op.Args = append(strs("--backend", backend), op.Args...)
					}
					if o := runOp(ctx, t, op); op.Args != nil {
						out = o
					}
				}
				if tc.check != nil {
					tc.check(ctx, t, dir, out)
				}
			})
		}
	}
}

func TestValidateMismatch(t *testing.T) {
	requireGit(t)
	t.Setenv("CI", "")
	ctx := context.Background()
	setupRepo(ctx, t)
	runOp(ctx, t, testOperation{Commit: "chore: init", Tag: "v1.0.0"})
	runOp(ctx, t, testOperation{Commit: "fix: a bug"})

	out, err := callSemrel(t, "--validate", "1.1.0")
	if !errors.Is(err, errMismatch) {
		t.Fatalf("expected a mismatch, got %v", err)
	}
	if !strings.Contains(out, "call for patch") {
		t.Errorf("unexpected output: %q", out)
	}

	_, err = callSemrel(t, "--validate", "1.0.0")
	if !errors.Is(err, errInvalidVersion) {
		t.Fatalf("expected an invalid version, got %v", err)
	}

	if _, err := callSemrel(t, "--check"); err != nil {
		t.Fatal(err)
	}
	runOp(ctx, t, testOperation{Commit: "oops"})
	if _, err := callSemrel(t, "--check"); !errors.Is(err, runner.CheckFailure{}) {
		t.Fatalf("expected a check failure, got %v", err)
	}
}
