package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/ghodss/yaml"
	"github.com/imdario/mergo"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/jeffrom/semrel/changelog"
	"github.com/jeffrom/semrel/config"
	"github.com/jeffrom/semrel/runner"
	"github.com/jeffrom/semrel/vcs"
	"github.com/jeffrom/semrel/vcs/gitcli"
	"github.com/jeffrom/semrel/vcs/gogit"
)

// overridden by go build -X
var Version string

const configFileName = "semrel.yaml"

var (
	errInvalidVersion = errors.New("invalid version")
	errMismatch       = errors.New("version does not match commits")
)

func main() {
	if err := run(os.Args, &config.DefaultTermIO); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	help         bool
	version      bool
	cfgFile      string
	next         bool
	validate     string
	against      string
	check        bool
	checkCommits []string
	stats        bool
	printConfig  bool
	printPolicy  bool
	date         string
}

func run(rawArgs []string, termio *config.TerminalIO) error {
	var opts options
	flagCfg := &config.Config{}
	flags := pflag.NewFlagSet("semrel", pflag.ContinueOnError)
	flags.SetOutput(termio.Stderr)
	flags.BoolVarP(&opts.help, "help", "h", false, "show help")
	flags.BoolVarP(&opts.version, "version", "V", false, "print version and exit")
	flags.BoolVarP(&flagCfg.Dryrun, "dry-run", "n", false, "Don't write files or create tags")
	flags.BoolVar(&flagCfg.InCI, "ci", false, "Run in CI mode: push tags after releasing")
	flags.BoolVarP(&flagCfg.Debug, "verbose", "v", false, "print additional debugging info")
	flags.BoolVarP(&flagCfg.Quiet, "quiet", "q", false, "print as little as necessary")
	flags.BoolVar(&flagCfg.AlwaysBump, "always-bump", false, "bump patch even when no commit calls for a release")
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "specify config `file`")
	flags.BoolVar(&opts.next, "next", false, "print the next version and exit")
	flags.StringVar(&opts.validate, "validate", "", "validate the `candidate` version and exit")
	flags.StringVar(&opts.against, "against", "", "`base` version for --validate (default: current version)")
	flags.BoolVarP(&opts.check, "check", "C", false, "only validate commits since last release")
	flags.StringArrayVar(&opts.checkCommits, "check-commit", nil, "only validate provided commit `message` (- reads stdin)")
	flags.BoolVarP(&opts.stats, "stats", "S", false, "print repository stats")
	flags.BoolVar(&opts.printConfig, "print-config", false, "print configuration and exit")
	flags.BoolVar(&opts.printPolicy, "print-policy", false, "print active commit policies and exit")
	flags.StringVar(&opts.date, "date", "", "changelog release `date` (YYYY-MM-DD, default: today)")
	flags.StringVar(&flagCfg.ChangelogPath, "changelog", "", "changelog `file` to update")
	flags.StringVar(&flagCfg.ManifestPath, "manifest", "", "manifest `file` holding the version (package.json, Cargo.toml, ...)")
	flags.StringVar(&flagCfg.RepoURL, "repo-url", "", "repository `url` used for commit links")
	flags.StringVar(&flagCfg.LinkTemplate, "link-template", "", "go text/template for commit link `format`")
	flags.StringVar(&flagCfg.BaseRef, "base", "", "read commits since `ref` instead of the latest release")
	flags.StringVar(&flagCfg.Backend, "backend", "", "vcs backend: git or go-git")
	flags.StringVar(&flagCfg.TagTemplate, "template", "", "go text/template for tag `format`")
	flags.StringVar(&flagCfg.LogTemplate, "shortlog-template", "", "go text/template for the tag message `format`")
	flags.StringVar(&flagCfg.Name, "name", "", "name the project")
	flags.StringArrayVar(&flagCfg.AllowedScopes, "allowed-scope", nil, "declare allowed scopes' `name`s")
	flags.StringArrayVar(&flagCfg.AllowedTypes, "allowed-type", nil, "declare allowed commit `type`s")
	flags.StringArrayVar(&flagCfg.Policies, "policy", nil, "declare commit policies by `name`")

	if err := flags.Parse(rawArgs[1:]); err != nil {
		return err
	}

	fileCfg, err := readConfigFile(opts.cfgFile)
	if err != nil {
		return err
	}
	cfg := config.NewWithTerminalIO(fileCfg, termio)
	if err := mergo.Merge(&cfg, *flagCfg, mergo.WithOverride); err != nil {
		return err
	}
	if !cfg.InCI {
		if env := os.Getenv("CI"); env == "true" || env == "1" || env == "yes" {
			cfg.InCI = true
		}
	}
	color.NoColor = !isTerminal(termio.Stdout)

	if opts.help {
		usage(cfg, flags)
		return nil
	}
	if opts.version {
		cfg.Printf("%s", Version)
		return nil
	}
	if cfg.Debug {
		b, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		cfg.Debugf("config: %s", string(b))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if opts.printConfig {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cfg.Term.Stdout, string(b))
		return nil
	}
	if opts.printPolicy {
		for _, pol := range cfg.GetPolicies() {
			if err := pol.TextSummary(cfg.Term.Stdout); err != nil {
				return err
			}
		}
		return nil
	}

	now := time.Now()
	if opts.date != "" {
		now, err = time.Parse(changelog.DateFormat, opts.date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", opts.date)
		}
	}
	// done setting up config

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	rnr, err := runner.New(cfg, backend)
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch {
	case opts.stats:
		stats, err := rnr.Stats(ctx)
		if err != nil {
			return err
		}
		return stats.TextSummary(cfg.Term.Stdout)

	case opts.check || flags.Lookup("check-commit").Changed:
		return checkCommits(ctx, cfg, rnr, opts)

	case flags.Lookup("validate").Changed:
		return validateVersion(ctx, cfg, rnr, opts.validate, opts.against)
	}

	rel, err := rnr.Plan(ctx, now)
	if err != nil {
		return err
	}

	if opts.next {
		fmt.Fprintln(cfg.Term.Stdout, rel.Next)
		return nil
	}
	if cfg.Quiet {
		if !rel.Skip() {
			fmt.Fprintln(cfg.Term.Stdout, rel.Tag)
		}
	} else if rel.Skip() {
		cfg.Printf("%s %s", color.YellowString("skip"), rel)
	} else {
		cfg.Printf("%s %s -> %s (%s)", color.GreenString("release"), rel.Current, color.GreenString(rel.Next.String()), rel.Bump)
		for _, ac := range rel.Analyzed {
			cfg.Debugf("  %s %-6s %s", ac.ShortID(), ac.ReleaseBump(), ac.Description)
		}
	}

	if err := rnr.Write(ctx, rel); err != nil {
		return err
	}

	if cfg.InCI && !rel.Skip() {
		cfg.Printf("Pushing tags in CI mode...")
		if err := rnr.PushTags(ctx); err != nil {
			return err
		}
	}
	return nil
}

func openBackend(cfg config.Config) (vcs.Interface, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case config.BackendGoGit:
		return gogit.Open(cfg, wd)
	default:
		return gitcli.New(cfg, wd), nil
	}
}

func checkCommits(ctx context.Context, cfg config.Config, rnr *runner.Runner, opts options) error {
	var err error
	switch {
	case opts.check:
		_, err = rnr.CheckCommitsFromVCS(ctx)
	case len(opts.checkCommits) == 1 && opts.checkCommits[0] == "-":
		if isTerminal(cfg.Term.Stdin) {
			return errors.New("--check-commit -: expected a commit message on stdin")
		}
		_, err = rnr.CheckReadCommit(ctx, cfg.Term.Stdin)
	default:
		_, err = rnr.CheckCommits(ctx, opts.checkCommits)
	}

	if err != nil {
		cf := runner.CheckFailure{}
		if errors.As(err, &cf) {
			if werr := cf.WriteFailure(cfg.Term.Stdout); werr != nil {
				cfg.Errorf("failed to write invalid commit information: %v", werr)
			}
		}
		return err
	}
	cfg.Printf("%s", color.GreenString("OK"))
	return nil
}

func validateVersion(ctx context.Context, cfg config.Config, rnr *runner.Runner, candidate, base string) error {
	vc, err := rnr.CheckVersion(ctx, candidate, base)
	if err != nil {
		return err
	}
	if !vc.Valid {
		cfg.Printf("%s %s", color.RedString("invalid:"), vc.Reason)
		return fmt.Errorf("%w: %s", errInvalidVersion, vc.Reason)
	}
	if !vc.Agrees() {
		cfg.Printf("%s %s -> %s is a %s bump, but the commits since %s call for %s",
			color.RedString("mismatch:"), vc.Base, vc.Candidate, vc.Bump, vc.Base, vc.Expected)
		return fmt.Errorf("%w: expected a %s bump", errMismatch, vc.Expected)
	}
	cfg.Printf("%s %s -> %s (%s)", color.GreenString("valid:"), vc.Base, vc.Candidate, vc.Bump)
	return nil
}

func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func usage(cfg config.Config, flags *pflag.FlagSet) {
	cfg.Printf(`%s [flags]

Compute the next semantic version from conventional commits, update the
changelog and create the release tag.

FLAGS
%s

EXAMPLES

# release, if there are any releasable commits since the last tag
$ semrel

# see what would happen
$ semrel -n -v

# print the next version only
$ semrel --next

# check a proposed version against the latest release
$ semrel --validate 1.3.0

# bump package.json and link commits in CHANGELOG.md
$ semrel --manifest package.json --repo-url https://github.com/me/proj

# validate commits since the last release against the commit policies
$ semrel --check
`, filepath.Base(os.Args[0]), flags.FlagUsages())
}

// readConfigFile reads p, or semrel.yaml found by walking up from the
// working directory.
func readConfigFile(p string) (*config.Config, error) {
	if p != "" {
		return parseConfigFile(p)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	for {
		cfg, err := parseConfigFile(filepath.Join(wd, configFileName))
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return nil, nil
		}
		wd = parent
	}
}

func parseConfigFile(p string) (*config.Config, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := &config.Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return cfg, nil
}
