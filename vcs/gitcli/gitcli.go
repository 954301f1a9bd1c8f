// Package gitcli implements vcs.Interface using the git commandline tool.
package gitcli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeffrom/semrel/config"
	"github.com/jeffrom/semrel/model"
	"github.com/jeffrom/semrel/vcs"
)

// Git implements vcs.Interface using the git commandline tool.
type Git struct {
	cfg config.Config
	wd  string
}

func New(cfg config.Config, wd string) *Git {
	return &Git{
		cfg: cfg,
		wd:  wd,
	}
}

func (g *Git) Push(ctx context.Context, upstream, ref string, opts vcs.PushOpts) error {
	args := []string{"push"}
	if opts.Tags {
		args = append(args, "--follow-tags")
	}
	if upstream == "" {
		upstream = "origin"
	}
	args = append(args, upstream)
	if ref != "" {
		args = append(args, ref)
	}

	if g.cfg.Dryrun {
		g.cfg.Printf("+ git %s (dryrun)", ArgsString(args))
		return nil
	}
	_, err := g.call(ctx, args)
	return err
}

const logFormat = "--pretty=tformat:_START_%H_SEP_%aN_SEP_%ae_SEP_%ai_SEP_%cN_SEP_%ce_SEP_%ci_SEP_%s_SEP_%b_END_"

const expectedLogParts = 9

func (g *Git) ReadCommits(ctx context.Context, base, head string) ([]*model.Commit, error) {
	if head == "" {
		head = "HEAD"
	}
	query := head
	if base != "" {
		if _, err := g.call(ctx, []string{"rev-parse", "--verify", "--quiet", base + "^{commit}"}); err != nil {
			return nil, vcs.NotFoundError{Ref: base}
		}
		query = base + ".." + head
	}

	b, err := g.call(ctx, []string{"log", logFormat, query, "--"})
	if err != nil {
		if isEmptyRepoError(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseLog(b)
}

func parseLog(b []byte) ([]*model.Commit, error) {
	var commits []*model.Commit
	scanner := bufio.NewScanner(bytes.NewBuffer(b))
	for scanner.Scan() {
		s := scanner.Text()
		parts := strings.Split(s, "_SEP_")
		if len(parts) != expectedLogParts {
			return nil, fmt.Errorf("gitcli: expected %d parts from git log, got %d", expectedLogParts, len(parts))
		}

		commitID := parts[0]
		if !strings.HasPrefix(commitID, "_START_") {
			return nil, fmt.Errorf("gitcli: unexpected git log line: %q", s)
		}
		commitID = strings.TrimPrefix(commitID, "_START_")

		// body can be multiple lines.
		var body string
		bodypart := parts[len(parts)-1]
		if strings.HasSuffix(bodypart, "_END_") {
			body = strings.TrimSuffix(bodypart, "_END_")
		} else {
			var bodyb strings.Builder
			bodyb.WriteString(bodypart)
			bodyb.WriteString("\n")
			for scanner.Scan() {
				bodyline := scanner.Text()
				if strings.HasSuffix(bodyline, "_END_") {
					if trimmed := strings.TrimSpace(strings.TrimSuffix(bodyline, "_END_")); trimmed != "" {
						bodyb.WriteString(trimmed)
					}
					break
				}
				bodyb.WriteString(bodyline)
				bodyb.WriteString("\n")
			}
			body = bodyb.String()
		}

		authorDate, err := ParseGitISO8601(parts[3])
		if err != nil {
			return nil, err
		}
		committerDate, err := ParseGitISO8601(parts[6])
		if err != nil {
			return nil, err
		}

		commits = append(commits, &model.Commit{
			ID:             commitID,
			Author:         parts[1],
			AuthorEmail:    parts[2],
			AuthorDate:     authorDate,
			Committer:      parts[4],
			CommitterEmail: parts[5],
			CommitterDate:  committerDate,
			Subject:        parts[7],
			Body:           body,
		})
	}
	return commits, scanner.Err()
}

func (g *Git) CreateTag(ctx context.Context, commit, tag string, opts vcs.TagOpts) error {
	if opts.Message == "" {
		return errors.New("gitcli: message is required")
	}
	if g.cfg.InCI && (opts.Author == "" || opts.AuthorEmail == "") {
		g.cfg.Printf("CI: setting author, author email")
		opts.Author = "semrel"
		opts.AuthorEmail = "semrel@localhost"
	}
	if g.cfg.InCI {
		if err := g.setAuthor(ctx, opts.Author, opts.AuthorEmail); err != nil {
			return err
		}
	}

	args := []string{"tag", "-a", tag}
	if commit != "" {
		args = append(args, commit)
	}
	args = append(args, "-m", opts.Message)

	if g.cfg.Dryrun {
		g.cfg.Printf("+ git %s (dryrun)", ArgsString(args))
		return nil
	}
	_, err := g.call(ctx, args)
	return err
}

func (g *Git) ReadTags(ctx context.Context, glob string) ([]string, error) {
	args := []string{"tag"}
	if glob != "" {
		args = append(args, "-l", glob)
	}
	b, err := g.call(ctx, args)
	if err != nil {
		return nil, err
	}
	var tags []string
	scanner := bufio.NewScanner(bytes.NewBuffer(b))
	for scanner.Scan() {
		if s := scanner.Text(); s != "" {
			tags = append(tags, s)
		}
	}
	return tags, scanner.Err()
}

func (g *Git) CurrentCommit(ctx context.Context) (string, error) {
	b, err := g.call(ctx, []string{"rev-parse", "HEAD"})
	if err != nil {
		if isEmptyRepoError(err) {
			return "", vcs.NotFoundError{Ref: "HEAD"}
		}
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (g *Git) setAuthor(ctx context.Context, author, email string) error {
	userArgs := []string{"config", "user.name", author}
	emailArgs := []string{"config", "user.email", email}
	if g.cfg.Dryrun {
		g.cfg.Printf("+ git %s (dryrun)", ArgsString(userArgs))
		g.cfg.Printf("+ git %s (dryrun)", ArgsString(emailArgs))
		return nil
	}
	if _, err := g.call(ctx, userArgs); err != nil {
		return err
	}
	if _, err := g.call(ctx, emailArgs); err != nil {
		return err
	}
	return nil
}
