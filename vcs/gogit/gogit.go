// Package gogit implements vcs.Interface with go-git, so no git binary is
// needed.
package gogit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/jeffrom/semrel/config"
	"github.com/jeffrom/semrel/model"
	"github.com/jeffrom/semrel/vcs"
)

const (
	defaultTagger      = "semrel"
	defaultTaggerEmail = "semrel@localhost"
)

// Repo implements vcs.Interface on top of a go-git repository.
type Repo struct {
	cfg  config.Config
	repo *git.Repository
	now  func() time.Time
}

func New(cfg config.Config, repo *git.Repository) *Repo {
	return &Repo{cfg: cfg, repo: repo, now: time.Now}
}

// Open opens the repository containing wd.
func Open(cfg config.Config, wd string) (*Repo, error) {
	if wd == "" {
		wd = "."
	}
	repo, err := git.PlainOpenWithOptions(wd, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("gogit: open %s: %w", wd, err)
	}
	return New(cfg, repo), nil
}

func (r *Repo) ReadCommits(ctx context.Context, base, head string) ([]*model.Commit, error) {
	headHash, err := r.resolve(head)
	if err != nil {
		if head == "" && errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, err
	}

	exclude := make(map[plumbing.Hash]bool)
	if base != "" {
		baseHash, err := r.resolve(base)
		if err != nil {
			return nil, err
		}
		if err := r.walk(ctx, baseHash, func(c *object.Commit) error {
			exclude[c.Hash] = true
			return nil
		}); err != nil {
			return nil, err
		}
	}

	var commits []*model.Commit
	err = r.walk(ctx, headHash, func(c *object.Commit) error {
		if exclude[c.Hash] {
			return nil
		}
		commits = append(commits, toModel(c))
		return nil
	})
	return commits, err
}

func (r *Repo) walk(ctx context.Context, from plumbing.Hash, fn func(c *object.Commit) error) error {
	iter, err := r.repo.Log(&git.LogOptions{From: from, Order: git.LogOrderDFS})
	if err != nil {
		return err
	}
	defer iter.Close()
	return iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(c)
	})
}

// resolve returns the commit a revision points at, peeling annotated tags.
func (r *Repo) resolve(rev string) (plumbing.Hash, error) {
	if rev == "" || rev == "HEAD" {
		ref, err := r.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return ref.Hash(), nil
	}

	if ref, err := r.repo.Tag(rev); err == nil {
		tag, err := r.repo.TagObject(ref.Hash())
		switch {
		case err == nil:
			c, err := tag.Commit()
			if err != nil {
				return plumbing.ZeroHash, err
			}
			return c.Hash, nil
		case errors.Is(err, plumbing.ErrObjectNotFound):
			return ref.Hash(), nil
		default:
			return plumbing.ZeroHash, err
		}
	}

	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, vcs.NotFoundError{Ref: rev}
	}
	return *h, nil
}

func toModel(c *object.Commit) *model.Commit {
	subject, body, _ := strings.Cut(c.Message, "\n")
	body = strings.TrimLeft(body, "\n")
	return &model.Commit{
		ID:             c.Hash.String(),
		Author:         c.Author.Name,
		AuthorEmail:    c.Author.Email,
		AuthorDate:     c.Author.When,
		Committer:      c.Committer.Name,
		CommitterEmail: c.Committer.Email,
		CommitterDate:  c.Committer.When,
		Subject:        strings.TrimSuffix(subject, "\r"),
		Body:           body,
	}
}

// ReadTags lists tags matching glob, sorted by name like git tag -l.
func (r *Repo) ReadTags(ctx context.Context, glob string) ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if glob != "" {
			ok, err := path.Match(glob, name)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		tags = append(tags, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(tags)
	return tags, nil
}

func (r *Repo) CreateTag(ctx context.Context, commit, tag string, opts vcs.TagOpts) error {
	if opts.Message == "" {
		return errors.New("gogit: message is required")
	}
	hash, err := r.resolve(commit)
	if err != nil {
		return err
	}

	name, email := opts.Author, opts.AuthorEmail
	if name == "" || email == "" {
		name, email = r.tagger()
	}

	if r.cfg.Dryrun {
		r.cfg.Printf("+ tag %s %s (dryrun)", tag, hash)
		return nil
	}
	_, err = r.repo.CreateTag(tag, hash, &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: name, Email: email, When: r.now()},
		Message: opts.Message,
	})
	return err
}

func (r *Repo) tagger() (string, string) {
	if !r.cfg.InCI {
		if c, err := r.repo.ConfigScoped(gitconfig.GlobalScope); err == nil && c.User.Name != "" && c.User.Email != "" {
			return c.User.Name, c.User.Email
		}
	}
	return defaultTagger, defaultTaggerEmail
}

func (r *Repo) Push(ctx context.Context, upstream, ref string, opts vcs.PushOpts) error {
	if upstream == "" {
		upstream = "origin"
	}
	var specs []gitconfig.RefSpec
	if ref != "" {
		name := plumbing.NewBranchReferenceName(ref)
		specs = append(specs, gitconfig.RefSpec(name+":"+name))
	}
	if opts.Tags {
		specs = append(specs, gitconfig.RefSpec("refs/tags/*:refs/tags/*"))
	}

	if r.cfg.Dryrun {
		r.cfg.Printf("+ push %s %v (dryrun)", upstream, specs)
		return nil
	}

	po := &git.PushOptions{RemoteName: upstream, RefSpecs: specs}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		po.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
	}
	err := r.repo.PushContext(ctx, po)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

func (r *Repo) CurrentCommit(ctx context.Context) (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", vcs.NotFoundError{Ref: "HEAD"}
		}
		return "", err
	}
	return ref.Hash().String(), nil
}
