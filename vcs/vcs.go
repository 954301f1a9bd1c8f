// Package vcs abstracts version control systems. Currently just git, either
// through the git binary or go-git.
package vcs

import (
	"context"
	"fmt"

	"github.com/jeffrom/semrel/model"
)

type NotFoundError struct {
	Ref string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("vcs: ref %q not found", e.Ref)
}

func (e NotFoundError) Is(other error) bool {
	_, ok := other.(NotFoundError)
	return ok
}

type Interface interface {
	// ReadCommits returns the commits reachable from head but not from
	// base, newest first. An empty base reads the whole history and an
	// empty head means HEAD.
	ReadCommits(ctx context.Context, base, head string) ([]*model.Commit, error)

	// ReadTags lists tags matching glob, or all tags when glob is empty.
	ReadTags(ctx context.Context, glob string) ([]string, error)

	CreateTag(ctx context.Context, commit, tag string, opts TagOpts) error
	Push(ctx context.Context, upstream, ref string, opts PushOpts) error
	CurrentCommit(ctx context.Context) (string, error)
}

type TagOpts struct {
	Message     string
	Author      string
	AuthorEmail string
}

type PushOpts struct {
	Tags bool
}
