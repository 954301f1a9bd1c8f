package model

import (
	"strings"
	"time"
)

// Commit is a raw commit record as read from version control. It is never
// modified after being read.
type Commit struct {
	ID             string `json:"commit"`
	Author         string
	AuthorEmail    string
	AuthorDate     time.Time
	Committer      string
	CommitterEmail string
	CommitterDate  time.Time
	Subject        string
	Body           string
}

// ShortID abbreviates a commit id to eight characters.
func ShortID(id string) string {
	if len(id) < 8 {
		return id
	}
	return id[:8]
}

func (c *Commit) ShortID() string { return ShortID(c.ID) }

// Message returns the full commit message: the subject, then the body
// separated by a blank line.
func (c *Commit) Message() string {
	body := strings.TrimRight(c.Body, "\n")
	if body == "" {
		return c.Subject
	}
	return c.Subject + "\n\n" + body
}
