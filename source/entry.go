// Package source produces the records shown in the list and the list items
// that draw them.
//
// Two sources exist: a deterministic synthetic generator whose entries vary
// widely in height, and the commit history of a git repository.
package source

import (
	"context"
	"errors"
	"time"
)

// Entry is one record from a data source. Body is markdown.
type Entry struct {
	ID    string
	Title string
	Meta  string
	Body  string
	Time  time.Time
}

// ErrNoHistory is returned by GitLog for a repository without commits.
var ErrNoHistory = errors.New("source: repository has no commits")

// Loader loads the full entry set of one source.
type Loader func(ctx context.Context) ([]Entry, error)
