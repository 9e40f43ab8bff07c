package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		path = "."
	}
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
}

// GitLog returns up to limit commits reachable from HEAD, newest first.
// A limit <= 0 means no limit.
func GitLog(ctx context.Context, path string, limit int) ([]Entry, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, fmt.Errorf("source: open repo %q: %w", path, err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, ErrNoHistory
		}
		return nil, fmt.Errorf("source: resolve HEAD: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("source: log: %w", err)
	}
	defer iter.Close()

	var entries []Entry
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limit > 0 && len(entries) >= limit {
			return storer.ErrStop
		}
		entries = append(entries, commitEntry(c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: walk log: %w", err)
	}
	return entries, nil
}

// GitLoader wraps GitLog as a Loader.
func GitLoader(path string, limit int) Loader {
	return func(ctx context.Context) ([]Entry, error) {
		return GitLog(ctx, path, limit)
	}
}

func commitEntry(c *object.Commit) Entry {
	subject, rest, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	body := strings.TrimSpace(rest)
	if body == "" {
		body = "_no description_"
	}
	hash := c.Hash.String()
	when := c.Author.When.UTC()
	meta := fmt.Sprintf("%s · %s · %s", c.Author.Name, when.Format("2006-01-02 15:04"), hash[:7])
	if n := c.NumParents(); n > 1 {
		meta += fmt.Sprintf(" · merge of %d", n)
	}
	return Entry{
		ID:    hash,
		Title: strings.TrimSpace(subject),
		Meta:  meta,
		Body:  body,
		Time:  when,
	}
}
