// Package directory resolves GitHub logins to the contact details the
// transport needs to reach a person.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned (wrapped) when no source knows a login.
var ErrNotFound = errors.New("user not found in directory")

// ErrNotReloadable is returned by Chain.Reload when no member can reload.
var ErrNotReloadable = errors.New("directory does not support reload")

// Entry is one person's contact details.
type Entry struct {
	Login       string `yaml:"login"         json:"login"`
	Email       string `yaml:"email"         json:"email"`
	SlackUserID string `yaml:"slack_user_id" json:"slack_user_id,omitempty"`
}

// Directory looks up a GitHub login.
type Directory interface {
	Lookup(ctx context.Context, login string) (Entry, error)
}

// Reloader is implemented by directories backed by a source that can change
// while the process runs.
type Reloader interface {
	Reload() error
}

// Lister is implemented by directories that can enumerate their entries.
type Lister interface {
	List(ctx context.Context) ([]Entry, error)
}

// Chain consults each directory in order; the first hit wins.
type Chain []Directory

// Lookup implements Directory. Errors other than ErrNotFound stop the search.
func (c Chain) Lookup(ctx context.Context, login string) (Entry, error) {
	for _, d := range c {
		e, err := d.Lookup(ctx, login)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Entry{}, err
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, login)
}

// Reload reloads every member that supports it and joins the failures.
// A chain without such a member returns ErrNotReloadable.
func (c Chain) Reload() error {
	var errs []error
	reloaded := 0
	for _, d := range c {
		if !Reloadable(d) {
			continue
		}
		reloaded++
		if err := d.(Reloader).Reload(); err != nil {
			errs = append(errs, err)
		}
	}
	if reloaded == 0 {
		return ErrNotReloadable
	}
	return errors.Join(errs...)
}

// Reloadable reports whether d, or any member of a Chain, can reload.
func Reloadable(d Directory) bool {
	if c, ok := d.(Chain); ok {
		for _, m := range c {
			if Reloadable(m) {
				return true
			}
		}
		return false
	}
	_, ok := d.(Reloader)
	return ok
}

// List merges the entries of every member that supports listing. Earlier
// members win on duplicate logins, matching Lookup.
func (c Chain) List(ctx context.Context) ([]Entry, error) {
	seen := make(map[string]struct{})
	var out []Entry
	for _, d := range c {
		l, ok := d.(Lister)
		if !ok {
			continue
		}
		entries, err := l.List(ctx)
		if err != nil {
			return out, err
		}
		for _, e := range entries {
			key := normalize(e.Login)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, e)
		}
	}
	return out, nil
}

// Static is an in-memory directory built from the config "users" map
// (login → email).
type Static struct {
	entries map[string]Entry
}

// NewStatic builds a Static directory. Logins are matched case-insensitively.
func NewStatic(users map[string]string) *Static {
	s := &Static{entries: make(map[string]Entry, len(users))}
	for login, email := range users {
		login = strings.TrimSpace(login)
		if login == "" {
			continue
		}
		s.entries[normalize(login)] = Entry{Login: login, Email: strings.TrimSpace(email)}
	}
	return s
}

// Lookup implements Directory.
func (s *Static) Lookup(_ context.Context, login string) (Entry, error) {
	if e, ok := s.entries[normalize(login)]; ok {
		return e, nil
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, login)
}

// Entries returns all entries sorted by login.
func (s *Static) Entries() []Entry {
	return sortedEntries(s.entries)
}

// List implements Lister.
func (s *Static) List(context.Context) ([]Entry, error) {
	return s.Entries(), nil
}

func normalize(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

func sortedEntries(m map[string]Entry) []Entry {
	out := make([]Entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return normalize(out[i].Login) < normalize(out[j].Login) })
	return out
}
