package directory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.yaml.in/yaml/v3"
)

// usersDocument is the on-disk layout of a users file:
//
//	users:
//	  - login: octocat
//	    email: octocat@example.com
//	    slack_user_id: U012AB3CD   # optional
type usersDocument struct {
	Users []Entry `yaml:"users"`
}

// File is a directory loaded from a YAML users file. Reload re-reads it.
type File struct {
	path string

	mu      sync.RWMutex
	entries map[string]Entry
}

// OpenFile loads the users file at path.
func OpenFile(path string) (*File, error) {
	f := &File{path: path}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the file this directory reads.
func (f *File) Path() string { return f.path }

// Reload re-reads the file. On error the previous contents stay in place.
func (f *File) Reload() error {
	entries, err := ReadUsersFile(f.path)
	if err != nil {
		return err
	}
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[normalize(e.Login)] = e
	}
	f.mu.Lock()
	f.entries = m
	f.mu.Unlock()
	slog.Debug("directory: users file loaded", "path", f.path, "users", len(m))
	return nil
}

// Lookup implements Directory.
func (f *File) Lookup(_ context.Context, login string) (Entry, error) {
	f.mu.RLock()
	e, ok := f.entries[normalize(login)]
	f.mu.RUnlock()
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, login)
	}
	return e, nil
}

// Entries returns all entries sorted by login.
func (f *File) Entries() []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedEntries(f.entries)
}

// List implements Lister.
func (f *File) List(context.Context) ([]Entry, error) {
	return f.Entries(), nil
}

// ReadUsersFile parses a YAML users file. Entries without a login are
// rejected; duplicate logins keep the last occurrence.
func ReadUsersFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading users file %s: %w", path, err)
	}
	var doc usersDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing users file %s: %w", path, err)
	}
	for i, e := range doc.Users {
		if normalize(e.Login) == "" {
			return nil, fmt.Errorf("users file %s: entry %d has no login", path, i+1)
		}
	}
	return doc.Users, nil
}
