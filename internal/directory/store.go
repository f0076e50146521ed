package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CosmoTheDev/prnotify/internal/database"
)

type userRow struct {
	Login       string `db:"login"`
	Email       string `db:"email"`
	SlackUserID string `db:"slack_user_id"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

const selectUsers = `SELECT login, email, slack_user_id, created_at, updated_at FROM users`

// Store is a directory kept in the users table. Logins are stored lowercased.
type Store struct {
	db database.DB
}

// NewStore wraps db. The caller owns db and must have run Migrate.
func NewStore(db database.DB) *Store {
	return &Store{db: db}
}

// Lookup implements Directory.
func (s *Store) Lookup(ctx context.Context, login string) (Entry, error) {
	var row userRow
	err := s.db.Get(ctx, &row, selectUsers+` WHERE login = ?`, normalize(login))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, login)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("looking up %s: %w", login, err)
	}
	return row.entry(), nil
}

// List returns every stored entry ordered by login.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var rows []userRow
	if err := s.db.Select(ctx, &rows, selectUsers+` ORDER BY login`); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = r.entry()
	}
	return out, nil
}

// Put inserts or replaces an entry.
func (s *Store) Put(ctx context.Context, e Entry) error {
	login := normalize(e.Login)
	if login == "" {
		return fmt.Errorf("login is required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := now
	var existing userRow
	if err := s.db.Get(ctx, &existing, selectUsers+` WHERE login = ?`, login); err == nil {
		createdAt = existing.CreatedAt
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("loading %s: %w", login, err)
	}
	row := userRow{
		Login:       login,
		Email:       strings.TrimSpace(e.Email),
		SlackUserID: strings.TrimSpace(e.SlackUserID),
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
	if err := s.db.Upsert(ctx, "users", row, []string{"login"}); err != nil {
		return fmt.Errorf("saving %s: %w", login, err)
	}
	return nil
}

// Delete removes a login. Deleting an unknown login is not an error.
func (s *Store) Delete(ctx context.Context, login string) error {
	if err := s.db.Exec(ctx, `DELETE FROM users WHERE login = ?`, normalize(login)); err != nil {
		return fmt.Errorf("deleting %s: %w", login, err)
	}
	return nil
}

// Import stores every entry and returns how many were written.
func (s *Store) Import(ctx context.Context, entries []Entry) (int, error) {
	n := 0
	for _, e := range entries {
		if err := s.Put(ctx, e); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r userRow) entry() Entry {
	return Entry{Login: r.Login, Email: r.Email, SlackUserID: r.SlackUserID}
}
