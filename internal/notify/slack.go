package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/CosmoTheDev/prnotify/internal/classify"
	"github.com/CosmoTheDev/prnotify/internal/directory"
	"github.com/CosmoTheDev/prnotify/internal/slack"
)

// SlackAPI is the part of the Slack client the channel uses.
type SlackAPI interface {
	LookupUserByEmail(ctx context.Context, email string) (string, error)
	PostMessage(ctx context.Context, channel, text string) (string, error)
}

// SlackChannel sends each message as a Slack direct message to the
// recipient's account.
type SlackChannel struct {
	api SlackAPI
	dir directory.Directory

	mu  sync.Mutex
	ids map[string]string // lowercased email -> Slack user ID
}

// NewSlack creates a SlackChannel. Recipients are resolved through dir.
func NewSlack(api SlackAPI, dir directory.Directory) *SlackChannel {
	return &SlackChannel{api: api, dir: dir, ids: make(map[string]string)}
}

func (s *SlackChannel) Name() string       { return "slack" }
func (s *SlackChannel) IsConfigured() bool { return s.api != nil && s.dir != nil }

// Send posts the batch in order. Unknown recipients are skipped with a
// warning; other failures are collected and the remaining messages are
// still attempted.
func (s *SlackChannel) Send(ctx context.Context, batch []classify.Message) error {
	var errs []error
	for _, m := range batch {
		id, err := s.resolve(ctx, m.Recipient)
		if err != nil {
			if errors.Is(err, directory.ErrNotFound) || slack.IsNotFound(err) {
				slog.Warn("slack: no account for recipient, skipping", "login", m.Recipient, "error", err)
				continue
			}
			errs = append(errs, fmt.Errorf("resolving %s: %w", m.Recipient, err))
			continue
		}
		if _, err := s.api.PostMessage(ctx, id, m.Body); err != nil {
			errs = append(errs, fmt.Errorf("messaging %s: %w", m.Recipient, err))
			continue
		}
		slog.Debug("slack: message sent", "login", m.Recipient, "slack_user_id", id)
	}
	return errors.Join(errs...)
}

// resolve maps a login to a Slack user ID: a directory-pinned ID first, then
// users.lookupByEmail. The directory is consulted on every call so edits
// picked up by a reload apply to the next message; only the email to user ID
// mapping is cached.
func (s *SlackChannel) resolve(ctx context.Context, login string) (string, error) {
	entry, err := s.dir.Lookup(ctx, login)
	if err != nil {
		return "", err
	}
	if entry.SlackUserID != "" {
		return entry.SlackUserID, nil
	}
	if entry.Email == "" {
		return "", fmt.Errorf("%w: %s has no email", directory.ErrNotFound, login)
	}

	key := strings.ToLower(entry.Email)
	s.mu.Lock()
	id, ok := s.ids[key]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	id, err = s.api.LookupUserByEmail(ctx, entry.Email)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.ids[key] = id
	s.mu.Unlock()
	return id, nil
}
