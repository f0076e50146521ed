package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/CosmoTheDev/prnotify/internal/classify"
	"github.com/CosmoTheDev/prnotify/internal/config"
	"github.com/CosmoTheDev/prnotify/internal/directory"
	"github.com/CosmoTheDev/prnotify/internal/slack"
)

// Dispatcher fans message batches out to all configured channels.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher keeps only the channels with IsConfigured() == true, in the
// order given.
func NewDispatcher(channels ...Channel) *Dispatcher {
	d := &Dispatcher{}
	for _, ch := range channels {
		if ch != nil && ch.IsConfigured() {
			d.channels = append(d.channels, ch)
		}
	}
	return d
}

// FromConfig builds the dispatcher for cfg. Slack and email resolve
// recipients through dir. With notify.dry_run set, the log channel is the
// only one.
func FromConfig(cfg *config.Config, dir directory.Directory) *Dispatcher {
	if cfg.Notify.DryRun {
		return NewDispatcher(NewLog())
	}
	var channels []Channel
	if cfg.Slack.Token != "" {
		api := slack.New(cfg.Slack.Token, slack.WithBaseURL(cfg.Slack.APIURL))
		channels = append(channels, NewSlack(api, dir))
	}
	channels = append(channels,
		NewEmail(cfg.Notify.Email, dir),
		NewWebhook(cfg.Notify.Webhook),
	)
	return NewDispatcher(channels...)
}

// IsAnyConfigured returns true if at least one channel is ready to send.
func (d *Dispatcher) IsAnyConfigured() bool {
	return len(d.channels) > 0
}

// Names lists the active channels.
func (d *Dispatcher) Names() []string {
	out := make([]string, len(d.channels))
	for i, ch := range d.channels {
		out[i] = ch.Name()
	}
	return out
}

// Send hands batch to every channel. A failing channel does not stop the
// others; all failures are logged and returned joined.
func (d *Dispatcher) Send(ctx context.Context, batch []classify.Message) error {
	if len(batch) == 0 {
		return nil
	}
	var errs []error
	for _, ch := range d.channels {
		if err := ch.Send(ctx, batch); err != nil {
			slog.Warn("notify: channel send failed", "channel", ch.Name(), "messages", len(batch), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}
