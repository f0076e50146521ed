package notify

import (
	"context"
	"log/slog"

	"github.com/CosmoTheDev/prnotify/internal/classify"
)

// LogChannel writes messages to the log instead of delivering them.
type LogChannel struct{}

// NewLog creates a LogChannel.
func NewLog() *LogChannel { return &LogChannel{} }

func (LogChannel) Name() string       { return "log" }
func (LogChannel) IsConfigured() bool { return true }

func (LogChannel) Send(_ context.Context, batch []classify.Message) error {
	for _, m := range batch {
		slog.Info("notify: dry run", "recipient", m.Recipient, "body", m.Body)
	}
	return nil
}
