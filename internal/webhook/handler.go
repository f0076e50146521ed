// Package webhook turns one GitHub webhook delivery into at most one
// transport call.
package webhook

import (
	"context"
	"log/slog"

	"github.com/CosmoTheDev/prnotify/internal/classify"
	"github.com/CosmoTheDev/prnotify/internal/event"
	"github.com/CosmoTheDev/prnotify/internal/notify"
)

// Result describes what a delivery produced.
type Result struct {
	Event    string             `json:"event"`
	Action   string             `json:"action"`
	Messages []classify.Message `json:"messages"`
	Ignored  bool               `json:"ignored"`
}

// Handler decodes, classifies and sends.
type Handler struct {
	sender notify.Sender
}

// NewHandler returns a Handler that hands batches to sender.
func NewHandler(sender notify.Sender) *Handler {
	return &Handler{sender: sender}
}

// Handle processes a delivery named name (the X-GitHub-Event header). A
// payload that cannot be decoded is logged and ignored. The only error
// returned is the sender's.
func (h *Handler) Handle(ctx context.Context, name string, payload []byte) (Result, error) {
	ev, err := event.Decode(name, payload)
	if err != nil {
		slog.Debug("webhook: payload not decodable, ignoring", "event", name, "error", err)
	}

	res := Result{
		Event:    event.Name(ev),
		Action:   ev.EventAction(),
		Messages: classify.Classify(ev),
	}
	if len(res.Messages) == 0 {
		res.Ignored = true
		res.Messages = []classify.Message{}
		slog.Debug("webhook: nothing to send", "event", res.Event, "action", res.Action)
		return res, nil
	}

	if err := h.sender.Send(ctx, res.Messages); err != nil {
		return res, err
	}
	slog.Info("webhook: messages sent", "event", res.Event, "action", res.Action, "messages", len(res.Messages))
	return res, nil
}
