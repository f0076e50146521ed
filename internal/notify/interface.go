// Package notify delivers classified message batches to people.
package notify

import (
	"context"

	"github.com/CosmoTheDev/prnotify/internal/classify"
)

// Sender accepts one message batch. Messages are delivered in batch order;
// there are no retries.
type Sender interface {
	Send(ctx context.Context, batch []classify.Message) error
}

// Channel is implemented by each notification provider.
type Channel interface {
	Sender
	Name() string
	IsConfigured() bool
}
