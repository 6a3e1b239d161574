package providers

import (
	"context"

	"github.com/maitricare/emergency-locator/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to locator
// run lifecycle events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SearchEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SearchEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelSearchRuns is the channel carrying all locator run transitions
const EventChannelSearchRuns = "locator:runs"
