package events

import (
	"context"
	"sync"

	"github.com/maitricare/emergency-locator/internal/domain/entities"
)

// LocalEventBus is an in-process event bus. It backs single-instance
// deployments without Redis and the test suite.
type LocalEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.SearchEvent]struct{}
	closed      bool
}

// NewLocalEventBus creates a new in-process event bus
func NewLocalEventBus() *LocalEventBus {
	return &LocalEventBus{
		subscribers: make(map[string]map[chan *entities.SearchEvent]struct{}),
	}
}

// Publish delivers an event to all current subscribers of the channel
func (b *LocalEventBus) Publish(ctx context.Context, channel string, event *entities.SearchEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- event:
		default:
			// Subscriber channel full, skip event
		}
	}
	return nil
}

// Subscribe registers a new subscriber on the channel
func (b *LocalEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SearchEvent, error) {
	b.mu.Lock()
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.SearchEvent]struct{})
	}
	eventChan := make(chan *entities.SearchEvent, 100)
	b.subscribers[channel][eventChan] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

// Unsubscribe drops every subscriber of the channel
func (b *LocalEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

// Close closes the bus and all subscriber channels
func (b *LocalEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	return nil
}

func (b *LocalEventBus) removeSubscriber(channel string, eventChan chan *entities.SearchEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, exists := b.subscribers[channel]
	if !exists {
		return
	}
	if _, ok := subscribers[eventChan]; !ok {
		return
	}

	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
	}
}
