package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
)

const defaultSubscriberBuffer = 100

// ChannelBus fans recognition events out to in-process subscribers
type ChannelBus struct {
	mu          sync.RWMutex
	subscribers map[chan *entities.RecognitionEvent]struct{}
	buffer      int
	closed      bool
}

// NewChannelBus creates a bus whose subscriber channels hold buffer events
func NewChannelBus(buffer int) *ChannelBus {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &ChannelBus{
		subscribers: make(map[chan *entities.RecognitionEvent]struct{}),
		buffer:      buffer,
	}
}

var _ providers.EventBus = (*ChannelBus)(nil)

// Publish delivers event to every subscriber. Subscribers with a full buffer miss the event.
func (b *ChannelBus) Publish(ctx context.Context, event *entities.RecognitionEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("event bus closed")
	}
	for subscriber := range b.subscribers {
		select {
		case subscriber <- event:
		default:
			observability.Component("event_bus").Warn().
				Str("event", string(event.Type)).
				Int("target_index", event.TargetIndex).
				Msg("subscriber channel full, skipping event")
		}
	}
	return nil
}

// Subscribe returns a channel of events that closes when ctx is done or the bus closes
func (b *ChannelBus) Subscribe(ctx context.Context) (<-chan *entities.RecognitionEvent, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, fmt.Errorf("event bus closed")
	}
	eventChan := make(chan *entities.RecognitionEvent, b.buffer)
	b.subscribers[eventChan] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(eventChan)
	}()
	return eventChan, nil
}

func (b *ChannelBus) remove(eventChan chan *entities.RecognitionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[eventChan]; !ok {
		return
	}
	delete(b.subscribers, eventChan)
	close(eventChan)
}

// Close closes every subscriber channel
func (b *ChannelBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for subscriber := range b.subscribers {
		close(subscriber)
		delete(b.subscribers, subscriber)
	}
	return nil
}
