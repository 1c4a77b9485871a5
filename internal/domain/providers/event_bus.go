package providers

import (
	"context"

	"github.com/zatekoja/productar/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to recognition events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, event *entities.RecognitionEvent) error

	// Subscribe returns a channel of events that closes when ctx is done
	Subscribe(ctx context.Context) (<-chan *entities.RecognitionEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelRecognition is the channel recognition events are relayed on
const EventChannelRecognition = "recognition:events"
