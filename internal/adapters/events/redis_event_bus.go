package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	redisclient "github.com/zatekoja/productar/internal/infrastructure/clients/redis"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
)

// RedisEventBus relays recognition events over Redis Pub/Sub so UI and
// telemetry consumers can run in other processes.
type RedisEventBus struct {
	client       *redisclient.Client
	channel      string
	subscription *redis.PubSub
	subscribers  map[chan *entities.RecognitionEvent]struct{}
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewRedisEventBus creates a bus on channel, or the default recognition channel when empty
func NewRedisEventBus(client *redisclient.Client, channel string) *RedisEventBus {
	if channel == "" {
		channel = providers.EventChannelRecognition
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:      client,
		channel:     channel,
		subscribers: make(map[chan *entities.RecognitionEvent]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, event *entities.RecognitionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	observability.Component("event_bus").Debug().
		Str("channel", b.channel).
		Str("event", string(event.Type)).
		Int("target_index", event.TargetIndex).
		Msg("published recognition event")
	return nil
}

// Subscribe returns a channel of events that closes when ctx is done
func (b *RedisEventBus) Subscribe(ctx context.Context) (<-chan *entities.RecognitionEvent, error) {
	b.mu.Lock()
	if b.ctx.Err() != nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("event bus closed")
	}

	if b.subscription == nil {
		b.subscription = b.client.Client().Subscribe(b.ctx, b.channel)
		go b.receiveMessages(b.subscription)
	}

	eventChan := make(chan *entities.RecognitionEvent, 100)
	b.subscribers[eventChan] = struct{}{}
	subscriberCount := len(b.subscribers)
	b.mu.Unlock()

	observability.Component("event_bus").Info().
		Str("channel", b.channel).
		Int("subscribers", subscriberCount).
		Msg("subscribed to recognition events")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(eventChan)
	}()

	return eventChan, nil
}

// receiveMessages receives messages from Redis and broadcasts them to subscribers
func (b *RedisEventBus) receiveMessages(pubsub *redis.PubSub) {
	logger := observability.Component("event_bus")

	ch := pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event entities.RecognitionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn().Err(err).Str("channel", b.channel).Msg("failed to unmarshal recognition event")
				continue
			}

			b.mu.RLock()
			for subscriber := range b.subscribers {
				e := event
				select {
				case subscriber <- &e:
				default:
					logger.Warn().Str("channel", b.channel).Str("event", string(event.Type)).
						Msg("subscriber channel full, skipping event")
				}
			}
			b.mu.RUnlock()
		}
	}
}

func (b *RedisEventBus) removeSubscriber(eventChan chan *entities.RecognitionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[eventChan]; !ok {
		return
	}
	delete(b.subscribers, eventChan)
	close(eventChan)

	if len(b.subscribers) == 0 && b.subscription != nil {
		_ = b.subscription.Close()
		b.subscription = nil
		observability.Component("event_bus").Info().Str("channel", b.channel).Msg("closed subscription")
	}
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.subscribers {
		close(subscriber)
		delete(b.subscribers, subscriber)
	}
	if b.subscription != nil {
		err := b.subscription.Close()
		b.subscription = nil
		if err != nil {
			return fmt.Errorf("failed to close subscription %s: %w", b.channel, err)
		}
	}
	return nil
}
