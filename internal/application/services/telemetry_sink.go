package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
	"github.com/zatekoja/productar/pkg/config"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

const (
	defaultTelemetryQueue = 500
	telemetrySendTimeout  = 5 * time.Second
	// a failed event is re-queued this many times before it is dropped
	telemetryMaxRequeues = 1
)

type queuedEvent struct {
	event    entities.AnalyticsEvent
	requeues int
}

// TelemetrySink records analytics events fire-and-forget and delivers them in batches
type TelemetrySink struct {
	transport providers.TelemetryTransport
	cfg       config.TelemetryConfig
	clock     Clock
	metrics   *observability.Metrics
	sessionID string

	mu    sync.Mutex
	queue []queuedEvent

	inflight sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

// NewTelemetrySink creates a sink. The session id is generated here and reused for every event.
func NewTelemetrySink(cfg config.TelemetryConfig, transport providers.TelemetryTransport, clock Clock, metrics *observability.Metrics) *TelemetrySink {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = defaultTelemetryQueue
	}
	return &TelemetrySink{
		transport: transport,
		cfg:       cfg,
		clock:     clock,
		metrics:   metrics,
		sessionID: uuid.NewString(),
		stop:      make(chan struct{}),
	}
}

func (s *TelemetrySink) SessionID() string {
	return s.sessionID
}

// Pending returns the number of queued events
func (s *TelemetrySink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Track records an event. It never blocks on the transport and is a no-op when telemetry is disabled.
func (s *TelemetrySink) Track(eventType entities.AnalyticsEventType, productID string, metadata map[string]interface{}) {
	if !s.cfg.Enabled {
		return
	}

	meta := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	event := entities.AnalyticsEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		ProductID: productID,
		SessionID: s.sessionID,
		Metadata:  meta,
		Timestamp: s.clock.Now(),
	}

	if s.cfg.Batching {
		s.enqueue(queuedEvent{event: event})
		return
	}

	s.mu.Lock()
	batch := append(s.queue, queuedEvent{event: event})
	s.queue = nil
	s.mu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), telemetrySendTimeout)
		defer cancel()
		s.send(ctx, batch)
	}()
}

// TrackButton records a call-to-action click
func (s *TelemetrySink) TrackButton(productID, buttonID string) {
	s.Track(entities.AnalyticsEventButtonClick, productID, map[string]interface{}{"buttonId": buttonID})
}

// Start records the session start and, when batching, flushes on the configured interval until ctx is done or Close is called.
func (s *TelemetrySink) Start(ctx context.Context) {
	s.Track(entities.AnalyticsEventSessionStart, "", nil)

	if !s.cfg.Enabled || !s.cfg.Batching || s.cfg.FlushInterval <= 0 {
		return
	}

	s.stopped = make(chan struct{})
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.cfg.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.Flush(ctx)
			}
		}
	}()
}

// Flush sends every queued event as one batch. Transport failures are logged, never returned.
func (s *TelemetrySink) Flush(ctx context.Context) {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	s.send(ctx, batch)
}

// Close stops the flush loop, waits for immediate sends and drains the queue.
// Events re-queued by the final flush get their one retry before Close returns.
func (s *TelemetrySink) Close(ctx context.Context) {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.stopped != nil {
			<-s.stopped
		}
	})
	s.inflight.Wait()

	s.Flush(ctx)
	s.Flush(ctx)
}

func (s *TelemetrySink) enqueue(items ...queuedEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, items...)
	overflow := len(s.queue) - s.cfg.MaxQueue
	if overflow > 0 {
		s.queue = append([]queuedEvent(nil), s.queue[overflow:]...)
	}
	s.mu.Unlock()

	if overflow > 0 {
		observability.Component("telemetry").Warn().Int("dropped", overflow).Msg("telemetry queue full, oldest events dropped")
		observability.RecordTelemetry(context.Background(), s.metrics, 0, overflow)
	}
}

func (s *TelemetrySink) send(ctx context.Context, batch []queuedEvent) {
	ctx, span := observability.StartSpan(ctx, "TelemetrySink.send")
	defer span.End()

	events := make([]entities.AnalyticsEvent, len(batch))
	for i, q := range batch {
		events[i] = q.event
	}

	err := s.transport.SendBatch(ctx, events)
	if err == nil {
		observability.RecordTelemetry(ctx, s.metrics, len(events), 0)
		return
	}
	observability.RecordError(span, err)

	var retry []queuedEvent
	dropped := 0
	for _, q := range batch {
		if q.requeues < telemetryMaxRequeues {
			q.requeues++
			retry = append(retry, q)
		} else {
			dropped++
		}
	}

	observability.Component("telemetry").Warn().
		Err(apperrors.NewTelemetryTransportError("failed to deliver analytics events", err)).
		Int("requeued", len(retry)).
		Int("dropped", dropped).
		Msg("telemetry send failed")

	if len(retry) > 0 {
		s.enqueue(retry...)
	}
	observability.RecordTelemetry(ctx, s.metrics, 0, dropped)
}
