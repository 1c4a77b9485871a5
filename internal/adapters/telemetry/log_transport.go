package telemetry

import (
	"context"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
)

// LogTransport writes analytics events to the structured log
type LogTransport struct{}

func NewLogTransport() *LogTransport {
	return &LogTransport{}
}

var _ providers.TelemetryTransport = (*LogTransport)(nil)

func (t *LogTransport) SendBatch(ctx context.Context, events []entities.AnalyticsEvent) error {
	logger := observability.ComponentFromContext(ctx, "telemetry")
	for _, e := range events {
		logger.Info().
			Str("event_id", e.ID).
			Str("event", string(e.Type)).
			Str("product_id", e.ProductID).
			Str("session_id", e.SessionID).
			Interface("metadata", e.Metadata).
			Time("occurred_at", e.Timestamp).
			Msg("analytics event")
	}
	return nil
}

// NopTransport discards every batch
type NopTransport struct{}

func (NopTransport) SendBatch(ctx context.Context, events []entities.AnalyticsEvent) error {
	return nil
}
