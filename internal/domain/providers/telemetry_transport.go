package providers

import (
	"context"

	"github.com/zatekoja/productar/internal/domain/entities"
)

// TelemetryTransport delivers analytics events to a bulk insert endpoint
type TelemetryTransport interface {
	SendBatch(ctx context.Context, events []entities.AnalyticsEvent) error
}
