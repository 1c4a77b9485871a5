package database

import (
	"context"
	"encoding/json"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

// AnalyticsAdapter writes analytics events to Postgres as one multi-row insert
type AnalyticsAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAnalyticsAdapter creates a new analytics adapter
func NewAnalyticsAdapter(client *postgres.Client) *AnalyticsAdapter {
	return &AnalyticsAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ providers.TelemetryTransport = (*AnalyticsAdapter)(nil)

// SendBatch implements TelemetryTransport
func (a *AnalyticsAdapter) SendBatch(ctx context.Context, events []entities.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(events))
	for _, e := range events {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return apperrors.NewInternalError("failed to encode event metadata", err)
		}
		var productID interface{}
		if e.ProductID != "" {
			productID = e.ProductID
		}
		rows = append(rows, goqu.Record{
			"id":         e.ID,
			"event_type": string(e.Type),
			"product_id": productID,
			"session_id": e.SessionID,
			"metadata":   string(metadata),
			"created_at": e.Timestamp,
		})
	}

	query, args, err := a.db.Insert("analytics_events").Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build analytics insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewTelemetryTransportError("failed to insert analytics events", err)
	}
	return nil
}
