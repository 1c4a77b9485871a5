package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/productar/internal/domain/entities"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

func TestAnalyticsAdapter_SendBatchSingleInsert(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewAnalyticsAdapter(client)

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []entities.AnalyticsEvent{
		{ID: "e1", Type: entities.AnalyticsEventProductFound, ProductID: "p1", SessionID: "s", Metadata: map[string]interface{}{"confidence": 0.94}, Timestamp: ts},
		{ID: "e2", Type: entities.AnalyticsEventCatalogLoaded, SessionID: "s", Timestamp: ts},
	}

	mock.ExpectExec(`INSERT INTO "analytics_events" .* VALUES \(.*'e1'.*\), \(.*'e2'.*\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, adapter.SendBatch(context.Background(), events))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsAdapter_SendBatchEmptyIsNoop(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewAnalyticsAdapter(client)

	require.NoError(t, adapter.SendBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsAdapter_SendBatchTransportError(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewAnalyticsAdapter(client)

	mock.ExpectExec(`INSERT INTO "analytics_events"`).WillReturnError(errors.New("disk full"))

	err := adapter.SendBatch(context.Background(), []entities.AnalyticsEvent{{ID: "e1", Type: entities.AnalyticsEventProductLost}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTelemetryTransport))
}
