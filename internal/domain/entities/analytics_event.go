package entities

import "time"

// AnalyticsEventType is the kind of tracked occurrence
type AnalyticsEventType string

const (
	AnalyticsEventSessionStart    AnalyticsEventType = "session_start"
	AnalyticsEventCatalogLoaded   AnalyticsEventType = "catalog_loaded"
	AnalyticsEventCatalogFallback AnalyticsEventType = "catalog_fallback"
	AnalyticsEventProductFound    AnalyticsEventType = "product_found"
	AnalyticsEventProductLost     AnalyticsEventType = "product_lost"
	AnalyticsEventButtonClick     AnalyticsEventType = "button_click"
)

// AnalyticsEvent is never mutated after creation
type AnalyticsEvent struct {
	ID        string                 `json:"id" db:"id"`
	Type      AnalyticsEventType     `json:"type" db:"event_type"`
	ProductID string                 `json:"productId,omitempty" db:"product_id"`
	SessionID string                 `json:"sessionId" db:"session_id"`
	Metadata  map[string]interface{} `json:"metadata" db:"metadata"`
	Timestamp time.Time              `json:"timestamp" db:"created_at"`
}
