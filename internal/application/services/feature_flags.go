package services

import (
	"time"

	"github.com/zatekoja/productar/pkg/config"
)

// FeatureFlags exposes the runtime switches that shape loading, recognition and analytics
type FeatureFlags struct {
	primaryBackendEnabled bool
	fallbackEnabled       bool
	telemetryEnabled      bool
	batchingEnabled       bool
	confidenceThreshold   float64
	throttleInterval      time.Duration
	cacheTTL              time.Duration
}

func NewFeatureFlags(cfg *config.Config) *FeatureFlags {
	return &FeatureFlags{
		primaryBackendEnabled: cfg.Catalog.PrimaryEnabled,
		fallbackEnabled:       cfg.Catalog.FallbackEnabled,
		telemetryEnabled:      cfg.Telemetry.Enabled,
		batchingEnabled:       cfg.Telemetry.Batching,
		confidenceThreshold:   cfg.Classifier.ConfidenceThreshold,
		throttleInterval:      cfg.Recognition.ThrottleInterval,
		cacheTTL:              cfg.Catalog.CacheTTL,
	}
}

func (f *FeatureFlags) PrimaryBackendEnabled() bool {
	return f.primaryBackendEnabled
}

func (f *FeatureFlags) FallbackEnabled() bool {
	return f.fallbackEnabled
}

func (f *FeatureFlags) TelemetryEnabled() bool {
	return f.telemetryEnabled
}

func (f *FeatureFlags) BatchingEnabled() bool {
	return f.batchingEnabled
}

func (f *FeatureFlags) ConfidenceThreshold() float64 {
	return f.confidenceThreshold
}

func (f *FeatureFlags) ThrottleInterval() time.Duration {
	return f.throttleInterval
}

func (f *FeatureFlags) CacheTTL() time.Duration {
	return f.cacheTTL
}
