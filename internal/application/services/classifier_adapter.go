package services

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

// DefaultConfidenceThreshold is the minimum top-label confidence accepted as a match
const DefaultConfidenceThreshold = 0.70

const (
	outcomeSuccess = "success"
	outcomeFailed  = "failed"
)

// ClassifierAdapter wraps an inference engine with label mapping, a confidence
// threshold, a single-flight guard and running statistics.
type ClassifierAdapter struct {
	engine  providers.InferenceEngine
	ref     entities.ModelReference
	metrics *observability.Metrics

	initOnce  sync.Once
	ready     atomic.Bool
	inFlight  atomic.Bool
	threshold atomic.Uint64

	labelsMu sync.RWMutex
	labels   map[string]string

	statsMu sync.Mutex
	stats   entities.ClassifierStats
}

// NewClassifierAdapter creates an adapter. metrics may be nil.
// Outcomes are only counted in Stats and metrics; telemetry is the recognition layer's job.
func NewClassifierAdapter(engine providers.InferenceEngine, ref entities.ModelReference, threshold float64, metrics *observability.Metrics) *ClassifierAdapter {
	c := &ClassifierAdapter{
		engine:  engine,
		ref:     ref,
		metrics: metrics,
		labels:  map[string]string{},
	}
	c.SetThreshold(threshold)
	return c
}

// Initialize loads the model once per session. A failed load leaves the
// adapter permanently not ready; later calls only refresh the label map.
func (c *ClassifierAdapter) Initialize(ctx context.Context, labelMap map[string]string) bool {
	c.labelsMu.Lock()
	c.labels = make(map[string]string, len(labelMap))
	for label, productID := range labelMap {
		c.labels[label] = productID
	}
	c.labelsMu.Unlock()

	c.initOnce.Do(func() {
		logger := observability.ComponentFromContext(ctx, "classifier")

		if c.engine == nil {
			logger.Warn().Err(apperrors.NewModelLoadError("no inference engine configured", nil)).
				Msg("classifier unavailable, shared targets will not be disambiguated")
			return
		}

		modelLabels, err := c.engine.Load(ctx, c.ref)
		if err != nil {
			logger.Warn().Err(apperrors.NewModelLoadError("failed to load model", err)).
				Str("model_url", c.ref.ModelURL).
				Msg("classifier unavailable, shared targets will not be disambiguated")
			return
		}

		emitted := make(map[string]struct{}, len(modelLabels))
		for _, l := range modelLabels {
			emitted[l] = struct{}{}
		}
		for label, productID := range labelMap {
			if _, ok := emitted[label]; !ok {
				logger.Warn().Str("label", label).Str("product_id", productID).
					Msg("catalog label is not emitted by the model")
			}
		}

		c.ready.Store(true)
		logger.Info().Int("labels", len(modelLabels)).Msg("classifier ready")
	})

	return c.ready.Load()
}

// Ready reports whether the model loaded
func (c *ClassifierAdapter) Ready() bool {
	return c.ready.Load()
}

// SetThreshold changes the match threshold at runtime. Values are clamped to [0,1].
func (c *ClassifierAdapter) SetThreshold(v float64) {
	v = math.Max(0, math.Min(1, v))
	c.threshold.Store(math.Float64bits(v))
}

func (c *ClassifierAdapter) Threshold() float64 {
	return math.Float64frombits(c.threshold.Load())
}

// Stats returns a snapshot of the running statistics
func (c *ClassifierAdapter) Stats() entities.ClassifierStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

func (c *ClassifierAdapter) ResetStats() {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats = entities.ClassifierStats{}
}

// Classify runs one frame through the model. It returns nil when the frame is
// skipped, the top label is unmapped, or its confidence is below the threshold.
func (c *ClassifierAdapter) Classify(ctx context.Context, frame *entities.Frame) *entities.ClassificationResult {
	logger := observability.ComponentFromContext(ctx, "classifier")

	if !c.ready.Load() {
		logger.Warn().Err(apperrors.NewClassificationSkipped("classifier not ready")).Msg("classification skipped")
		return nil
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		logger.Warn().Err(apperrors.NewClassificationSkipped("classification already in flight")).Msg("classification skipped")
		return nil
	}
	defer c.inFlight.Store(false)

	if !frame.Decodable() {
		logger.Warn().Err(apperrors.NewClassificationSkipped("frame not decodable")).Msg("classification skipped")
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "ClassifierAdapter.Classify")
	defer span.End()

	start := time.Now()
	predictions, err := c.engine.Predict(ctx, frame)
	elapsed := time.Since(start)
	inferenceMs := float64(elapsed.Microseconds()) / 1000.0

	if err != nil {
		observability.RecordError(span, err)
		logger.Warn().Err(err).Msg("inference failed")
		c.fail(ctx, elapsed)
		return nil
	}
	if len(predictions) == 0 {
		logger.Warn().Msg("inference returned no predictions")
		c.fail(ctx, elapsed)
		return nil
	}

	sorted := append([]entities.Prediction(nil), predictions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	c.labelsMu.RLock()
	candidates := make([]entities.Candidate, len(sorted))
	for i, p := range sorted {
		candidates[i] = entities.Candidate{Label: p.Label, Confidence: p.Confidence, ProductID: c.labels[p.Label]}
	}
	c.labelsMu.RUnlock()

	top := candidates[0]
	if top.ProductID == "" {
		logger.Warn().Str("label", top.Label).Float64("confidence", top.Confidence).Msg("top label is not mapped to a product")
		c.fail(ctx, elapsed)
		return nil
	}

	threshold := c.Threshold()
	if top.Confidence < threshold {
		logger.Info().Err(apperrors.NewLowConfidenceResult(top.Label, top.Confidence, threshold)).Msg("classification below threshold")
		c.fail(ctx, elapsed)
		return nil
	}

	c.record(elapsed, true)
	observability.RecordClassification(ctx, c.metrics, outcomeSuccess, elapsed)

	return &entities.ClassificationResult{
		Label:           top.Label,
		Confidence:      top.Confidence,
		ProductID:       top.ProductID,
		AllCandidates:   candidates,
		InferenceTimeMs: inferenceMs,
	}
}

func (c *ClassifierAdapter) fail(ctx context.Context, elapsed time.Duration) {
	c.record(elapsed, false)
	observability.RecordClassification(ctx, c.metrics, outcomeFailed, elapsed)
}

func (c *ClassifierAdapter) record(elapsed time.Duration, success bool) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	c.stats.TotalClassifications++
	if success {
		c.stats.SuccessfulMatches++
	} else {
		c.stats.FailedMatches++
	}
	ms := float64(elapsed.Microseconds()) / 1000.0
	c.stats.AvgInferenceTimeMs += (ms - c.stats.AvgInferenceTimeMs) / float64(c.stats.TotalClassifications)
}
