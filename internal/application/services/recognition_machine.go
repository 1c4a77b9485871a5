package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
)

// DefaultThrottleInterval bounds classification attempts per target
const DefaultThrottleInterval = 500 * time.Millisecond

// Classifier disambiguates the products sharing one target
type Classifier interface {
	Classify(ctx context.Context, frame *entities.Frame) *entities.ClassificationResult
}

// RecognitionPublisher receives recognition messages for the UI layer
type RecognitionPublisher interface {
	Publish(ctx context.Context, event *entities.RecognitionEvent) error
}

// RecognitionDeps are the collaborators shared by every machine of a scene
type RecognitionDeps struct {
	Classifier       Classifier
	Scene            *SceneGraph
	Publisher        RecognitionPublisher
	Tracker          EventTracker
	Clock            Clock
	ThrottleInterval time.Duration
	Metrics          *observability.Metrics
}

// RecognitionMachine tracks the recognition session of one physical target
type RecognitionMachine struct {
	targetIndex int
	products    []entities.Product
	shared      bool
	deps        RecognitionDeps

	mu                   sync.Mutex
	state                entities.RecognitionState
	activeProductID      string
	lastClassificationAt *time.Time
	busy                 bool
	epoch                uint64
	limiter              *rate.Limiter
}

// NewRecognitionMachine creates a machine for the products anchored to targetIndex
func NewRecognitionMachine(targetIndex int, products []entities.Product, deps RecognitionDeps) *RecognitionMachine {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.ThrottleInterval <= 0 {
		deps.ThrottleInterval = DefaultThrottleInterval
	}
	m := &RecognitionMachine{
		targetIndex: targetIndex,
		products:    products,
		shared:      len(products) > 1,
		deps:        deps,
		state:       entities.RecognitionStateIdle,
	}
	m.limiter = m.newLimiter()
	return m
}

func (m *RecognitionMachine) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(m.deps.ThrottleInterval), 1)
}

// TargetIndex returns the physical target this machine tracks
func (m *RecognitionMachine) TargetIndex() int {
	return m.targetIndex
}

// Session returns a snapshot of the session state
func (m *RecognitionMachine) Session() entities.RecognitionSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := entities.RecognitionSession{
		TargetIndex:     m.targetIndex,
		State:           m.state,
		ActiveProductID: m.activeProductID,
	}
	if m.lastClassificationAt != nil {
		t := *m.lastClassificationAt
		s.LastClassificationAt = &t
	}
	return s
}

// OnTargetFound starts a session. Solo targets are identified immediately;
// shared targets wait for classification. Ignored unless IDLE.
func (m *RecognitionMachine) OnTargetFound(ctx context.Context) {
	m.mu.Lock()
	if m.state != entities.RecognitionStateIdle || len(m.products) == 0 {
		m.mu.Unlock()
		return
	}

	if !m.shared {
		product := m.products[0]
		m.state = entities.RecognitionStateIdentified
		m.activeProductID = product.ID
		m.mu.Unlock()

		m.identified(ctx, product, 1.0)
		return
	}

	m.state = entities.RecognitionStateClassifying
	m.limiter = m.newLimiter()
	m.mu.Unlock()

	observability.RecordTransition(ctx, m.deps.Metrics, m.targetIndex, string(entities.RecognitionStateClassifying))
	m.publish(ctx, &entities.RecognitionEvent{
		Type:        entities.RecognitionEventClassifying,
		TargetIndex: m.targetIndex,
		OccurredAt:  m.deps.Clock.Now(),
	})
}

// OnFrame classifies the frame when the session is CLASSIFYING, no
// classification is running for this target and the throttle allows it.
// Ineligible frames are dropped. It reports whether a classification ran.
func (m *RecognitionMachine) OnFrame(ctx context.Context, frame *entities.Frame) bool {
	epoch, ok := m.beginClassification()
	if !ok {
		return false
	}
	m.completeClassification(ctx, epoch, frame)
	return true
}

func (m *RecognitionMachine) beginClassification() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != entities.RecognitionStateClassifying || m.busy || m.deps.Classifier == nil {
		return 0, false
	}
	now := m.deps.Clock.Now()
	if !m.limiter.AllowN(now, 1) {
		return 0, false
	}
	m.busy = true
	m.lastClassificationAt = &now
	return m.epoch, true
}

func (m *RecognitionMachine) completeClassification(ctx context.Context, epoch uint64, frame *entities.Frame) {
	result := m.deps.Classifier.Classify(ctx, frame)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		observability.Component("recognition").Debug().
			Int("target_index", m.targetIndex).
			Msg("discarding classification result for ended session")
		return
	}
	m.busy = false

	if result == nil {
		m.mu.Unlock()
		return
	}
	product, ok := m.product(result.ProductID)
	if !ok {
		m.mu.Unlock()
		observability.Component("recognition").Warn().
			Int("target_index", m.targetIndex).
			Str("product_id", result.ProductID).
			Msg("classified product is not anchored to this target")
		return
	}

	m.state = entities.RecognitionStateIdentified
	m.activeProductID = product.ID
	m.mu.Unlock()

	m.identified(ctx, product, result.Confidence)
}

// OnTargetLost ends the session and discards any classification still running.
// Repeated calls while IDLE have no effect.
func (m *RecognitionMachine) OnTargetLost(ctx context.Context) {
	m.mu.Lock()
	if m.state == entities.RecognitionStateIdle {
		m.mu.Unlock()
		return
	}
	previous := m.state
	productID := m.activeProductID

	m.epoch++
	m.busy = false
	m.state = entities.RecognitionStateIdle
	m.activeProductID = ""
	m.lastClassificationAt = nil
	m.limiter = m.newLimiter()
	m.mu.Unlock()

	if m.shared && m.deps.Scene != nil {
		m.deps.Scene.HideAll(m.targetIndex)
	}

	event := &entities.RecognitionEvent{
		Type:        entities.RecognitionEventLost,
		TargetIndex: m.targetIndex,
		ProductID:   productID,
		OccurredAt:  m.deps.Clock.Now(),
	}
	if product, ok := m.product(productID); ok {
		event.Interactions = product.Interactions
	}

	observability.RecordTransition(ctx, m.deps.Metrics, m.targetIndex, string(entities.RecognitionStateIdle))
	observability.Component("recognition").Info().
		Int("target_index", m.targetIndex).
		Str("from", string(previous)).
		Str("product_id", productID).
		Msg("target lost")

	m.publish(ctx, event)
	if m.deps.Tracker != nil {
		m.deps.Tracker.Track(entities.AnalyticsEventProductLost, productID, map[string]interface{}{
			"targetIndex": m.targetIndex,
			"state":       string(previous),
		})
	}
}

func (m *RecognitionMachine) identified(ctx context.Context, product entities.Product, confidence float64) {
	if m.shared && m.deps.Scene != nil {
		if err := m.deps.Scene.ShowOnly(m.targetIndex, product.ID); err != nil {
			observability.Component("recognition").Error().Err(err).Msg("failed to toggle model visibility")
		}
	}

	observability.RecordTransition(ctx, m.deps.Metrics, m.targetIndex, string(entities.RecognitionStateIdentified))
	observability.Component("recognition").Info().
		Int("target_index", m.targetIndex).
		Str("product_id", product.ID).
		Float64("confidence", confidence).
		Msg("product identified")

	m.publish(ctx, &entities.RecognitionEvent{
		Type:         entities.RecognitionEventIdentified,
		TargetIndex:  m.targetIndex,
		ProductID:    product.ID,
		Confidence:   confidence,
		Interactions: product.Interactions,
		OccurredAt:   m.deps.Clock.Now(),
	})
	if m.deps.Tracker != nil {
		m.deps.Tracker.Track(entities.AnalyticsEventProductFound, product.ID, map[string]interface{}{
			"targetIndex": m.targetIndex,
			"confidence":  confidence,
		})
	}
}

func (m *RecognitionMachine) publish(ctx context.Context, event *entities.RecognitionEvent) {
	if m.deps.Publisher == nil {
		return
	}
	if err := m.deps.Publisher.Publish(ctx, event); err != nil {
		observability.Component("recognition").Warn().Err(err).
			Str("event", string(event.Type)).
			Msg("failed to publish recognition event")
	}
}

func (m *RecognitionMachine) product(id string) (entities.Product, bool) {
	if id == "" {
		return entities.Product{}, false
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, true
		}
	}
	return entities.Product{}, false
}
