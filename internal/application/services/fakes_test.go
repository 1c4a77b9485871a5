package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/pkg/config"
)

// fakeClock is advanced manually by tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type trackedEvent struct {
	Type      entities.AnalyticsEventType
	ProductID string
	Metadata  map[string]interface{}
}

// recordingTracker captures analytics events in order
type recordingTracker struct {
	mu     sync.Mutex
	events []trackedEvent
}

func (r *recordingTracker) Track(eventType entities.AnalyticsEventType, productID string, metadata map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, trackedEvent{Type: eventType, ProductID: productID, Metadata: metadata})
}

func (r *recordingTracker) all() []trackedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trackedEvent(nil), r.events...)
}

func (r *recordingTracker) ofType(t entities.AnalyticsEventType) []trackedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trackedEvent
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// recordingPublisher captures recognition messages in order
type recordingPublisher struct {
	mu     sync.Mutex
	events []*entities.RecognitionEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event *entities.RecognitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []entities.RecognitionEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entities.RecognitionEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// stubBackend returns a fixed catalog or error
type stubBackend struct {
	name    string
	catalog *entities.Catalog
	err     error
	calls   int
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) Fetch(ctx context.Context) (*entities.Catalog, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	if b.catalog == nil {
		return nil, nil
	}
	out := *b.catalog
	out.Products = append([]entities.Product(nil), b.catalog.Products...)
	return &out, nil
}

// invalidatingBackend also counts cache invalidations
type invalidatingBackend struct {
	stubBackend
	invalidations int
}

func (b *invalidatingBackend) Invalidate(ctx context.Context) error {
	b.invalidations++
	return nil
}

// MockInferenceEngine mocks providers.InferenceEngine
type MockInferenceEngine struct {
	mock.Mock
}

func (m *MockInferenceEngine) Load(ctx context.Context, ref entities.ModelReference) ([]string, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockInferenceEngine) Predict(ctx context.Context, frame *entities.Frame) ([]entities.Prediction, error) {
	args := m.Called(ctx, frame)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Prediction), args.Error(1)
}

// stubClassifier returns queued results. When gate is set each call blocks until released.
type stubClassifier struct {
	mu      sync.Mutex
	results []*entities.ClassificationResult
	calls   int
	gate    chan struct{}
	started chan struct{}
}

func (c *stubClassifier) Classify(ctx context.Context, frame *entities.Frame) *entities.ClassificationResult {
	c.mu.Lock()
	c.calls++
	var result *entities.ClassificationResult
	if len(c.results) > 0 {
		result = c.results[0]
		c.results = c.results[1:]
	}
	gate, started := c.gate, c.started
	c.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return result
}

func (c *stubClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// MockUIController mocks providers.UIController
type MockUIController struct {
	mock.Mock
}

func (m *MockUIController) ShowPanel(productID string)      { m.Called(productID) }
func (m *MockUIController) HidePanel(productID string)      { m.Called(productID) }
func (m *MockUIController) PlaySound(path string)           { m.Called(path) }
func (m *MockUIController) PauseAnimation(productID string) { m.Called(productID) }
func (m *MockUIController) ClearEffects(targetIndex int)    { m.Called(targetIndex) }

// recordingTransport captures batches and fails the first failures sends
type recordingTransport struct {
	mu       sync.Mutex
	batches  [][]entities.AnalyticsEvent
	failures int
	err      error
}

func (t *recordingTransport) SendBatch(ctx context.Context, events []entities.AnalyticsEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failures > 0 {
		t.failures--
		return t.err
	}
	t.batches = append(t.batches, append([]entities.AnalyticsEvent(nil), events...))
	return nil
}

func (t *recordingTransport) sent() []entities.AnalyticsEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []entities.AnalyticsEvent
	for _, b := range t.batches {
		out = append(out, b...)
	}
	return out
}

func (t *recordingTransport) batchCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.batches)
}

func testConfig() *config.Config {
	return &config.Config{
		Catalog: config.CatalogConfig{
			PrimaryEnabled:  true,
			FallbackEnabled: true,
			CacheTTL:        time.Minute,
		},
		Classifier:  config.ClassifierConfig{ConfidenceThreshold: 0.70},
		Recognition: config.RecognitionConfig{ThrottleInterval: 500 * time.Millisecond},
		Telemetry: config.TelemetryConfig{
			Enabled:       true,
			Batching:      true,
			FlushInterval: time.Hour,
			MaxQueue:      100,
			Transport:     "log",
		},
	}
}

func product(id, name string, targetIndex int) entities.Product {
	return entities.Product{
		ID:          id,
		Name:        name,
		TargetIndex: targetIndex,
		Target:      entities.Target{ImagePath: "targets/boxes.mind"},
		Model:       entities.Model{Path: "models/" + id + ".glb"},
	}
}

// sharedCatalog has p1 and p2 on target 0 and a solo p3 on target 1
func sharedCatalog() *entities.Catalog {
	return &entities.Catalog{
		Products: []entities.Product{
			product("p1", "Spearmint", 0),
			product("p2", "Peppermint", 0),
			product("p3", "Wintergreen", 1),
		},
	}
}

func rawFrame() *entities.Frame {
	return &entities.Frame{Format: "rgba", Width: 2, Height: 2, Data: make([]byte, 16)}
}
