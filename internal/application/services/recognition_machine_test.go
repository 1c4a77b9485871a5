package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/productar/internal/application/services"
	"github.com/zatekoja/productar/internal/domain/entities"
)

type recognitionFixture struct {
	catalog    *entities.Catalog
	scene      *services.SceneGraph
	classifier *stubClassifier
	publisher  *recordingPublisher
	tracker    *recordingTracker
	clock      *fakeClock
	recognizer *services.Recognizer
}

func newRecognitionFixture(t *testing.T) *recognitionFixture {
	t.Helper()
	catalog := sharedCatalog()
	f := &recognitionFixture{
		catalog:    catalog,
		scene:      services.NewSceneGraph(services.NewSceneAssembler(nil).Assemble(catalog)),
		classifier: &stubClassifier{},
		publisher:  &recordingPublisher{},
		tracker:    &recordingTracker{},
		clock:      newFakeClock(),
	}
	f.recognizer = services.NewRecognizer(catalog, services.RecognitionDeps{
		Classifier:       f.classifier,
		Scene:            f.scene,
		Publisher:        f.publisher,
		Tracker:          f.tracker,
		Clock:            f.clock,
		ThrottleInterval: 500 * time.Millisecond,
	})
	return f
}

func (f *recognitionFixture) machine(t *testing.T, idx int) *services.RecognitionMachine {
	t.Helper()
	m, ok := f.recognizer.Machine(idx)
	require.True(t, ok)
	return m
}

func match(productID, label string, confidence float64) *entities.ClassificationResult {
	return &entities.ClassificationResult{ProductID: productID, Label: label, Confidence: confidence}
}

func TestRecognitionMachine_SharedTargetIdentified(t *testing.T) {
	f := newRecognitionFixture(t)
	m := f.machine(t, 0)
	ctx := context.Background()

	m.OnTargetFound(ctx)
	assert.Equal(t, entities.RecognitionStateClassifying, m.Session().State)

	f.classifier.results = []*entities.ClassificationResult{match("p1", "Spearmint", 0.94)}
	assert.True(t, m.OnFrame(ctx, rawFrame()))

	session := m.Session()
	assert.Equal(t, entities.RecognitionStateIdentified, session.State)
	assert.Equal(t, "p1", session.ActiveProductID)
	require.NotNil(t, session.LastClassificationAt)

	entity, _ := f.scene.Entity(0)
	assert.True(t, entity.Models[0].Visible)
	assert.False(t, entity.Models[1].Visible)

	found := f.tracker.ofType(entities.AnalyticsEventProductFound)
	require.Len(t, found, 1)
	assert.Equal(t, "p1", found[0].ProductID)

	assert.Equal(t, []entities.RecognitionEventType{
		entities.RecognitionEventClassifying,
		entities.RecognitionEventIdentified,
	}, f.publisher.types())
}

func TestRecognitionMachine_LowConfidenceStaysClassifying(t *testing.T) {
	f := newRecognitionFixture(t)
	m := f.machine(t, 0)
	ctx := context.Background()

	m.OnTargetFound(ctx)
	// the adapter returns nil for a 0.40 result
	f.classifier.results = []*entities.ClassificationResult{nil}
	assert.True(t, m.OnFrame(ctx, rawFrame()))

	assert.Equal(t, entities.RecognitionStateClassifying, m.Session().State)
	assert.Empty(t, f.tracker.ofType(entities.AnalyticsEventProductFound))
	_, visible := f.scene.VisibleProduct(0)
	assert.False(t, visible)
}

func TestRecognitionMachine_SoloTargetSkipsClassifier(t *testing.T) {
	f := newRecognitionFixture(t)
	m := f.machine(t, 1)

	m.OnTargetFound(context.Background())

	session := m.Session()
	assert.Equal(t, entities.RecognitionStateIdentified, session.State)
	assert.Equal(t, "p3", session.ActiveProductID)
	assert.Equal(t, 0, f.classifier.callCount())
	assert.False(t, m.OnFrame(context.Background(), rawFrame()))

	found := f.tracker.ofType(entities.AnalyticsEventProductFound)
	require.Len(t, found, 1)
	assert.Equal(t, "p3", found[0].ProductID)
}

func TestRecognitionMachine_ThrottlesClassification(t *testing.T) {
	f := newRecognitionFixture(t)
	m := f.machine(t, 0)
	ctx := context.Background()

	m.OnTargetFound(ctx)

	assert.True(t, m.OnFrame(ctx, rawFrame()))
	f.clock.Advance(100 * time.Millisecond)
	assert.False(t, m.OnFrame(ctx, rawFrame()))
	f.clock.Advance(399 * time.Millisecond)
	assert.False(t, m.OnFrame(ctx, rawFrame()))
	f.clock.Advance(time.Millisecond)
	assert.True(t, m.OnFrame(ctx, rawFrame()))

	assert.Equal(t, 2, f.classifier.callCount())
}

func TestRecognitionMachine_ThrottleResetsOnLost(t *testing.T) {
	f := newRecognitionFixture(t)
	m := f.machine(t, 0)
	ctx := context.Background()

	m.OnTargetFound(ctx)
	assert.True(t, m.OnFrame(ctx, rawFrame()))
	m.OnTargetLost(ctx)

	m.OnTargetFound(ctx)
	assert.True(t, m.OnFrame(ctx, rawFrame()))
}

func TestRecognitionMachine_LateResultDiscarded(t *testing.T) {
	f := newRecognitionFixture(t)
	f.classifier.gate = make(chan struct{})
	f.classifier.started = make(chan struct{}, 1)
	f.classifier.results = []*entities.ClassificationResult{match("p2", "Peppermint", 0.9)}
	m := f.machine(t, 0)
	ctx := context.Background()

	m.OnTargetFound(ctx)
	done := make(chan bool)
	go func() { done <- m.OnFrame(ctx, rawFrame()) }()
	<-f.classifier.started

	// busy: a second frame must not start another classification
	f.clock.Advance(time.Second)
	assert.False(t, m.OnFrame(ctx, rawFrame()))

	m.OnTargetLost(ctx)
	close(f.classifier.gate)
	<-done

	assert.Equal(t, entities.RecognitionStateIdle, m.Session().State)
	_, visible := f.scene.VisibleProduct(0)
	assert.False(t, visible)
	assert.Empty(t, f.tracker.ofType(entities.AnalyticsEventProductFound))
	assert.Equal(t, 1, f.classifier.callCount())
}

func TestRecognitionMachine_TargetLost(t *testing.T) {
	f := newRecognitionFixture(t)
	m := f.machine(t, 0)
	ctx := context.Background()

	m.OnTargetFound(ctx)
	f.classifier.results = []*entities.ClassificationResult{match("p2", "Peppermint", 0.8)}
	m.OnFrame(ctx, rawFrame())

	m.OnTargetLost(ctx)
	m.OnTargetLost(ctx)
	m.OnTargetLost(ctx)

	session := m.Session()
	assert.Equal(t, entities.RecognitionStateIdle, session.State)
	assert.Empty(t, session.ActiveProductID)
	assert.Nil(t, session.LastClassificationAt)

	lost := f.tracker.ofType(entities.AnalyticsEventProductLost)
	require.Len(t, lost, 1)
	assert.Equal(t, "p2", lost[0].ProductID)

	_, visible := f.scene.VisibleProduct(0)
	assert.False(t, visible)

	last := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, entities.RecognitionEventLost, last.Type)
	assert.Equal(t, "p2", last.ProductID)
}

func TestRecognitionMachine_LostWhileIdleHasNoEffect(t *testing.T) {
	f := newRecognitionFixture(t)
	m := f.machine(t, 0)

	m.OnTargetLost(context.Background())

	assert.Empty(t, f.tracker.events)
	assert.Empty(t, f.publisher.events)
}

func TestRecognitionMachine_IgnoresProductsFromOtherTargets(t *testing.T) {
	f := newRecognitionFixture(t)
	m := f.machine(t, 0)
	ctx := context.Background()

	m.OnTargetFound(ctx)
	f.classifier.results = []*entities.ClassificationResult{match("p3", "Wintergreen", 0.99)}
	m.OnFrame(ctx, rawFrame())

	assert.Equal(t, entities.RecognitionStateClassifying, m.Session().State)
	_, visible := f.scene.VisibleProduct(0)
	assert.False(t, visible)
}

func TestRecognizer_RunDispatchesByTargetIndex(t *testing.T) {
	f := newRecognitionFixture(t)
	f.classifier.results = []*entities.ClassificationResult{match("p1", "Spearmint", 0.94)}

	events := make(chan entities.TrackingEvent, 8)
	events <- entities.TrackingEvent{Type: entities.TrackingEventTargetFound, TargetIndex: 0}
	events <- entities.TrackingEvent{Type: entities.TrackingEventTargetFound, TargetIndex: 1}
	events <- entities.TrackingEvent{Type: entities.TrackingEventFrame, TargetIndex: 0, Frame: rawFrame()}
	events <- entities.TrackingEvent{Type: entities.TrackingEventTargetFound, TargetIndex: 9}
	close(events)

	require.NoError(t, f.recognizer.Run(context.Background(), events))

	sessions := f.recognizer.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, entities.RecognitionStateIdentified, sessions[0].State)
	assert.Equal(t, "p1", sessions[0].ActiveProductID)
	assert.Equal(t, entities.RecognitionStateIdentified, sessions[1].State)
	assert.Equal(t, "p3", sessions[1].ActiveProductID)
}

func TestRecognizer_RunStopsOnContextCancel(t *testing.T) {
	f := newRecognitionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.recognizer.Run(ctx, make(chan entities.TrackingEvent))
	assert.ErrorIs(t, err, context.Canceled)
}
