package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/productar/internal/application/services"
	"github.com/zatekoja/productar/internal/domain/entities"
)

// newClassifyingMachine puts a real ClassifierAdapter behind the machine for target 0
func newClassifyingMachine(t *testing.T, prediction entities.Prediction) (*services.RecognitionMachine, *services.SceneGraph, *recordingTracker, *services.ClassifierAdapter) {
	t.Helper()
	catalog := sharedCatalog()

	engine := new(MockInferenceEngine)
	engine.On("Load", mock.Anything, testModelRef).Return([]string{"Spearmint", "Peppermint", "Wintergreen"}, nil).Once()
	engine.On("Predict", mock.Anything, mock.Anything).Return([]entities.Prediction{prediction}, nil)

	adapter := services.NewClassifierAdapter(engine, testModelRef, services.DefaultConfidenceThreshold, nil)
	require.True(t, adapter.Initialize(context.Background(), catalog.LabelMap()))

	scene := services.NewSceneGraph(services.NewSceneAssembler(nil).Assemble(catalog))
	tracker := &recordingTracker{}
	recognizer := services.NewRecognizer(catalog, services.RecognitionDeps{
		Classifier:       adapter,
		Scene:            scene,
		Publisher:        &recordingPublisher{},
		Tracker:          tracker,
		Clock:            newFakeClock(),
		ThrottleInterval: 500 * time.Millisecond,
	})
	m, ok := recognizer.Machine(0)
	require.True(t, ok)
	return m, scene, tracker, adapter
}

func TestRecognitionPipeline_ConfidentMatchIdentifiesProduct(t *testing.T) {
	m, scene, tracker, _ := newClassifyingMachine(t, entities.Prediction{Label: "Spearmint", Confidence: 0.94})
	ctx := context.Background()

	m.OnTargetFound(ctx)
	assert.Equal(t, entities.RecognitionStateClassifying, m.Session().State)
	require.True(t, m.OnFrame(ctx, rawFrame()))

	assert.Equal(t, entities.RecognitionStateIdentified, m.Session().State)
	assert.Equal(t, "p1", m.Session().ActiveProductID)

	entity, _ := scene.Entity(0)
	assert.True(t, entity.Models[0].Visible)
	assert.False(t, entity.Models[1].Visible)

	events := tracker.all()
	require.Len(t, events, 1)
	assert.Equal(t, entities.AnalyticsEventProductFound, events[0].Type)
	assert.Equal(t, "p1", events[0].ProductID)
}

func TestRecognitionPipeline_LowConfidenceEmitsNothing(t *testing.T) {
	m, scene, tracker, adapter := newClassifyingMachine(t, entities.Prediction{Label: "Spearmint", Confidence: 0.40})
	ctx := context.Background()

	m.OnTargetFound(ctx)
	require.True(t, m.OnFrame(ctx, rawFrame()))

	assert.Equal(t, entities.RecognitionStateClassifying, m.Session().State)
	assert.Empty(t, tracker.all())
	_, visible := scene.VisibleProduct(0)
	assert.False(t, visible)

	// the miss is still visible in the classifier's own counters
	assert.Equal(t, 1, adapter.Stats().FailedMatches)
}
