package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/productar/internal/adapters/events"
	"github.com/zatekoja/productar/internal/application/services"
	"github.com/zatekoja/productar/internal/domain/entities"
)

func TestInteractionDispatcher_Apply(t *testing.T) {
	interactions := &entities.Interactions{
		OnFound: entities.OnFound{ShowUI: true, PlaySound: true, SoundPath: "sounds/found.mp3"},
		OnLost:  entities.OnLost{HideUI: true, PauseAnimation: true},
	}

	t.Run("identified shows panel and plays sound", func(t *testing.T) {
		ui := new(MockUIController)
		ui.On("ShowPanel", "p1").Once()
		ui.On("PlaySound", "sounds/found.mp3").Once()

		services.NewInteractionDispatcher(ui, events.NewChannelBus(1)).Apply(&entities.RecognitionEvent{
			Type: entities.RecognitionEventIdentified, TargetIndex: 0, ProductID: "p1", Interactions: interactions,
		})
		ui.AssertExpectations(t)
	})

	t.Run("lost hides panel, pauses animation and clears effects", func(t *testing.T) {
		ui := new(MockUIController)
		ui.On("HidePanel", "p1").Once()
		ui.On("PauseAnimation", "p1").Once()
		ui.On("ClearEffects", 0).Once()

		services.NewInteractionDispatcher(ui, events.NewChannelBus(1)).Apply(&entities.RecognitionEvent{
			Type: entities.RecognitionEventLost, TargetIndex: 0, ProductID: "p1", Interactions: interactions,
		})
		ui.AssertExpectations(t)
	})

	t.Run("lost while classifying only clears effects", func(t *testing.T) {
		ui := new(MockUIController)
		ui.On("ClearEffects", 2).Once()

		services.NewInteractionDispatcher(ui, events.NewChannelBus(1)).Apply(&entities.RecognitionEvent{
			Type: entities.RecognitionEventLost, TargetIndex: 2,
		})
		ui.AssertExpectations(t)
	})

	t.Run("classification started has no side effects", func(t *testing.T) {
		ui := new(MockUIController)
		services.NewInteractionDispatcher(ui, events.NewChannelBus(1)).Apply(&entities.RecognitionEvent{
			Type: entities.RecognitionEventClassifying, TargetIndex: 0,
		})
		assert.Empty(t, ui.Calls)
	})
}

func TestInteractionDispatcher_ConsumesRecognitionMachineEvents(t *testing.T) {
	catalog := sharedCatalog()
	catalog.Products[2].Interactions = &entities.Interactions{OnFound: entities.OnFound{ShowUI: true}}

	bus := events.NewChannelBus(8)
	defer bus.Close()

	ui := new(MockUIController)
	shown := make(chan struct{})
	ui.On("ShowPanel", "p3").Run(func(args mock.Arguments) { close(shown) }).Once()

	dispatcher := services.NewInteractionDispatcher(ui, bus)
	require.NoError(t, dispatcher.Start())
	defer dispatcher.Stop()

	recognizer := services.NewRecognizer(catalog, services.RecognitionDeps{Publisher: bus, Clock: newFakeClock()})
	recognizer.Handle(context.Background(), entities.TrackingEvent{Type: entities.TrackingEventTargetFound, TargetIndex: 1})

	select {
	case <-shown:
	case <-time.After(2 * time.Second):
		t.Fatal("panel was not shown")
	}
	ui.AssertExpectations(t)
}
