package services

import (
	"context"
	"fmt"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
)

// InteractionDispatcher applies product interactions to the UI as recognition messages arrive
type InteractionDispatcher struct {
	ui       providers.UIController
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewInteractionDispatcher(ui providers.UIController, eventBus providers.EventBus) *InteractionDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &InteractionDispatcher{
		ui:       ui,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start subscribes to recognition messages
func (d *InteractionDispatcher) Start() error {
	eventChan, err := d.eventBus.Subscribe(d.ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to recognition events: %w", err)
	}

	go d.processEvents(eventChan)
	observability.Component("interactions").Info().Msg("interaction dispatcher started")
	return nil
}

// Stop stops the dispatcher and waits for the event loop to exit
func (d *InteractionDispatcher) Stop() {
	d.cancel()
	<-d.done
}

func (d *InteractionDispatcher) processEvents(eventChan <-chan *entities.RecognitionEvent) {
	defer close(d.done)
	for {
		select {
		case <-d.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			d.Apply(event)
		}
	}
}

// Apply runs the onFound or onLost side effects carried by event
func (d *InteractionDispatcher) Apply(event *entities.RecognitionEvent) {
	switch event.Type {
	case entities.RecognitionEventIdentified:
		if event.Interactions == nil {
			return
		}
		if event.Interactions.OnFound.ShowUI {
			d.ui.ShowPanel(event.ProductID)
		}
		if event.Interactions.OnFound.PlaySound && event.Interactions.OnFound.SoundPath != "" {
			d.ui.PlaySound(event.Interactions.OnFound.SoundPath)
		}
	case entities.RecognitionEventLost:
		if event.ProductID != "" && event.Interactions != nil {
			if event.Interactions.OnLost.HideUI {
				d.ui.HidePanel(event.ProductID)
			}
			if event.Interactions.OnLost.PauseAnimation {
				d.ui.PauseAnimation(event.ProductID)
			}
		}
		d.ui.ClearEffects(event.TargetIndex)
	}
}
