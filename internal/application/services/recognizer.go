package services

import (
	"context"
	"sync"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
)

// Recognizer owns one recognition machine per assembled entity and routes
// tracking messages to them by target index.
type Recognizer struct {
	machines map[int]*RecognitionMachine
	order    []int
	wg       sync.WaitGroup
}

// NewRecognizer builds machines for every target index of the catalog
func NewRecognizer(catalog *entities.Catalog, deps RecognitionDeps) *Recognizer {
	r := &Recognizer{machines: make(map[int]*RecognitionMachine)}
	for _, group := range catalog.Groups() {
		r.machines[group.TargetIndex] = NewRecognitionMachine(group.TargetIndex, group.Products, deps)
		r.order = append(r.order, group.TargetIndex)
	}
	return r
}

// Machine returns the machine for targetIndex
func (r *Recognizer) Machine(targetIndex int) (*RecognitionMachine, bool) {
	m, ok := r.machines[targetIndex]
	return m, ok
}

// Sessions returns a snapshot of every session in assembly order
func (r *Recognizer) Sessions() []entities.RecognitionSession {
	out := make([]entities.RecognitionSession, 0, len(r.order))
	for _, idx := range r.order {
		out = append(out, r.machines[idx].Session())
	}
	return out
}

// Handle applies one tracking message. Found and lost are applied in order;
// eligible frames are classified in the background so other targets keep flowing.
func (r *Recognizer) Handle(ctx context.Context, event entities.TrackingEvent) {
	m, ok := r.machines[event.TargetIndex]
	if !ok {
		observability.Component("recognition").Warn().
			Int("target_index", event.TargetIndex).
			Str("event", string(event.Type)).
			Msg("tracking event for unknown target ignored")
		return
	}

	switch event.Type {
	case entities.TrackingEventTargetFound:
		m.OnTargetFound(ctx)
	case entities.TrackingEventTargetLost:
		m.OnTargetLost(ctx)
	case entities.TrackingEventFrame:
		epoch, ok := m.beginClassification()
		if !ok {
			return
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			m.completeClassification(ctx, epoch, event.Frame)
		}()
	default:
		observability.Component("recognition").Warn().Str("event", string(event.Type)).Msg("unknown tracking event")
	}
}

// Run consumes tracking messages until the channel closes or ctx is done,
// then waits for running classifications to settle.
func (r *Recognizer) Run(ctx context.Context, events <-chan entities.TrackingEvent) error {
	defer r.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			r.Handle(ctx, event)
		}
	}
}

// Wait blocks until background classifications started by Handle finish
func (r *Recognizer) Wait() {
	r.wg.Wait()
}
