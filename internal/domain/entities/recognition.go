package entities

import "time"

// RecognitionState is the state of one physical target's recognition session
type RecognitionState string

const (
	RecognitionStateIdle        RecognitionState = "IDLE"
	RecognitionStateClassifying RecognitionState = "CLASSIFYING"
	RecognitionStateIdentified  RecognitionState = "IDENTIFIED"
)

// RecognitionSession is the runtime state for one target index
type RecognitionSession struct {
	TargetIndex          int              `json:"targetIndex" yaml:"targetIndex"`
	State                RecognitionState `json:"state" yaml:"state"`
	ActiveProductID      string           `json:"activeProductId,omitempty" yaml:"activeProductId,omitempty"`
	LastClassificationAt *time.Time       `json:"lastClassificationAt,omitempty" yaml:"lastClassificationAt,omitempty"`
}

// TrackingEventType identifies signals from the image tracking engine
type TrackingEventType string

const (
	TrackingEventTargetFound TrackingEventType = "target_found"
	TrackingEventTargetLost  TrackingEventType = "target_lost"
	// TrackingEventFrame carries a camera frame while a target is tracked
	TrackingEventFrame TrackingEventType = "frame"
)

// TrackingEvent is a message from the tracking engine keyed by target index
type TrackingEvent struct {
	Type        TrackingEventType `json:"type" yaml:"type"`
	TargetIndex int               `json:"targetIndex" yaml:"targetIndex"`
	Frame       *Frame            `json:"-" yaml:"-"`
}

// RecognitionEventType identifies messages emitted by the recognition layer
type RecognitionEventType string

const (
	RecognitionEventClassifying RecognitionEventType = "classification_started"
	RecognitionEventIdentified  RecognitionEventType = "product_identified"
	RecognitionEventLost        RecognitionEventType = "product_lost"
)

// RecognitionEvent is consumed by the UI layer and telemetry
type RecognitionEvent struct {
	Type        RecognitionEventType `json:"type" yaml:"type"`
	TargetIndex int                  `json:"targetIndex" yaml:"targetIndex"`
	ProductID   string               `json:"productId,omitempty" yaml:"productId,omitempty"`
	Confidence  float64              `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	// Interactions of the product at the time of the transition
	Interactions *Interactions `json:"interactions,omitempty" yaml:"interactions,omitempty"`
	OccurredAt   time.Time     `json:"occurredAt" yaml:"occurredAt"`
}
