package providers

import (
	"context"

	"github.com/zatekoja/productar/internal/domain/entities"
)

// InferenceEngine runs a pre-trained image classification model
type InferenceEngine interface {
	// Load resolves the model reference and returns the labels the model emits
	Load(ctx context.Context, ref entities.ModelReference) ([]string, error)

	// Predict runs single-frame inference. Predictions need not be sorted.
	Predict(ctx context.Context, frame *entities.Frame) ([]entities.Prediction, error)
}
