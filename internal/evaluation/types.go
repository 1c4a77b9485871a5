package evaluation

import "time"

// Difficulty grades how hard a labelled frame is to classify.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"   // box facing the camera, good light
	DifficultyMedium Difficulty = "medium" // angled or partly covered
	DifficultyHard   Difficulty = "hard"   // glare, motion blur, low light
)

// IsValid checks if the difficulty is one of the defined constants.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// LabeledFrame is one camera frame with the product it is known to show.
type LabeledFrame struct {
	ID              string             `json:"id" yaml:"id"`
	Image           string             `json:"image,omitempty" yaml:"image,omitempty"`
	ExpectedProduct string             `json:"expectedProduct" yaml:"expectedProduct"`
	Difficulty      Difficulty         `json:"difficulty" yaml:"difficulty"`
	Predictions     []ScriptPrediction `json:"predictions,omitempty" yaml:"predictions,omitempty"`
}

// ScriptPrediction is a canned engine answer used when no model is reachable.
type ScriptPrediction struct {
	Label      string  `json:"label" yaml:"label"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// FrameSet is the on-disk layout of a labelled frame file.
type FrameSet struct {
	Frames []LabeledFrame `json:"frames" yaml:"frames"`
}

// EvalResult holds the evaluation outcome for a single frame.
type EvalResult struct {
	FrameID          string        `yaml:"frameId"`
	ExpectedProduct  string        `yaml:"expectedProduct"`
	PredictedProduct string        `yaml:"predictedProduct"`
	Confidence       float64       `yaml:"confidence"`
	Correct          bool          `yaml:"correct"`
	Rejected         bool          `yaml:"rejected"`
	HitAt3           float64       `yaml:"hitAt3"`
	ReciprocalRank   float64       `yaml:"reciprocalRank"`
	Difficulty       Difficulty    `yaml:"difficulty"`
	Latency          time.Duration `yaml:"latency"`
}

// EvalSummary holds aggregate metrics across all labelled frames.
type EvalSummary struct {
	TotalFrames int                        `yaml:"totalFrames"`
	Accuracy    float64                    `yaml:"accuracy"`
	AvgHitAt3   float64                    `yaml:"avgHitAt3"`
	MRR         float64                    `yaml:"mrr"`
	AvgLatency  time.Duration              `yaml:"avgLatency"`
	Rejected    int                        `yaml:"rejected"`
	Errors      int                        `yaml:"errors"`
	ByProduct   map[string]*ProductSummary `yaml:"byProduct"`
	Results     []EvalResult               `yaml:"results,omitempty"`
}

// ProductSummary holds metrics grouped by expected product.
type ProductSummary struct {
	Count    int     `yaml:"count"`
	Correct  int     `yaml:"correct"`
	Accuracy float64 `yaml:"accuracy"`
	MRR      float64 `yaml:"mrr"`
}
