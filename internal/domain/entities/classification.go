package entities

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"
)

// Frame is a single camera frame handed to the classifier
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Width     int
	Height    int
	// Format is "jpeg", "png" or a raw pixel layout such as "rgba"
	Format string
	Data   []byte
}

// Decodable reports whether the frame carries usable image data.
// Encoded formats must have a header the image package can parse.
func (f *Frame) Decodable() bool {
	if f == nil || len(f.Data) == 0 {
		return false
	}
	switch strings.ToLower(f.Format) {
	case "jpeg", "jpg", "png":
		_, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
		return err == nil
	default:
		return f.Width > 0 && f.Height > 0
	}
}

// Prediction is one raw label score produced by an inference engine
type Prediction struct {
	Label      string  `json:"label" yaml:"label"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Candidate is a ranked prediction resolved against the catalog
type Candidate struct {
	Label      string  `json:"label" yaml:"label"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	ProductID  string  `json:"productId,omitempty" yaml:"productId,omitempty"`
}

// ClassificationResult is the outcome of one successful inference call
type ClassificationResult struct {
	Label           string      `json:"label" yaml:"label"`
	Confidence      float64     `json:"confidence" yaml:"confidence"`
	ProductID       string      `json:"productId" yaml:"productId"`
	AllCandidates   []Candidate `json:"allCandidates" yaml:"allCandidates"`
	InferenceTimeMs float64     `json:"inferenceTimeMs" yaml:"inferenceTimeMs"`
}

// ClassifierStats is a snapshot of classifier counters
type ClassifierStats struct {
	TotalClassifications int     `json:"totalClassifications" yaml:"totalClassifications"`
	SuccessfulMatches    int     `json:"successfulMatches" yaml:"successfulMatches"`
	FailedMatches        int     `json:"failedMatches" yaml:"failedMatches"`
	AvgInferenceTimeMs   float64 `json:"avgInferenceTimeMs" yaml:"avgInferenceTimeMs"`
}

// ModelReference locates a pre-trained classification model
type ModelReference struct {
	ModelURL    string `json:"modelUrl" yaml:"modelUrl"`
	MetadataURL string `json:"metadataUrl" yaml:"metadataUrl"`
}
