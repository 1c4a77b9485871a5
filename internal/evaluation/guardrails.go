package evaluation

import (
	"fmt"
	"time"
)

// GuardrailConfig sets the minimum quality a model must reach before rollout.
type GuardrailConfig struct {
	MinAccuracy   float64
	MinMRR        float64
	MaxAvgLatency time.Duration
	MaxRejectRate float64
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxRejectRate <= 0 {
		config.MaxRejectRate = 1
	}
	return &Guardrails{config: config}
}

// Check returns one message per violated guardrail. Empty means the model passes.
func (g *Guardrails) Check(s *EvalSummary) []string {
	var violations []string
	if s == nil || s.TotalFrames == 0 {
		return []string{"no frames were evaluated"}
	}

	if s.Accuracy < g.config.MinAccuracy {
		violations = append(violations, fmt.Sprintf("accuracy %.3f below %.3f", s.Accuracy, g.config.MinAccuracy))
	}
	if s.MRR < g.config.MinMRR {
		violations = append(violations, fmt.Sprintf("mrr %.3f below %.3f", s.MRR, g.config.MinMRR))
	}
	if g.config.MaxAvgLatency > 0 && s.AvgLatency > g.config.MaxAvgLatency {
		violations = append(violations, fmt.Sprintf("average latency %s above %s", s.AvgLatency, g.config.MaxAvgLatency))
	}
	if rate := float64(s.Rejected) / float64(s.TotalFrames); rate > g.config.MaxRejectRate {
		violations = append(violations, fmt.Sprintf("reject rate %.3f above %.3f", rate, g.config.MaxRejectRate))
	}

	return violations
}
