package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuardrails_Pass(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinAccuracy: 0.8, MinMRR: 0.8})

	violations := g.Check(&EvalSummary{TotalFrames: 10, Accuracy: 0.9, MRR: 0.95})

	assert.Empty(t, violations)
}

func TestGuardrails_ReportsEveryViolation(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{
		MinAccuracy:   0.8,
		MinMRR:        0.9,
		MaxAvgLatency: 50 * time.Millisecond,
		MaxRejectRate: 0.1,
	})

	violations := g.Check(&EvalSummary{
		TotalFrames: 10,
		Accuracy:    0.5,
		MRR:         0.6,
		AvgLatency:  80 * time.Millisecond,
		Rejected:    4,
	})

	assert.Len(t, violations, 4)
	assert.Contains(t, violations[0], "accuracy")
	assert.Contains(t, violations[3], "reject rate")
}

func TestGuardrails_EmptySummary(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})

	assert.Equal(t, []string{"no frames were evaluated"}, g.Check(&EvalSummary{}))
}
