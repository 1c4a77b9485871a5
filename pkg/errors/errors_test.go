package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsType_MatchesWrappedAppError(t *testing.T) {
	base := NewConfigLoadError("all backends failed", fmt.Errorf("boom"))
	wrapped := fmt.Errorf("initialise: %w", base)

	assert.True(t, IsType(wrapped, ErrorTypeConfigLoad))
	assert.False(t, IsType(wrapped, ErrorTypeModelLoad))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeConfigLoad))
}

func TestAppError_Error(t *testing.T) {
	err := NewModelLoadError("metadata unavailable", fmt.Errorf("404"))
	assert.Equal(t, "MODEL_LOAD: metadata unavailable: 404", err.Error())

	warn := NewConfigValidationWarning("conflicting target paths")
	assert.Equal(t, "CONFIG_VALIDATION: conflicting target paths", warn.Error())
}

func TestNewLowConfidenceResult(t *testing.T) {
	err := NewLowConfidenceResult("Spearmint", 0.69, 0.70)
	assert.Contains(t, err.Error(), "0.69")
	assert.Equal(t, ErrorTypeLowConfidence, err.Type)
}
