package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeConfigLoad indicates no configuration backend produced a catalog
	ErrorTypeConfigLoad ErrorType = "CONFIG_LOAD"

	// ErrorTypeConfigValidation indicates a non-fatal inconsistency in a loaded catalog
	ErrorTypeConfigValidation ErrorType = "CONFIG_VALIDATION"

	// ErrorTypeModelLoad indicates the classification model could not be loaded
	ErrorTypeModelLoad ErrorType = "MODEL_LOAD"

	// ErrorTypeClassificationSkipped indicates a frame was not classified
	ErrorTypeClassificationSkipped ErrorType = "CLASSIFICATION_SKIPPED"

	// ErrorTypeLowConfidence indicates a classification below the threshold
	ErrorTypeLowConfidence ErrorType = "LOW_CONFIDENCE"

	// ErrorTypeTelemetryTransport indicates analytics events could not be delivered
	ErrorTypeTelemetryTransport ErrorType = "TELEMETRY_TRANSPORT"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err, or any error it wraps, is an AppError of type t
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewConfigLoadError is returned when every configuration backend failed
func NewConfigLoadError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfigLoad,
		Message: message,
		Err:     err,
	}
}

// NewConfigValidationWarning describes a catalog inconsistency that does not block loading
func NewConfigValidationWarning(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConfigValidation,
		Message: message,
	}
}

// NewModelLoadError creates a new model load error
func NewModelLoadError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeModelLoad,
		Message: message,
		Err:     err,
	}
}

// NewClassificationSkipped creates a new classification skipped error
func NewClassificationSkipped(reason string) *AppError {
	return &AppError{
		Type:    ErrorTypeClassificationSkipped,
		Message: reason,
	}
}

// NewLowConfidenceResult creates a new low confidence error
func NewLowConfidenceResult(label string, confidence, threshold float64) *AppError {
	return &AppError{
		Type:    ErrorTypeLowConfidence,
		Message: fmt.Sprintf("label %q confidence %.2f below threshold %.2f", label, confidence, threshold),
	}
}

// NewTelemetryTransportError creates a new telemetry transport error
func NewTelemetryTransportError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTelemetryTransport,
		Message: message,
		Err:     err,
	}
}
