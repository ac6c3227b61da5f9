package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is the single error type raised while building or lowering a program.
//
// Errors are raised synchronously where they are detected and are never
// retried: program construction has no transient failure source.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (channel, interval, offending set).
	Details map[string]string
}

// ErrorCode categorizes errors.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates missing or contradictory settings.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// ErrCodeSchedulingConflict indicates overlapping intervals on one channel.
	ErrCodeSchedulingConflict ErrorCode = "SCHEDULING_CONFLICT"

	// ErrCodeValidation indicates a structurally invalid program.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeState indicates a builder call made in the wrong state.
	ErrCodeState ErrorCode = "STATE_ERROR"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Details[k]
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// WithDetail returns e with one more detail entry.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// ConfigurationErrorf creates a configuration Error.
func ConfigurationErrorf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// ValidationErrorf creates a validation Error.
func ValidationErrorf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// StateErrorf creates a state Error.
func StateErrorf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeState, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError reports that [start, stop) on ch overlaps an existing
// interval [otherStart, otherStop).
func NewConflictError(ch Channel, start, stop, otherStart, otherStop int64) *Error {
	return &Error{
		Code:    ErrCodeSchedulingConflict,
		Message: fmt.Sprintf("interval [%d, %d) overlaps [%d, %d) on channel %s", start, stop, otherStart, otherStop, ch),
		Details: map[string]string{
			"channel":  ch.String(),
			"interval": fmt.Sprintf("[%d, %d)", start, stop),
			"existing": fmt.Sprintf("[%d, %d)", otherStart, otherStop),
		},
	}
}

// NewNoActiveBuilderError reports a builder operation with no open scope.
func NewNoActiveBuilderError(op string) *Error {
	return StateErrorf("no active builder").WithDetail("operation", op)
}

// NewTargetNotSetError reports a topology query on a builder without a target.
func NewTargetNotSetError(op string) *Error {
	return StateErrorf("target not set").WithDetail("operation", op)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsConfigurationError returns true if err is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigurationError(err error) bool { return hasCode(err, ErrCodeConfiguration) }

// IsConflictError returns true if err is a scheduling conflict.
func IsConflictError(err error) bool { return hasCode(err, ErrCodeSchedulingConflict) }

// IsValidationError returns true if err is a validation error.
func IsValidationError(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsStateError returns true if err is a builder state error.
func IsStateError(err error) bool { return hasCode(err, ErrCodeState) }
