package engine

import (
	"errors"
	"fmt"
	"strings"
)

// PlanError is returned when validator descriptors cannot be planned.
type PlanError struct {
	// Code identifies the error category.
	Code PlanErrorCode

	// Message is a human-readable description.
	Message string

	// Agents lists the validators involved. For cycles it is the cycle
	// path, first node repeated at the end.
	Agents []string
}

// PlanErrorCode categorizes planning errors.
type PlanErrorCode string

const (
	// ErrCodeNoValidators indicates an engine was built with nothing to run.
	ErrCodeNoValidators PlanErrorCode = "NO_VALIDATORS"

	// ErrCodeInvalidDescriptor indicates an empty name or a negative timeout.
	ErrCodeInvalidDescriptor PlanErrorCode = "INVALID_DESCRIPTOR"

	// ErrCodeDuplicateAgent indicates two validators share a name.
	ErrCodeDuplicateAgent PlanErrorCode = "DUPLICATE_AGENT"

	// ErrCodeCycleDetected indicates validators depend on each other.
	ErrCodeCycleDetected PlanErrorCode = "CYCLE_DETECTED"

	// ErrCodeUnknownAgent indicates a filter named a validator that is not registered.
	ErrCodeUnknownAgent PlanErrorCode = "UNKNOWN_AGENT"
)

// Error implements the error interface.
func (e *PlanError) Error() string {
	if len(e.Agents) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Agents, " → "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCycleError returns true if the error is a dependency cycle error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeCycleDetected
	}
	return false
}

// IsPlanError returns true if the error is any planning error.
func IsPlanError(err error) bool {
	var pe *PlanError
	return errors.As(err, &pe)
}

// NewCycleError creates a PlanError for a dependency cycle.
func NewCycleError(path []string) *PlanError {
	return &PlanError{
		Code:    ErrCodeCycleDetected,
		Message: "validators depend on each other",
		Agents:  path,
	}
}

// ValidatorError describes why a validator produced a SYSTEM_ERROR.
type ValidatorError struct {
	Agent string
	Cause error
}

func (e *ValidatorError) Error() string {
	return fmt.Sprintf("validator %s: %v", e.Agent, e.Cause)
}

func (e *ValidatorError) Unwrap() error { return e.Cause }

// PanicError wraps a value recovered from a panicking validator.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
