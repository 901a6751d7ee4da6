package config

import (
	"errors"
	"fmt"
)

// Error codes for configuration failures.
const (
	ErrCodeRead    = "C001" // file could not be read
	ErrCodeParse   = "C002" // YAML could not be decoded
	ErrCodeSchema  = "C003" // document violates the CUE schema
	ErrCodeInvalid = "C004" // cross-field constraint failed
	ErrCodeEnv     = "C005" // malformed environment override
)

// Error is a configuration failure with a stable code.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsSchemaError reports whether err is a schema violation.
// Uses errors.As to handle wrapped errors.
func IsSchemaError(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeSchema
	}
	return false
}
