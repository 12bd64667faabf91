package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a step state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a step carries an unknown state
	ErrInvalidState = errors.New("invalid state")
)

// Error kinds surfaced to callers. Every decision failure wraps exactly one.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrAuthorization = errors.New("authorization error")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
)

var (
	ErrStepNotFound          = fmt.Errorf("%w: step not found", ErrConfiguration)
	ErrEmptyConfig           = fmt.Errorf("%w: workflow configuration has no steps", ErrConfiguration)
	ErrConfigVersionMismatch = fmt.Errorf("%w: workflow configuration changed since the invoice was routed", ErrConfiguration)

	ErrNotAuthorized = fmt.Errorf("%w: actor may not decide this step", ErrAuthorization)

	ErrStepNotActive       = fmt.Errorf("%w: step is not the invoice's active step", ErrConflict)
	ErrStepAlreadyResolved = fmt.Errorf("%w: step already resolved", ErrConflict)
	ErrInvoiceClosed       = fmt.Errorf("%w: invoice workflow is closed", ErrConflict)
	ErrAlreadyRouted       = fmt.Errorf("%w: invoice already has workflow history", ErrConflict)
)

// Error kind names
const (
	KindConfiguration = "CONFIGURATION"
	KindAuthorization = "AUTHORIZATION"
	KindValidation    = "VALIDATION"
	KindConflict      = "CONFLICT"
)

// Kind returns the error kind of err, or "" if it is not a workflow error
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrAuthorization):
		return KindAuthorization
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	}
	return ""
}
