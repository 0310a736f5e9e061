package errors

import (
	"errors"
	"fmt"
)

// ErrNoIdentity occurs when an accumulator that never received a value is
// extracted by a combiner that declares no identity element
var ErrNoIdentity = errors.New("Extracted an empty accumulator from a combiner with no identity value")

// ConfigurationError occurs when a transform is applied to a collection whose
// shape does not match what the transform requires. It is reported when the
// transform is constructed, never while a pipeline is running.
type ConfigurationError struct {
	Transform  string // name of the transform being constructed
	Problem    string // the shape that was required and not found
	Suggestion string // an alternative the caller may use instead, if any
}

// Error returns a textual representation of this ConfigurationError
func (e ConfigurationError) Error() string {
	if len(e.Suggestion) == 0 {
		return fmt.Sprintf("%s: %s", e.Transform, e.Problem)
	}
	return fmt.Sprintf("%s: %s. Instead, %s", e.Transform, e.Problem, e.Suggestion)
}

// EmptyResultError occurs when a singleton view holds no value for a window
// and no default value was configured
type EmptyResultError struct{ View string }

// Error returns a textual representation of this EmptyResultError
func (e EmptyResultError) Error() string {
	return fmt.Sprintf("Empty PCollection accessed as a singleton view (%s)", e.View)
}

// AmbiguousResultError occurs when a singleton view was materialized from more
// than one element in a window
type AmbiguousResultError struct {
	View  string
	Count int
}

// Error returns a textual representation of this AmbiguousResultError
func (e AmbiguousResultError) Error() string {
	return fmt.Sprintf("PCollection with more than one element accessed as a singleton view (%s has %d elements)", e.View, e.Count)
}

// CoderInferenceError occurs when no coder could be derived for a type. The
// caller must supply an explicit coder.
type CoderInferenceError struct {
	Type  string // the type for which a coder was requested
	Cause error  // the underlying failure, if any
}

// Error returns a textual representation of this CoderInferenceError
func (e CoderInferenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Unable to infer a coder for %s, an explicit coder is required: %v", e.Type, e.Cause)
	}
	return fmt.Sprintf("Unable to infer a coder for %s, an explicit coder is required", e.Type)
}

// Unwrap returns the cause of this CoderInferenceError
func (e CoderInferenceError) Unwrap() error {
	return e.Cause
}
