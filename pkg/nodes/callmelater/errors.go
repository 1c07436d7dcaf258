package callmelater

import (
	"errors"
	"fmt"
)

var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidJSON      = errors.New("invalid JSON")
	ErrInvalidAction    = errors.New("invalid action")
	ErrUnknownResource  = errors.New("unknown resource")
	ErrUnknownOperation = errors.New("unknown operation")
)

// ParameterError reports a parameter that is missing or cannot be used.
type ParameterError struct {
	Name string
	Err  error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("parameter %q: %v", e.Name, e.Err)
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}

func missing(name string) error {
	return &ParameterError{Name: name, Err: ErrMissingParameter}
}

// OperationError is returned for a resource or operation the node does not know.
type OperationError struct {
	Resource  string
	Operation string
}

func (e *OperationError) Error() string {
	if e.Operation == "" {
		return "Unknown resource: " + e.Resource
	}

	return "Unknown operation: " + e.Operation
}

func (e *OperationError) Is(target error) bool {
	if e.Operation == "" {
		return target == ErrUnknownResource
	}

	return target == ErrUnknownOperation
}
