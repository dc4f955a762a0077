package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a request is dispatched while another is in flight.
	// The in-flight request is not affected.
	ErrBusy = errors.New("controller: a request is already in flight")

	// ErrEmptyInput is wrapped by ValidationError for blank queries and questions.
	ErrEmptyInput = errors.New("input is empty")
)

// ValidationError reports input rejected before any API call was made.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
