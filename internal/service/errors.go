package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a request is well-formed but has nothing to answer.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExternalService is returned when the retrieval service, an image host
	// or the inference backend fails.
	ErrExternalService = errors.New("external service error")
)

// ValidationError reports which request field was rejected and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// externalError marks err as an upstream failure while keeping it inspectable.
func externalError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrExternalService, WrapError(err, msg))
}
