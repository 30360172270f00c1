package models

import "fmt"

// InvalidInputError marks a source document that is missing or not a
// supported plain-text format. It is fatal and raised before any processing.
type InvalidInputError struct {
	Path   string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Path, e.Reason)
}

// ExternalServiceError wraps a failure from one of the consumed model
// services (completion, embedding, rerank).
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
