package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorKind classifies pipeline failures. Every run failure maps to exactly
// one kind; retries are confined to the fetch stages.
type ErrorKind string

const (
	ErrorKindFetchExhausted       ErrorKind = "fetch_exhausted"
	ErrorKindStructureNotFound    ErrorKind = "structure_not_found"
	ErrorKindUnsupportedDocument  ErrorKind = "unsupported_document"
	ErrorKindExtractionMalformed  ErrorKind = "extraction_malformed"
	ErrorKindConfigurationMissing ErrorKind = "configuration_missing"
	ErrorKindExtraction           ErrorKind = "extraction"
	ErrorKindStore                ErrorKind = "store"
)

// PipelineError is a classified error with contextual details for diagnostics.
type PipelineError struct {
	Kind      ErrorKind              `json:"kind"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Operation string                 `json:"operation"`
	Retryable bool                   `json:"retryable"`
	Cause     error                  `json:"-"`
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewPipelineError creates a classified error for the given operation.
func NewPipelineError(kind ErrorKind, message, operation string, retryable bool, cause error) *PipelineError {
	return &PipelineError{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Operation: operation,
		Retryable: retryable,
		Cause:     cause,
	}
}

// WithDetails attaches diagnostic context to the error.
func (e *PipelineError) WithDetails(details map[string]interface{}) *PipelineError {
	e.Details = details
	return e
}

// LogError logs the error with structured fields.
func (e *PipelineError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_kind":       e.Kind,
		"error_message":    e.Message,
		"operation":        e.Operation,
		"retryable":        e.Retryable,
		"details":          e.Details,
		"underlying_error": e.Cause,
	}).Error("Pipeline error occurred")
}

// WrapError wraps an existing error with pipeline context. An error that is
// already a PipelineError keeps its kind and only gains the operation.
func WrapError(err error, kind ErrorKind, operation string, retryable bool) *PipelineError {
	if err == nil {
		return nil
	}

	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		pipelineErr.Operation = operation
		return pipelineErr
	}

	return NewPipelineError(kind, err.Error(), operation, retryable, err)
}

// IsKind reports whether err is a PipelineError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Kind == kind
	}
	return false
}

// KindOf returns the error's kind, or the empty string for unclassified errors.
func KindOf(err error) ErrorKind {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Kind
	}
	return ""
}
