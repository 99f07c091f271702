package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Request is one completion call: a system prompt (built per document type)
// and the user content (chunk text or combined partial summaries).
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float32
	MaxTokens   int
	// ForceJSON asks the backend for a JSON-object response when supported.
	ForceJSON bool
}

// Completer is the completion-service contract the pipeline depends on.
// Implementations consume one unit of external API quota per call.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// BackendError classifies a completion failure. Transient failures (rate
// limit, timeout, network) are retried by the executor; fatal ones (auth,
// malformed request) are surfaced immediately.
type BackendError struct {
	Transient  bool
	StatusCode int
	Message    string
	Cause      error
}

func (e *BackendError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm: %s backend error (status %d): %s", kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: %s backend error: %s", kind, e.Message)
}

func (e *BackendError) Unwrap() error { return e.Cause }

// NewTransientError wraps a retryable failure.
func NewTransientError(status int, msg string, cause error) *BackendError {
	return &BackendError{Transient: true, StatusCode: status, Message: msg, Cause: cause}
}

// NewFatalError wraps a non-retryable failure.
func NewFatalError(status int, msg string, cause error) *BackendError {
	return &BackendError{Transient: false, StatusCode: status, Message: msg, Cause: cause}
}

// IsTransient reports whether err should go through the retry path.
// Timeouts and network errors count as transient even when the backend
// never produced a classified BackendError.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return false
}

// ClassifyStatus maps an HTTP status to the retry taxonomy: 429 and 5xx are
// transient, everything else in the error range is fatal.
func ClassifyStatus(status int, msg string) *BackendError {
	if status == 429 || status >= 500 {
		return NewTransientError(status, msg, nil)
	}
	return NewFatalError(status, msg, nil)
}
