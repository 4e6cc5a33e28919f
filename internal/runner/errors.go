package runner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType partitions run failures so callers can tell "the pipe
// broke" from "the job gave up silently" from "the input was wrong".
type ErrorType int

const (
	// ErrInputNotFound: the source document does not resolve. Fatal,
	// surfaced before any run is attempted.
	ErrInputNotFound ErrorType = iota
	// ErrInvalidConfig: unsupported vendor, missing credential, bad
	// knob value. Fatal, surfaced before streaming begins.
	ErrInvalidConfig
	// ErrTransport: the event stream itself failed. Fatal, underlying
	// cause preserved.
	ErrTransport
	// ErrIncompleteRun: the stream closed cleanly without a terminal
	// finish event.
	ErrIncompleteRun
	// ErrCancelled: the caller's context was cancelled mid-run.
	ErrCancelled
	// ErrSchema: the finish payload had an unrecognized shape.
	ErrSchema
	// ErrChunk: a non-fatal per-chunk failure reported during an
	// otherwise healthy run. Never returned from Run; used for
	// logging and observer classification.
	ErrChunk
	ErrUnknown
)

func (t ErrorType) String() string {
	switch t {
	case ErrInputNotFound:
		return "InputNotFound"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrTransport:
		return "TransportFailure"
	case ErrIncompleteRun:
		return "IncompleteRun"
	case ErrCancelled:
		return "Cancelled"
	case ErrSchema:
		return "SchemaMismatch"
	case ErrChunk:
		return "ChunkError"
	default:
		return "Unknown"
	}
}

// RunError is the typed error carried by every fatal run failure.
type RunError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *RunError {
	return &RunError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func WrapError(err error, errorType ErrorType, message string) *RunError {
	return &RunError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   err,
	}
}

func (e *RunError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *RunError) Unwrap() error {
	return e.Cause
}

func (e *RunError) WithContext(key string, value any) *RunError {
	e.Context[key] = value
	return e
}

// IsErrorType reports whether err is (or wraps) a RunError of the
// given type.
func IsErrorType(err error, errorType ErrorType) bool {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Type == errorType
	}
	return false
}
