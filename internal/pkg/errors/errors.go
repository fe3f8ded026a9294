package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failed prediction.
type Kind string

const (
	KindInvalidInput          Kind = "invalid_input"
	KindModelUnavailable      Kind = "model_unavailable"
	KindBackendBlocked        Kind = "backend_blocked"
	KindBackendEmpty          Kind = "backend_empty"
	KindTransientBackendError Kind = "transient_backend_error"
	KindExhaustedRetries      Kind = "exhausted_retries"
	KindInputProcessingError  Kind = "input_processing_error"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrModelUnavailable      = errors.New("model unavailable")
	ErrBackendBlocked        = errors.New("response was blocked by safety settings")
	ErrBackendEmpty          = errors.New("no text content returned from backend")
	ErrTransientBackendError = errors.New("backend error")
	ErrExhaustedRetries      = errors.New("backend request failed after multiple retries")
	ErrInputProcessing       = errors.New("input processing error")
)

var kindSentinel = map[Kind]error{
	KindInvalidInput:          ErrInvalidInput,
	KindModelUnavailable:      ErrModelUnavailable,
	KindBackendBlocked:        ErrBackendBlocked,
	KindBackendEmpty:          ErrBackendEmpty,
	KindTransientBackendError: ErrTransientBackendError,
	KindExhaustedRetries:      ErrExhaustedRetries,
	KindInputProcessingError:  ErrInputProcessing,
}

// PredictError is the failure half of a prediction result. errors.Is matches
// both the kind sentinel and the wrapped cause.
type PredictError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *PredictError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PredictError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := kindSentinel[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func New(kind Kind, message string) error {
	return &PredictError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) error {
	return &PredictError{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var pe *PredictError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	for kind, sentinel := range kindSentinel {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
