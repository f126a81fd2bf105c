package transport

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned (wrapped in TransportError, or checked via
// errors.Is) when a chat call yields no usable text after normalization and
// provider-id filtering.
var ErrEmptyResponse = errors.New("transport: empty response")

// ErrProviderIDResponse marks a response whose only extractable text looked
// like a provider request/generation id rather than model output. No backend
// in this package returns it: provider-id-only output is filtered to empty
// and reported as ErrEmptyResponse.
var ErrProviderIDResponse = errors.New("transport: provider id-like response")

// TransportError wraps a network/HTTP failure from a single chat call to a
// named backend. Stage-1's Google-only retry and Stage-2's repair ladder
// both recover from this locally; it only aborts the pipeline if every
// generator in Stage 1 fails (Stage1AllFailed).
type TransportError struct {
	Backend string
	Model   string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport(%s): chat %s: %v", e.Backend, e.Model, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps err as a TransportError for the named backend and
// model. Returns nil if err is nil.
func NewTransportError(backend, model string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Backend: backend, Model: model, Err: err}
}
