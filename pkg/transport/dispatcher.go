package transport

import (
	"context"
	"fmt"
)

// Dispatcher holds already-constructed backend clients and routes each Chat
// call to the right one via SelectBackend. Backends are instantiated once
// (they hold HTTP/SDK clients) rather than recreated per call.
type Dispatcher struct {
	backends map[string]Transport
	opts     DispatchOptions
}

// NewDispatcher wraps a name-to-client map built from Backends.Create calls
// at startup.
func NewDispatcher(backends map[string]Transport, opts DispatchOptions) *Dispatcher {
	return &Dispatcher{backends: backends, opts: opts}
}

// Chat dispatches to the backend SelectBackend picks for model. Callers that
// need an extra attempt on an empty/provider-id-like response (the
// google/*-only Stage-1 retry) apply it themselves; the dispatcher never
// retries on their behalf, since a silent retry here would also apply to
// Stage-2/Stage-3 calls, which recover through other means (the repair
// ladder, not a transport-level retry).
func (d *Dispatcher) Chat(ctx context.Context, model string, messages []Message, temperature float32, maxTokens int) (string, error) {
	name := SelectBackend(model, d.opts)
	backend, ok := d.backends[name]
	if !ok {
		return "", fmt.Errorf("transport: no backend client constructed for %q (selected for model %q)", name, model)
	}
	return backend.Chat(ctx, model, messages, temperature, maxTokens)
}
