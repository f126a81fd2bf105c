package transport

import "strings"

// DefaultBackend is used for every model whose vendor prefix has no direct
// backend registered — the common case, since OpenRouter fronts all vendors
// behind one API.
const DefaultBackend = "openrouter"

// DispatchOptions toggles the opt-in direct backends.
type DispatchOptions struct {
	BedrockDirect   bool
	ReplicateDirect bool
}

// SelectBackend picks a registered backend name for model. Direct backends
// are opt-in and scoped to the vendor prefixes they serve; every other
// model (including unknown prefixes) routes through the default backend.
func SelectBackend(model string, opts DispatchOptions) string {
	if opts.BedrockDirect && strings.HasPrefix(model, "amazon/") {
		return "bedrock"
	}
	if opts.ReplicateDirect && strings.HasPrefix(model, "meta/") {
		return "replicate"
	}
	return DefaultBackend
}
