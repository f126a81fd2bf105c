package transport

import (
	"context"

	"github.com/llm-council/council/pkg/registry"
)

// Transport is the C1 chat-transport contract every backend implements.
// A single call sends one ordered message list to one model and returns its
// response text, or an error (a TransportError, which wraps ErrEmptyResponse
// when no usable text remains after normalization and provider-id filtering).
type Transport interface {
	Chat(ctx context.Context, model string, messages []Message, temperature float32, maxTokens int) (string, error)
}

// Backends holds named Transport backends ("openrouter", "bedrock",
// "replicate"), reusing the teacher's generic factory-registry pattern for
// pluggable LLM backends instead of a central type switch.
var Backends = registry.New[Transport]("transport")

