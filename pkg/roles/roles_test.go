package roles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFor_KnownPrefixes(t *testing.T) {
	require.Equal(t, "Builder", For("openai/gpt-5.2").Name)
	require.Equal(t, "Reviewer", For("anthropic/claude-opus-5").Name)
	require.Equal(t, "Synthesizer", For("google/gemini-3-pro").Name)
	require.Equal(t, "Contrarian", For("x-ai/grok-5").Name)
}

func TestFor_UnknownPrefixFallsBackToGeneralist(t *testing.T) {
	require.Equal(t, Default, For("mistral/mixtral-8x22b"))
	require.Equal(t, Default, For(""))
}
