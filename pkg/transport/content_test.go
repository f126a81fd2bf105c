package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLooksLikeProviderID(t *testing.T) {
	cases := map[string]bool{
		"gen-123456-abcdefgh":              true,
		"chatcmpl-AbCdEfGhIjKlMn":          true,
		"req-AbCdEfGhIjKlMn":               true,
		strings30("a"):                     true,
		"This is a real response.":         false,
		"short":                            false,
		"gen-123-short":                    false, // digits too short, suffix too short
	}
	for in, want := range cases {
		require.Equal(t, want, looksLikeProviderID(in), "input: %q", in)
	}
}

func strings30(ch string) string {
	s := ""
	for i := 0; i < 30; i++ {
		s += ch
	}
	return s
}

func TestNormalizeContent(t *testing.T) {
	require.Equal(t, "hello", normalizeContent("hello"))
	require.Equal(t, "ab", normalizeContent([]any{"a", "b"}))
	require.Equal(t, "val", normalizeContent(map[string]any{"text": map[string]any{"value": "val"}}))
	require.Equal(t, "direct", normalizeContent(map[string]any{"output_text": "direct"}))
	require.Equal(t, "nested", normalizeContent(map[string]any{"content": []any{"nested"}}))
	require.Equal(t, "", normalizeContent(nil))
}

func TestExtractText_PrimaryPath(t *testing.T) {
	raw := map[string]any{
		"id": "chatcmpl-AbCdEfGhIjKlMnOp",
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": "The real answer."},
			},
		},
	}
	require.Equal(t, "The real answer.", ExtractText(raw))
}

func TestExtractText_FiltersProviderIDThenDeepExtracts(t *testing.T) {
	raw := map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": "gen-123456-abcdefgh"},
			},
		},
		"metadata": map[string]any{
			"request_id": "should-be-ignored-xxxxxxxxxxxxxxxxxxxxxxxxxxx",
			"text":       "Recovered via deep extraction.",
		},
	}
	require.Equal(t, "Recovered via deep extraction.", ExtractText(raw))
}

func TestExtractText_EmptyWhenNothingUsable(t *testing.T) {
	raw := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": "gen-123456-abcdefgh"}},
		},
		"id": "chatcmpl-zzzzzzzzzzzzzzzzz",
	}
	require.Equal(t, "", ExtractText(raw))
}
