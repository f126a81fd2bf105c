package transport

import (
	"regexp"
	"strings"
)

// providerIDPatterns are the three artifact shapes a chat-completions
// provider occasionally surfaces in the content slot instead of real model
// output: an OpenRouter generation id, a chat-completion/request/run/message
// id, or a bare long opaque token.
var providerIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^gen-\d{6,}-[A-Za-z0-9_-]{8,}$`),
	regexp.MustCompile(`^(chatcmpl|cmpl|req|request|run|msg)-[A-Za-z0-9-]{12,}$`),
	regexp.MustCompile(`^[A-Za-z0-9]{24,}$`),
}

// looksLikeProviderID reports whether s, trimmed, is nothing but a
// provider-id-shaped token (no surrounding prose, no whitespace).
func looksLikeProviderID(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" || strings.ContainsAny(t, " \t\n\r") {
		return false
	}
	for _, re := range providerIDPatterns {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// LooksLikeProviderID reports whether s, trimmed, is nothing but a
// provider-id-shaped artifact token. Exported for reuse by pkg/judge, which
// applies the same check to raw judge-model output.
func LooksLikeProviderID(s string) bool {
	return looksLikeProviderID(s)
}

// filterProviderID returns "" if text is entirely a provider-id artifact,
// otherwise returns text unchanged.
func filterProviderID(text string) string {
	if looksLikeProviderID(text) {
		return ""
	}
	return text
}

// normalizeContent flattens the handful of content shapes a chat-completions
// provider may put in message.content into a single string, concatenating
// textual parts in order:
//   - a plain string
//   - a list of heterogeneous parts ([]any), each either a string or a map
//     with a "text"/"value"/"content" key (possibly nested one level, e.g.
//     {"text": {"value": "..."}})
//   - {"output_text": "..."}
func normalizeContent(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		var b strings.Builder
		for _, part := range v {
			b.WriteString(normalizeContent(part))
		}
		return b.String()
	case map[string]any:
		if s, ok := v["output_text"].(string); ok {
			return s
		}
		if inner, ok := v["text"]; ok {
			if s, isStr := inner.(string); isStr {
				return s
			}
			return normalizeContent(inner)
		}
		if s, ok := v["value"].(string); ok {
			return s
		}
		if inner, ok := v["content"]; ok {
			return normalizeContent(inner)
		}
		return ""
	default:
		return ""
	}
}

// deepExtractIgnoreKeys are metadata keys skipped entirely during deep
// extraction (plus any key ending in "_id").
var deepExtractIgnoreKeys = map[string]bool{
	"id": true, "request_id": true, "generation_id": true,
	"model": true, "provider": true, "usage": true, "created": true,
	"timestamp": true, "object": true, "finish_reason": true,
	"system_fingerprint": true,
}

// deepExtractTextKeys are the keys whose string value is a genuine text
// candidate during deep extraction.
var deepExtractTextKeys = map[string]bool{
	"content": true, "text": true, "value": true, "output_text": true,
}

// deepExtract recursively scans a decoded JSON response, skipping metadata
// keys, and collects string values found under "content"/"text"/"value"/
// "output_text" (or any key ending in "content"). It returns the longest
// candidate that is not itself a provider-id artifact. Used as a fallback
// when the primary content path yields nothing usable.
func deepExtract(raw any) string {
	best := ""
	var walk func(node any, keyHint string)
	walk = func(node any, keyHint string) {
		switch v := node.(type) {
		case map[string]any:
			for k, val := range v {
				if deepExtractIgnoreKeys[k] || strings.HasSuffix(k, "_id") {
					continue
				}
				if s, ok := val.(string); ok {
					if deepExtractTextKeys[k] || strings.HasSuffix(k, "content") {
						if cleaned := filterProviderID(s); len(cleaned) > len(best) {
							best = cleaned
						}
					}
					continue
				}
				walk(val, k)
			}
		case []any:
			for _, elem := range v {
				walk(elem, keyHint)
			}
		}
	}
	walk(raw, "")
	return best
}

// ExtractText is the C1 entry point: given the raw decoded JSON body of a
// chat-completions response, it returns the best available response text.
// It first tries the conventional choices[0].message.content shape; if that
// yields nothing after provider-id filtering, it falls back to a full deep
// extraction over the entire response.
func ExtractText(raw map[string]any) string {
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if msg, ok := choice["message"].(map[string]any); ok {
				if text := filterProviderID(normalizeContent(msg["content"])); text != "" {
					return text
				}
			}
			if text := filterProviderID(normalizeContent(choice["text"])); text != "" {
				return text
			}
		}
	}
	if text := filterProviderID(normalizeContent(raw["output_text"])); text != "" {
		return text
	}
	return deepExtract(raw)
}
