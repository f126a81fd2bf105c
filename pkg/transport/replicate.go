package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/llm-council/council/pkg/registry"
	replicatego "github.com/replicate/replicate-go"
)

func init() {
	Backends.Register("replicate", NewReplicate)
}

// Replicate is a direct C1 backend for open-weight vendor prefixes (e.g.
// meta/*), selected when COUNCIL_REPLICATE_DIRECT=1.
type Replicate struct {
	client *replicatego.Client
}

// NewReplicate builds a Replicate backend from registry config. Expected
// key: "api_key" (required).
func NewReplicate(cfg registry.Config) (Transport, error) {
	apiKey, err := registry.RequireString(cfg, "api_key")
	if err != nil {
		return nil, fmt.Errorf("replicate backend: %w", err)
	}

	opts := []replicatego.ClientOption{replicatego.WithToken(apiKey)}
	if baseURL := registry.GetString(cfg, "base_url", ""); baseURL != "" {
		opts = append(opts, replicatego.WithBaseURL(baseURL))
	}

	client, err := replicatego.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("replicate backend: create client: %w", err)
	}
	return &Replicate{client: client}, nil
}

// Chat implements Transport. Replicate models take a flattened prompt
// rather than a structured message list, so the ordered Message sequence is
// rendered as the system messages (each followed by a blank line), then the
// user content unlabeled; only assistant turns carry a role label
// ("Assistant: ").
func (r *Replicate) Chat(ctx context.Context, model string, messages []Message, temperature float32, maxTokens int) (string, error) {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			b.WriteString(m.Content)
			b.WriteString("\n\n")
		case RoleUser:
			b.WriteString(m.Content)
		case RoleAssistant:
			b.WriteString("\n\nAssistant: ")
			b.WriteString(m.Content)
		}
	}

	input := replicatego.PredictionInput{
		"prompt":      b.String(),
		"temperature": float64(temperature),
	}
	if maxTokens > 0 {
		input["max_new_tokens"] = maxTokens
	}

	output, err := r.client.Run(ctx, model, input, nil)
	if err != nil {
		return "", NewTransportError("replicate", model, err)
	}

	text := filterProviderID(extractReplicateText(output))
	if text == "" {
		return "", NewTransportError("replicate", model, ErrEmptyResponse)
	}
	return text, nil
}

func extractReplicateText(output replicatego.PredictionOutput) string {
	switch v := output.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, "")
	case []any:
		var parts []string
		for _, elem := range v {
			if s, ok := elem.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "")
	default:
		return ""
	}
}
