package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/llm-council/council/pkg/registry"
	goopenai "github.com/sashabaranov/go-openai"
)

func init() {
	Backends.Register("openrouter", NewOpenRouter)
}

// OpenRouter is the default C1 backend: an OpenAI-compatible chat-completions
// client pointed at OpenRouter (or any OpenAI-compatible base URL), used for
// every model whose vendor prefix has no direct backend registered.
type OpenRouter struct {
	client *goopenai.Client
}

// NewOpenRouter builds an OpenRouter backend from registry config. Expected
// keys: "api_key" (required, falls back to no env lookup — callers resolve
// OPENROUTER_API_KEY/OPENAI_API_KEY before building this Config) and
// "base_url" (optional, defaults to OpenRouter's API).
func NewOpenRouter(cfg registry.Config) (Transport, error) {
	apiKey, err := registry.RequireString(cfg, "api_key")
	if err != nil {
		return nil, fmt.Errorf("openrouter backend: %w", err)
	}

	clientCfg := goopenai.DefaultConfig(apiKey)
	if baseURL := registry.GetString(cfg, "base_url", ""); baseURL != "" {
		clientCfg.BaseURL = baseURL
	} else {
		clientCfg.BaseURL = "https://openrouter.ai/api/v1"
	}

	return &OpenRouter{client: goopenai.NewClientWithConfig(clientCfg)}, nil
}

// Chat implements Transport.
func (o *OpenRouter) Chat(ctx context.Context, model string, messages []Message, temperature float32, maxTokens int) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", NewTransportError("openrouter", model, err)
	}

	text := extractFromChatResponse(resp)
	if text == "" {
		return "", NewTransportError("openrouter", model, ErrEmptyResponse)
	}
	return text, nil
}

func toOpenAIMessages(messages []Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, goopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

// extractFromChatResponse re-serializes a go-openai response into a generic
// JSON document and runs it through the shared ExtractText pipeline, so
// every backend — however it talks to its provider — is normalized and
// provider-id-filtered the same way.
func extractFromChatResponse(resp goopenai.ChatCompletionResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return ""
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ""
	}
	return ExtractText(raw)
}
