package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	reply string
	err   error
}

func (f *fakeBackend) Chat(ctx context.Context, model string, messages []Message, temperature float32, maxTokens int) (string, error) {
	return f.reply, f.err
}

func TestDispatcher_RoutesToDefaultBackend(t *testing.T) {
	d := NewDispatcher(map[string]Transport{
		"openrouter": &fakeBackend{reply: "hi from openrouter"},
	}, DispatchOptions{})

	text, err := d.Chat(context.Background(), "anthropic/claude-opus-5", []Message{NewUserMessage("hi")}, 0.2, 256)
	require.NoError(t, err)
	require.Equal(t, "hi from openrouter", text)
}

func TestDispatcher_RoutesToDirectBedrockBackend(t *testing.T) {
	d := NewDispatcher(map[string]Transport{
		"openrouter": &fakeBackend{reply: "hi from openrouter"},
		"bedrock":    &fakeBackend{reply: "hi from bedrock"},
	}, DispatchOptions{BedrockDirect: true})

	text, err := d.Chat(context.Background(), "amazon/nova-pro", []Message{NewUserMessage("hi")}, 0.2, 256)
	require.NoError(t, err)
	require.Equal(t, "hi from bedrock", text)
}

func TestDispatcher_ErrorsWhenBackendNotConstructed(t *testing.T) {
	d := NewDispatcher(map[string]Transport{
		"openrouter": &fakeBackend{reply: "hi"},
	}, DispatchOptions{BedrockDirect: true})

	_, err := d.Chat(context.Background(), "amazon/nova-pro", []Message{NewUserMessage("hi")}, 0.2, 256)
	require.Error(t, err)
}
