package stage1

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/llm-council/council/pkg/contracts"
	"github.com/llm-council/council/pkg/transport"
)

func TestRun_PreservesConfiguredOrderNotCompletionOrder(t *testing.T) {
	models := []string{"openai/gpt-5.2", "anthropic/claude-opus-5", "google/gemini-3-pro"}

	chat := func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
		switch model {
		case "openai/gpt-5.2":
			return "slow but first-configured answer", nil
		case "anthropic/claude-opus-5":
			return "fast second-configured answer", nil
		default:
			return "third-configured answer", nil
		}
	}

	results, err := Run(context.Background(), chat, models, "help me", contracts.ResolveStack(""), 0, 512, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "openai/gpt-5.2", results[0].Model)
	require.Equal(t, "anthropic/claude-opus-5", results[1].Model)
	require.Equal(t, "google/gemini-3-pro", results[2].Model)
}

func TestRun_EmptyResponseYieldsSyntheticPlaceholderWithoutErrAllFailed(t *testing.T) {
	chat := func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
		return "", nil
	}

	results, err := Run(context.Background(), chat, []string{"openai/gpt-5.2"}, "help me", contracts.ResolveStack(""), 0, 512, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Synthetic)
	require.Equal(t, "stage1_empty_fallback", results[0].SyntheticReason)
	require.False(t, results[0].ContractEval.Eligible)
}

func TestRun_GoogleModelGetsOneExtraAttemptOnEmpty(t *testing.T) {
	calls := 0
	chat := func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
		calls++
		if calls == 1 {
			return "", nil
		}
		return "recovered on retry", nil
	}

	results, err := Run(context.Background(), chat, []string{"google/gemini-3-pro"}, "help me", contracts.ResolveStack(""), 0, 512, nil)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.False(t, results[0].Synthetic)
	require.Equal(t, "recovered on retry", results[0].Response)
}

func TestRun_NonGoogleModelGetsNoExtraAttemptOnEmpty(t *testing.T) {
	calls := 0
	chat := func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
		calls++
		return "", nil
	}

	results, err := Run(context.Background(), chat, []string{"openai/gpt-5.2"}, "help me", contracts.ResolveStack(""), 0, 512, nil)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.True(t, results[0].Synthetic)
}

func TestRun_ProviderIDOutputTreatedAsEmpty(t *testing.T) {
	chat := func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
		return "gen-123456-abcdefgh", nil
	}

	results, _ := Run(context.Background(), chat, []string{"openai/gpt-5.2"}, "help me", contracts.ResolveStack(""), 0, 512, nil)
	require.True(t, results[0].Synthetic)
}

func TestRun_ChatErrorOnSoleModelYieldsErrAllFailed(t *testing.T) {
	chat := func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
		return "", errors.New("upstream 500")
	}

	results, err := Run(context.Background(), chat, []string{"openai/gpt-5.2"}, "help me", contracts.ResolveStack(""), 0, 512, nil)
	require.ErrorIs(t, err, ErrAllFailed)
	require.True(t, results[0].Synthetic)
}

func TestRun_ChatErrorOnOneModelAmongManyDoesNotYieldErrAllFailed(t *testing.T) {
	chat := func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
		if model == "openai/gpt-5.2" {
			return "", errors.New("upstream 500")
		}
		return "a good answer", nil
	}

	results, err := Run(context.Background(), chat, []string{"openai/gpt-5.2", "anthropic/claude-opus-5"}, "help me", contracts.ResolveStack(""), 0, 512, nil)
	require.NoError(t, err)
	require.True(t, results[0].Synthetic)
	require.False(t, results[1].Synthetic)
}

func TestAllSynthetic(t *testing.T) {
	require.True(t, AllSynthetic([]Result{{Synthetic: true}, {Synthetic: true}}))
	require.False(t, AllSynthetic([]Result{{Synthetic: true}, {Synthetic: false}}))
	require.False(t, AllSynthetic(nil))
}
