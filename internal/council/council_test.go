package council

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/llm-council/council/pkg/config"
	"github.com/llm-council/council/pkg/diagnostics"
	"github.com/llm-council/council/pkg/transport"
)

type fakeTransport struct {
	reply func(model string) string
}

func (f *fakeTransport) Chat(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
	return f.reply(model), nil
}

func testCouncil(reply func(model string) string) *Council {
	cfg := config.Defaults()
	cfg.ChairmanModel = "openai/gpt-5.2"
	cfg.Stage1ModelA = "openai/gpt-5.2"
	cfg.Stage1ModelB = "anthropic/claude-opus-5"
	cfg.Stage1ModelC = "mistral/mixtral-9"
	cfg.Stage1ModelD = "meta/llama-5"
	cfg.Stage2ModelA = "google/gemini-3-pro"
	cfg.Stage2ModelB = "openai/gpt-4.1"

	dispatcher := transport.NewDispatcher(map[string]transport.Transport{
		"openrouter": &fakeTransport{reply: reply},
	}, transport.DispatchOptions{})

	return &Council{cfg: &cfg, dispatcher: dispatcher, diag: diagnostics.New()}
}

func judgeReply(ranking string) string {
	return "Response A: Strength: generated answer is clear; Flaw: thin.\n" +
		"Response B: Strength: generated answer is concise; Flaw: shallow.\n" +
		"Response C: Strength: generated answer is thorough; Flaw: verbose.\n" +
		"Response D: Strength: generated answer is novel; Flaw: unfocused.\n" +
		"FINAL_RANKING: " + ranking
}

func TestRun_FullPipelineProducesFinalAnswer(t *testing.T) {
	c := testCouncil(func(model string) string {
		switch model {
		case "openai/gpt-5.2", "anthropic/claude-opus-5", "mistral/mixtral-9", "meta/llama-5":
			return "a generated answer from " + model
		case "google/gemini-3-pro", "openai/gpt-4.1":
			return judgeReply("A > B > C > D")
		default:
			return "final synthesized answer"
		}
	})

	result, err := c.Run(context.Background(), "help me plan a launch", "")
	require.NoError(t, err)
	require.Len(t, result.Stage1, 4)
	require.Len(t, result.Stage2, 2)
	require.Equal(t, "openai/gpt-5.2", result.Final.Model)
	require.NotEmpty(t, result.Aggregate)
	require.Equal(t, []string{"factory_truth_v1"}, result.ContractStack)
}

func TestRun_ReturnsErrAllFailedWhenEveryGeneratorErrors(t *testing.T) {
	c := testCouncil(func(model string) string { return "" })
	// force stage1 total failure: override the dispatcher with a transport
	// whose every chat call errors.
	c.dispatcher = transport.NewDispatcher(map[string]transport.Transport{
		"openrouter": &erroringTransport{},
	}, transport.DispatchOptions{})

	_, err := c.Run(context.Background(), "help me", "")
	require.Error(t, err)
}

type erroringTransport struct{}

func (erroringTransport) Chat(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
	return "", errAlways
}

var errAlways = &testError{"upstream failure"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestRun_AdjudicatesOnDisagreement(t *testing.T) {
	c := testCouncil(func(model string) string {
		switch model {
		case "openai/gpt-5.2", "anthropic/claude-opus-5", "mistral/mixtral-9", "meta/llama-5":
			return "a generated answer from " + model
		case "google/gemini-3-pro":
			return judgeReply("A > B > C > D")
		case "openai/gpt-4.1":
			return judgeReply("B > A > C > D")
		default:
			return judgeReply("A > B > C > D")
		}
	})
	c.cfg.Stage2AdjudicateMinNonpartial = 2
	c.cfg.Stage2AdjudicateMinTop1Votes = 2

	result, err := c.Run(context.Background(), "help me", "")
	require.NoError(t, err)
	require.True(t, result.AdjudicationRan)
	require.Len(t, result.Stage2, 3)
	require.True(t, result.Stage2[2].Adjudicator)
}

func TestBuildBackends_OnlyConstructsOptionalBackendsWhenEnabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.OpenRouterAPIKey = "test-key"

	backends, err := buildBackends(&cfg)
	require.NoError(t, err)
	require.Contains(t, backends, "openrouter")
	require.NotContains(t, backends, "bedrock")
	require.NotContains(t, backends, "replicate")
}

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "b", firstNonEmpty("", "b", "c"))
	require.Equal(t, "", firstNonEmpty("", ""))
}

func TestContains(t *testing.T) {
	require.True(t, contains([]string{"a", "b"}, "b"))
	require.False(t, contains([]string{"a", "b"}, "c"))
}

func TestRun_ContractStackResolvesAndIsPassedThrough(t *testing.T) {
	c := testCouncil(func(model string) string { return "answer " + model })
	result, err := c.Run(context.Background(), "help me", "eldercare_safety_v1")
	require.NoError(t, err)
	require.True(t, strings.Contains(strings.Join(result.ContractStack, ","), "eldercare_safety_v1"))
}
