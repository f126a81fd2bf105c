package stage2

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PreservesConfiguredJudgeOrder(t *testing.T) {
	judges := []string{"openai/gpt-5.2", "anthropic/claude-opus-5"}
	stage1Models := []string{"openai/gpt-5.2", "anthropic/claude-opus-5", "google/gemini-3-pro", "meta/llama-5"}
	stage1Responses := []string{"answer one", "answer two", "answer three", "answer four"}

	chat := func(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
		return "Response A: Strength: clear; Flaw: verbose.\n" +
			"Response B: Strength: concise; Flaw: vague.\n" +
			"Response C: Strength: correct; Flaw: slow.\n" +
			"Response D: Strength: novel; Flaw: risky.\n" +
			"FINAL_RANKING: B > C > A > D", nil
	}

	entries, labelToModel := Run(context.Background(), chat, judges, "help me", stage1Models, stage1Responses, 0, 3, nil)
	require.Len(t, entries, 2)
	require.Equal(t, "openai/gpt-5.2", entries[0].Model)
	require.Equal(t, "anthropic/claude-opus-5", entries[1].Model)
	require.False(t, entries[0].Partial)
	require.Equal(t, []string{"Response B", "Response C", "Response A", "Response D"}, entries[0].ParsedRanking)
	require.Equal(t, "openai/gpt-5.2", labelToModel["Response A"])
	require.Equal(t, "meta/llama-5", labelToModel["Response D"])
}

func TestRun_DedupesJudgeModelsPreservingOrder(t *testing.T) {
	judges := []string{"openai/gpt-5.2", "anthropic/claude-opus-5", "openai/gpt-5.2"}
	stage1Models := []string{"openai/gpt-5.2", "anthropic/claude-opus-5"}
	stage1Responses := []string{"a", "b"}

	calls := 0
	chat := func(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
		calls++
		return "Response A: Strength: ok; Flaw: meh.\nResponse B: Strength: ok; Flaw: meh.\nFINAL_RANKING: A > B", nil
	}

	entries, _ := Run(context.Background(), chat, judges, "help me", stage1Models, stage1Responses, 0, 0, nil)
	require.Len(t, entries, 2)
	// Two distinct judges, two calls each: with only two labels the coerced
	// output carries placeholder critiques for C and D, so A0 is partial and
	// the A0' re-ask runs once per judge.
	require.Equal(t, 4, calls)
}

func TestRun_PartialOnTotalFailureFallsBackToCanonicalDefault(t *testing.T) {
	judges := []string{"openai/gpt-5.2"}
	stage1Models := []string{"openai/gpt-5.2", "anthropic/claude-opus-5"}
	stage1Responses := []string{"a", "b"}

	chat := func(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
		return "I will now assess the conundrum of these responses.", nil
	}

	entries, _ := Run(context.Background(), chat, judges, "help me", stage1Models, stage1Responses, 0, 3, nil)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Partial)
	require.True(t, strings.HasPrefix(entries[0].Ranking, "Response A: Strength:"))
}

func TestRun_JudgeAndRepairPersonasAreDistinct(t *testing.T) {
	judges := []string{"openai/gpt-5.2"}
	stage1Models := []string{"openai/gpt-5.2", "anthropic/claude-opus-5"}
	stage1Responses := []string{"a", "b"}

	var sawJudgeSystem, sawRepairSystem bool
	chat := func(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
		if strings.Contains(system, "STAGE 2 EVALUATION MODE") {
			sawJudgeSystem = true
			return "garbage that cannot parse at all", nil
		}
		if strings.Contains(system, "STAGE 2 REPAIR MODE") {
			sawRepairSystem = true
			return "FINAL_RANKING: A > B", nil
		}
		return "", nil
	}

	_, _ = Run(context.Background(), chat, judges, "help me", stage1Models, stage1Responses, 0, 0, nil)
	require.True(t, sawJudgeSystem)
	require.True(t, sawRepairSystem)
}
