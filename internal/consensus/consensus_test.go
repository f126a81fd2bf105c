package consensus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/llm-council/council/internal/stage2"
)

func entry(top string, partial bool) stage2.Entry {
	ranking := []string{top}
	for _, l := range []string{"A", "B", "C", "D"} {
		if l != top {
			ranking = append(ranking, l)
		}
	}
	return stage2.Entry{ParsedRanking: ranking, Partial: partial}
}

func TestNeeded_SkipsWhenBelowMinNonpartial(t *testing.T) {
	entries := []stage2.Entry{entry("A", false), entry("B", false)}
	needed, tally, _ := Needed(entries, []string{"A", "B", "C", "D"}, 3, 0)
	require.False(t, needed)
	require.Equal(t, 2, tally.Total)
}

func TestNeeded_SkipsWhenOnlyOneDistinctLabel(t *testing.T) {
	entries := []stage2.Entry{entry("A", false), entry("A", false), entry("A", false)}
	needed, _, _ := Needed(entries, []string{"A", "B", "C", "D"}, 3, 0)
	require.False(t, needed)
}

func TestNeeded_TriggersWhenPluralityBelowRequiredThreshold(t *testing.T) {
	entries := []stage2.Entry{entry("A", false), entry("A", false), entry("B", false), entry("C", false)}
	needed, tally, disagreement := Needed(entries, []string{"A", "B", "C", "D"}, 3, 0)
	require.True(t, needed)
	require.Equal(t, 4, tally.Total)
	require.Equal(t, "A:2, B:1, C:1", disagreement)
}

func TestNeeded_NotTriggeredWhenPluralityMeetsThreshold(t *testing.T) {
	entries := []stage2.Entry{entry("A", false), entry("A", false), entry("A", false), entry("B", false)}
	needed, _, _ := Needed(entries, []string{"A", "B", "C", "D"}, 3, 0)
	require.False(t, needed)
}

func TestNeeded_ThreeJudgesRequiresOnlyTwoVotes(t *testing.T) {
	entries := []stage2.Entry{entry("A", false), entry("A", false), entry("B", false)}
	needed, _, _ := Needed(entries, []string{"A", "B", "C", "D"}, 3, 0)
	require.False(t, needed)
}

func TestNeeded_ExplicitOverrideWins(t *testing.T) {
	entries := []stage2.Entry{entry("A", false), entry("A", false), entry("A", false), entry("B", false)}
	needed, _, _ := Needed(entries, []string{"A", "B", "C", "D"}, 3, 4)
	require.True(t, needed)
}

func TestNeeded_PartialAndSyntheticEntriesExcludedFromTally(t *testing.T) {
	entries := []stage2.Entry{entry("A", false), entry("A", false), entry("B", true), {ParsedRanking: nil}}
	needed, tally, _ := Needed(entries, []string{"A", "B", "C", "D"}, 2, 0)
	require.Equal(t, 2, tally.Total)
	require.False(t, needed)
}

func TestSelectAdjudicatorModel_UsesConfiguredWhenNotInJudgeSet(t *testing.T) {
	model := SelectAdjudicatorModel("openai/gpt-5.2", []string{"google/gemini-3-pro"}, []string{"anthropic/claude-opus-5"})
	require.Equal(t, "openai/gpt-5.2", model)
}

func TestSelectAdjudicatorModel_FallsBackWhenConfiguredCollides(t *testing.T) {
	model := SelectAdjudicatorModel("anthropic/claude-opus-5", []string{"google/gemini-3-pro", "openai/gpt-5.2"}, []string{"anthropic/claude-opus-5", "google/gemini-3-pro"})
	require.Equal(t, "openai/gpt-5.2", model)
}

func TestAdjudicate_SuffixesDisplayModelOnCollision(t *testing.T) {
	chat := func(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
		return "Response A: Strength: ok; Flaw: ok.\nResponse B: Strength: ok; Flaw: ok.\nFINAL_RANKING: A > B", nil
	}
	result := Adjudicate(context.Background(), chat, "openai/gpt-5.2", true, "A:1, B:1", "base prompt", []string{"A", "B"}, map[string]string{"A": "resp a", "B": "resp b"}, 0)
	require.True(t, result.Adjudicator)
	require.Equal(t, "openai/gpt-5.2 (adjudicator)", result.Model)
}

func TestAdjudicate_NoSuffixWhenNoCollision(t *testing.T) {
	chat := func(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
		return "Response A: Strength: ok; Flaw: ok.\nResponse B: Strength: ok; Flaw: ok.\nFINAL_RANKING: A > B", nil
	}
	result := Adjudicate(context.Background(), chat, "openai/gpt-4.1", false, "A:1, B:1", "base prompt", []string{"A", "B"}, map[string]string{"A": "resp a", "B": "resp b"}, 0)
	require.Equal(t, "openai/gpt-4.1", result.Model)
}

func TestDisagreementLine_SortsByDescendingCountThenLabel(t *testing.T) {
	require.Equal(t, "A:2, B:1, C:1", DisagreementLine(map[string]int{"C": 1, "A": 2, "B": 1}))
}
