package judge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var fourLabels = []string{"Response A", "Response B", "Response C", "Response D"}

func TestCoerceToFiveLines_WellFormedInputPassesThrough(t *testing.T) {
	text := "Response A: Strength: concise; Flaw: thin on edge cases.\n" +
		"Response B: Strength: thorough; Flaw: verbose.\n" +
		"Response C: Strength: clear steps; Flaw: missing tests.\n" +
		"Response D: Strength: correct; Flaw: no examples.\n" +
		"FINAL_RANKING: Response B > Response C > Response A > Response D\n"
	got := CoerceToFiveLines(text, fourLabels)
	require.Contains(t, got, "FINAL_RANKING: Response B > Response C > Response A > Response D")
	require.Contains(t, got, "Response A: Strength: concise; Flaw: thin on edge cases.")
}

func TestCoerceToFiveLines_FillsMissingCritiquesWithPlaceholder(t *testing.T) {
	text := "Response B: Strength: thorough; Flaw: verbose.\n" +
		"FINAL_RANKING: Response B > Response C > Response A > Response D\n"
	got := CoerceToFiveLines(text, fourLabels)
	require.Contains(t, got, "Response A: Strength: None; Flaw: Insufficient signal in text.")
	require.Contains(t, got, "Response B: Strength: thorough; Flaw: verbose.")
}

func TestCoerceToFiveLines_EmptyWhenNoRankingSignal(t *testing.T) {
	require.Equal(t, "", CoerceToFiveLines("I refuse to rank these.", fourLabels))
}

func TestCritiqueIsPlaceholder(t *testing.T) {
	require.True(t, CritiqueIsPlaceholder(""))
	require.True(t, CritiqueIsPlaceholder("Response A: Strength: None; Flaw: Insufficient signal in text."))
	require.False(t, CritiqueIsPlaceholder("Response A: Strength: concise; Flaw: thin."))
}
