package contracts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate_PassWhenClean(t *testing.T) {
	eval := Evaluate(
		"How should I help my mother avoid phone scams?",
		"[Observed] She received a call claiming to be her bank.\n"+
			"[Assumed] She has not shared any account details yet.\n"+
			"Recommend she hang up and call the bank back on a known number.\n",
		ResolveStack(""),
		"stage1",
	)
	require.Equal(t, StatusPass, eval.Status)
	require.True(t, eval.Eligible)
	require.Empty(t, eval.HardFailReasons)
}

func TestEvaluate_FailsOnGuaranteeLanguage(t *testing.T) {
	eval := Evaluate(
		"Will this stop scam callers?",
		"[Observed] Call screening is active.\nI guarantee this will prevent all scams from reaching her.\n",
		ResolveStack(""),
		"stage1",
	)
	require.Equal(t, StatusFail, eval.Status)
	require.False(t, eval.Eligible)
	require.Contains(t, eval.HardFailReasons[0], "guarantee")
}

func TestEvaluate_FailsOnMedicalDosing(t *testing.T) {
	eval := Evaluate(
		"What should she do about her headache?",
		"[Assumed] Mild tension headache.\nTake 500 mg of acetaminophen every six hours.\n",
		ResolveStack("eldercare_safety_v1"),
		"stage3",
	)
	require.Equal(t, StatusFail, eval.Status)
	require.NotEmpty(t, eval.Prohibited["medical_dosing"])
}

func TestEvaluate_FailsOnBackgroundMonitoringClaim(t *testing.T) {
	eval := Evaluate(
		"Can the app watch for scam calls?",
		"[Observed] Call screening works passively.\nWe run background monitoring of every call 24/7.\n",
		ResolveStack(""),
		"stage1",
	)
	require.Equal(t, StatusFail, eval.Status)
	require.NotEmpty(t, eval.Prohibited["background_monitoring"])
}

func TestEvaluate_WarnsWhenUncertaintyTagsMissing(t *testing.T) {
	eval := Evaluate(
		"How should I help my mother avoid phone scams?",
		"She should hang up and call the bank back on a known number.\n",
		ResolveStack(""),
		"stage1",
	)
	require.Equal(t, StatusWarn, eval.Status)
	require.True(t, eval.Eligible)
	require.NotEmpty(t, eval.Warnings)
}

func TestEvaluate_RubricTableRequiredAndMissingIsHardFail(t *testing.T) {
	eval := Evaluate(
		"Please start with the rubric table, then analyze each response.",
		"[Observed] No table here, just prose analysis of each response.\n",
		ResolveStack(""),
		"stage3",
	)
	require.Equal(t, StatusFail, eval.Status)
	require.Contains(t, eval.HardFailReasons[0], "rubric table")
}

func TestEvaluate_RubricTableRequiredAndPresentPasses(t *testing.T) {
	text := "[Observed] Rubric below.\n" +
		"| Response | Score |\n" +
		"| --- | --- |\n" +
		"| A | 8 |\n" +
		"## B) Strength\nGood structure.\n" +
		"## C) Flaw\nToo verbose.\n" +
		"## D) Strength\nClear.\n" +
		"## E) Flaw\nThin evidence.\n" +
		"## F) Final Ranking\nA > B > C > D\n"
	eval := Evaluate("Please start with the rubric table first.", text, ResolveStack(""), "stage3")
	require.Equal(t, StatusPass, eval.Status)
}

func TestContainsMarkdownTableEarly(t *testing.T) {
	require.True(t, containsMarkdownTableEarly("| a | b |\n| --- | --- |\n| 1 | 2 |\n", 30))
	require.False(t, containsMarkdownTableEarly("just some prose\nwith no table at all\n", 30))
}
