// Package consensus implements C7, the Stage-2 consensus gate: tally
// top-1 votes across non-synthetic, non-partial judges and, when the
// plurality label falls short of the required threshold, invoke one
// designated adjudicator judge with a disagreement summary prepended to
// the Stage-2 prompt.
package consensus

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/llm-council/council/internal/stage2"
	"github.com/llm-council/council/pkg/judge"
)

// Tally holds the top-1 vote counts across qualifying Stage-2 entries.
type Tally struct {
	Counts map[string]int
	Total  int
}

// topVotes reports the entries slice's top-1 vote tally, counting only
// entries that are neither synthetic (zero parsed ranking) nor partial,
// and whose top label is one of the valid labels.
func topVotes(entries []stage2.Entry, labels []string) Tally {
	valid := make(map[string]bool, len(labels))
	for _, l := range labels {
		valid[l] = true
	}
	counts := make(map[string]int)
	total := 0
	for _, e := range entries {
		if e.Partial || len(e.ParsedRanking) == 0 {
			continue
		}
		top := e.ParsedRanking[0]
		if !valid[top] {
			continue
		}
		counts[top]++
		total++
	}
	return Tally{Counts: counts, Total: total}
}

// topLabel returns the tally's plurality label and its vote count. Ties
// break on map iteration order in the source; Go's map order is
// nondeterministic, so ties here break on ascending label to stay
// deterministic instead.
func (t Tally) topLabel() (string, int) {
	labels := make([]string, 0, len(t.Counts))
	for l := range t.Counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	best, bestCount := "", -1
	for _, l := range labels {
		if t.Counts[l] > bestCount {
			best, bestCount = l, t.Counts[l]
		}
	}
	return best, bestCount
}

// DisagreementLine renders the compact vote summary prepended to the
// adjudicator prompt, e.g. "A:2, B:1, C:1" — sorted by descending count,
// ties broken by ascending label.
func DisagreementLine(counts map[string]int) string {
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s:%d", l, counts[l]))
	}
	return strings.Join(parts, ", ")
}

// requiredVotes computes the plurality threshold a judge's top label must
// clear to avoid adjudication: 3 votes when V>=4 qualifying judges, else
// 2 — overridden outright when override>0.
func requiredVotes(total, override int) int {
	required := 2
	if total >= 4 {
		required = 3
	}
	if override > 0 {
		required = override
	}
	return required
}

// Needed reports whether adjudication should run for the given Stage-2
// repair-ladder results, per the C7 gate: at least minNonpartial
// qualifying votes, at least two distinct top-1 labels, and the
// plurality falling short of the required threshold.
func Needed(entries []stage2.Entry, labels []string, minNonpartial, minTop1VotesOverride int) (needed bool, tally Tally, disagreement string) {
	tally = topVotes(entries, labels)
	if tally.Total < minNonpartial || len(tally.Counts) < 2 {
		return false, tally, ""
	}
	_, topCount := tally.topLabel()
	required := requiredVotes(tally.Total, minTop1VotesOverride)
	if topCount >= required {
		return false, tally, ""
	}
	return true, tally, DisagreementLine(tally.Counts)
}

// SelectAdjudicatorModel returns the configured adjudicator model, or the
// first configured fallback not already present in judgeModels if the
// configured adjudicator itself collides with the judge set.
func SelectAdjudicatorModel(configured string, fallbacks, judgeModels []string) string {
	inSet := make(map[string]bool, len(judgeModels))
	for _, m := range judgeModels {
		inSet[m] = true
	}
	if !inSet[configured] {
		return configured
	}
	for _, fm := range fallbacks {
		if !inSet[fm] {
			return fm
		}
	}
	return configured
}

// AdjudicatorChat sends one prompt to the adjudicator model under the given
// system prompt and temperature and returns the raw reply. Adjudicate drives
// the judges' repair ladder through it, with the disagreement summary
// prepended to basePrompt.
type AdjudicatorChat func(ctx context.Context, model, system, prompt string, temperature float32) (string, error)

// Adjudicate runs the tie-break pass and labels the resulting entry with
// Adjudicator=true, suffixing the displayed model name when it collides
// with an existing judge model so the two are distinguishable in output.
func Adjudicate(ctx context.Context, chat AdjudicatorChat, model string, collidesWithJudgeSet bool, disagreementLine, basePrompt string, labels []string, responsesByLabel map[string]string, evidenceMinLines int) stage2.Entry {
	prompt := "JUDGES DISAGREE. Act as the adjudicator to break the tie.\n" +
		"Use the same strict 5-line output format.\n" +
		"Pick the answer a YC-level product team would actually ship.\n" +
		"Truth-first: do not invent facts; reward answers that request missing inputs when needed.\n" +
		"Current top-1 vote counts: " + disagreementLine + "\n\n" +
		basePrompt

	judgeChat := func(ctx context.Context, p string, temperature float32) (string, error) {
		return chat(ctx, model, judge.EvaluationSystemPrompt, p, temperature)
	}
	repairChat := func(ctx context.Context, p string, temperature float32) (string, error) {
		return chat(ctx, model, judge.RepairSystemPrompt, p, temperature)
	}

	result := judge.RunLadder(ctx, judgeChat, repairChat, prompt, labels, responsesByLabel, evidenceMinLines)

	displayModel := model
	if collidesWithJudgeSet {
		displayModel = model + " (adjudicator)"
	}
	return stage2.Entry{
		Model:           displayModel,
		Ranking:         result.Ranking,
		ParsedRanking:   result.ParsedRanking,
		RawRanking:      result.RawRanking,
		FormatFixUsed:   result.FormatFixUsed,
		FormatFixOutput: result.FormatFixOutput,
		Coerced:         result.Coerced,
		Partial:         result.Partial,
		PartialReason:   result.PartialReason,
		Adjudicator:     true,
	}
}
