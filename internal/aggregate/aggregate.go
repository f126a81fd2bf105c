// Package aggregate implements C8, the rank aggregator: turns Stage-2
// judge rankings into one average-rank entry per generator model,
// including models disqualified by a failed contract evaluation and
// models that received no votes at all.
package aggregate

import (
	"sort"

	"github.com/llm-council/council/internal/stage2"
	"github.com/llm-council/council/pkg/contracts"
)

// DisqualifiedRank and UnrankedRank are the sentinel average ranks for
// models excluded from voting and models that received no Stage-2 votes,
// respectively. Both sort after every genuinely voted-on model.
const (
	DisqualifiedRank = 9998
	UnrankedRank     = 9999
)

// Entry is one generator model's aggregate Stage-2 standing.
type Entry struct {
	Model          string   `json:"model"`
	AverageRank    float64  `json:"average_rank"`
	VoteCount      int      `json:"rankings_count"`
	Disqualified   bool     `json:"disqualified"`
	DisqualifyWhy  []string `json:"disqualify_reasons,omitempty"`
	insertionOrder int
}

// Run computes per-model aggregate rankings. labelToModel maps each
// Stage-2 label to the generator model it anonymized; contractEvalByModel
// supplies each generator's Stage-1 contract evaluation, used to decide
// disqualification. The result is sorted by (disqualified, average_rank)
// ascending, ties broken by first-seen order in labelToModel's label
// order (Response A, Response B, ...).
func Run(entries []stage2.Entry, labelToModel map[string]string, contractEvalByModel map[string]contracts.Eval) []Entry {
	orderedModels, modelOrder := orderedModelsFromLabels(labelToModel)

	rankSum := make(map[string]int, len(orderedModels))
	voteCount := make(map[string]int, len(orderedModels))

	for _, e := range entries {
		if e.Partial {
			continue
		}
		for i, label := range e.ParsedRanking {
			model, ok := labelToModel[label]
			if !ok {
				continue
			}
			if eval, ok := contractEvalByModel[model]; ok && !eval.Eligible {
				continue
			}
			rankSum[model] += i + 1
			voteCount[model]++
		}
	}

	out := make([]Entry, 0, len(orderedModels))
	for _, model := range orderedModels {
		eval, hasEval := contractEvalByModel[model]
		disqualified := hasEval && !eval.Eligible

		entry := Entry{Model: model, Disqualified: disqualified, insertionOrder: modelOrder[model]}
		switch {
		case disqualified:
			entry.AverageRank = DisqualifiedRank
			entry.DisqualifyWhy = eval.HardFailReasons
		case voteCount[model] > 0:
			entry.AverageRank = float64(rankSum[model]) / float64(voteCount[model])
			entry.VoteCount = voteCount[model]
		default:
			entry.AverageRank = UnrankedRank
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Disqualified != out[j].Disqualified {
			return !out[i].Disqualified
		}
		if out[i].AverageRank != out[j].AverageRank {
			return out[i].AverageRank < out[j].AverageRank
		}
		return out[i].insertionOrder < out[j].insertionOrder
	})
	return out
}

// orderedModelsFromLabels returns the generator models in their
// Stage-1-configured order (Response A, B, C, ...) alongside a model ->
// position map used as the tie-break key.
func orderedModelsFromLabels(labelToModel map[string]string) ([]string, map[string]int) {
	labels := make([]string, 0, len(labelToModel))
	for l := range labelToModel {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	models := make([]string, 0, len(labels))
	order := make(map[string]int, len(labels))
	for i, l := range labels {
		model := labelToModel[l]
		models = append(models, model)
		order[model] = i
	}
	return models, order
}
