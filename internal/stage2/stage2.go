// Package stage2 implements C6, the Stage-2 peer-ranking runner: one
// repair-ladder run per configured judge model, fanned out concurrently
// with the same indexed-slice shape internal/stage1 uses so judge entries
// come back in configured-judge order regardless of completion timing.
// Each judge grades under a minimal evaluator persona only — no contract
// stack, no per-model role persona — so every judge is held to identical
// output rules regardless of vendor.
package stage2

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/llm-council/council/pkg/diagnostics"
	"github.com/llm-council/council/pkg/judge"
)

// Chat sends a single-turn prompt at a fixed temperature under the given
// system persona and returns the model's raw text response.
type Chat func(ctx context.Context, model, system, prompt string, temperature float32) (string, error)

// Entry is one judge model's settled Stage-2 outcome.
type Entry struct {
	Model           string   `json:"model"`
	Ranking         string   `json:"ranking"`
	ParsedRanking   []string `json:"parsed_ranking"`
	RawRanking      string   `json:"raw_ranking"`
	FormatFixUsed   bool     `json:"format_fix_used"`
	FormatFixOutput string   `json:"format_fix_output,omitempty"`
	Coerced         bool     `json:"coerced"`
	Partial         bool     `json:"partial"`
	PartialReason   string   `json:"partial_reason,omitempty"`
	Adjudicator     bool     `json:"adjudicator,omitempty"`
}

// Run fans Stage-2 judging out across judgeModels concurrently (bounded by
// concurrency; <=0 means unbounded) and returns one Entry per judge model in
// configured order, plus the label-to-model map stage1's responses were
// anonymized under.
func Run(ctx context.Context, chat Chat, judgeModels []string, userPrompt string, stage1Models, stage1Responses []string, concurrency, evidenceMinLines int, diag *diagnostics.Diagnostics) ([]Entry, map[string]string) {
	judgeModels = dedupe(judgeModels)
	labels := judge.Labels(len(stage1Models))
	blocks, labelToModel := judge.LabelResponses(stage1Models, stage1Responses)
	basePrompt := judge.BuildStage2Prompt(userPrompt, blocks, labels)

	responsesByLabel := make(map[string]string, len(labels))
	for i, label := range labels {
		if i < len(stage1Responses) {
			responsesByLabel[label] = stage1Responses[i]
		}
	}

	entries := make([]Entry, len(judgeModels))
	errs := make(map[string]string)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, model := range judgeModels {
		i, model := i, model
		g.Go(func() error {
			judgeChat := bindChat(chat, model, judge.EvaluationSystemPrompt)
			repairChat := bindChat(chat, model, judge.RepairSystemPrompt)
			result := judge.RunLadder(gctx, judgeChat, repairChat, basePrompt, labels, responsesByLabel, evidenceMinLines)
			entries[i] = fromJudgeResult(model, result)
			if result.Err != "" {
				mu.Lock()
				errs[model] = result.Err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if diag != nil {
		diag.SetStage2LastErrors(errs)
	}
	return entries, labelToModel
}

// bindChat closes a stage2.Chat over a fixed model and system persona,
// producing the judge.ChatFunc the repair ladder drives.
func bindChat(chat Chat, model, system string) judge.ChatFunc {
	return func(ctx context.Context, prompt string, temperature float32) (string, error) {
		return chat(ctx, model, system, prompt, temperature)
	}
}

// dedupe preserves first occurrence order, per judge models being "a
// deduplicated list" that may incidentally overlap Stage-1's generators.
func dedupe(models []string) []string {
	seen := make(map[string]bool, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func fromJudgeResult(model string, r judge.Result) Entry {
	return Entry{
		Model:           model,
		Ranking:         r.Ranking,
		ParsedRanking:   r.ParsedRanking,
		RawRanking:      r.RawRanking,
		FormatFixUsed:   r.FormatFixUsed,
		FormatFixOutput: r.FormatFixOutput,
		Coerced:         r.Coerced,
		Partial:         r.Partial,
		PartialReason:   r.PartialReason,
	}
}
