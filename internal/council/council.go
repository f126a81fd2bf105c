// Package council wires C1-C9 into the three-stage deliberation pipeline:
// generate (Stage 1) -> peer-rank (Stage 2, gated by consensus/adjudication)
// -> aggregate -> synthesize (Stage 3). It owns backend construction (one
// Transport instance per registered backend, reused across every call in a
// run) and stage sequencing; the stage packages themselves stay free of
// transport-construction concerns.
package council

import (
	"context"
	"log/slog"
	"time"

	"github.com/llm-council/council/internal/aggregate"
	"github.com/llm-council/council/internal/consensus"
	"github.com/llm-council/council/internal/stage1"
	"github.com/llm-council/council/internal/stage2"
	"github.com/llm-council/council/internal/stage3"
	"github.com/llm-council/council/pkg/config"
	"github.com/llm-council/council/pkg/contracts"
	"github.com/llm-council/council/pkg/diagnostics"
	"github.com/llm-council/council/pkg/judge"
	"github.com/llm-council/council/pkg/transport"
)

// Result is the full output of one council run: every stage's entries plus
// the final synthesized answer, so callers can render rich run metadata
// alongside the chairman's response.
type Result struct {
	Stage1          []stage1.Result   `json:"stage1"`
	Stage2          []stage2.Entry    `json:"stage2"`
	LabelToModel    map[string]string `json:"label_to_model"`
	Aggregate       []aggregate.Entry `json:"aggregate_rankings"`
	AdjudicationRan bool              `json:"adjudication_ran"`
	Final           stage3.Result     `json:"final"`
	ContractStack   []string          `json:"contract_stack"`
	Timestamp       time.Time         `json:"timestamp"`
}

// Council holds the constructed backend dispatcher, config, and
// diagnostics a run is executed against.
type Council struct {
	cfg        *config.Config
	dispatcher *transport.Dispatcher
	diag       *diagnostics.Diagnostics
}

// New constructs backend clients once from cfg (one per registered
// backend the config's credentials permit) and wraps them in a
// Dispatcher shared by every stage in every run.
func New(cfg *config.Config, diag *diagnostics.Diagnostics) (*Council, error) {
	backends, err := buildBackends(cfg)
	if err != nil {
		return nil, err
	}
	dispatcher := transport.NewDispatcher(backends, transport.DispatchOptions{
		BedrockDirect:   cfg.BedrockDirect,
		ReplicateDirect: cfg.ReplicateDirect,
	})
	if diag == nil {
		diag = diagnostics.New()
	}
	return &Council{cfg: cfg, dispatcher: dispatcher, diag: diag}, nil
}

func buildBackends(cfg *config.Config) (map[string]transport.Transport, error) {
	backends := make(map[string]transport.Transport)

	openRouterKey := cfg.OpenRouterAPIKey
	if openRouterKey == "" {
		openRouterKey = cfg.OpenAIAPIKey
	}
	openRouter, err := transport.Backends.Create("openrouter", map[string]any{
		"api_key":  openRouterKey,
		"base_url": firstNonEmpty(cfg.OpenRouterBaseURL, cfg.OpenAIBaseURL),
	})
	if err != nil {
		return nil, err
	}
	backends["openrouter"] = openRouter

	if cfg.BedrockDirect {
		bedrock, err := transport.Backends.Create("bedrock", map[string]any{"region": "us-east-1"})
		if err != nil {
			return nil, err
		}
		backends["bedrock"] = bedrock
	}

	if cfg.ReplicateDirect {
		replicate, err := transport.Backends.Create("replicate", map[string]any{"api_key": cfg.OpenRouterAPIKey})
		if err != nil {
			return nil, err
		}
		backends["replicate"] = replicate
	}

	return backends, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Run executes the full three-stage protocol against userPrompt under the
// resolved contract stack.
func (c *Council) Run(ctx context.Context, userPrompt string, contractStackCSV string) (Result, error) {
	stack := contracts.ResolveStack(contractStackCSV)

	generatorModels := c.cfg.Stage1ModelList()
	stage1Chat := func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
		return c.dispatcher.Chat(ctx, model, messages, temperature, maxTokens)
	}
	stage1Results, err := stage1.Run(ctx, stage1Chat, generatorModels, userPrompt, stack, 0, c.cfg.CouncilMaxTokens, c.diag)
	if err != nil {
		c.diag.RecordStage1AllFailed()
		c.diag.RecordRun(true)
		return Result{Stage1: stage1Results, ContractStack: stack, Timestamp: time.Now().UTC()}, err
	}

	stage1Responses := make([]string, len(stage1Results))
	for i, r := range stage1Results {
		stage1Responses[i] = r.Response
	}

	stage2Chat := func(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
		messages := []transport.Message{transport.NewSystemMessage(system), transport.NewUserMessage(prompt)}
		return c.dispatcher.Chat(ctx, model, messages, temperature, c.cfg.CouncilMaxTokens)
	}
	judgeModels := c.cfg.Stage2ModelList()
	stage2Entries, labelToModel := stage2.Run(ctx, stage2Chat, judgeModels, userPrompt, generatorModels, stage1Responses, 0, c.cfg.Stage2EvidenceMinLines, c.diag)

	labels := judge.Labels(len(generatorModels))
	adjudicationRan := false
	if c.cfg.Stage2AdjudicateEnabled {
		needed, _, disagreement := consensus.Needed(stage2Entries, labels, c.cfg.Stage2AdjudicateMinNonpartial, c.cfg.Stage2AdjudicateMinTop1Votes)
		if needed {
			adjudicationRan = true
			c.diag.RecordAdjudication()
			adjudicatorModel := consensus.SelectAdjudicatorModel(c.cfg.Stage2AdjudicatorModel, c.cfg.AdjudicatorFallbacks(), judgeModels)
			collides := contains(judgeModels, adjudicatorModel)

			blocks, _ := judge.LabelResponses(generatorModels, stage1Responses)
			basePrompt := judge.BuildStage2Prompt(userPrompt, blocks, labels)
			responsesByLabel := make(map[string]string, len(labels))
			for i, label := range labels {
				if i < len(stage1Responses) {
					responsesByLabel[label] = stage1Responses[i]
				}
			}

			entry := consensus.Adjudicate(ctx, stage2Chat, adjudicatorModel, collides, disagreement, basePrompt, labels, responsesByLabel, c.cfg.Stage2EvidenceMinLines)
			stage2Entries = append(stage2Entries, entry)
		}
	}

	evalByModel := make(map[string]contracts.Eval, len(stage1Results))
	for _, r := range stage1Results {
		evalByModel[r.Model] = r.ContractEval
	}
	aggregateRankings := aggregate.Run(stage2Entries, labelToModel, evalByModel)

	chairmanResult := stage3.Run(ctx, func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error) {
		return c.dispatcher.Chat(ctx, model, messages, temperature, maxTokens)
	}, c.cfg.ChairmanModel, c.cfg.Stage3HelperModel, c.cfg.Stage3HelperEnabled, c.cfg.Stage3HelperTriggerChars, userPrompt, stack, stage1Results, stage2Entries, aggregateRankings, c.cfg.CouncilMaxTokens, c.diag)

	c.diag.RecordRun(false)
	slog.Debug("council run complete", "stage1_models", len(stage1Results), "stage2_models", len(stage2Entries), "adjudication_ran", adjudicationRan)

	return Result{
		Stage1:          stage1Results,
		Stage2:          stage2Entries,
		LabelToModel:    labelToModel,
		Aggregate:       aggregateRankings,
		AdjudicationRan: adjudicationRan,
		Final:           chairmanResult,
		ContractStack:   stack,
		Timestamp:       time.Now().UTC(),
	}, nil
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
