// Package stage3 implements C9, the chairman synthesizer: assembles a
// single prompt from the user request, Stage-1 and Stage-2 outputs, and
// the aggregate rankings, optionally shrinks it through a long-context
// helper model when it is too large, calls the chairman, and runs one
// contract-repair pass if the chairman's draft fails compliance.
package stage3

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/llm-council/council/internal/aggregate"
	"github.com/llm-council/council/internal/stage1"
	"github.com/llm-council/council/internal/stage2"
	"github.com/llm-council/council/pkg/contracts"
	"github.com/llm-council/council/pkg/diagnostics"
	"github.com/llm-council/council/pkg/roles"
	"github.com/llm-council/council/pkg/transport"
)

// truncateChars is the per-model response budget used when the helper
// briefing shrinks the chairman prompt: top-2 ranked responses are kept
// in full, every other response is cut to this length.
const truncateChars = 4000

// Chat sends one chat turn with the given system messages and user
// prompt and returns the model's raw text response.
type Chat func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error)

// Result is the chairman's settled Stage-3 output.
type Result struct {
	Model        string         `json:"model"`
	Response     string         `json:"response"`
	ContractEval contracts.Eval `json:"contract_eval"`
}

type stage1View struct {
	Model        string         `json:"model"`
	Response     string         `json:"response"`
	ContractEval contracts.Eval `json:"contract_eval"`
}

type stage2View struct {
	Model         string   `json:"model"`
	Ranking       string   `json:"ranking"`
	ParsedRanking []string `json:"parsed_ranking"`
	Partial       bool     `json:"partial"`
	PartialReason string   `json:"partial_reason,omitempty"`
}

// Run synthesizes the final chairman answer. diag may be nil; when set,
// its chairman-repair counter is incremented each time the one repair
// pass actually fires.
func Run(ctx context.Context, chat Chat, chairmanModel string, helperModel string, helperEnabled bool, helperTriggerChars int, userPrompt string, stack []string, stage1Results []stage1.Result, stage2Results []stage2.Entry, aggregateRankings []aggregate.Entry, maxTokens int, diag *diagnostics.Diagnostics) Result {
	s1 := toStage1View(stage1Results)
	s2 := toStage2View(stage2Results)

	basePrompt := buildBasePrompt(userPrompt, s1, s2, aggregateRankings)
	chairmanPrompt := basePrompt

	if helperEnabled && helperModel != "" && len(basePrompt) > helperTriggerChars {
		if brief := runHelper(ctx, chat, helperModel, userPrompt, s1, s2, aggregateRankings, maxTokens); brief != "" {
			chairmanPrompt = buildShrunkPrompt(userPrompt, brief, aggregateRankings, stage1Results)
		}
	}

	out, err := callChairman(ctx, chat, chairmanModel, stack, chairmanPrompt, maxTokens)
	if err != nil {
		return Result{Model: chairmanModel, Response: "", ContractEval: contracts.Eval{Status: contracts.StatusFail, Eligible: false}}
	}
	out = strings.TrimSpace(out)
	eval := contracts.Evaluate(userPrompt, out, stack, "stage3")

	if eval.Status == contracts.StatusFail {
		if diag != nil {
			diag.RecordChairmanRepair()
		}
		repairPrompt := buildRepairPrompt(userPrompt, out, eval)
		out2, err2 := callChairman(ctx, chat, chairmanModel, stack, repairPrompt, maxTokens)
		if err2 == nil {
			out2 = strings.TrimSpace(out2)
			if out2 != "" {
				out = out2
				eval = contracts.Evaluate(userPrompt, out, stack, "stage3")
			}
		}
	}

	return Result{Model: chairmanModel, Response: out, ContractEval: eval}
}

func callChairman(ctx context.Context, chat Chat, model string, stack []string, prompt string, maxTokens int) (string, error) {
	messages := chairmanMessages(model, stack)
	messages = append(messages, transport.NewUserMessage(prompt))
	return chat(ctx, model, messages, 0.2, maxTokens)
}

// chairmanMessages builds the chairman's system-message preamble: the
// resolved contract stack in chairman mode (chairman_addendum appended
// where present) followed by the chairman model's role persona.
func chairmanMessages(model string, stack []string) []transport.Message {
	messages := contracts.BuildSystemMessages(stack, contracts.ModeChairman)
	persona := roles.For(model)
	messages = append(messages, transport.NewSystemMessage(persona.System))
	return messages
}

func runHelper(ctx context.Context, chat Chat, helperModel, userPrompt string, s1 []stage1View, s2 []stage2View, aggregateRankings []aggregate.Entry, maxTokens int) string {
	helperInput := "Prepare a compact briefing for the Chairman.\n" +
		"Use ONLY the provided data. Do not invent facts.\n" +
		"If something is missing or ambiguous, state it.\n\n" +
		"USER PROMPT:\n" + userPrompt + "\n\n" +
		"STAGE 1 OUTPUTS (JSON):\n" + mustJSON(s1) + "\n\n" +
		"STAGE 2 OUTPUTS (JSON):\n" + mustJSON(s2) + "\n\n" +
		"AGGREGATE RANKINGS (JSON):\n" + mustJSON(aggregateRankings) + "\n"

	messages := []transport.Message{transport.NewSystemMessage(helperSystemPrompt), transport.NewUserMessage(helperInput)}
	out, err := chat(ctx, helperModel, messages, 0.1, maxTokens)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

const helperSystemPrompt = "STAGE 3 HELPER MODE.\n" +
	"You are a long-context helper preparing a compact briefing for the Chairman.\n" +
	"Output 6-12 bullet points.\n" +
	"Use ONLY concrete details present in the provided inputs. No first-person, no narration, no invented facts.\n"

func buildBasePrompt(userPrompt string, s1 []stage1View, s2 []stage2View, aggregateRankings []aggregate.Entry) string {
	return "You are the Chairman. Synthesize the best final answer for the user.\n" +
		"Use Stage 2 critiques and the aggregate rankings to guide you.\n" +
		"Do not claim traction or facts that are not present.\n\n" +
		"USER PROMPT:\n" + userPrompt + "\n\n" +
		"STAGE 1 OUTPUTS:\n" + mustJSON(s1) + "\n\n" +
		"STAGE 2 OUTPUTS:\n" + mustJSON(s2) + "\n\n" +
		"AGGREGATE RANKINGS:\n" + mustJSON(aggregateRankings) + "\n"
}

// buildShrunkPrompt assembles the post-helper chairman prompt: user
// prompt, helper briefing, aggregate rankings, and Stage-1 responses —
// the top-2 ranked models in full, every other model truncated.
func buildShrunkPrompt(userPrompt, helperBrief string, aggregateRankings []aggregate.Entry, stage1Results []stage1.Result) string {
	topModels := map[string]bool{}
	var topOrder []string
	for _, a := range aggregateRankings {
		if len(topOrder) >= 2 {
			break
		}
		if a.Model == "" || topModels[a.Model] {
			continue
		}
		topModels[a.Model] = true
		topOrder = append(topOrder, a.Model)
	}

	responseByModel := make(map[string]string, len(stage1Results))
	for _, r := range stage1Results {
		responseByModel[r.Model] = r.Response
	}

	var parts []string
	parts = append(parts, "HELPER BRIEFING (from long-context model):\n"+helperBrief)
	parts = append(parts, "AGGREGATE RANKINGS:\n"+mustJSON(aggregateRankings))
	parts = append(parts, "\nCANDIDATE RESPONSES (top-2 full, others truncated):")

	for _, model := range topOrder {
		parts = append(parts, "\nMODEL: "+model+"\n"+responseByModel[model])
	}
	for _, r := range stage1Results {
		if topModels[r.Model] {
			continue
		}
		parts = append(parts, "\nMODEL: "+r.Model+"\n"+truncate(r.Response, truncateChars))
	}

	return "You are the Chairman. Synthesize the best final answer for the user.\n" +
		"Use the helper briefing and rankings. Do not invent facts not supported by the provided text.\n\n" +
		"USER PROMPT:\n" + userPrompt + "\n\n" + strings.Join(parts, "\n\n")
}

func buildRepairPrompt(userPrompt, badDraft string, eval contracts.Eval) string {
	return "Your previous draft violated hard contract constraints.\n" +
		"Rewrite it to comply. Preserve meaning, but fix the violations.\n\n" +
		"USER PROMPT:\n" + userPrompt + "\n\n" +
		"BAD DRAFT:\n" + badDraft + "\n\n" +
		"VIOLATIONS:\n" + mustJSON(eval) + "\n"
}

func truncate(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars-1]) + "…"
}

func toStage1View(results []stage1.Result) []stage1View {
	out := make([]stage1View, 0, len(results))
	for _, r := range results {
		out = append(out, stage1View{Model: r.Model, Response: r.Response, ContractEval: r.ContractEval})
	}
	return out
}

func toStage2View(entries []stage2.Entry) []stage2View {
	out := make([]stage2View, 0, len(entries))
	for _, e := range entries {
		out = append(out, stage2View{
			Model:         e.Model,
			Ranking:       e.Ranking,
			ParsedRanking: e.ParsedRanking,
			Partial:       e.Partial,
			PartialReason: e.PartialReason,
		})
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
