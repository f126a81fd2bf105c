package judge

import "strings"

// LabelResponses assigns sequential "Response A".."Response D" labels to
// stage-1 outputs in configured order and returns the anonymized prompt
// blocks alongside a label-to-model map, so the judge never sees which
// model produced which answer.
func LabelResponses(models, responses []string) (blocks []string, labelToModel map[string]string) {
	labelToModel = make(map[string]string, len(models))
	blocks = make([]string, 0, len(models))
	for i, model := range models {
		label := labelFor(i)
		labelToModel[label] = model
		resp := ""
		if i < len(responses) {
			resp = responses[i]
		}
		blocks = append(blocks, strings.TrimSpace(label+":\n"+resp))
	}
	return blocks, labelToModel
}

func labelFor(idx int) string {
	return "Response " + string(rune('A'+idx))
}

// Labels returns the ordered "Response A".."Response D" label set for n
// stage-1 entries.
func Labels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = labelFor(i)
	}
	return labels
}

// EvaluationSystemPrompt is the fixed Stage-2 evaluator system message: a
// uniform grading persona applied in place of (not alongside) the contract
// stack and per-model role persona, so every judge model grades under
// identical rules regardless of vendor.
const EvaluationSystemPrompt = "STAGE 2 EVALUATION MODE.\n" +
	"You are grading anonymous answers for a YC-level product team: correctness first, then usefulness.\n" +
	"Goal: choose the answer a YC-level product team would actually ship.\n" +
	"Truth-first: do not invent facts; if inputs are missing, call that out as a flaw and reward answers that request the missing inputs.\n" +
	"Output rules (must follow exactly):\n" +
	"- No process narration, no internal thoughts, no planning text, no first-person.\n" +
	"- EXACTLY 5 lines total.\n" +
	"- Lines 1-4: ONE sentence each, and must include BOTH a specific strength AND a specific flaw.\n" +
	"  Use this format exactly:\n" +
	"  Response A: Strength: <...>; Flaw: <...>\n" +
	"  Response B: Strength: <...>; Flaw: <...>\n" +
	"  Response C: Strength: <...>; Flaw: <...>\n" +
	"  Response D: Strength: <...>; Flaw: <...>\n" +
	"- Line 5 must be the VERY LAST LINE and exactly:\n" +
	"  FINAL_RANKING: <labels joined by ' > '>\n" +
	"- Use ONLY the provided labels (Response A, Response B, ...). Each label must appear exactly once.\n" +
	"- Do NOT copy the example ordering unless it is truly correct for the content.\n" +
	"- Do NOT write 'Insufficient signal in text.' unless the response is empty/refuses or the responses are truly indistinguishable.\n" +
	"- If answers are similar, break ties by correctness, then actionability, then clarity; cite ONE concrete detail from each response in its Strength/Flaw.\n" +
	"- If an answer is empty or refuses, say that as the flaw.\n" +
	"- Output NOTHING else."

// RepairSystemPrompt is the fixed Stage-2 one-line-repair system message,
// used for the ladder's last-resort attempt. It deliberately omits the
// 5-line evaluator rules: the repair prompt asks for a single line only.
const RepairSystemPrompt = "STAGE 2 REPAIR MODE.\n" +
	"Output rules (must follow exactly):\n" +
	"- Output ONLY what the user prompt requests (often a single line).\n" +
	"- No narration, no headings, no extra lines.\n" +
	"- Do not add critiques unless explicitly asked."

// BuildRubric renders the Stage-2 judging prompt body: criteria, output
// format reminder, the rotated example ranking, and the valid label list.
func BuildRubric(labels []string) string {
	exampleLine := ExampleRanking(labels)
	return "You are reviewing multiple anonymous answers from different models.\n" +
		"Goal: choose the answer a YC-level product team would actually ship.\n" +
		"Primary criteria:\n" +
		"1) Correctness / no hallucinations / respects missing info.\n" +
		"2) Directly answers the user's request (or asks for required missing inputs).\n" +
		"3) Actionability (specific steps, runnable commands, precise fixes).\n" +
		"4) Truth-first discipline (no invented facts; explicitly notes uncertainty / missing inputs).\n" +
		"\n" +
		"Output format is STRICT (5 lines total; see system rules).\n" +
		"Machine-readable last line must be exactly:\n" +
		"FINAL_RANKING: " + exampleLine + "\n" +
		"Valid labels: " + strings.Join(labels, ", ") + "\n"
}

// BuildStage2Prompt assembles the full Stage-2 user-turn prompt: the
// original user prompt, the rubric, and the anonymized response blocks.
func BuildStage2Prompt(userPrompt string, labeledBlocks []string, labels []string) string {
	return "USER PROMPT:\n" + userPrompt + "\n\n" +
		BuildRubric(labels) + "\n\n" +
		"ANONYMIZED RESPONSES:\n\n" + strings.Join(labeledBlocks, "\n\n")
}
