package judge

import (
	"context"
	"strings"
)

// ChatFunc sends a single-turn prompt at a fixed temperature and returns the
// model's raw text response. RunLadder's caller closes over the target
// model, backend dispatch, and any per-attempt stage label so this package
// stays free of transport concerns.
type ChatFunc func(ctx context.Context, prompt string, temperature float32) (string, error)

// Result is one judge model's settled Stage-2 outcome after the repair
// ladder has run to either an accepted ranking or last-resort fallback.
type Result struct {
	Ranking         string   `json:"ranking"`
	ParsedRanking   []string `json:"parsed_ranking"`
	RawRanking      string   `json:"raw_ranking"`
	FormatFixUsed   bool     `json:"format_fix_used"`
	FormatFixOutput string   `json:"format_fix_output"`
	Coerced         bool     `json:"coerced"`
	Partial         bool     `json:"partial"`
	PartialReason   string   `json:"partial_reason"`
	Err             string   `json:"error,omitempty"`
}

func canonicalDefault(order []string) string {
	lines := make([]string, 0, 5)
	for _, letter := range []string{"A", "B", "C", "D"} {
		lines = append(lines, canonicalCritique(letter))
	}
	lines = append(lines, "FINAL_RANKING: "+strings.Join(order, " > "))
	return strings.Join(lines, "\n")
}

func partialFallback(labels []string, reason string) Result {
	return Result{
		Ranking:       canonicalDefault(labels),
		ParsedRanking: append([]string{}, labels...),
		FormatFixUsed: true,
		Coerced:       true,
		Partial:       true,
		PartialReason: reason,
	}
}

func evidenceFixWrapper(exampleLine string) string {
	return "OUTPUT EXACTLY 5 LINES. No headings. No markdown. No bullets. No blank lines.\n" +
		"No first-person. No narration.\n" +
		"Each critique line MUST include BOTH 'Strength:' and 'Flaw:' and MUST reference one concrete detail from that response (a short quoted phrase is OK).\n" +
		"Do NOT use 'Insufficient signal in text.' unless the response is empty/refuses.\n" +
		"Template:\n" +
		"Response A: Strength: <...>; Flaw: <...>\n" +
		"Response B: Strength: <...>; Flaw: <...>\n" +
		"Response C: Strength: <...>; Flaw: <...>\n" +
		"Response D: Strength: <...>; Flaw: <...>\n" +
		"FINAL_RANKING: " + exampleLine + "\n" +
		"Return ONLY those 5 lines.\n\n"
}

func strictRewrapper(exampleLine string) string {
	return "OUTPUT EXACTLY 5 LINES. No headings. No markdown. No bullets. No blank lines.\n" +
		"No first-person. No narration.\n" +
		"Each critique line must be ONE sentence and include BOTH:\n" +
		"  Strength: <...>; Flaw: <...>\n" +
		"Do NOT copy the example ordering; choose based on the content.\n" +
		"Template:\n" +
		"Response A: Strength: <...>; Flaw: <...>\n" +
		"Response B: Strength: <...>; Flaw: <...>\n" +
		"Response C: Strength: <...>; Flaw: <...>\n" +
		"Response D: Strength: <...>; Flaw: <...>\n" +
		"FINAL_RANKING: " + exampleLine + "\n" +
		"Return ONLY those 5 lines.\n\n"
}

func rewritePrompt(exampleLine, priorOutput string) string {
	return "Rewrite the text below into EXACTLY 5 LINES using the required template.\n" +
		"Rules:\n" +
		"- No markdown, no headings, no extra lines.\n" +
		"- No first-person, no narration.\n" +
		"- Each critique line MUST include: 'Strength: ...; Flaw: ...' in one sentence.\n" +
		"- Do NOT copy the example ordering unless it is truly correct.\n" +
		"- If a critique is missing, write: 'Strength: None; Flaw: Insufficient signal in text.'\n" +
		"Template:\n" +
		"Response A: Strength: <...>; Flaw: <...>\n" +
		"Response B: Strength: <...>; Flaw: <...>\n" +
		"Response C: Strength: <...>; Flaw: <...>\n" +
		"Response D: Strength: <...>; Flaw: <...>\n" +
		"FINAL_RANKING: " + exampleLine + "\n\n" +
		"TEXT TO REWRITE:\n" + priorOutput
}

func oneLineRepairPrompt(labelsLine string) string {
	return "Return ONLY one line in this exact format (no other text):\n" +
		"FINAL_RANKING: <labels joined by ' > '>\n" +
		"Rules:\n" +
		"- Use ONLY these labels: " + labelsLine + "\n" +
		"- Each label must appear EXACTLY ONCE.\n" +
		"- Use ' > ' between labels.\n" +
		"- Do NOT use the default A > B > C > D unless it is truly correct.\n"
}

// RunLadder drives the A0 -> A0' -> A1 -> A2 -> A3 -> fallback repair
// sequence for a single judge model against basePrompt, stopping at the
// first attempt that yields a non-partial ranking. judgeChat issues Stage-2
// evaluator-persona calls; repairChat issues Stage-2 repair-persona calls
// (a distinct system prompt, per the source's stage/stage2_repair split).
// responsesByLabel feeds the evidence-overlap quality check.
func RunLadder(ctx context.Context, judgeChat, repairChat ChatFunc, basePrompt string, labels []string, responsesByLabel map[string]string, evidenceMinLines int) Result {
	exampleLine := ExampleRanking(labels)
	labelsLine := strings.Join(labels, ", ")

	// Attempt 0: normal judge prompt, low temperature.
	out, err := judgeChat(ctx, basePrompt, 0.1)
	if err != nil {
		return attemptException(labels, err.Error())
	}
	out = strings.TrimSpace(out)
	parsed, canonical, partial, reason := Acceptable(out, labels, responsesByLabel, exampleLine, evidenceMinLines)
	if parsed != nil && !partial {
		return Result{
			Ranking:       canonical,
			ParsedRanking: parsed,
			RawRanking:    out,
			Coerced:       canonical != out,
		}
	}

	// Attempt 0': evidence-forcing re-ask, only when A0 parsed but was
	// judged low-signal (placeholders etc).
	if parsed != nil && partial {
		out2, err := judgeChat(ctx, evidenceFixWrapper(exampleLine)+basePrompt, 0.2)
		if err == nil {
			out2 = strings.TrimSpace(out2)
			p2, c2, partial2, reason2 := Acceptable(out2, labels, responsesByLabel, exampleLine, evidenceMinLines)
			if p2 != nil {
				return Result{
					Ranking:         c2,
					ParsedRanking:   p2,
					RawRanking:      out2,
					FormatFixUsed:   true,
					FormatFixOutput: out2,
					Coerced:         c2 != out2,
					Partial:         partial2,
					PartialReason:   ifPartial(partial2, reason2),
				}
			}
		}
	}
	_ = reason

	// Attempt 1: strict re-judge, forbids copying the example ordering.
	outFix, errFix := judgeChat(ctx, strictRewrapper(exampleLine)+basePrompt, 0.0)
	formatFixOutput := ""
	if errFix == nil {
		outFix = strings.TrimSpace(outFix)
		formatFixOutput = outFix
		pFix, cFix, partialFix, reasonFix := Acceptable(outFix, labels, responsesByLabel, exampleLine, evidenceMinLines)
		if pFix != nil {
			return Result{
				Ranking:         cFix,
				ParsedRanking:   pFix,
				RawRanking:      outFix,
				FormatFixUsed:   true,
				FormatFixOutput: formatFixOutput,
				Coerced:         cFix != outFix,
				Partial:         partialFix,
				PartialReason:   ifPartial(partialFix, reasonFix),
			}
		}
	}

	// Attempt 2: ask the model to rewrite its own prior output into the
	// strict template.
	priorOutput := outFix
	if priorOutput == "" {
		priorOutput = out
	}
	outRewrite, errRewrite := judgeChat(ctx, rewritePrompt(exampleLine, priorOutput), 0.0)
	if errRewrite == nil {
		outRewrite = strings.TrimSpace(outRewrite)
		pRw, cRw, partialRw, reasonRw := Acceptable(outRewrite, labels, responsesByLabel, exampleLine, evidenceMinLines)
		if pRw != nil {
			return Result{
				Ranking:         cRw,
				ParsedRanking:   pRw,
				RawRanking:      outRewrite,
				FormatFixUsed:   true,
				FormatFixOutput: formatFixOutput,
				Coerced:         cRw != outRewrite,
				Partial:         partialRw,
				PartialReason:   ifPartial(partialRw, reasonRw),
			}
		}
	}

	// Attempt 3: last-resort one-line ranking-only repair. Always partial:
	// we accept bare ranking signal and canonicalize the critiques away.
	out2, err2 := repairChat(ctx, oneLineRepairPrompt(labelsLine), 0.0)
	if err2 == nil {
		out2 = strings.TrimSpace(out2)
		parsedAny := ParseRankingFromText(out2, nil)
		if out2 != "" {
			p2, c2, _, reason2 := Acceptable(out2, labels, responsesByLabel, exampleLine, evidenceMinLines)
			if p2 != nil && c2 != "" {
				finalReason := reason2
				if finalReason == "" {
					if len(parsedAny) > 0 {
						finalReason = "repair_only_ranking"
					} else {
						finalReason = "repair_empty"
					}
				}
				return Result{
					Ranking:         c2,
					ParsedRanking:   p2,
					RawRanking:      out2,
					FormatFixUsed:   true,
					FormatFixOutput: formatFixOutput,
					Coerced:         true,
					Partial:         true,
					PartialReason:   finalReason,
				}
			}
		}
	}

	raw := outRewrite
	if raw == "" {
		raw = outFix
	}
	if raw == "" {
		raw = out
	}
	result := partialFallback(labels, "stage2_failed_all_attempts")
	result.RawRanking = raw
	return result
}

func ifPartial(partial bool, reason string) string {
	if !partial {
		return ""
	}
	return reason
}

func attemptException(labels []string, errMsg string) Result {
	result := partialFallback(labels, "stage2_exception_fallback")
	result.Err = errMsg
	return result
}
