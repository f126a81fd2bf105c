package judge

import (
	"strings"

	"github.com/llm-council/council/pkg/transport"
)

// DefaultEvidenceMinLines is the default minimum number of critique lines
// (out of 4) that must show concrete evidence overlap with their response
// before a ranking counts as non-partial. Overridable via STAGE2_EVIDENCE_MIN_LINES.
const DefaultEvidenceMinLines = 3

// ClassifyQuality decides whether a syntactically valid canonical 5-line
// judge output is nonetheless "partial" (low-information, should not
// influence rank aggregation) and why. responsesByLabel maps each label to
// its Stage-1 response text for the evidence-overlap check.
func ClassifyQuality(canonical string, parsedAny []string, usedExample bool, responsesByLabel map[string]string, evidenceMinLines int) (partial bool, reason string) {
	if canonical == "" {
		return true, "empty_canonical"
	}

	var lines []string
	for _, ln := range strings.Split(canonical, "\n") {
		if strings.TrimSpace(ln) != "" {
			lines = append(lines, strings.TrimSpace(ln))
		}
	}
	if len(lines) != 5 {
		return true, "bad_line_count"
	}

	critiqueLines := lines[:4]
	for _, ln := range critiqueLines {
		lnl := strings.ToLower(ln)
		if !strings.Contains(lnl, "strength:") || !strings.Contains(lnl, "flaw:") {
			return true, "missing_strength_flaw"
		}
	}

	placeholderN := 0
	for _, ln := range critiqueLines {
		if CritiqueIsPlaceholder(ln) {
			placeholderN++
		}
	}
	if usedExample && placeholderN > 0 {
		return true, "example_order_and_placeholder"
	}
	if placeholderN >= 2 {
		return true, "placeholder_critiques"
	}
	if len(parsedAny) <= 1 {
		return true, "weak_ranking_signal"
	}

	if evidenceMinLines < 0 {
		evidenceMinLines = DefaultEvidenceMinLines
	}
	okN := 0
	for i, letter := range []string{"A", "B", "C", "D"} {
		label := "Response " + letter
		respText := responsesByLabel[label]
		var critLine string
		if i < len(critiqueLines) {
			critLine = critiqueLines[i]
		}
		if evidenceOK(critLine, respText) {
			okN++
		}
	}
	if okN < evidenceMinLines {
		return true, "missing_evidence"
	}

	return false, ""
}

// Acceptable runs the full acceptability check on a single judge attempt's
// raw text: rejects empty/provider-id/narration output outright, parses and
// deterministically completes the ranking over labels, canonicalizes to
// five lines, and classifies quality. parsedFull is nil when the attempt
// must be rejected (no usable ranking signal at all).
func Acceptable(text string, labels []string, responsesByLabel map[string]string, exampleLine string, evidenceMinLines int) (parsedFull []string, canonical string, partial bool, reason string) {
	if text == "" {
		return nil, "", true, "empty"
	}
	if transport.LooksLikeProviderID(text) {
		return nil, "", true, "provider_id"
	}
	if ContainsProcessNarration(text) {
		return nil, "", true, "process_narration"
	}

	parsedAny := ParseRankingFromText(text, nil)
	if len(parsedAny) == 0 {
		return nil, "", true, "no_ranking_signal"
	}

	var keep []string
	seen := map[string]bool{}
	for _, lab := range parsedAny {
		if containsLabel(labels, lab) && !seen[lab] {
			seen[lab] = true
			keep = append(keep, lab)
		}
	}
	full := append(append([]string{}, keep...), remainder(labels, seen)...)
	if len(full) != len(labels) || !sameSet(full, labels) {
		return nil, "", true, "bad_ranking_completion"
	}

	canonical = CoerceToFiveLines(text, labels)
	if canonical == "" {
		return nil, "", true, "cannot_canonicalize"
	}

	usedExample := strings.TrimSpace("FINAL_RANKING: "+strings.Join(full, " > ")) == "FINAL_RANKING: "+exampleLine
	partial, reason = ClassifyQuality(canonical, parsedAny, usedExample, responsesByLabel, evidenceMinLines)
	return full, canonical, partial, reason
}
