package judge

import (
	"regexp"
	"strings"
)

// CritiqueIsPlaceholder reports whether a critique line is empty or carries
// the canonical "no signal" filler text, a sign the judge did not engage
// with the underlying response.
func CritiqueIsPlaceholder(line string) bool {
	raw := strings.ToLower(strings.TrimSpace(line))
	if raw == "" {
		return true
	}
	return strings.Contains(raw, "insufficient signal in text")
}

var critiqueLineRe = regexp.MustCompile(`(?i)^\s*(?:[-*]\s*)?(?:Response\s*)?([A-D])\s*(?:[:\-\x{2013}\x{2014}.]|\))\s*(.+)$`)

func canonicalCritique(letter string) string {
	return "Response " + letter + ": Strength: None; Flaw: Insufficient signal in text."
}

// CoerceToFiveLines coerces free-text judge output into the strict
// five-line canonical form (one critique line per label in A, B, C, D
// order, plus a trailing FINAL_RANKING: line). It salvages whatever
// critique and ranking signal is present; callers classify the result as
// partial rather than rejecting it outright, keeping response shape stable.
//
// Returns "" when no usable ranking signal exists at all.
func CoerceToFiveLines(text string, labels []string) string {
	if text == "" {
		return ""
	}

	critiques := map[string]string{}
	for _, ln := range strings.Split(text, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		nln := normalizeWS(ln)
		m := critiqueLineRe.FindStringSubmatch(nln)
		if m == nil {
			continue
		}
		letter := strings.ToUpper(m[1])
		body := strings.TrimSpace(m[2])
		label := "Response " + letter
		if !containsLabel(labels, label) {
			continue
		}
		if body != "" {
			critiques[label] = label + ": " + body
		}
	}

	parsedAny := ParseRankingFromText(text, nil)
	if len(parsedAny) == 0 {
		return ""
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
		return ""
	}

	finalLine := "FINAL_RANKING: " + strings.Join(full, " > ")

	lines := make([]string, 0, 5)
	for _, letter := range []string{"A", "B", "C", "D"} {
		label := "Response " + letter
		if crit, ok := critiques[label]; ok {
			lines = append(lines, crit)
		} else {
			lines = append(lines, canonicalCritique(letter))
		}
	}
	lines = append(lines, finalLine)
	return strings.Join(lines, "\n")
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func remainder(labels []string, seen map[string]bool) []string {
	var out []string
	for _, l := range labels {
		if !seen[l] {
			out = append(out, l)
		}
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, x := range a {
		set[x] = true
	}
	for _, x := range b {
		if !set[x] {
			return false
		}
	}
	return true
}
