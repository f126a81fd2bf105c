// Package judge implements the C4 output parser & coercer: pure
// string/regex functions that extract a ranking order from a judge model's
// free-text response, coerce it into the strict five-line canonical form,
// classify low-signal output as "partial", and drive the multi-attempt
// repair ladder (pkg/judge.RunLadder) that C6 (internal/stage2) consumes.
//
// The regex families here are grounded on the teacher's
// internal/detectors/judge rating-pattern style: small, named, anchored
// patterns grouped by concern rather than one sprawling expression.
package judge

import (
	"regexp"
	"strings"
)

var wsRe = regexp.MustCompile(`\s+`)

// normalizeWS collapses runs of whitespace (including common non-breaking
// space variants) into single ASCII spaces and trims the result.
func normalizeWS(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

var fencedCodeRe = regexp.MustCompile("^```[a-zA-Z0-9_-]*\\s*")
var trailingFenceRe = regexp.MustCompile("\\s*```\\s*$")

// stripWrappers removes surrounding code fences and stray quote/backtick
// wrapping models sometimes add around otherwise-compliant output.
func stripWrappers(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	if strings.HasPrefix(t, "```") {
		t = fencedCodeRe.ReplaceAllString(t, "")
		t = trailingFenceRe.ReplaceAllString(t, "")
	}
	t = strings.Trim(strings.TrimSpace(t), "`")
	t = strings.Trim(strings.TrimSpace(t), "\"")
	t = strings.Trim(strings.TrimSpace(t), "'")
	return strings.TrimSpace(t)
}

var processNarrationRe = regexp.MustCompile(`(?i)\b(` +
	`i am currently|i'm currently|i am now|i'm now|` +
	`initiating the analysis|my focus is|the plan is|` +
	`i will now|i am going to|i'm going to|` +
	`i have just|i've just|i just|` +
	`i have finished|i've finished|just finished|` +
	`i have hit|i've hit|hit a snag|` +
	`i am grappling|i'm grappling|` +
	`i am considering|i'm considering|` +
	`i am deciding|i'm deciding|` +
	`i have decided|i've decided|` +
	`finalizing the strategy|processing the parameters|` +
	`assessing the conundrum|interpreting the context` +
	`)\b`)

// ContainsProcessNarration reports whether text reads like the model is
// narrating its own reasoning process rather than producing the requested
// ranking output.
func ContainsProcessNarration(text string) bool {
	return processNarrationRe.MatchString(strings.ToLower(normalizeWS(text)))
}

var finalRankingLineRe = regexp.MustCompile(`(?i)\bFINAL_RANKING\s*:\s*`)

// ExtractFinalRankingLine scans text bottom-up for the last line containing
// a FINAL_RANKING: marker and returns that line from the marker onward.
func ExtractFinalRankingLine(text string) string {
	raw := stripWrappers(strings.TrimSpace(text))
	if raw == "" {
		return ""
	}
	var lines []string
	for _, ln := range strings.Split(raw, "\n") {
		if strings.TrimSpace(ln) != "" {
			lines = append(lines, normalizeWS(ln))
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		loc := finalRankingLineRe.FindStringIndex(lines[i])
		if loc != nil {
			return strings.TrimSpace(lines[i][loc[0]:])
		}
	}
	return ""
}

var arrowReplacer = strings.NewReplacer(
	"→", ">",
	"⇒", ">",
	"->", ">",
	"＞", ">",
	"›", ">",
	"»", ">",
)

var fullLabelChainRe = regexp.MustCompile(`(?i)(Response\s*[A-Z](?:\s*>\s*Response\s*[A-Z])+)`)
var letterChainRe = regexp.MustCompile(`(?i)\b([A-D](?:\s*>\s*[A-D]){2,})\b`)

// ExtractFuzzyRankingChain tries to salvage a ranking chain from text that
// does not contain a well-formed FINAL_RANKING: line, accepting either full
// "Response A > Response B" labels or bare letter chains.
func ExtractFuzzyRankingChain(text string) string {
	raw := stripWrappers(strings.TrimSpace(text))
	if raw == "" {
		return ""
	}
	raw = normalizeWS(raw)
	raw = arrowReplacer.Replace(raw)

	if matches := fullLabelChainRe.FindAllString(raw, -1); len(matches) > 0 {
		return strings.TrimSpace(matches[len(matches)-1])
	}

	if m := letterChainRe.FindStringSubmatch(raw); m != nil {
		var labels []string
		for _, p := range strings.Split(m[1], ">") {
			p = strings.TrimSpace(p)
			if p != "" {
				labels = append(labels, "Response "+strings.ToUpper(p))
			}
		}
		if len(labels) > 0 {
			return strings.Join(labels, " > ")
		}
	}
	return ""
}

var responseLabelRe = regexp.MustCompile(`(?i)response\s*([A-Z])\b`)
var bareLetterRe = regexp.MustCompile(`(?i)^[A-Z]$`)

func normalizeLabel(s string, allowed map[string]bool) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if m := responseLabelRe.FindStringSubmatch(s); m != nil {
		label := "Response " + strings.ToUpper(m[1])
		if allowed == nil || allowed[label] {
			return label, true
		}
		return "", false
	}
	if bareLetterRe.MatchString(s) {
		label := "Response " + strings.ToUpper(s)
		if allowed == nil || allowed[label] {
			return label, true
		}
		return "", false
	}
	return "", false
}

// ParseRankingOrder parses a "FINAL_RANKING: A > B > C > D"-shaped string
// into an ordered, deduplicated label list. If allowedLabels is non-nil,
// the parsed set must exactly match it (same length, same members) or the
// parse is rejected outright (returns nil).
func ParseRankingOrder(text string, allowedLabels []string) []string {
	raw := normalizeWS(text)
	if raw == "" {
		return nil
	}
	var allowed map[string]bool
	if allowedLabels != nil {
		allowed = make(map[string]bool, len(allowedLabels))
		for _, l := range allowedLabels {
			allowed[l] = true
		}
	}

	loc := finalRankingLineRe.FindStringIndex(raw)
	if loc == nil {
		return nil
	}
	tail := strings.TrimSpace(raw[loc[1]:])
	if tail == "" {
		return nil
	}
	tail = arrowReplacer.Replace(tail)

	var chunks []string
	for _, c := range strings.Split(tail, ">") {
		c = strings.TrimSpace(c)
		if c != "" {
			chunks = append(chunks, c)
		}
	}

	var out []string
	seen := map[string]bool{}
	for _, c := range chunks {
		lab, ok := normalizeLabel(c, allowed)
		if ok && !seen[lab] {
			seen[lab] = true
			out = append(out, lab)
		}
	}
	if len(out) == 0 {
		return nil
	}
	if allowed != nil {
		if len(out) != len(allowedLabels) {
			return nil
		}
		for _, l := range allowedLabels {
			if !seen[l] {
				return nil
			}
		}
	}
	return out
}

// ParseRankingFromText tries the strict FINAL_RANKING: line first, falling
// back to fuzzy chain extraction when no strict line is present.
func ParseRankingFromText(text string, allowedLabels []string) []string {
	if strict := ExtractFinalRankingLine(text); strict != "" {
		return ParseRankingOrder(strict, allowedLabels)
	}
	chain := ExtractFuzzyRankingChain(text)
	if chain == "" {
		return nil
	}
	return ParseRankingOrder("FINAL_RANKING: "+chain, allowedLabels)
}

// ExampleRanking returns a non-trivial example ordering over labels,
// rotated rather than identity, to avoid anchoring the judge on
// alphabetical order. Carried verbatim from the source rubric's rotation.
func ExampleRanking(labels []string) string {
	if len(labels) == 0 {
		return "Response B > Response C > Response A > Response D"
	}
	if len(labels) == 4 {
		return strings.Join([]string{labels[1], labels[2], labels[0], labels[3]}, " > ")
	}
	rotated := append(append([]string{}, labels[1:]...), labels[0])
	return strings.Join(rotated, " > ")
}
