package judge

import (
	"regexp"
	"strings"
)

// evidenceStopwords are common function words excluded from the evidence
// token overlap check so it reflects concrete nouns/verbs, not grammar.
var evidenceStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "to": true, "of": true,
	"in": true, "on": true, "for": true, "with": true, "without": true, "by": true, "as": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true, "being": true,
	"this": true, "that": true, "it": true, "its": true, "i": true, "you": true, "we": true,
	"they": true, "he": true, "she": true, "them": true, "us": true, "our": true, "your": true,
	"their": true, "from": true, "into": true, "over": true, "under": true, "then": true,
	"than": true, "if": true, "else": true, "when": true, "while": true, "do": true, "does": true,
	"did": true, "done": true, "can": true, "could": true, "should": true, "would": true,
	"may": true, "might": true, "must": true, "will": true, "just": true,
}

var evidenceTokenRe = regexp.MustCompile(`[A-Za-z0-9_]{5,}`)

// evidenceTokens extracts the set of lowercase 5+ character tokens from s,
// excluding stopwords.
func evidenceTokens(s string) map[string]bool {
	if s == "" {
		return nil
	}
	toks := evidenceTokenRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		if !evidenceStopwords[t] {
			set[t] = true
		}
	}
	return set
}

// evidenceOK reports whether critique line shares at least one concrete
// token with responseText. Very short responses are never penalized.
func evidenceOK(line, responseText string) bool {
	rt := strings.TrimSpace(responseText)
	if len(rt) < 20 {
		return true
	}
	lt := evidenceTokens(line)
	if len(lt) == 0 {
		return false
	}
	rtTokens := evidenceTokens(rt)
	for t := range lt {
		if rtTokens[t] {
			return true
		}
	}
	return false
}
