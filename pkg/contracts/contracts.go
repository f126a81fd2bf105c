// Package contracts implements the C2 contract registry & evaluator: an
// ordered, named policy stack applied as a system-prompt prefix to every
// generator/judge/chairman call, plus a lightweight post-hoc compliance
// check against each response.
package contracts

import (
	"strings"

	"github.com/llm-council/council/pkg/transport"
)

// Spec is an immutable contract definition. The registry of Specs is
// static; contract_id is the stable key used in the CSV contract-stack
// parameter.
type Spec struct {
	ID               string
	Name             string
	SystemPrompt     string
	ChairmanAddendum string
}

// FactoryTruthV1 is the mandatory base contract, always first in any
// resolved stack.
var FactoryTruthV1 = Spec{
	ID:   "factory_truth_v1",
	Name: "Factory Truth-First v1",
	SystemPrompt: "You are running inside a product-agnostic LLM Council factory.\n" +
		"Factory Contract (must follow):\n" +
		"1) Truth-first: prioritize what is most likely true about the user's real problem; state uncertainty explicitly.\n" +
		"2) Separate facts from guesses: tag non-trivial claims as [Observed] / [Assumed] / [Inferred]; do not blur them.\n" +
		"3) Ask at most 1 killer question only if it would materially change the recommendation; otherwise proceed with best-guess + assumptions.\n" +
		"4) Smallest valuable action: propose something testable with minimal build; avoid dependencies and platform thinking.\n" +
		"5) One primary risk: name the single highest-risk failure mode and add one simple guardrail.\n" +
		"6) One metric that matters: pick one leading indicator; define a clear pass/fail threshold.\n" +
		"7) Design for the edge user: handle the most constrained path (low attention, low literacy, high stress) by default.\n" +
		"8) Make it legible: include a short rationale and a clear next step; no jargon; no sprawling option lists.\n" +
		"9) Creativity inside constraints: propose at most 2 options (Conservative baseline + Bold alternative), both testable.\n" +
		"10) Synthesis discipline: do not introduce new mechanisms unless you label them [New Proposal] and explain why.\n",
}

// EldercareSafetyV1 is an example product-addendum contract layered on top
// of the factory base.
var EldercareSafetyV1 = Spec{
	ID:   "eldercare_safety_v1",
	Name: "Eldercare Safety v1",
	SystemPrompt: "Product Addendum (elder-care safety):\n" +
		"- Do not provide medical diagnosis or dosing advice. Default to safe-hold instructions and escalation.\n" +
		"- For scam-risk: prioritize immediate 'stop/hold' guidance; avoid asking for sensitive info.\n" +
		"- For caregiver escalation: prioritize burnout contexts (batching, quiet hours) while preserving safety overrides.\n" +
		"- Be explicit about consent/privacy when capturing audio; keep retention minimal.\n",
	ChairmanAddendum: "Chairman: keep the result minimal and safe; avoid compliance theater; prefer simple guardrails.\n",
}

// registry is the static set of known contracts, keyed by ID.
var registry = map[string]Spec{
	FactoryTruthV1.ID:    FactoryTruthV1,
	EldercareSafetyV1.ID: EldercareSafetyV1,
}

// Get looks up a contract by ID. ok is false for an unknown ID.
func Get(id string) (Spec, bool) {
	s, ok := registry[id]
	return s, ok
}

// ResolveStack parses a comma-separated contract-id list and returns the
// ordered, deduplicated stack with the factory base contract always first.
//
// The source's two variants disagreed on how to enforce that: one removed
// and re-prepended the base id, the other inserted-or-moved it in place.
// This is the spec's open-question decision (§9): remove-and-prepend,
// because it is idempotent — resolving an already-resolved stack returns
// the same stack.
func ResolveStack(csv string) []string {
	var ids []string
	if csv != "" {
		for _, part := range strings.Split(csv, ",") {
			if c := strings.TrimSpace(part); c != "" {
				ids = append(ids, c)
			}
		}
	}

	filtered := ids[:0:0]
	for _, id := range ids {
		if id != FactoryTruthV1.ID {
			filtered = append(filtered, id)
		}
	}

	resolved := make([]string, 0, len(filtered)+1)
	resolved = append(resolved, FactoryTruthV1.ID)
	seen := map[string]bool{FactoryTruthV1.ID: true}
	for _, id := range filtered {
		if !seen[id] {
			resolved = append(resolved, id)
			seen[id] = true
		}
	}
	return resolved
}

// Mode selects which system-message shape BuildSystemMessages produces.
type Mode int

const (
	// ModeGenerator is used for Stage-1 generators and Stage-2 judges: one
	// system message per contract, system_prompt only.
	ModeGenerator Mode = iota
	// ModeChairman is used for Stage-3: chairman_addendum (if any) is
	// appended to system_prompt for each contract.
	ModeChairman
)

// BuildSystemMessages builds one system Message per contract in stack, in
// order. Unknown ids (should not occur once ResolveStack has run) are
// skipped rather than erroring, since contract evaluation never aborts the
// pipeline.
func BuildSystemMessages(stack []string, mode Mode) []transport.Message {
	messages := make([]transport.Message, 0, len(stack))
	for _, id := range stack {
		spec, ok := Get(id)
		if !ok {
			continue
		}
		content := spec.SystemPrompt
		if mode == ModeChairman && spec.ChairmanAddendum != "" {
			content = content + "\n" + spec.ChairmanAddendum
		}
		messages = append(messages, transport.NewSystemMessage(content))
	}
	return messages
}

// Summary renders a short, human-readable description of the resolved
// stack, suitable for prompts/logs.
func Summary(stack []string) string {
	parts := make([]string, 0, len(stack))
	for _, id := range stack {
		spec, ok := Get(id)
		if !ok {
			continue
		}
		parts = append(parts, id+" ("+spec.Name+")")
	}
	return "Contracts applied: " + strings.Join(parts, " + ")
}
