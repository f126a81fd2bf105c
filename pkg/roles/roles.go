// Package roles implements the C3 role registry: a static mapping from
// model-identifier vendor prefix to a terse persona system prompt, with a
// generalist fallback for unrecognized vendors. The registry is consulted
// once per chat call — no dynamic dispatch, same "static map, no factory
// lookup" shape as the teacher's openaicompat.ChatModels set.
package roles

import "strings"

// Persona is a named system-prompt fragment appended after the contract
// stack's system messages and before the single user message.
type Persona struct {
	Name   string
	System string
}

// Default is used for any model identifier whose vendor prefix has no
// entry in providerDefaultRole.
var Default = Persona{
	Name: "Generalist",
	System: "You are a strong, truth-first assistant.\n" +
		"Be concise, precise, and practical.\n" +
		"If information is missing, say what is missing and ask for it.\n" +
		"Do not invent facts.\n",
}

var personas = map[string]Persona{
	"builder": {
		Name: "Builder",
		System: "You are a pragmatic senior engineer.\n" +
			"Prefer minimal, runnable fixes.\n" +
			"When uncertain, state assumptions explicitly.\n" +
			"Do not invent facts.\n",
	},
	"reviewer": {
		Name: "Reviewer",
		System: "You are a careful reviewer.\n" +
			"Look for edge cases, missing steps, and correctness issues.\n" +
			"Do not invent facts.\n",
	},
	"synthesizer": {
		Name: "Synthesizer",
		System: "You are an analytical synthesizer.\n" +
			"Combine the best parts of different answers into one.\n" +
			"Do not invent facts.\n",
	},
	"contrarian": {
		Name: "Contrarian",
		System: "You are a sharp contrarian reviewer.\n" +
			"Stress-test assumptions and look for hidden failure modes.\n" +
			"Do not invent facts.\n",
	},
}

// providerDefaultRole maps a model identifier's vendor prefix to the
// persona key it defaults to.
var providerDefaultRole = map[string]string{
	"openai/":    "builder",
	"anthropic/": "reviewer",
	"google/":    "synthesizer",
	"x-ai/":      "contrarian",
}

// For returns the persona for model, matching on vendor prefix, falling
// back to Default for unrecognized vendors.
func For(model string) Persona {
	m := strings.TrimSpace(model)
	for prefix, key := range providerDefaultRole {
		if strings.HasPrefix(m, prefix) {
			if p, ok := personas[key]; ok {
				return p
			}
		}
	}
	return Default
}
