// Package config loads the council's runtime configuration from
// environment variables (the deployment surface spec.md §6 documents),
// with an optional YAML file overlay for pinning model rosters in a
// checked-in deployment profile. Precedence follows the teacher's layered
// koanf pattern: environment always wins over file, file wins over
// built-in defaults.
package config

import "strings"

// Config is the complete council runtime configuration.
type Config struct {
	OpenRouterAPIKey string `koanf:"openrouter_api_key"`
	OpenAIAPIKey     string `koanf:"openai_api_key"`
	OpenAIBaseURL    string `koanf:"openai_base_url"`
	OpenRouterBaseURL string `koanf:"openrouter_base_url"`

	ChairmanModel string `koanf:"chairman_model" validate:"required"`

	Stage1ModelA string `koanf:"stage1_model_a"`
	Stage1ModelB string `koanf:"stage1_model_b"`
	Stage1ModelC string `koanf:"stage1_model_c"`
	Stage1ModelD string `koanf:"stage1_model_d"`

	Stage2ModelA string `koanf:"stage2_model_a"`
	Stage2ModelB string `koanf:"stage2_model_b"`
	Stage2ModelC string `koanf:"stage2_model_c"`
	Stage2ModelD string `koanf:"stage2_model_d"`

	Stage2AdjudicatorModel     string   `koanf:"stage2_adjudicator_model"`
	Stage2AdjudicatorFallbacks []string `koanf:"-"`
	Stage2AdjudicatorFallbacksRaw string `koanf:"stage2_adjudicator_fallbacks"`

	Stage2AdjudicateEnabled        bool `koanf:"stage2_adjudicate_enabled"`
	Stage2AdjudicateMinNonpartial  int  `koanf:"stage2_adjudicate_min_nonpartial" validate:"gte=0"`
	Stage2AdjudicateMinTop1Votes   int  `koanf:"stage2_adjudicate_min_top1_votes" validate:"gte=0"`
	Stage2EvidenceMinLines         int  `koanf:"stage2_evidence_min_lines" validate:"gte=0,lte=4"`

	Stage3HelperModel        string `koanf:"stage3_helper_model"`
	Stage3HelperEnabled      bool   `koanf:"stage3_helper_enabled"`
	Stage3HelperTriggerChars int    `koanf:"stage3_helper_trigger_chars" validate:"gte=0"`

	CouncilMaxTokens  int    `koanf:"council_max_tokens" validate:"gt=0"`
	CouncilDebugIDs   bool   `koanf:"council_debug_ids"`
	BedrockDirect     bool   `koanf:"council_bedrock_direct"`
	ReplicateDirect   bool   `koanf:"council_replicate_direct"`
}

// Defaults returns a Config populated with every value spec.md §6
// documents as defaulted rather than required.
func Defaults() Config {
	return Config{
		Stage2AdjudicateEnabled:       true,
		Stage2AdjudicateMinNonpartial: 3,
		Stage2AdjudicateMinTop1Votes:  2,
		Stage2EvidenceMinLines:        3,
		Stage3HelperTriggerChars:      120_000,
		CouncilMaxTokens:              4096,
	}
}

// applyDefaults fills any of cfg's defaultable fields not present in set
// (the set of koanf keys actually populated from file/env) with the
// built-in default. Using presence rather than a zero-value check lets an
// explicit "STAGE2_ADJUDICATE_ENABLED=0" or "...=0" integer override stick,
// instead of being mistaken for "unset".
func applyDefaults(cfg *Config, set map[string]bool) {
	d := Defaults()
	if !set["stage2_adjudicate_enabled"] {
		cfg.Stage2AdjudicateEnabled = d.Stage2AdjudicateEnabled
	}
	if !set["stage2_adjudicate_min_nonpartial"] {
		cfg.Stage2AdjudicateMinNonpartial = d.Stage2AdjudicateMinNonpartial
	}
	if !set["stage2_adjudicate_min_top1_votes"] {
		cfg.Stage2AdjudicateMinTop1Votes = d.Stage2AdjudicateMinTop1Votes
	}
	if !set["stage2_evidence_min_lines"] {
		cfg.Stage2EvidenceMinLines = d.Stage2EvidenceMinLines
	}
	if !set["stage3_helper_trigger_chars"] {
		cfg.Stage3HelperTriggerChars = d.Stage3HelperTriggerChars
	}
	if !set["council_max_tokens"] {
		cfg.CouncilMaxTokens = d.CouncilMaxTokens
	}
}

// Stage1ModelList returns the configured Stage-1 generator models in
// configured order (A, B, C, D), skipping any left unset.
func (c *Config) Stage1ModelList() []string {
	return nonEmpty(c.Stage1ModelA, c.Stage1ModelB, c.Stage1ModelC, c.Stage1ModelD)
}

// Stage2ModelList returns the configured Stage-2 judge models in
// configured order (A, B, C, D), skipping any left unset.
func (c *Config) Stage2ModelList() []string {
	return nonEmpty(c.Stage2ModelA, c.Stage2ModelB, c.Stage2ModelC, c.Stage2ModelD)
}

// AdjudicatorFallbacks parses Stage2AdjudicatorFallbacksRaw (a comma
// separated model list) and caches it on the Config.
func (c *Config) AdjudicatorFallbacks() []string {
	if c.Stage2AdjudicatorFallbacks == nil {
		c.Stage2AdjudicatorFallbacks = splitCSV(c.Stage2AdjudicatorFallbacksRaw)
	}
	return c.Stage2AdjudicatorFallbacks
}

func splitCSV(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
