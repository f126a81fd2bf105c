package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/llm-council/council/internal/council"
	"github.com/llm-council/council/pkg/config"
	"github.com/llm-council/council/pkg/diagnostics"
	"github.com/llm-council/council/pkg/logging"
	"github.com/llm-council/council/pkg/roles"
)

const version = "0.1.0"

// CLI represents the council command-line interface.
var CLI struct {
	Debug     bool       `help:"Enable debug logging." short:"d" env:"COUNCIL_DEBUG"`
	LogFormat string     `help:"Log output format." enum:"text,json" default:"text" name:"log-format"`
	Version   VersionCmd `cmd:"" help:"Print version information."`
	Help      HelpCmd    `cmd:"" hidden:"" default:"1"`
	Run       RunCmd     `cmd:"" help:"Run one council deliberation against a prompt."`
	Metrics   MetricsCmd `cmd:"" help:"Print the Prometheus-format diagnostics snapshot for a single run."`
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("council %s\n", version)
	return nil
}

// HelpCmd prints help.
type HelpCmd struct{}

func (h *HelpCmd) Run(ctx *kong.Context) error {
	appCtx := *ctx
	if len(appCtx.Path) > 1 {
		appCtx.Path = appCtx.Path[:1]
	}
	return appCtx.PrintUsage(false)
}

// RunCmd runs a single council deliberation.
type RunCmd struct {
	Prompt        string        `arg:"" help:"The user prompt to deliberate over."`
	ContractStack string        `help:"Comma-separated contract stack override." name:"contract-stack"`
	ConfigFile    string        `help:"YAML config file path." type:"existingfile" name:"config-file"`
	Timeout       time.Duration `help:"Overall run timeout." default:"5m"`
}

func (r *RunCmd) Run() error {
	configureLogging()

	cfg, err := config.Load(r.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	diag := diagnostics.New()
	c, err := council.New(cfg, diag)
	if err != nil {
		return fmt.Errorf("failed to construct council: %w", err)
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(baseCtx, r.Timeout)
	defer cancel()

	result, err := c.Run(ctx, r.Prompt, r.ContractStack)
	if err != nil {
		encodeResult(result, cfg, err)
		return fmt.Errorf("council run failed: %w", err)
	}

	return encodeResult(result, cfg, nil)
}

// MetricsCmd runs a single deliberation and prints only the Prometheus
// diagnostics snapshot, useful for smoke-testing a deployment's scrape
// target without the full JSON payload.
type MetricsCmd struct {
	Prompt     string `arg:"" help:"The user prompt to deliberate over."`
	ConfigFile string `help:"YAML config file path." type:"existingfile" name:"config-file"`
}

func (m *MetricsCmd) Run() error {
	configureLogging()

	cfg, err := config.Load(m.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	diag := diagnostics.New()
	c, err := council.New(cfg, diag)
	if err != nil {
		return fmt.Errorf("failed to construct council: %w", err)
	}

	_, _ = c.Run(context.Background(), m.Prompt, "")
	fmt.Print(diagnostics.NewExporter(diag).Export())
	return nil
}

func configureLogging() {
	level := logging.ParseLevel("info")
	if CLI.Debug {
		level = logging.ParseLevel("debug")
	}
	logging.Configure(level, CLI.LogFormat, os.Stderr)
}

// runOutput is the JSON envelope printed to stdout: the council Result
// plus the model-role assignments spec.md's meta.model_roles names.
type runOutput struct {
	Stage1    any       `json:"stage1"`
	Stage2    any       `json:"stage2"`
	Final     any       `json:"stage3"`
	Meta      runMeta   `json:"meta"`
	Timestamp time.Time `json:"timestamp"`
}

type runMeta struct {
	ContractStack   []string          `json:"contract_stack"`
	LabelToModel    map[string]string `json:"label_to_model"`
	AggregateRank   any               `json:"aggregate_rankings"`
	AdjudicationRan bool              `json:"adjudication_ran"`
	ModelRoles      map[string]string `json:"model_roles,omitempty"`
	Error           string            `json:"error,omitempty"`
}

func encodeResult(result council.Result, cfg *config.Config, runErr error) error {
	modelRoles := map[string]string{}
	for _, model := range cfg.Stage1ModelList() {
		modelRoles[model] = roles.For(model).Name
	}

	out := runOutput{
		Stage1: result.Stage1,
		Stage2: result.Stage2,
		Final:  result.Final,
		Meta: runMeta{
			ContractStack:   result.ContractStack,
			LabelToModel:    result.LabelToModel,
			AggregateRank:   result.Aggregate,
			AdjudicationRan: result.AdjudicationRan,
			ModelRoles:      modelRoles,
		},
		Timestamp: result.Timestamp,
	}
	if runErr != nil {
		out.Meta.Error = runErr.Error()
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
