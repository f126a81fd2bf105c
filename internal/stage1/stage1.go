// Package stage1 implements C5, the Stage-1 generator fan-out: one chat
// call per configured generator model, run concurrently via errgroup, the
// same bounded-concurrency primitive the teacher's pkg/scanner.Scanner.Run
// uses for probe execution. Unlike the scanner, which aggregates attempts
// under a mutex-guarded append, Stage-1 collects into a pre-sized slice
// indexed by configured position: Stage-2 labels responses "Response A..D"
// by that position, so completion order must never leak into the result.
//
// A synthetic failure placeholder on its own never aborts the run — only
// a total wipeout where every entry is synthetic AND at least one model
// raised an actual chat error surfaces as ErrAllFailed.
package stage1

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llm-council/council/pkg/contracts"
	"github.com/llm-council/council/pkg/diagnostics"
	"github.com/llm-council/council/pkg/retry"
	"github.com/llm-council/council/pkg/roles"
	"github.com/llm-council/council/pkg/transport"
)

// ErrAllFailed is returned when every generator entry came back synthetic
// and at least one underlying chat call raised an actual error — as
// opposed to every model simply returning empty text, which Stage-1
// tolerates silently.
var ErrAllFailed = errors.New("stage1: all generator models failed")

// errEmptyAttempt marks a tryOnce call that returned no usable text without
// an underlying chat error, so retry.Do counts an empty attempt as a failed
// one; the google-only retry below retries it just like a chat error.
var errEmptyAttempt = errors.New("stage1: empty attempt")

// googleRetryDelay is the fixed sleep before a single extra attempt against
// a Google-vendor model that returned nothing usable, carried verbatim from
// the source's one-shot retry-on-empty behavior.
const googleRetryDelay = 150 * time.Millisecond

// noRetry runs a generator call exactly once — every vendor except Google
// gets no extra attempt on an empty or failed response.
var noRetry = retry.Config{MaxAttempts: 1}

// googleRetry governs Stage-1's one provider-specific extra attempt: only
// `google/*` models get a second try, after a fixed delay, whether the
// first attempt came back empty or raised a chat error.
var googleRetry = retry.Config{
	MaxAttempts:   2,
	InitialDelay:  googleRetryDelay,
	MaxDelay:      googleRetryDelay,
	Multiplier:    1,
	RetryableFunc: func(error) bool { return true },
}

// Chat sends one chat turn and returns the raw text response.
type Chat func(ctx context.Context, model string, messages []transport.Message, temperature float32, maxTokens int) (string, error)

// Result is one generator model's Stage-1 entry.
type Result struct {
	Model           string         `json:"model"`
	Response        string         `json:"response"`
	ContractEval    contracts.Eval `json:"contract_eval"`
	Synthetic       bool           `json:"synthetic,omitempty"`
	SyntheticReason string         `json:"synthetic_reason,omitempty"`
}

// syntheticPlaceholder is substituted for a model's entry when every
// attempt against it failed, so Stage-1 always returns one entry per
// configured model regardless of individual failures.
const syntheticPlaceholder = "(No response from model.)"

// Run fans Stage-1 generation out across models concurrently (bounded by
// concurrency; <=0 means unbounded) and returns exactly one Result per
// model in the caller's configured order. It returns ErrAllFailed when
// every entry came back synthetic and at least one model raised an actual
// chat error, rather than merely returning empty text.
func Run(ctx context.Context, chat Chat, models []string, userPrompt string, stack []string, concurrency int, maxTokens int, diag *diagnostics.Diagnostics) ([]Result, error) {
	results := make([]Result, len(models))
	errs := make(map[string]string)
	var mu sync.Mutex
	var sawException bool

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, model := range models {
		i, model := i, model
		g.Go(func() error {
			result, errMsg, exception := runOne(gctx, chat, model, userPrompt, stack, maxTokens)
			results[i] = result
			if errMsg != "" {
				mu.Lock()
				errs[model] = errMsg
				if exception {
					sawException = true
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if diag != nil {
		diag.SetStage1LastErrors(errs)
	}
	if sawException && AllSynthetic(results) {
		return results, ErrAllFailed
	}
	return results, nil
}

// AllSynthetic reports whether every Stage-1 result is a failure
// placeholder — the condition under which the council aborts with
// ErrAllFailed rather than proceeding to Stage-2 with nothing real to rank.
func AllSynthetic(results []Result) bool {
	for _, r := range results {
		if !r.Synthetic {
			return false
		}
	}
	return len(results) > 0
}

func runOne(ctx context.Context, chat Chat, model, userPrompt string, stack []string, maxTokens int) (result Result, errMsg string, exception bool) {
	cfg := noRetry
	if strings.HasPrefix(model, "google/") {
		cfg = googleRetry
	}

	var out string
	var success bool
	_ = retry.Do(ctx, cfg, func() error {
		o, err := tryOnce(ctx, chat, model, userPrompt, stack, maxTokens)
		if err != nil {
			errMsg, exception = err.Error(), true
			return err
		}
		if o == "" {
			errMsg = "Empty response"
			return errEmptyAttempt
		}
		out, success = o, true
		return nil
	})

	if success {
		return realResult(model, out, userPrompt, stack), "", false
	}
	return syntheticResult(model), errMsg, exception
}

func tryOnce(ctx context.Context, chat Chat, model, userPrompt string, stack []string, maxTokens int) (string, error) {
	messages := memberMessages(model, userPrompt, stack)
	out, err := chat(ctx, model, messages, 0.3, maxTokens)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if transport.LooksLikeProviderID(out) {
		return "", nil
	}
	return out, nil
}

// memberMessages builds a Stage-1 generator's message list: the resolved
// contract stack's system prompts, then the model's role persona, then the
// user prompt.
func memberMessages(model, userPrompt string, stack []string) []transport.Message {
	messages := contracts.BuildSystemMessages(stack, contracts.ModeGenerator)
	persona := roles.For(model)
	messages = append(messages, transport.NewSystemMessage(persona.System))
	messages = append(messages, transport.NewUserMessage(userPrompt))
	return messages
}

func realResult(model, response, userPrompt string, stack []string) Result {
	return Result{
		Model:        model,
		Response:     response,
		ContractEval: contracts.Evaluate(userPrompt, response, stack, "stage1"),
	}
}

func syntheticResult(model string) Result {
	return Result{
		Model:    model,
		Response: syntheticPlaceholder,
		ContractEval: contracts.Eval{
			Stage:           "stage1",
			Status:          contracts.StatusFail,
			Eligible:        false,
			HardFailReasons: []string{"Empty response"},
		},
		Synthetic:       true,
		SyntheticReason: "stage1_empty_fallback",
	}
}
