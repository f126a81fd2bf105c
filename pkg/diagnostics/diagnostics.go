// Package diagnostics tracks process-wide, best-effort observability state
// for the council: per-stage "last error" snapshots and run counters.
//
// Per spec.md §5/§9 these are explicitly *not* request state: a cancelled
// or failed run's per-model error map overwrites whatever the previous run
// left behind (last-writer-wins), and readers must treat it as advisory.
// Go still needs a race-free store for that overwrite, so each map is held
// behind an atomic.Pointer swap rather than the mutex the teacher's counters
// use — there is no critical section to serialize, only a single pointer
// replace, which is the Go idiom for "last writer wins with no lock."
package diagnostics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// StageErrors maps a model identifier to the last error message it produced
// during a stage, for models whose chat call was not ultimately recovered.
type StageErrors map[string]string

// Diagnostics holds process-wide run counters and the last-errors maps for
// Stage 1 and Stage 2. Construct it with New, which stores the empty
// last-errors snapshots that the readers dereference.
type Diagnostics struct {
	stage1Errors atomic.Pointer[StageErrors]
	stage2Errors atomic.Pointer[StageErrors]

	runsTotal            int64
	runsFailed           int64
	stage1AllFailedTotal int64
	adjudicationsTotal   int64
	chairmanRepairsTotal int64
}

// New returns a ready-to-use Diagnostics instance.
func New() *Diagnostics {
	d := &Diagnostics{}
	empty := StageErrors{}
	d.stage1Errors.Store(&empty)
	d.stage2Errors.Store(&empty)
	return d
}

// SetStage1LastErrors overwrites the Stage-1 last-errors snapshot.
func (d *Diagnostics) SetStage1LastErrors(m StageErrors) {
	if m == nil {
		m = StageErrors{}
	}
	d.stage1Errors.Store(&m)
}

// SetStage2LastErrors overwrites the Stage-2 last-errors snapshot.
func (d *Diagnostics) SetStage2LastErrors(m StageErrors) {
	if m == nil {
		m = StageErrors{}
	}
	d.stage2Errors.Store(&m)
}

// Stage1LastErrors returns the most recently stored Stage-1 error snapshot.
func (d *Diagnostics) Stage1LastErrors() StageErrors {
	return *d.stage1Errors.Load()
}

// Stage2LastErrors returns the most recently stored Stage-2 error snapshot.
func (d *Diagnostics) Stage2LastErrors() StageErrors {
	return *d.stage2Errors.Load()
}

// RecordRun increments the run counters. Call once per completed run.
func (d *Diagnostics) RecordRun(failed bool) {
	atomic.AddInt64(&d.runsTotal, 1)
	if failed {
		atomic.AddInt64(&d.runsFailed, 1)
	}
}

// RecordStage1AllFailed increments the Stage1AllFailed counter.
func (d *Diagnostics) RecordStage1AllFailed() {
	atomic.AddInt64(&d.stage1AllFailedTotal, 1)
}

// RecordAdjudication increments the adjudicator-invocation counter.
func (d *Diagnostics) RecordAdjudication() {
	atomic.AddInt64(&d.adjudicationsTotal, 1)
}

// RecordChairmanRepair increments the chairman repair-pass counter.
func (d *Diagnostics) RecordChairmanRepair() {
	atomic.AddInt64(&d.chairmanRepairsTotal, 1)
}

// Exporter renders Diagnostics counters in Prometheus text exposition format.
type Exporter struct {
	d *Diagnostics
}

// NewExporter wraps a Diagnostics instance for text export.
func NewExporter(d *Diagnostics) *Exporter {
	return &Exporter{d: d}
}

// Export returns the counters in Prometheus text format.
func (e *Exporter) Export() string {
	var b strings.Builder

	runsTotal := atomic.LoadInt64(&e.d.runsTotal)
	runsFailed := atomic.LoadInt64(&e.d.runsFailed)
	stage1AllFailed := atomic.LoadInt64(&e.d.stage1AllFailedTotal)
	adjudications := atomic.LoadInt64(&e.d.adjudicationsTotal)
	chairmanRepairs := atomic.LoadInt64(&e.d.chairmanRepairsTotal)

	fmt.Fprintf(&b, "council_runs_total %d\n", runsTotal)
	fmt.Fprintf(&b, "council_runs_failed_total %d\n", runsFailed)
	fmt.Fprintf(&b, "council_stage1_all_failed_total %d\n", stage1AllFailed)
	fmt.Fprintf(&b, "council_adjudications_total %d\n", adjudications)
	fmt.Fprintf(&b, "council_chairman_repairs_total %d\n", chairmanRepairs)
	fmt.Fprintf(&b, "council_stage1_last_errors %d\n", len(e.d.Stage1LastErrors()))
	fmt.Fprintf(&b, "council_stage2_last_errors %d\n", len(e.d.Stage2LastErrors()))

	return b.String()
}
