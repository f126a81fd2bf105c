package diagnostics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLastErrorsOverwrite(t *testing.T) {
	d := New()
	require.Empty(t, d.Stage1LastErrors())

	d.SetStage1LastErrors(StageErrors{"openai/gpt-5.2": "timeout"})
	require.Equal(t, StageErrors{"openai/gpt-5.2": "timeout"}, d.Stage1LastErrors())

	// last writer wins: a later run with no errors clears the snapshot.
	d.SetStage1LastErrors(StageErrors{})
	require.Empty(t, d.Stage1LastErrors())
}

func TestRecordRunCounters(t *testing.T) {
	d := New()
	d.RecordRun(false)
	d.RecordRun(true)
	d.RecordStage1AllFailed()
	d.RecordAdjudication()
	d.RecordChairmanRepair()

	out := NewExporter(d).Export()
	require.True(t, strings.Contains(out, "council_runs_total 2"))
	require.True(t, strings.Contains(out, "council_runs_failed_total 1"))
	require.True(t, strings.Contains(out, "council_stage1_all_failed_total 1"))
	require.True(t, strings.Contains(out, "council_adjudications_total 1"))
	require.True(t, strings.Contains(out, "council_chairman_repairs_total 1"))
}
