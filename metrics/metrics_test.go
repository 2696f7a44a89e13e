package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	m := New()
	m.ObserveStage("prep", 2*time.Second)
	m.StageFailed("compute", "execution")
	m.RunFinished("failed")
	m.Command("grompp", true)
	name := filepath.Join(t.TempDir(), "mdgmx.prom")
	require.NoError(t, m.WriteFile(name))
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `mdgmx_stage_duration_seconds_count{stage="prep"} 1`)
	assert.Contains(t, s, `mdgmx_stage_failures_total{kind="execution",stage="compute"} 1`)
	assert.Contains(t, s, `mdgmx_runs_total{state="failed"} 1`)
	assert.Contains(t, s, `mdgmx_engine_commands_total{subcommand="grompp",success="true"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStage("prep", time.Second)
		m.StageFailed("prep", "precondition")
		m.RunFinished("done")
		m.Command("mdrun", false)
	})
	assert.NoError(t, m.WriteFile(filepath.Join(t.TempDir(), "x")))
}
