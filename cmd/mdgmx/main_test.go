package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGro = `water
    3
    1SOL     OW    1   0.126   1.624   1.679
    1SOL    HW1    2   0.190   1.661   1.747
    1SOL    HW2    3   0.177   1.568   1.613
   1.86206   1.86206   1.86206
`

const testItp = `[ moleculetype ]
SOL 2

[ atoms ]
1 OW 1 SOL OW 1 -0.82 15.9994
2 HW 1 SOL HW1 1 0.41 1.008
3 HW 1 SOL HW2 1 0.41 1.008
`

const testRequest = `engine: gmx
method: md
step_size: 0.002
max_steps: 100
boundary: [periodic, periodic, periodic]
system:
  - molecule: water.gro
    forcefield: water.itp
freq_write: {nstxout: 10}
temp_couple: {tcoupl: V-rescale}
press_couple: {pcoupl: "no", tcoupl: Berendsen}
long_forces: {method: PME}
short_forces: {method: Cut-off}
`

func writeRequest(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "water.gro"), []byte(testGro), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "water.itp"), []byte(testItp), 0o644))
	name := filepath.Join(dir, "request.yaml")
	require.NoError(t, os.WriteFile(name, []byte(testRequest), 0o644))
	return name
}

func execute(t *testing.T, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	//a configuration file that doesn't exist gives the defaults.
	args = append(args, "--config", filepath.Join(t.TempDir(), "none.yaml"))
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(Te *testing.T) {
	code, out, _ := execute(Te, "version")
	assert.Equal(Te, 0, code)
	assert.Contains(Te, out, "mdgmx version ")
}

func TestMDP(Te *testing.T) {
	code, out, errout := execute(Te, "mdp", writeRequest(Te))
	require.Equal(Te, 0, code, errout)
	want := `integrator = md
dt = 0.002
nsteps = 100
coulombtype = PME
vdw-type = Cut-off
pbc = xyz
nstxout = 10
tcoupl = Berendsen
pcoupl = no
`
	assert.Equal(Te, want, out)
}

func TestRunErrors(Te *testing.T) {
	code, _, errout := execute(Te, "run", filepath.Join(Te.TempDir(), "missing.yaml"))
	assert.Equal(Te, 1, code)
	assert.Contains(Te, errout, "mdgmx: ")

	code, _, _ = execute(Te, "run")
	assert.Equal(Te, 1, code)

	code, _, errout = execute(Te, "run", writeRequest(Te), "--log-level", "loud")
	assert.Equal(Te, 1, code)
	assert.Contains(Te, errout, "invalid log level")
}

func TestBadConfig(Te *testing.T) {
	cfg := filepath.Join(Te.TempDir(), "mdgmx.yaml")
	require.NoError(Te, os.WriteFile(cfg, []byte("ncores: -2\n"), 0o644))
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"run", writeRequest(Te), "--config", cfg}, &stdout, &stderr)
	assert.Equal(Te, 1, code)
	assert.Contains(Te, stderr.String(), "negative ncores")
}
