package mdgmx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/mdgmx/chem"
	"github.com/rmera/mdgmx/cmdexec"
	"github.com/rmera/mdgmx/codec"
	"github.com/rmera/mdgmx/traj/trr"
	"github.com/stretchr/testify/require"
)

var _ Codec = codec.Files{}

const waterGro = `Water box
    6
    1SOL     OW    1   0.126   1.624   1.679
    1SOL    HW1    2   0.190   1.661   1.747
    1SOL    HW2    3   0.177   1.568   1.613
    2SOL     OW    4   1.275   0.053   0.622
    2SOL    HW1    5   1.337   0.002   0.680
    2SOL    HW2    6   1.326   0.120   0.568
   1.86206   1.86206   1.86206
`

const waterItp = `[ moleculetype ]
SOL 2

[ atoms ]
1 OW 1 SOL OW 1 -0.82 15.9994
2 HW 1 SOL HW1 1 0.41 1.008
3 HW 1 SOL HW2 1 0.41 1.008

[ settles ]
1 1 0.1 0.16330
`

const requestYAML = `schema_name: test
schema_version: 1.0
engine: gmx
method: md
step_size: 0.002
max_steps: 20
boundary: [periodic, periodic, periodic, periodic, periodic, periodic]
system:
  - molecule: water.gro
    forcefield: water.itp
freq_write: {nstxout: 5, nstvout: 5, nstenergy: 5, nstlog: 5}
temp_couple: {tcoupl: Berendsen, tc-grps: system, tau-t: 0.1, ref-t: 300}
press_couple: {pcoupl: "no"}
long_forces: {method: PME}
short_forces: {method: Cut-off}
`

// fixture writes the request and its files to a new directory and returns the request path.
func fixture(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "water.gro"), []byte(waterGro), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "water.itp"), []byte(waterItp), 0o644))
	req := filepath.Join(dir, "request.yaml")
	require.NoError(t, os.WriteFile(req, []byte(requestYAML), 0o644))
	return req
}

// testConfig returns a configuration whose temporary and scratch files go to
// new, empty directories.
func testConfig(t *testing.T) RunConfig {
	cfg := DefaultRunConfig()
	cfg.TempDir = t.TempDir()
	cfg.ScratchDir = t.TempDir()
	cfg.NCores = 2
	return cfg
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// fakeGmx imitates the gmx subcommands the stages use. editconf copies the
// structure adding a box, grompp writes a dummy run input, and mdrun writes
// the boxed structure as final structure plus a trajectory repeating it.
type fakeGmx struct {
	t      *testing.T
	fail   string //subcommand that exits with an error
	noBox  bool   //editconf leaves its output untouched
	frames int
	calls  []string
	envs   []map[string]string
	mol    *chem.Molecule
}

func (f *fakeGmx) Run(ctx context.Context, c cmdexec.Command) (*cmdexec.Result, error) {
	res := &cmdexec.Result{ScratchDir: c.ScratchDir, Tracked: map[string]string{}}
	if res.ScratchDir == "" {
		dir, err := os.MkdirTemp(c.ScratchRoot, c.ScratchPrefix+"_")
		if err != nil {
			return nil, err
		}
		res.ScratchDir, res.CreatedScratch = dir, true
	}
	for _, in := range c.InFiles {
		if _, err := os.Stat(in); err != nil {
			return res, err
		}
	}
	sub := c.Args[1]
	f.calls = append(f.calls, sub)
	f.envs = append(f.envs, c.Env)
	if sub == f.fail {
		res.ExitCode = 1
		res.Stderr = "Fatal error:\nsomething went wrong\n"
		return res, nil
	}
	switch sub {
	case "editconf":
		if f.noBox {
			break
		}
		mol, err := chem.GroFileRead(argAfter(c.Args, "-f"))
		require.NoError(f.t, err)
		mol.Boxes = [][]float64{{30, 0, 0, 0, 30, 0, 0, 0, 30}}
		f.mol = mol
		require.NoError(f.t, chem.GroFileWrite(argAfter(c.Args, "-o"), mol.Name, mol.Coords[0], mol, mol.Box(0)))
	case "grompp":
		require.NoError(f.t, os.WriteFile(filepath.Join(res.ScratchDir, argAfter(c.Args, "-o")), []byte("tpr"), 0o644))
		require.NoError(f.t, os.WriteFile(filepath.Join(res.ScratchDir, "mdout.mdp"), []byte("; mdout"), 0o644))
	case "mdrun":
		require.NotNil(f.t, f.mol)
		require.NoError(f.t, chem.GroFileWrite(filepath.Join(res.ScratchDir, argAfter(c.Args, "-c")), "final", f.mol.Coords[0], f.mol, f.mol.Box(0)))
		T := &chem.Trajectory{NAtoms: f.mol.Len()}
		for i := 0; i < f.frames; i++ {
			require.NoError(f.t, T.AddFrame(f.mol.Coords[0], f.mol.Box(0), float64(i), int64(5*i)))
		}
		require.NoError(f.t, trr.WriteAll(filepath.Join(res.ScratchDir, argAfter(c.Args, "-o")), T))
	}
	for _, o := range append(append([]string{}, c.OutFiles...), c.TrackedOutFiles...) {
		p := o
		if !filepath.IsAbs(p) {
			p = filepath.Join(res.ScratchDir, o)
		}
		if _, err := os.Stat(p); err != nil {
			res.Missing = append(res.Missing, o)
			continue
		}
		res.Tracked[o] = p
	}
	res.Success = len(res.Missing) == 0
	return res, nil
}

func entries(t *testing.T, dir string) []string {
	es, err := os.ReadDir(dir)
	require.NoError(t, err)
	var ret []string
	for _, e := range es {
		ret = append(ret, e.Name())
	}
	return ret
}

// canceledGmx fails as a runner does when its context is done.
type canceledGmx struct{}

func (canceledGmx) Run(ctx context.Context, c cmdexec.Command) (*cmdexec.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &cmdexec.Result{}, nil
}

// chdir changes the working directory for the rest of the test.
func chdir(t *testing.T, dir string) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

// editconfScript stands for gmx when run by a real cmdexec.Exec. It only
// knows "editconf -f in -d dist -o out", which it answers copying the input.
const editconfScript = `[ "$1" = editconf ] || exit 2
[ -f "$3" ] || { echo "no input $3 in $(pwd)" >&2; exit 1; }
cp "$3" "$7"
`
