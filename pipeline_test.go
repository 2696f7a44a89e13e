package mdgmx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/mdgmx/codec"
	"github.com/rmera/mdgmx/metrics"
	"github.com/rmera/mdgmx/schema"
	v3 "github.com/rmera/mdgmx/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *schema.InputMD {
	req, err := LoadRequest(fixture(t), codec.Files{})
	require.NoError(t, err)
	return req
}

func TestPrepWrongEngine(Te *testing.T) {
	cfg := testConfig(Te)
	req := loadFixture(Te)
	req.Engine = "amber"
	gmx := &fakeGmx{t: Te}
	ok, bundle, err := NewPrepStage(cfg, codec.Files{}, WithRunner(gmx)).Execute(context.Background(), req)
	assert.False(Te, ok)
	assert.Nil(Te, bundle)
	var pe *PreconditionError
	require.ErrorAs(Te, err, &pe)
	assert.Equal(Te, "prep", pe.Stage)
	assert.Empty(Te, gmx.calls)
	assert.Empty(Te, entries(Te, cfg.TempDir))
	assert.Empty(Te, entries(Te, cfg.ScratchDir))
}

func TestPrepEmptySystem(Te *testing.T) {
	cfg := testConfig(Te)
	req := loadFixture(Te)
	req.System = nil
	gmx := &fakeGmx{t: Te}
	ok, _, err := NewPrepStage(cfg, codec.Files{}, WithRunner(gmx)).Execute(context.Background(), req)
	assert.False(Te, ok)
	var pe *PreconditionError
	require.ErrorAs(Te, err, &pe)
	assert.ErrorIs(Te, err, schema.ErrEmptySystem)
	assert.Empty(Te, gmx.calls)
	assert.Empty(Te, entries(Te, cfg.TempDir))
}

func TestPrepBadBoundary(Te *testing.T) {
	cfg := testConfig(Te)
	req := loadFixture(Te)
	req.Boundary = []string{"periodic"}
	_, _, err := NewPrepStage(cfg, codec.Files{}, WithRunner(&fakeGmx{t: Te})).Execute(context.Background(), req)
	var pe *PreconditionError
	assert.ErrorAs(Te, err, &pe)
}

func TestPrep(Te *testing.T) {
	cfg := testConfig(Te)
	req := loadFixture(Te)
	gmx := &fakeGmx{t: Te}
	ctx := WithRunID(context.Background(), "0123456789abcdef")
	ok, bundle, err := NewPrepStage(cfg, codec.Files{}, WithRunner(gmx)).Execute(ctx, req)
	require.NoError(Te, err)
	require.True(Te, ok)
	assert.True(Te, bundle.Success)
	assert.Equal(Te, "0123456789abcdef", bundle.RunID)
	assert.Same(Te, req, bundle.Request)
	assert.Equal(Te, []string{"editconf"}, gmx.calls)

	files := []string{bundle.MDPFile, bundle.TopologyFile, bundle.StructureFile, bundle.ScratchDir}
	seen := map[string]bool{}
	for _, f := range files {
		require.NotEmpty(Te, f)
		assert.False(Te, seen[f], "repeated path %s", f)
		seen[f] = true
		_, err := os.Stat(f)
		assert.NoError(Te, err)
	}
	assert.True(Te, strings.HasPrefix(filepath.Base(bundle.ScratchDir), "mdgmx_01234567_"))
	//only the boxed structure is left, with the parameter and topology files.
	assert.Len(Te, entries(Te, cfg.TempDir), 3)

	mdpData, err := os.ReadFile(bundle.MDPFile)
	require.NoError(Te, err)
	assert.Contains(Te, string(mdpData), "pbc = xyz\n")
	assert.True(Te, strings.HasPrefix(string(mdpData), "integrator = md\ndt = 0.002\nnsteps = 20\n"))
	topData, err := os.ReadFile(bundle.TopologyFile)
	require.NoError(Te, err)
	assert.Contains(Te, string(topData), "[ molecules ]")
	assert.Equal(Te, "-1", gmx.envs[0]["GMX_MAXBACKUP"])
	assert.Equal(Te, "2", gmx.envs[0]["OMP_NUM_THREADS"])
}

func TestPrepEditconfFails(Te *testing.T) {
	cfg := testConfig(Te)
	gmx := &fakeGmx{t: Te, fail: "editconf"}
	ok, _, err := NewPrepStage(cfg, codec.Files{}, WithRunner(gmx)).Execute(context.Background(), loadFixture(Te))
	assert.False(Te, ok)
	var ee *ExecutionError
	require.ErrorAs(Te, err, &ee)
	assert.Equal(Te, 1, ee.ExitCode)
	assert.Contains(Te, ee.Error(), "something went wrong")
	assert.Empty(Te, entries(Te, cfg.TempDir))
	assert.Empty(Te, entries(Te, cfg.ScratchDir))
}

func TestPrepEmptyBoxedFile(Te *testing.T) {
	cfg := testConfig(Te)
	ok, _, err := NewPrepStage(cfg, codec.Files{}, WithRunner(&fakeGmx{t: Te, noBox: true})).Execute(context.Background(), loadFixture(Te))
	assert.False(Te, ok)
	var ee *ExecutionError
	require.ErrorAs(Te, err, &ee)
	require.Len(Te, ee.Missing, 1)
	assert.True(Te, strings.HasSuffix(ee.Missing[0], "_boxed.gro"))
	assert.Empty(Te, entries(Te, cfg.TempDir))
	assert.Empty(Te, entries(Te, cfg.ScratchDir))
}

// The engine runs inside the scratch directory, so relative directories in
// the configuration must still give it usable file names.
func TestPrepRelativeDirs(Te *testing.T) {
	req := loadFixture(Te)
	work := Te.TempDir()
	script := filepath.Join(work, "gmx.sh")
	require.NoError(Te, os.WriteFile(script, []byte(editconfScript), 0o755))
	chdir(Te, work)
	require.NoError(Te, os.Mkdir("tmp", 0o755))
	require.NoError(Te, os.Mkdir("scratch", 0o755))
	cfg := DefaultRunConfig()
	cfg.Command = "sh " + script
	cfg.TempDir, cfg.ScratchDir = "tmp", "scratch"

	ok, bundle, err := NewPrepStage(cfg, codec.Files{}).Execute(context.Background(), req)
	require.NoError(Te, err)
	require.True(Te, ok)
	for _, f := range []string{bundle.MDPFile, bundle.TopologyFile, bundle.StructureFile, bundle.ScratchDir} {
		assert.True(Te, filepath.IsAbs(f), f)
	}
	boxed, err := codec.Files{}.ReadMolecule(bundle.StructureFile)
	require.NoError(Te, err)
	assert.Equal(Te, 6, boxed.Len())
	assert.Len(Te, entries(Te, "tmp"), 3)
	assert.Len(Te, entries(Te, "scratch"), 1)
}

func TestComputeReusesScratch(Te *testing.T) {
	cfg := testConfig(Te)
	gmx := &fakeGmx{t: Te, frames: 3}
	_, inb, err := NewPrepStage(cfg, codec.Files{}, WithRunner(gmx)).Execute(context.Background(), loadFixture(Te))
	require.NoError(Te, err)
	ok, outb, err := NewComputeStage(cfg, WithRunner(gmx)).Execute(context.Background(), inb)
	require.NoError(Te, err)
	require.True(Te, ok)
	assert.Equal(Te, inb.ScratchDir, outb.ScratchDir)
	assert.Equal(Te, []string{inb.ScratchDir}, func() []string {
		var r []string
		for _, e := range entries(Te, cfg.ScratchDir) {
			r = append(r, filepath.Join(cfg.ScratchDir, e))
		}
		return r
	}())
	assert.Equal(Te, filepath.Join(inb.ScratchDir, FinalStructure), outb.StructureFile)
	assert.Equal(Te, filepath.Join(inb.ScratchDir, TrajectoryFile), outb.TrajectoryFile)
	assert.Equal(Te, []string{"editconf", "grompp", "mdrun"}, gmx.calls)
	//the input files are consumed.
	assert.Empty(Te, entries(Te, cfg.TempDir))
}

func TestComputeRejectsFailedBundle(Te *testing.T) {
	gmx := &fakeGmx{t: Te}
	ok, _, err := NewComputeStage(testConfig(Te), WithRunner(gmx)).Execute(context.Background(), &InputBundle{ScratchDir: Te.TempDir()})
	assert.False(Te, ok)
	var pe *PreconditionError
	assert.ErrorAs(Te, err, &pe)
	assert.Empty(Te, gmx.calls)
}

func TestPipeline(Te *testing.T) {
	cfg := testConfig(Te)
	req := loadFixture(Te)
	m := metrics.New()
	gmx := &fakeGmx{t: Te, frames: 4}
	p := NewPipeline(cfg, codec.Files{}, WithRunner(gmx), WithMetrics(m))
	r := p.Run(context.Background(), req)
	require.NoError(Te, r.Err)
	require.Equal(Te, StateDone, r.State)
	out := r.Result
	require.NotNil(Te, out)
	assert.True(Te, out.Success)
	assert.Empty(Te, out.Warnings)
	assert.Equal(Te, "test", out.SchemaName)
	require.Len(Te, out.Molecules, 1)
	assert.Equal(Te, "Water box", out.Molecules[0].Name)
	assert.Equal(Te, 6, out.Molecules[0].Len())
	require.Len(Te, out.Trajectories, 1)
	traj := out.Trajectories["Water box"]
	require.NotNil(Te, traj)
	assert.Equal(Te, 4, traj.LenFrames())
	assert.Equal(Te, 6, traj.Len())
	assert.True(Te, v3.Equal(req.System[0].Molecule.Coords[0], traj.Frames[0], 0.01))
	assert.Empty(Te, entries(Te, cfg.ScratchDir))
	assert.Empty(Te, entries(Te, cfg.TempDir))

	ok, out2, err := p.Execute(context.Background(), req)
	assert.NoError(Te, err)
	assert.True(Te, ok)
	assert.Equal(Te, out.Summary(), out2.Summary())
}

// Writing the result molecule and reading it back gives the same molecule.
func TestPipelineResultRoundTrip(Te *testing.T) {
	cfg := testConfig(Te)
	r := NewPipeline(cfg, codec.Files{}, WithRunner(&fakeGmx{t: Te, frames: 1})).Run(context.Background(), loadFixture(Te))
	require.Equal(Te, StateDone, r.State)
	mol := r.Result.Molecules[0]
	name := filepath.Join(Te.TempDir(), "final.gro")
	require.NoError(Te, codec.Files{}.WriteMolecule(name, mol))
	mol2, err := codec.Files{}.ReadMolecule(name)
	require.NoError(Te, err)
	assert.Equal(Te, mol.Name, mol2.Name)
	assert.Equal(Te, mol.Names(), mol2.Names())
	assert.True(Te, v3.Equal(mol.Coords[0], mol2.Coords[0], 1e-6))
}

func TestPipelineGrouping(Te *testing.T) {
	cfg := testConfig(Te)
	req := loadFixture(Te)
	req.Trajectory = []string{"solvent", "all"}
	r := NewPipeline(cfg, codec.Files{}, WithRunner(&fakeGmx{t: Te, frames: 2})).Run(context.Background(), req)
	require.Equal(Te, StateDone, r.State)
	require.Len(Te, r.Result.Trajectories, 2)
	assert.Same(Te, r.Result.Trajectories["solvent"], r.Result.Trajectories["all"])
}

func TestPipelineComputeFailure(Te *testing.T) {
	cfg := testConfig(Te)
	m := metrics.New()
	gmx := &fakeGmx{t: Te, fail: "grompp"}
	r := NewPipeline(cfg, codec.Files{}, WithRunner(gmx), WithMetrics(m)).Run(context.Background(), loadFixture(Te))
	assert.Equal(Te, StateFailed, r.State)
	assert.Equal(Te, StateCompute, r.FailedStage)
	assert.Nil(Te, r.Result)
	var se *StageError
	require.ErrorAs(Te, r.Err, &se)
	assert.Equal(Te, StateCompute, se.Stage)
	var ee *ExecutionError
	require.ErrorAs(Te, r.Err, &ee)
	assert.Equal(Te, "grompp", ee.Args[1])
	assert.Equal(Te, []string{"editconf", "grompp"}, gmx.calls)
	assert.Empty(Te, entries(Te, cfg.ScratchDir))
	assert.Empty(Te, entries(Te, cfg.TempDir))
	assert.Equal(Te, "execution", errorKind(r.Err))
}

func TestPipelinePrepFailure(Te *testing.T) {
	cfg := testConfig(Te)
	req := loadFixture(Te)
	req.Engine = "amber"
	gmx := &fakeGmx{t: Te}
	ok, out, err := NewPipeline(cfg, codec.Files{}, WithRunner(gmx)).Execute(context.Background(), req)
	assert.False(Te, ok)
	assert.Nil(Te, out)
	var pe *PreconditionError
	assert.ErrorAs(Te, err, &pe)
	assert.Empty(Te, gmx.calls)
}

func TestPipelineCanceled(Te *testing.T) {
	cfg := testConfig(Te)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gmx := canceledGmx{}
	r := NewPipeline(cfg, codec.Files{}, WithRunner(gmx)).Run(ctx, loadFixture(Te))
	assert.Equal(Te, StateFailed, r.State)
	assert.Equal(Te, StatePrep, r.FailedStage)
	assert.True(Te, errors.Is(r.Err, context.Canceled))
	assert.Equal(Te, "canceled", errorKind(r.Err))
	assert.Empty(Te, entries(Te, cfg.TempDir))
}

// The success of the post stage is that of the bundle it receives.
func TestPostSuccessFollowsBundle(Te *testing.T) {
	cfg := testConfig(Te)
	gmx := &fakeGmx{t: Te, frames: 1}
	_, inb, err := NewPrepStage(cfg, codec.Files{}, WithRunner(gmx)).Execute(context.Background(), loadFixture(Te))
	require.NoError(Te, err)
	_, outb, err := NewComputeStage(cfg, WithRunner(gmx)).Execute(context.Background(), inb)
	require.NoError(Te, err)
	outb.Success = false
	ok, out, err := NewPostStage(cfg, codec.Files{}).Execute(context.Background(), outb)
	assert.NoError(Te, err)
	assert.False(Te, ok)
	require.NotNil(Te, out)
	assert.False(Te, out.Success)
	assert.Empty(Te, entries(Te, cfg.ScratchDir))
}

// A scratch directory that can't be removed is a warning, not a failure.
func TestPostCleanupWarning(Te *testing.T) {
	cfg := testConfig(Te)
	p := NewPipeline(cfg, codec.Files{}, WithRunner(&fakeGmx{t: Te, frames: 1}))
	var tried string
	p.Post.removeAll = func(dir string) error {
		tried = dir
		return &os.PathError{Op: "unlinkat", Path: dir, Err: errors.New("device or resource busy")}
	}
	r := p.Run(context.Background(), loadFixture(Te))
	require.NoError(Te, r.Err)
	require.Equal(Te, StateDone, r.State)
	assert.True(Te, r.Result.Success)
	require.Len(Te, r.Result.Warnings, 1)
	var ce *CleanupError
	require.ErrorAs(Te, r.Result.Warnings[0], &ce)
	assert.Equal(Te, tried, ce.Path)
	assert.Equal(Te, []string{"PostStage.Execute"}, ce.Decorate(""))
	assert.Len(Te, r.Result.Summary().Warnings, 1)
	//the directory is still there, as the removal "failed".
	assert.DirExists(Te, tried)
}

func TestErrorKind(Te *testing.T) {
	assert.Equal(Te, "canceled", errorKind(&StageError{Stage: StateCompute, Err: &ExecutionError{Args: []string{"gmx", "mdrun"}, ExitCode: -1, Err: context.Canceled}}))
	assert.Equal(Te, "canceled", errorKind(&ExecutionError{Err: context.DeadlineExceeded}))
	assert.Equal(Te, "execution", errorKind(&ExecutionError{ExitCode: 1}))
	assert.Equal(Te, "precondition", errorKind(&PreconditionError{Stage: "prep", Msg: "x"}))
	assert.Equal(Te, "codec", errorKind(&CodecError{Op: "read", Path: "x", Err: errors.New("bad")}))
	assert.Equal(Te, "unsuccessful", errorKind(nil))
	assert.Equal(Te, "other", errorKind(errors.New("bad")))
}

func TestPostArchive(Te *testing.T) {
	cfg := testConfig(Te)
	cfg.ArchiveDir = filepath.Join(Te.TempDir(), "archive")
	r := NewPipeline(cfg, codec.Files{}, WithRunner(&fakeGmx{t: Te, frames: 2})).Run(context.Background(), loadFixture(Te))
	require.Equal(Te, StateDone, r.State)
	assert.Empty(Te, r.Result.Warnings)
	assert.ElementsMatch(Te, []string{r.ID + ".gro", r.ID + ".stf"}, entries(Te, cfg.ArchiveDir))
	traj, err := codec.Files{}.ReadTrajectory(filepath.Join(cfg.ArchiveDir, r.ID+".stf"))
	require.NoError(Te, err)
	assert.Equal(Te, 2, traj.LenFrames())
}

func TestPostMissingTrajectory(Te *testing.T) {
	cfg := testConfig(Te)
	scratch := Te.TempDir()
	ok, _, err := NewPostStage(cfg, codec.Files{}).Execute(context.Background(), &OutputBundle{
		Request:        loadFixture(Te),
		TrajectoryFile: filepath.Join(scratch, TrajectoryFile),
		StructureFile:  filepath.Join(scratch, FinalStructure),
		ScratchDir:     scratch,
		Success:        true,
	})
	assert.False(Te, ok)
	var ce *CodecError
	assert.ErrorAs(Te, err, &ce)
	_, err = os.Stat(scratch)
	assert.True(Te, os.IsNotExist(err))
}

func TestComponentSchemas(Te *testing.T) {
	p := NewPipeline(DefaultRunConfig(), codec.Files{})
	assert.Equal(Te, p.Prep.InputSchema(), p.InputSchema())
	assert.Equal(Te, p.Prep.OutputSchema(), p.Compute.InputSchema())
	assert.Equal(Te, p.Compute.OutputSchema(), p.Post.InputSchema())
	assert.Equal(Te, p.Post.OutputSchema(), p.OutputSchema())
}

func TestRunID(Te *testing.T) {
	assert.Equal(Te, "abc", RunIDFrom(WithRunID(context.Background(), "abc")))
	a, b := RunIDFrom(context.Background()), RunIDFrom(context.Background())
	assert.NotEqual(Te, a, b)
	assert.Equal(Te, "12345678", shortID("123456789"))
	assert.Equal(Te, "abc", shortID("abc"))
}
