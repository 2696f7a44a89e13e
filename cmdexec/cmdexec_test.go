package cmdexec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEnvAndOutputs(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(in, []byte("data"), 0o644))
	res, err := New().Run(context.Background(), Command{
		Args:            []string{"sh", "-c", "echo $OMP_NUM_THREADS > out.txt; cat " + in + "; echo junk > junk.txt"},
		InFiles:         []string{in},
		TrackedOutFiles: []string{"out.txt"},
		ScratchDir:      dir,
		Env:             map[string]string{"OMP_NUM_THREADS": "3"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "data", res.Stdout)
	assert.False(t, res.CreatedScratch)
	out := filepath.Join(dir, "out.txt")
	assert.Equal(t, out, res.Tracked["out.txt"])
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "3\n", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "junk.txt"))
	assert.FileExists(t, in)
	assert.FileExists(t, filepath.Join(dir, "sh.out"))
}

func TestRunMessy(t *testing.T) {
	root := t.TempDir()
	res, err := New().Run(context.Background(), Command{
		Args:          []string{"sh", "-c", "echo junk > junk.txt"},
		ScratchRoot:   root,
		ScratchPrefix: "test",
		ScratchMessy:  true,
	})
	require.NoError(t, err)
	assert.True(t, res.CreatedScratch)
	assert.Equal(t, root, filepath.Dir(res.ScratchDir))
	assert.Contains(t, filepath.Base(res.ScratchDir), "test_")
	assert.FileExists(t, filepath.Join(res.ScratchDir, "junk.txt"))
}

func TestRunMissingOutput(t *testing.T) {
	dir := t.TempDir()
	res, err := New().Run(context.Background(), Command{
		Args:            []string{"sh", "-c", "true"},
		OutFiles:        []string{"never.gro", "never.tpr"},
		TrackedOutFiles: []string{"never.gro"},
		ScratchDir:      dir,
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"never.gro", "never.tpr"}, res.Missing)
	assert.Empty(t, res.Tracked)
}

// chdir changes the working directory for the rest of the test.
func chdir(t *testing.T, dir string) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestRunRelativeScratch(t *testing.T) {
	work := t.TempDir()
	chdir(t, work)
	require.NoError(t, os.Mkdir("scratch", 0o755))
	res, err := New().Run(context.Background(), Command{
		Args:            []string{"sh", "-c", "pwd > where.txt"},
		TrackedOutFiles: []string{"where.txt"},
		ScratchRoot:     "scratch",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.True(t, filepath.IsAbs(res.ScratchDir))
	assert.True(t, filepath.IsAbs(res.Tracked["where.txt"]))
	data, err := os.ReadFile(res.Tracked["where.txt"])
	require.NoError(t, err)
	//pwd may print a path through symlinks, such as /tmp on macOS.
	got, err := filepath.EvalSymlinks(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(res.ScratchDir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRunExitCode(t *testing.T) {
	res, err := New().Run(context.Background(), Command{
		Args:       []string{"sh", "-c", "echo bad >&2; exit 3"},
		ScratchDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "bad\n", res.Stderr)
}

func TestRunErrors(t *testing.T) {
	_, err := New().Run(context.Background(), Command{})
	assert.Error(t, err)
	_, err = New().Run(context.Background(), Command{Args: []string{"true"}, InFiles: []string{"/nonexistent/file"}, ScratchDir: t.TempDir()})
	assert.Error(t, err)
	_, err = New().Run(context.Background(), Command{Args: []string{"/nonexistent/program"}, ScratchDir: t.TempDir()})
	assert.Error(t, err)
}

func TestRunTimeout(t *testing.T) {
	_, err := New().Run(context.Background(), Command{
		Args:       []string{"sleep", "5"},
		ScratchDir: t.TempDir(),
		Timeout:    100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSubcommand(t *testing.T) {
	assert.Equal(t, "grompp", subcommand([]string{"gmx", "grompp", "-f", "a.mdp"}))
	assert.Equal(t, "gmx", subcommand([]string{"/usr/bin/gmx", "-version"}))
	assert.Equal(t, "sh", subcommand([]string{"sh"}))
}
