/*
 * cmdexec.go, part of mdgmx.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

// Package cmdexec runs external programs in a scratch directory, checking
// their declared input and output files.
package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rmera/mdgmx/logging"
)

// Command describes one invocation of an external program.
type Command struct {
	Args            []string //program and its arguments
	InFiles         []string //files that must exist before the program runs
	OutFiles        []string //files the program must produce, relative names are in the scratch dir
	TrackedOutFiles []string //outputs whose paths are reported back, and never removed
	ScratchDir      string   //working directory; a new one is created if empty
	ScratchRoot     string   //where a new scratch dir is created; the default temporary directory if empty
	ScratchPrefix   string   //prefix for the name of a created scratch dir
	Env             map[string]string
	ScratchMessy    bool //keep the files the program created besides the tracked outputs
	Timeout         time.Duration
}

// Result is the outcome of a command that could be started.
type Result struct {
	Success        bool //exit status 0 and all outputs present
	ScratchDir     string
	CreatedScratch bool //was the scratch dir created for this call?
	Stdout         string
	Stderr         string
	ExitCode       int
	Tracked        map[string]string //tracked output name -> absolute path
	Missing        []string          //declared outputs not found after the run
}

// Runner runs commands. Errors are returned for commands that couldn't be started
// or didn't finish in time; a program that ran and failed gives a Result with
// Success false.
type Runner interface {
	Run(ctx context.Context, c Command) (*Result, error)
}

// Exec is the Runner that starts operating-system processes.
type Exec struct {
	logger *slog.Logger
}

// Option configures an Exec.
type Option func(*Exec)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exec) {
		e.logger = l
	}
}

// New returns an Exec runner.
func New(opts ...Option) *Exec {
	e := &Exec{logger: logging.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// subcommand gives the name used for the files with the captured output.
func subcommand(args []string) string {
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") && !strings.ContainsAny(args[1], "/ ") {
		return args[1]
	}
	return filepath.Base(args[0])
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func listFiles(dir string) (map[string]bool, error) {
	ret := make(map[string]bool)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			ret[path] = true
		}
		return nil
	})
	return ret, err
}

// Run executes c. See Command and Runner.
func (e *Exec) Run(ctx context.Context, c Command) (*Result, error) {
	if len(c.Args) == 0 {
		return nil, errors.New("empty command")
	}
	for _, f := range c.InFiles {
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("input file for %s: %w", c.Args[0], err)
		}
	}
	res := &Result{ScratchDir: c.ScratchDir, ExitCode: -1, Tracked: make(map[string]string)}
	if res.ScratchDir == "" {
		prefix := c.ScratchPrefix
		if prefix == "" {
			prefix = "mdgmx"
		}
		dir, err := os.MkdirTemp(c.ScratchRoot, prefix+"_")
		if err != nil {
			return nil, fmt.Errorf("creating scratch directory: %w", err)
		}
		res.ScratchDir, res.CreatedScratch = dir, true
	} else if err := os.MkdirAll(res.ScratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	//the program runs in the scratch dir, so the paths reported back must not depend on ours.
	abs, err := filepath.Abs(res.ScratchDir)
	if err != nil {
		if res.CreatedScratch {
			os.RemoveAll(res.ScratchDir)
		}
		return nil, fmt.Errorf("scratch directory: %w", err)
	}
	res.ScratchDir = abs
	var before map[string]bool
	if !c.ScratchMessy {
		if before, err = listFiles(res.ScratchDir); err != nil {
			return nil, fmt.Errorf("listing scratch directory: %w", err)
		}
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = res.ScratchDir
	env := make([]string, 0, len(c.Env))
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	slices.Sort(env)
	cmd.Env = append(cmd.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	e.logger.Debug("running command", "args", strings.Join(c.Args, " "), "dir", res.ScratchDir)
	err = cmd.Run()
	res.Stdout, res.Stderr = stdout.String(), stderr.String()
	if cerr := ctx.Err(); cerr != nil {
		return res, fmt.Errorf("%s: %w", c.Args[0], cerr)
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("starting %s: %w", c.Args[0], err)
	}
	seen := make(map[string]bool)
	for _, o := range append(slices.Clone(c.OutFiles), c.TrackedOutFiles...) {
		if seen[o] {
			continue
		}
		seen[o] = true
		if _, serr := os.Stat(resolve(res.ScratchDir, o)); serr != nil {
			res.Missing = append(res.Missing, o)
		}
	}
	keep := make(map[string]bool)
	for _, t := range c.TrackedOutFiles {
		p := resolve(res.ScratchDir, t)
		keep[p] = true
		if !slices.Contains(res.Missing, t) {
			res.Tracked[t] = p
		}
	}
	res.Success = res.ExitCode == 0 && len(res.Missing) == 0
	if !c.ScratchMessy {
		e.clean(res.ScratchDir, before, keep)
	}
	sub := subcommand(c.Args)
	for ext, data := range map[string]string{".out": res.Stdout, ".err": res.Stderr} {
		if werr := os.WriteFile(filepath.Join(res.ScratchDir, sub+ext), []byte(data), 0o644); werr != nil {
			e.logger.Warn("couldn't save program output", "file", sub+ext, "error", werr)
		}
	}
	e.logger.Debug("command finished", "args", strings.Join(c.Args, " "), "exit", res.ExitCode,
		"success", res.Success, "elapsed", time.Since(start))
	return res, nil
}

// clean removes the files in dir that are not in before nor in keep.
func (e *Exec) clean(dir string, before, keep map[string]bool) {
	after, err := listFiles(dir)
	if err != nil {
		e.logger.Warn("couldn't list scratch directory", "dir", dir, "error", err)
		return
	}
	for f := range after {
		if before[f] || keep[f] {
			continue
		}
		if err = os.Remove(f); err != nil {
			e.logger.Warn("couldn't remove scratch file", "file", f, "error", err)
		}
	}
}
