/*
 * compute.go, part of mdgmx.
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

package mdgmx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rmera/mdgmx/cmdexec"
)

// Names of the files the engine writes in the scratch directory.
const (
	RunInputFile   = "run.tpr"
	TrajectoryFile = "traj.trr"
	FinalStructure = "confout.gro"
	EnergyFile     = "ener.edr"
	EngineLogFile  = "md.log"
)

// ComputeStage runs the simulation: grompp builds the run input from the bundle's
// files, then mdrun runs it, both in the bundle's scratch directory.
type ComputeStage struct {
	cfg RunConfig
	options
}

// NewComputeStage returns a ComputeStage using cfg.
func NewComputeStage(cfg RunConfig, opts ...Option) *ComputeStage {
	return &ComputeStage{cfg: cfg, options: newOptions(opts)}
}

func (C *ComputeStage) InputSchema() string  { return SchemaInputBundle }
func (C *ComputeStage) OutputSchema() string { return SchemaOutputBundle }

func (C *ComputeStage) run(ctx context.Context, sub string, c cmdexec.Command) (*cmdexec.Result, error) {
	c.Args = append(append(C.cfg.command(), sub), c.Args...)
	c.Env = C.cfg.env()
	c.ScratchMessy = C.cfg.ScratchMessy
	c.Timeout = C.cfg.Timeout
	res, err := C.runner.Run(ctx, c)
	C.metrics.Command(sub, err == nil && res.Success)
	if err != nil {
		return nil, &ExecutionError{Args: c.Args, ExitCode: -1, Err: err}
	}
	if !res.Success {
		return nil, &ExecutionError{Args: c.Args, ExitCode: res.ExitCode, Missing: res.Missing, Stderr: tail(res.Stderr, 10)}
	}
	return res, nil
}

// Execute runs the engine on the files in the bundle. The input files are
// consumed: they are removed when the stage finishes. The scratch directory
// is kept for PostStage on success, and removed on failure.
func (C *ComputeStage) Execute(ctx context.Context, in *InputBundle) (ok bool, bundle *OutputBundle, err error) {
	const stage = "compute"
	if in == nil {
		return false, nil, &PreconditionError{Stage: stage, Msg: "nil bundle"}
	}
	if !in.Success {
		return false, nil, &PreconditionError{Stage: stage, Msg: "the bundle comes from a failed stage"}
	}
	if in.ScratchDir == "" {
		return false, nil, &PreconditionError{Stage: stage, Msg: "bundle without scratch directory"}
	}
	log := C.logger.With("run", in.RunID, "stage", stage)
	defer func() {
		for _, f := range []string{in.MDPFile, in.TopologyFile, in.StructureFile} {
			if rerr := os.Remove(f); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
				log.Warn("can't remove engine input file", "file", f, "error", rerr)
			}
		}
		if ok {
			return
		}
		if rerr := C.removeAll(in.ScratchDir); rerr != nil {
			log.Warn("can't remove scratch directory", "dir", in.ScratchDir, "error", rerr)
		}
	}()
	start := time.Now()
	_, err = C.run(ctx, "grompp", cmdexec.Command{
		Args:            []string{"-f", in.MDPFile, "-c", in.StructureFile, "-p", in.TopologyFile, "-o", RunInputFile, "-maxwarn", strconv.Itoa(C.cfg.MaxWarn)},
		InFiles:         []string{in.MDPFile, in.StructureFile, in.TopologyFile},
		OutFiles:        []string{RunInputFile},
		TrackedOutFiles: []string{RunInputFile},
		ScratchDir:      in.ScratchDir,
	})
	if err != nil {
		return false, nil, err
	}
	log.Debug("run input built", "elapsed", time.Since(start))
	args := []string{"-s", RunInputFile, "-o", TrajectoryFile, "-c", FinalStructure, "-e", EnergyFile, "-g", EngineLogFile}
	if C.cfg.NCores > 0 {
		args = append(args, "-nt", strconv.Itoa(C.cfg.NCores))
	}
	res, err := C.run(ctx, "mdrun", cmdexec.Command{
		Args:            args,
		InFiles:         []string{filepath.Join(in.ScratchDir, RunInputFile)},
		TrackedOutFiles: []string{TrajectoryFile, FinalStructure},
		ScratchDir:      in.ScratchDir,
	})
	if err != nil {
		return false, nil, err
	}
	log.Info("simulation finished", "elapsed", time.Since(start))
	bundle = &OutputBundle{
		RunID:          in.RunID,
		Request:        in.Request,
		StructureFile:  res.Tracked[FinalStructure],
		TrajectoryFile: res.Tracked[TrajectoryFile],
		ScratchDir:     in.ScratchDir,
		Success:        in.Success,
	}
	return true, bundle, nil
}
