/*
 * prep.go, part of mdgmx.
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
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rmera/mdgmx/cmdexec"
	"github.com/rmera/mdgmx/mdp"
	"github.com/rmera/mdgmx/schema"
)

// PrepStage builds the engine input files for a request: the parameter file,
// the topology and the boxed structure.
type PrepStage struct {
	cfg   RunConfig
	codec Codec
	options
}

// NewPrepStage returns a PrepStage using cfg and writing files with codec.
func NewPrepStage(cfg RunConfig, codec Codec, opts ...Option) *PrepStage {
	return &PrepStage{cfg: cfg, codec: codec, options: newOptions(opts)}
}

func (P *PrepStage) InputSchema() string  { return SchemaInputMD }
func (P *PrepStage) OutputSchema() string { return SchemaInputBundle }

// tempFile creates an empty temporary file and returns its absolute name.
// The engine runs in a scratch directory, so relative names would not reach it.
func tempFile(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err = f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		os.Remove(name)
		return "", err
	}
	return abs, nil
}

// Execute checks the request and writes the engine input files. The structure
// is boxed with "gmx editconf" in a new scratch directory, which the returned
// bundle carries. If anything fails, every file created so far is removed.
func (P *PrepStage) Execute(ctx context.Context, in *schema.InputMD) (ok bool, bundle *InputBundle, err error) {
	const stage = "prep"
	if in == nil {
		return false, nil, &PreconditionError{Stage: stage, Msg: "nil request"}
	}
	if in.Engine != P.cfg.Engine {
		return false, nil, &PreconditionError{Stage: stage, Msg: "request for engine " + strconv.Quote(in.Engine) + ", this adapter runs " + strconv.Quote(P.cfg.Engine)}
	}
	if err = in.Validate(); err != nil {
		return false, nil, &PreconditionError{Stage: stage, Msg: "invalid request", Err: err}
	}
	entry, err := in.Single()
	if err != nil {
		return false, nil, &PreconditionError{Stage: stage, Msg: "invalid system", Err: err}
	}
	if entry.Molecule == nil || entry.ForceField == nil {
		return false, nil, &PreconditionError{Stage: stage, Msg: "system entry without molecule or force field"}
	}
	runID := RunIDFrom(ctx)
	log := P.logger.With("run", runID, "stage", stage)

	var created []string
	var scratch string
	defer func() {
		if ok {
			return
		}
		for _, f := range created {
			if rerr := os.Remove(f); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
				log.Warn("can't remove temporary file", "file", f, "error", rerr)
			}
		}
		if scratch != "" {
			if rerr := P.removeAll(scratch); rerr != nil {
				log.Warn("can't remove scratch directory", "dir", scratch, "error", rerr)
			}
		}
	}()

	mdpFile, err := mdp.Merge(in).WriteFile(P.cfg.TempDir, "mdgmx_*.mdp")
	if err != nil {
		return false, nil, &CodecError{Op: "write", Path: "parameter file", Err: err}
	}
	created = append(created, mdpFile)
	groFile, err := tempFile(P.cfg.TempDir, "mdgmx_*.gro")
	if err != nil {
		return false, nil, &CodecError{Op: "write", Path: "structure file", Err: err}
	}
	created = append(created, groFile)
	//the unboxed structure is only needed by editconf.
	defer func() {
		if rerr := os.Remove(groFile); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			log.Warn("can't remove temporary file", "file", groFile, "error", rerr)
		}
	}()
	if err = P.codec.WriteMolecule(groFile, entry.Molecule); err != nil {
		return false, nil, &CodecError{Op: "write", Path: groFile, Err: err}
	}
	topFile, err := tempFile(P.cfg.TempDir, "mdgmx_*.top")
	if err != nil {
		return false, nil, &CodecError{Op: "write", Path: "topology file", Err: err}
	}
	created = append(created, topFile)
	if err = P.codec.WriteForceField(topFile, entry.ForceField, entry.Molecule); err != nil {
		return false, nil, &CodecError{Op: "write", Path: topFile, Err: err}
	}
	boxedFile, err := tempFile(P.cfg.TempDir, "mdgmx_*_boxed.gro")
	if err != nil {
		return false, nil, &CodecError{Op: "write", Path: "boxed structure file", Err: err}
	}
	created = append(created, boxedFile)

	args := append(P.cfg.command(), "editconf", "-f", groFile, "-d", strconv.FormatFloat(P.cfg.BoxDistance, 'f', -1, 64), "-o", boxedFile)
	start := time.Now()
	res, err := P.runner.Run(ctx, cmdexec.Command{
		Args:            args,
		InFiles:         []string{groFile, topFile},
		TrackedOutFiles: []string{boxedFile},
		ScratchRoot:     P.cfg.ScratchDir,
		ScratchPrefix:   "mdgmx_" + shortID(runID),
		Env:             P.cfg.env(),
		ScratchMessy:    true,
		Timeout:         P.cfg.Timeout,
	})
	if res != nil && res.CreatedScratch {
		scratch = res.ScratchDir
	}
	P.metrics.Command("editconf", err == nil && res.Success)
	if err != nil {
		return false, nil, &ExecutionError{Args: args, ExitCode: -1, Err: err}
	}
	if !res.Success {
		return false, nil, &ExecutionError{Args: args, ExitCode: res.ExitCode, Missing: res.Missing, Stderr: tail(res.Stderr, 10)}
	}
	//the boxed file was created empty above, so its presence alone proves nothing.
	if fi, serr := os.Stat(boxedFile); serr != nil || fi.Size() == 0 {
		return false, nil, &ExecutionError{Args: args, ExitCode: res.ExitCode, Missing: []string{boxedFile}, Stderr: tail(res.Stderr, 10)}
	}
	log.Debug("structure boxed", "boxed", boxedFile, "scratch", res.ScratchDir, "elapsed", time.Since(start))
	bundle = &InputBundle{
		RunID:         runID,
		Request:       in,
		MDPFile:       mdpFile,
		TopologyFile:  topFile,
		StructureFile: boxedFile,
		ScratchDir:    res.ScratchDir,
		Success:       true,
	}
	log.Info("engine input ready", slog.Group("files", "mdp", mdpFile, "top", topFile, "gro", boxedFile))
	return true, bundle, nil
}
