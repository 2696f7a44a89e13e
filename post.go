/*
 * post.go, part of mdgmx.
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
	"os"
	"path/filepath"

	"github.com/rmera/mdgmx/chem"
	"github.com/rmera/mdgmx/schema"
)

// PostStage reads the engine results into a schema.OutputMD and removes the
// scratch directory.
type PostStage struct {
	cfg   RunConfig
	codec Codec
	options
}

// NewPostStage returns a PostStage using cfg and reading files with codec.
func NewPostStage(cfg RunConfig, codec Codec, opts ...Option) *PostStage {
	return &PostStage{cfg: cfg, codec: codec, options: newOptions(opts)}
}

func (P *PostStage) InputSchema() string  { return SchemaOutputBundle }
func (P *PostStage) OutputSchema() string { return SchemaOutputMD }

// Execute reads the final structure and the trajectory. The trajectory is
// associated with every molecule name of the request or, if the request
// gives an explicit trajectory grouping, with every group name.
// The scratch directory is always removed; if that fails, the problem is
// added to the result's warnings.
func (P *PostStage) Execute(ctx context.Context, in *OutputBundle) (ok bool, out *schema.OutputMD, err error) {
	const stage = "post"
	if in == nil || in.Request == nil {
		return false, nil, &PreconditionError{Stage: stage, Msg: "nil bundle or request"}
	}
	log := P.logger.With("run", in.RunID, "stage", stage)
	defer func() {
		if in.ScratchDir == "" {
			return
		}
		if rerr := P.removeAll(in.ScratchDir); rerr != nil {
			cerr := &CleanupError{Path: in.ScratchDir, Err: rerr}
			cerr.Decorate("PostStage.Execute")
			log.Warn("can't remove scratch directory", "dir", in.ScratchDir, "error", rerr)
			if out != nil {
				out.Warnings = append(out.Warnings, cerr)
			}
		}
	}()
	traj, err := P.codec.ReadTrajectory(in.TrajectoryFile)
	if err != nil {
		return false, nil, &CodecError{Op: "read", Path: in.TrajectoryFile, Err: err}
	}
	mol, err := P.codec.ReadMolecule(in.StructureFile)
	if err != nil {
		return false, nil, &CodecError{Op: "read", Path: in.StructureFile, Err: err}
	}
	names := in.Request.MolNames()
	if len(names) > 0 {
		mol.Name = names[0]
	}
	groups := in.Request.Trajectory
	if groups == nil {
		groups = names
	}
	trajs := make(map[string]*chem.Trajectory, len(groups))
	for _, g := range groups {
		trajs[g] = traj
	}
	out = &schema.OutputMD{
		SchemaName:    in.Request.SchemaName,
		SchemaVersion: in.Request.SchemaVersion,
		Request:       in.Request,
		Molecules:     []*chem.Molecule{mol},
		Trajectories:  trajs,
		Success:       in.Success,
	}
	if P.cfg.ArchiveDir != "" {
		if aerr := P.archive(in.RunID, mol, traj); aerr != nil {
			log.Warn("can't archive the results", "dir", P.cfg.ArchiveDir, "error", aerr)
			out.Warnings = append(out.Warnings, aerr)
		}
	}
	log.Info("results read", "frames", traj.LenFrames(), "atoms", mol.Len(), "success", out.Success)
	return out.Success, out, nil
}

// archive copies the final structure and the trajectory, compressed, to the
// archive directory, named after the run.
func (P *PostStage) archive(runID string, mol *chem.Molecule, traj *chem.Trajectory) error {
	if err := os.MkdirAll(P.cfg.ArchiveDir, 0o755); err != nil {
		return &CodecError{Op: "write", Path: P.cfg.ArchiveDir, Err: err}
	}
	gro := filepath.Join(P.cfg.ArchiveDir, runID+".gro")
	if err := P.codec.WriteMolecule(gro, mol); err != nil {
		return &CodecError{Op: "write", Path: gro, Err: err}
	}
	stf := filepath.Join(P.cfg.ArchiveDir, runID+".stf")
	if err := P.codec.WriteTrajectory(stf, traj); err != nil {
		return &CodecError{Op: "write", Path: stf, Err: err}
	}
	return nil
}
