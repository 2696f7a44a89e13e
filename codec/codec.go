/*
 * codec.go, part of mdgmx.
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

// Package codec translates between the in-memory molecules, force fields and
// trajectories and the files the engine reads and writes. The format is
// chosen from the file extension.
package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmera/mdgmx/chem"
	"github.com/rmera/mdgmx/top"
	"github.com/rmera/mdgmx/traj/stf"
	"github.com/rmera/mdgmx/traj/trr"
)

// Files reads and writes structures (.gro, .pdb, .xyz), topologies (.top, .itp)
// and trajectories (.trr, .stf).
type Files struct {
	//FollowIncludes makes the topology reader open #include'd files. Otherwise the
	//includes are kept and written back as absolute paths when possible.
	FollowIncludes bool
	//Defines are the symbols considered defined for #ifdef blocks in topologies.
	Defines []string
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// UnsupportedError is returned for files with an extension no reader or writer handles.
type UnsupportedError struct {
	Path string
	Kind string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported %s file format: %s", e.Kind, e.Path)
}

// ReadMolecule reads a structure file.
func (F Files) ReadMolecule(path string) (*chem.Molecule, error) {
	var mol *chem.Molecule
	var err error
	switch ext(path) {
	case ".gro":
		mol, err = chem.GroFileRead(path)
	case ".pdb":
		mol, err = chem.PDBFileRead(path)
	case ".xyz":
		mol, err = chem.XYZFileRead(path)
	default:
		return nil, &UnsupportedError{path, "structure"}
	}
	if err != nil {
		return nil, err
	}
	if mol.Name == "" {
		mol.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return mol, nil
}

// WriteMolecule writes the first frame of mol to a structure file.
func (F Files) WriteMolecule(path string, mol *chem.Molecule) error {
	if mol == nil || mol.LenFrames() == 0 {
		return fmt.Errorf("no coordinates to write to %s", path)
	}
	switch ext(path) {
	case ".gro":
		return chem.GroFileWrite(path, mol.Name, mol.Coords[0], mol, mol.Box(0))
	case ".pdb":
		var bf []float64
		if len(mol.Bfactors) > 0 {
			bf = mol.Bfactors[0]
		}
		return chem.PDBFileWrite(path, mol.Coords[0], mol, bf)
	case ".xyz":
		return chem.XYZFileWrite(path, mol.Coords[0], mol)
	}
	return &UnsupportedError{path, "structure"}
}

// ReadForceField reads a Gromacs topology.
func (F Files) ReadForceField(path string) (*top.FF, error) {
	switch ext(path) {
	case ".top", ".itp":
		return top.FileRead(path, F.FollowIncludes, F.Defines...)
	}
	return nil, &UnsupportedError{path, "force field"}
}

// WriteForceField writes a complete topology for a system made of copies of
// the molecule type in ff, as many as needed to cover the atoms in mol.
func (F Files) WriteForceField(path string, ff *top.FF, mol chem.Atomer) error {
	if ext(path) != ".top" {
		return &UnsupportedError{path, "force field"}
	}
	if ff == nil {
		return fmt.Errorf("nil force field for %s", path)
	}
	system := ""
	if m, ok := mol.(*chem.Molecule); ok {
		system = m.Name
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err = ff.WriteTop(f, mol, system); err != nil {
		return fmt.Errorf("writing topology %s: %w", path, err)
	}
	return f.Close()
}

// ReadTrajectory reads a whole trajectory into memory.
func (F Files) ReadTrajectory(path string) (*chem.Trajectory, error) {
	switch ext(path) {
	case ".trr":
		return trr.ReadAll(path)
	case ".stf", ".stz":
		return stf.ReadAll(path)
	}
	return nil, &UnsupportedError{path, "trajectory"}
}

// WriteTrajectory writes all the frames in t.
func (F Files) WriteTrajectory(path string, t *chem.Trajectory) error {
	switch ext(path) {
	case ".trr":
		return trr.WriteAll(path, t)
	case ".stf", ".stz":
		header := map[string]string{}
		if t.Name != "" {
			header["name"] = t.Name
		}
		return stf.WriteAll(path, t, header)
	}
	return &UnsupportedError{path, "trajectory"}
}
