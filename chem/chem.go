/*
 * chem.go, part of mdgmx.
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

// Package chem provides the atom, molecule and trajectory structures exchanged with
// the MD engine, and readers/writers for the structure files it uses (GRO, PDB, XYZ).
// Coordinates are kept in Angstrom.
package chem

import (
	"fmt"

	v3 "github.com/rmera/mdgmx/v3"
)

/**Note: a few functions here panic instead of returning errors. Those are
 * "fundamental" functions: if something goes wrong there, the program is most
 * likely wrong. Panics are related to out-of-bounds access.**/

// Atom contains the atom information except for the coordinates, which are in
// a separate v3.Matrix.
type Atom struct {
	Name    string
	ID      int
	MolName string //residue name
	MolID   int    //residue number
	Chain   string
	Mass    float64
	Charge  float64
	Symbol  string
	Het     bool // is hetatm in the pdb file?
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	n := *A
	return &n
}

/*****Topology type***/

// Topology contains the information about a molecule which is not expected to
// change in time (everything except for coordinates and b-factors).
type Topology struct {
	Atoms []*Atom
}

// NewTopology returns a topology with the given atoms.
func NewTopology(ats []*Atom) *Topology {
	return &Topology{Atoms: ats}
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// Names returns the atom names, in order.
func (T *Topology) Names() []string {
	ret := make([]string, 0, T.Len())
	for _, v := range T.Atoms {
		ret = append(ret, v.Name)
	}
	return ret
}

// CopyAtoms returns a deep copy of the topology.
func (T *Topology) CopyAtoms() *Topology {
	ats := make([]*Atom, 0, T.Len())
	for _, v := range T.Atoms {
		ats = append(ats, v.Copy())
	}
	return &Topology{Atoms: ats}
}

// FillMasses assigns the standard mass to every atom that
// has a known symbol and no mass.
func (T *Topology) FillMasses() {
	for _, v := range T.Atoms {
		if v.Symbol == "" {
			v.Symbol = SymbolFromName(v.Name)
		}
		if v.Mass == 0 {
			v.Mass = Mass(v.Symbol)
		}
	}
}

/**Type Molecule**/

// Molecule contains all the info for a molecule in one or more states. The
// info that is expected to change between states, coordinates, b-factors and
// box vectors, is stored separately from the atomic info.
type Molecule struct {
	*Topology
	Name     string
	Coords   []*v3.Matrix
	Bfactors [][]float64
	Boxes    [][]float64 //row-major box vectors (a, b, c), 9 elements per frame, in Angstrom. May be nil.
}

// NewMolecule makes a molecule with the given topology and coordinates. It
// returns an error if the coordinates don't match the number of atoms.
func NewMolecule(name string, ats *Topology, coords []*v3.Matrix, bfactors [][]float64) (*Molecule, error) {
	if ats == nil {
		return nil, fmt.Errorf("Supplied a nil Topology")
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("Supplied no coordinates")
	}
	mol := &Molecule{Topology: ats, Name: name, Coords: coords, Bfactors: bfactors}
	if err := mol.Corrupted(); err != nil {
		return nil, err
	}
	return mol, nil
}

// Corrupted checks whether the molecule is corrupted, i.e. the
// coordinates don't match the number of atoms. Missing b-factors
// are filled with zeros instead of returning an error.
func (M *Molecule) Corrupted() error {
	for i, c := range M.Coords {
		if c == nil || c.NVecs() != M.Len() {
			return fmt.Errorf("Inconsistent coordinates/atoms in frame %d: Atoms %d", i, M.Len())
		}
		if len(M.Bfactors) <= i {
			M.Bfactors = append(M.Bfactors, make([]float64, M.Len()))
		} else if len(M.Bfactors[i]) < M.Len() {
			M.Bfactors[i] = make([]float64, M.Len())
		}
	}
	return nil
}

// Copy returns a deep copy of the molecule, including coordinates.
func (M *Molecule) Copy() *Molecule {
	if err := M.Corrupted(); err != nil {
		panic(err.Error())
	}
	mol := &Molecule{Topology: M.CopyAtoms(), Name: M.Name}
	for i, c := range M.Coords {
		mol.Coords = append(mol.Coords, c.Copy())
		mol.Bfactors = append(mol.Bfactors, append([]float64(nil), M.Bfactors[i]...))
	}
	for _, b := range M.Boxes {
		mol.Boxes = append(mol.Boxes, append([]float64(nil), b...))
	}
	return mol
}

// Box returns the box vectors for the given frame, or nil if not present.
func (M *Molecule) Box(frame int) []float64 {
	if frame >= len(M.Boxes) {
		return nil
	}
	return M.Boxes[frame]
}

// LenFrames returns the number of frames in the molecule
func (M *Molecule) LenFrames() int {
	return len(M.Coords)
}
