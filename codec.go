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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package mdgmx

import (
	"github.com/rmera/mdgmx/chem"
	"github.com/rmera/mdgmx/top"
)

// Codec translates between in-memory objects and the files the engine uses.
// codec.Files is the implementation that dispatches on file extensions.
type Codec interface {
	ReadMolecule(path string) (*chem.Molecule, error)
	WriteMolecule(path string, mol *chem.Molecule) error
	ReadForceField(path string) (*top.FF, error)
	//WriteForceField writes a complete topology for mol, a system made of
	//copies of the molecule type in ff.
	WriteForceField(path string, ff *top.FF, mol chem.Atomer) error
	ReadTrajectory(path string) (*chem.Trajectory, error)
	WriteTrajectory(path string, t *chem.Trajectory) error
}
