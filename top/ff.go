/*
 * ff.go, part of mdgmx.
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

package top

import (
	"math"
)

func sigmaepsilonToc6c12(sigma, e float64) (c6 float64, c12 float64) {
	return 4 * e * math.Pow(sigma, 6), e * 4 * (math.Pow(sigma, 12))
}

func c6c12ToSigmaepsilon(c6, c12 float64) (sigma float64, epsilon float64) {
	if c6 == 0 || c12 == 0 {
		return 0, 0
	}
	return math.Pow(c12/c6, 1.0/6.0), (c6 * c6) / (4 * c12)
}

// FF is a Gromacs force field for one molecule type, plus the
// global parameters (defaults, atom types) needed to use it.
// Parameters are kept in Gromacs units. The atom indexes in terms are 1-based,
// as in the topology file.
type FF struct {
	Name          string //moleculetype name
	NrExcl        int
	SigmaEpsilon  bool //are LJ terms using sigma/epsilon, or C6/C12?
	Defaults      *Defaults
	Includes      []string //#include lines that were not followed, written back verbatim.
	ATypes        []*AtomType
	LJ            []*LJPair
	Atoms         []*Atom
	Bonds         []*Term
	Pairs         []*Term
	Constraints   []*Term
	Angles        []*Term
	Dihedrals     []*Term
	Exclusions    [][]int
	Raw           []*Section //sections this package doesn't parse, such as settles.
	Dir           string     //directory used to resolve relative #include files.
	currentHeader string
	molTypes      int
}

// NewFF returns an empty force field. Sigma/epsilon is the default
// form for LJ terms.
func NewFF(name string, SigmaEpsilon ...bool) *FF {
	se := true
	if len(SigmaEpsilon) > 0 {
		se = SigmaEpsilon[0]
	}
	return &FF{Name: name, NrExcl: 3, SigmaEpsilon: se}
}

// Len returns the number of atoms in the molecule type.
func (F *FF) Len() int {
	return len(F.Atoms)
}

// Defaults is the content of the [ defaults ] section.
type Defaults struct {
	NbFunc   int
	CombRule int
	GenPairs string
	FudgeLJ  float64
	FudgeQQ  float64
}

// Atom is one line of the [ atoms ] section.
type Atom struct {
	ID      int
	Type    string
	MolID   int
	MolName string
	Name    string
	CGNr    int
	Charge  float64
	Mass    float64 //0 means "take it from the atom type"
}

type AtomType struct {
	Name         string
	AtNum        int
	Mass         float64
	Charge       float64
	Ptype        string
	C6           float64
	C12          float64
	SigmaEpsilon bool
}

type LJPair struct {
	Names        [2]string
	FuncType     int
	C6           float64
	C12          float64
	SigmaEpsilon bool
}

// Term is a bonded interaction: bond, pair, constraint, angle or dihedral.
type Term struct {
	IDs      []int
	FuncType int
	Params   []float64
}

// Section holds the data lines of a header that is not parsed.
type Section struct {
	Header string
	Lines  []string
}
