/*
 * gro.go, part of mdgmx.
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

package chem

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/mdgmx/v3"
)

// Gromacs works in nm, we work in A.
const nm2A = 10.0

// GroFileRead reads a Gromacs .gro file. All the frames in the file are read,
// the atom information is taken from the first one.
func GroFileRead(groname string) (*Molecule, error) {
	f, err := os.Open(groname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mol, err := GroRead(f)
	if err != nil {
		return nil, fmt.Errorf("GroFileRead %s: %w", groname, err)
	}
	return mol, nil
}

// GroRead reads gro-formatted data from r. The title of the first frame is
// used as the name of the molecule.
func GroRead(r io.Reader) (*Molecule, error) {
	gro := bufio.NewReader(r)
	var mol *Molecule
	for frame := 0; ; frame++ {
		title, err := gro.ReadString('\n')
		if errors.Is(err, io.EOF) && strings.TrimSpace(title) == "" {
			break
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		line, err := gro.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("frame %d: can't read atom number: %w", frame, err)
		}
		natoms, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || natoms <= 0 {
			return nil, fmt.Errorf("frame %d: ill formatted atom number %q", frame, strings.TrimSpace(line))
		}
		if mol != nil && natoms != mol.Len() {
			return nil, fmt.Errorf("frame %d: %d atoms, but the first frame has %d", frame, natoms, mol.Len())
		}
		readAtoms := mol == nil
		var atoms []*Atom
		if readAtoms {
			atoms = make([]*Atom, 0, natoms)
		}
		coords := v3.Zeros(natoms)
		for i := 0; i < natoms; i++ {
			line, err = gro.ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && line != "") {
				return nil, fmt.Errorf("frame %d, atom %d: %w", frame, i, err)
			}
			at, c, err := groAtomLine(strings.TrimRight(line, "\r\n"))
			if err != nil {
				return nil, fmt.Errorf("frame %d, atom %d: %w", frame, i, err)
			}
			coords.SetVec(i, c[:])
			if readAtoms {
				atoms = append(atoms, at)
			}
		}
		line, err = gro.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, fmt.Errorf("frame %d: can't read box line: %w", frame, err)
		}
		box, err := groBox(line)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
		if readAtoms {
			top := NewTopology(atoms)
			top.FillMasses()
			mol = &Molecule{Topology: top, Name: strings.TrimSpace(title)}
		}
		mol.Coords = append(mol.Coords, coords)
		mol.Boxes = append(mol.Boxes, box)
	}
	if mol == nil {
		return nil, fmt.Errorf("no frames found")
	}
	if err := mol.Corrupted(); err != nil {
		return nil, err
	}
	return mol, nil
}

// groAtomLine parses one fixed-column atom line. The width of the coordinate
// fields is taken from the distance between decimal points, as Gromacs does.
func groAtomLine(line string) (*Atom, [3]float64, error) {
	var c [3]float64
	if len(line) < 39 {
		return nil, c, fmt.Errorf("atom line too short: %q", line)
	}
	var err error
	at := new(Atom)
	at.MolID, err = strconv.Atoi(strings.TrimSpace(line[0:5]))
	if err != nil {
		return nil, c, fmt.Errorf("bad residue number in %q: %w", line, err)
	}
	at.MolName = strings.TrimSpace(line[5:10])
	at.Name = strings.TrimSpace(line[10:15])
	at.ID, err = strconv.Atoi(strings.TrimSpace(line[15:20]))
	if err != nil {
		return nil, c, fmt.Errorf("bad atom number in %q: %w", line, err)
	}
	width := 8
	rest := line[20:]
	if first := strings.IndexByte(rest, '.'); first >= 0 {
		if second := strings.IndexByte(rest[first+1:], '.'); second >= 0 {
			width = second + 1
		}
	}
	for j := 0; j < 3; j++ {
		start, end := j*width, (j+1)*width
		if end > len(rest) {
			return nil, c, fmt.Errorf("atom line too short for coordinates: %q", line)
		}
		c[j], err = strconv.ParseFloat(strings.TrimSpace(rest[start:end]), 64)
		if err != nil {
			return nil, c, fmt.Errorf("bad coordinate in %q: %w", line, err)
		}
		c[j] *= nm2A
	}
	return at, c, nil
}

// groBox parses the box line, which has either 3 (rectangular) or 9 fields,
// in the Gromacs order v1(x) v2(y) v3(z) v1(y) v1(z) v2(x) v2(z) v3(x) v3(y).
// It returns the row-major box matrix, in A.
func groBox(line string) ([]float64, error) {
	f := strings.Fields(line)
	if len(f) != 3 && len(f) != 9 {
		return nil, fmt.Errorf("ill formatted box line: %q", line)
	}
	v := make([]float64, 9)
	for i, s := range f {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("ill formatted box line: %q", line)
		}
		v[i] = n * nm2A
	}
	box := make([]float64, 9)
	box[0], box[4], box[8] = v[0], v[1], v[2]
	box[1], box[2], box[3], box[5], box[6], box[7] = v[3], v[4], v[5], v[6], v[7], v[8]
	return box, nil
}

// GroFileWrite writes the frame coords of mol to a gro file. If box is nil, a
// rectangular box that just contains the coordinates is written.
func GroFileWrite(groname, title string, coords *v3.Matrix, mol Atomer, box []float64) error {
	out, err := os.Create(groname)
	if err != nil {
		return err
	}
	defer out.Close()
	if err = GroWrite(out, title, coords, mol, box); err != nil {
		return fmt.Errorf("GroFileWrite %s: %w", groname, err)
	}
	return out.Close()
}

// GroWrite writes coords and the atoms in mol to out, in gro format.
func GroWrite(out io.Writer, title string, coords *v3.Matrix, mol Atomer, box []float64) error {
	if mol.Len() != coords.NVecs() {
		return fmt.Errorf("%d atoms but %d coordinates", mol.Len(), coords.NVecs())
	}
	if mol.Len() == 0 {
		return fmt.Errorf("no atoms to write")
	}
	if title == "" {
		title = "Written with mdgmx"
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%s\n%5d\n", strings.ReplaceAll(title, "\n", " "), mol.Len())
	for i := 0; i < mol.Len(); i++ {
		at := mol.Atom(i)
		id := at.ID
		if id <= 0 {
			id = i + 1
		}
		resname := at.MolName
		if resname == "" {
			resname = "UNK"
		}
		c := coords.Vec(i)
		_, err := fmt.Fprintf(w, "%5d%-5.5s%5.5s%5d%8.3f%8.3f%8.3f\n", at.MolID%100000, resname, at.Name, id%100000,
			c[0]/nm2A, c[1]/nm2A, c[2]/nm2A)
		if err != nil {
			return err
		}
	}
	if len(box) < 9 {
		min, max := coords.Bounds()
		box = make([]float64, 9)
		box[0], box[4], box[8] = max[0]-min[0], max[1]-min[1], max[2]-min[2]
	}
	fmt.Fprintf(w, "%10.5f%10.5f%10.5f", box[0]/nm2A, box[4]/nm2A, box[8]/nm2A)
	if box[1] != 0 || box[2] != 0 || box[3] != 0 || box[5] != 0 || box[6] != 0 || box[7] != 0 {
		fmt.Fprintf(w, "%10.5f%10.5f%10.5f%10.5f%10.5f%10.5f", box[1]/nm2A, box[2]/nm2A, box[3]/nm2A,
			box[5]/nm2A, box[6]/nm2A, box[7]/nm2A)
	}
	fmt.Fprint(w, "\n")
	return w.Flush()
}
