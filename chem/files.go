/*
 * files.go, part of mdgmx.
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

//PDB family

// PDBFileRead reads the ATOM and HETATM entries of a PDB file. Every MODEL
// becomes a frame; atom data is only read from the first one.
func PDBFileRead(pdbname string) (*Molecule, error) {
	f, err := os.Open(pdbname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mol, err := PDBRead(f)
	if err != nil {
		return nil, fmt.Errorf("PDBFileRead %s: %w", pdbname, err)
	}
	return mol, nil
}

// PDBRead reads pdb-formatted data from r.
func PDBRead(r io.Reader) (*Molecule, error) {
	pdb := bufio.NewScanner(r)
	atoms := make([]*Atom, 0)
	var frames [][]float64
	var bfacs [][]float64
	current := []float64{}
	currentb := []float64{}
	first := true
	contlines := 0
	for pdb.Scan() {
		contlines++
		line := pdb.Text()
		switch {
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			at, c, bf, err := readPDBLine(line, first)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", contlines, err)
			}
			if first {
				atoms = append(atoms, at)
			}
			current = append(current, c[:]...)
			currentb = append(currentb, bf)
		case strings.HasPrefix(line, "ENDMDL"):
			if len(current) > 0 {
				frames = append(frames, current)
				bfacs = append(bfacs, currentb)
			}
			current, currentb = []float64{}, []float64{}
			if len(atoms) > 0 {
				first = false
			}
		}
	}
	if err := pdb.Err(); err != nil {
		return nil, err
	}
	if len(current) > 0 {
		frames = append(frames, current)
		bfacs = append(bfacs, currentb)
	}
	if len(atoms) == 0 {
		return nil, fmt.Errorf("no atoms found")
	}
	coords := make([]*v3.Matrix, 0, len(frames))
	for i, v := range frames {
		if len(v) != 3*len(atoms) {
			return nil, fmt.Errorf("model %d has %d atoms, expected %d", i, len(v)/3, len(atoms))
		}
		c, err := v3.NewMatrix(v)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	top := NewTopology(atoms)
	top.FillMasses()
	return NewMolecule("", top, coords, bfacs)
}

// readPDBLine parses a valid ATOM or HETATM line of a PDB file. If full is false
// only coordinates and b-factor are read.
func readPDBLine(line string, full bool) (*Atom, [3]float64, float64, error) {
	var c [3]float64
	if len(line) < 54 {
		return nil, c, 0, fmt.Errorf("PDB line too short: %q", line)
	}
	var err error
	for i := 0; i < 3; i++ {
		c[i], err = strconv.ParseFloat(strings.TrimSpace(line[30+8*i:38+8*i]), 64)
		if err != nil {
			return nil, c, 0, err
		}
	}
	var bfactor float64
	if len(line) >= 66 {
		//a missing b-factor is not an error
		bfactor, _ = strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64)
	}
	if !full {
		return nil, c, bfactor, nil
	}
	at := new(Atom)
	at.Het = strings.HasPrefix(line, "HETATM")
	at.ID, err = strconv.Atoi(strings.TrimSpace(line[6:11]))
	if err != nil {
		return nil, c, 0, err
	}
	at.Name = strings.TrimSpace(line[12:16])
	at.MolName = strings.TrimSpace(line[17:20])
	at.Chain = strings.TrimSpace(line[21:22])
	at.MolID, err = strconv.Atoi(strings.TrimSpace(line[22:26]))
	if err != nil {
		return nil, c, 0, err
	}
	if len(line) >= 78 {
		at.Symbol = strings.TrimSpace(line[76:78])
	}
	return at, c, bfactor, nil
}

// PDBFileWrite writes a single-model PDB file with the coordinates coords and the atoms in mol.
func PDBFileWrite(pdbname string, coords *v3.Matrix, mol Atomer, bfact []float64) error {
	out, err := os.Create(pdbname)
	if err != nil {
		return err
	}
	defer out.Close()
	if err = PDBWrite(out, coords, mol, bfact); err != nil {
		return fmt.Errorf("PDBFileWrite %s: %w", pdbname, err)
	}
	return out.Close()
}

// PDBWrite writes coords and the atoms in mol to out, in PDB format.
func PDBWrite(out io.Writer, coords *v3.Matrix, mol Atomer, bfact []float64) error {
	if mol.Len() != coords.NVecs() {
		return fmt.Errorf("%d atoms but %d coordinates", mol.Len(), coords.NVecs())
	}
	w := bufio.NewWriter(out)
	fmt.Fprint(w, "REMARK     WRITTEN WITH MDGMX\n")
	chainprev := ""
	for i := 0; i < mol.Len(); i++ {
		at := mol.Atom(i)
		if i > 0 && at.Chain != chainprev {
			fmt.Fprintln(w, "TER")
		}
		chainprev = at.Chain
		first := "ATOM"
		if at.Het {
			first = "HETATM"
		}
		name := at.Name
		if len(name) < 4 {
			name = " " + name
		}
		chain := at.Chain
		if chain == "" {
			chain = " "
		}
		var bf float64
		if i < len(bfact) {
			bf = bfact[i]
		}
		id := at.ID
		if id <= 0 {
			id = i + 1
		}
		c := coords.Vec(i)
		_, err := fmt.Fprintf(w, "%-6s%5d %-4.4s %3.3s %1.1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s  \n", first, id%100000,
			name, at.MolName, chain, at.MolID%10000, c[0], c[1], c[2], 1.0, bf, at.Symbol)
		if err != nil {
			return err
		}
	}
	fmt.Fprint(w, "END\n")
	return w.Flush()
}

//XYZ family

// XYZFileRead reads the first frame of an xyz file.
func XYZFileRead(xyzname string) (*Molecule, error) {
	f, err := os.Open(xyzname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mol, err := XYZRead(f)
	if err != nil {
		return nil, fmt.Errorf("XYZFileRead %s: %w", xyzname, err)
	}
	return mol, nil
}

// XYZRead reads the first frame of xyz-formatted data from r. The comment
// line is used as the molecule name.
func XYZRead(r io.Reader) (*Molecule, error) {
	xyz := bufio.NewReader(r)
	line, err := xyz.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("Ill formatted XYZ file: %w", err)
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || natoms <= 0 {
		return nil, fmt.Errorf("Ill formatted XYZ file: bad atom number %q", strings.TrimSpace(line))
	}
	comment, err := xyz.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("Ill formatted XYZ file: %w", err)
	}
	atoms := make([]*Atom, natoms)
	coords := make([]float64, 0, natoms*3)
	for i := 0; i < natoms; i++ {
		line, err = xyz.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, fmt.Errorf("Ill formatted XYZ file, atom %d: %w", i, err)
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("Line number %d ill formed", i+2)
		}
		atoms[i] = &Atom{Symbol: fields[0], Name: fields[0], ID: i + 1, MolID: 1}
		for j := 1; j < 4; j++ {
			f, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("Line number %d ill formed: %w", i+2, err)
			}
			coords = append(coords, f)
		}
	}
	c, err := v3.NewMatrix(coords)
	if err != nil {
		return nil, err
	}
	top := NewTopology(atoms)
	top.FillMasses()
	return NewMolecule(strings.TrimSpace(comment), top, []*v3.Matrix{c}, nil)
}

// XYZFileWrite writes coords and the symbols of mol to an XYZ file, which is
// created or overwritten.
func XYZFileWrite(xyzname string, coords *v3.Matrix, mol Atomer) error {
	out, err := os.Create(xyzname)
	if err != nil {
		return err
	}
	defer out.Close()
	if err = XYZWrite(out, coords, mol); err != nil {
		return fmt.Errorf("XYZFileWrite %s: %w", xyzname, err)
	}
	return out.Close()
}

// XYZWrite writes coords and the symbols of mol to out, in XYZ format.
func XYZWrite(out io.Writer, coords *v3.Matrix, mol Atomer) error {
	if mol.Len() != coords.NVecs() {
		return fmt.Errorf("%d atoms but %d coordinates", mol.Len(), coords.NVecs())
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%-4d\n\n", mol.Len())
	for i := 0; i < mol.Len(); i++ {
		c := coords.Vec(i)
		if _, err := fmt.Fprintf(w, "%-2s  %12.6f%12.6f%12.6f\n", mol.Atom(i).Symbol, c[0], c[1], c[2]); err != nil {
			return err
		}
	}
	return w.Flush()
}
