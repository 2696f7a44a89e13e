/*
 * groio.go, part of mdgmx.
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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rmera/mdgmx/chem"
)

type cond struct {
	reading bool
}

func newCond() *cond {
	c := new(cond)
	c.reading = true
	return c
}

// a function to read conditional parts of gromacs topologies
// depending on the defined flags that should be in 'defines'
func (c *cond) read(line string, defines []string) bool {
	f := fi(line)
	switch {
	case strings.HasPrefix(line, "#ifdef") && len(f) > 1:
		c.reading = slices.Contains(defines, f[1])
		return false
	case strings.HasPrefix(line, "#ifndef") && len(f) > 1:
		c.reading = !slices.Contains(defines, f[1])
		return false
	case strings.HasPrefix(line, "#else"):
		c.reading = !c.reading
		return false
	case strings.HasPrefix(line, "#endif"):
		c.reading = true
		return false
	}
	return c.reading
}

// bonded terms and the number of atoms each of them involves.
var termAtoms = map[string]int{
	"bonds":       2,
	"pairs":       2,
	"constraints": 2,
	"angles":      3,
	"dihedrals":   4,
}

//The high-level functions

// FileRead reads a Gromacs itp/top file into a new FF. Relative #include
// statements are resolved from the directory of the file, and followed only
// if followIncludes is true.
func FileRead(name string, followIncludes bool, defines ...string) (*FF, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	F := NewFF("")
	F.Dir = filepath.Dir(name)
	if err = F.Fill(bufio.NewReader(f), followIncludes, defines...); err != nil {
		return nil, fmt.Errorf("top.FileRead %s: %w", name, err)
	}
	return F, nil
}

// Fill will fill the receiver with data from the given StringReader which must be
// in Gromacs itp/top format. If non bonded (Lennard-Jones) terms are present it
// will interpret them as sigma/epsilon or C6/C12 according to the [ defaults ] section.
// If followIncludes is true, #include statements will trigger opening and reading the included file(s),
// otherwise they are kept in F.Includes.
// Only one [ moleculetype ] is supported.
func (F *FF) Fill(r StringReader, followIncludes bool, defines ...string) error {
	var err error
	var s string
	read := newCond()
	h := newTopHeader()
	for s, err = r.ReadString('\n'); err == nil || (errors.Is(err, io.EOF) && s != ""); s, err = r.ReadString('\n') {
		last := err != nil
		s = cleanString(s)
		if s == "" || !read.read(s, defines) {
			if last {
				break
			}
			continue
		}
		if strings.HasPrefix(s, "#include") {
			if ferr := F.include(s, followIncludes, defines); ferr != nil {
				return ferr
			}
		} else if strings.HasPrefix(s, "#") {
			//#define and friends are not supported
		} else if h.Is(s) {
			F.currentHeader = h.Which(s)
			if F.currentHeader == "moleculetype" {
				F.molTypes++
			}
		} else if perr := F.fillLine(s); perr != nil {
			return fmt.Errorf("Couldn't read header %s. Line: %s. Error: %w", F.currentHeader, s, perr)
		}
		if last {
			break
		}
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return err
}

func (F *FF) include(s string, follow bool, defines []string) error {
	f := fi(s)
	fname := strings.Trim(f[len(f)-1], "\"'<>")
	if !follow {
		F.Includes = append(F.Includes, fname)
		return nil
	}
	if !filepath.IsAbs(fname) && F.Dir != "" {
		fname = filepath.Join(F.Dir, fname)
	}
	file, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("Failed to include file: %s. Error: %w", fname, err)
	}
	defer file.Close()
	header := F.currentHeader
	if err = F.Fill(bufio.NewReader(file), follow, defines...); err != nil {
		return fmt.Errorf("Failed to include file: %s. Error: %w", fname, err)
	}
	F.currentHeader = header
	return nil
}

func (F *FF) fillLine(s string) error {
	var err error
	switch F.currentHeader {
	case "defaults":
		F.Defaults, err = DefaultsFromGro(s)
		if err == nil {
			F.SigmaEpsilon = F.Defaults.CombRule != 1
		}
	case "atomtypes":
		var att *AtomType
		att, err = AtomTypeFromGro(s, F.SigmaEpsilon)
		F.ATypes = append(F.ATypes, att)
	case "nonbond":
		var LJ *LJPair
		LJ, err = LJPairFromGro(s, F.SigmaEpsilon)
		F.LJ = append(F.LJ, LJ)
	case "moleculetype":
		f := fi(s)
		F.Name = f[0]
		if len(f) > 1 {
			F.NrExcl, err = strconv.Atoi(f[1])
		}
	case "atoms":
		if F.molTypes > 1 {
			return fmt.Errorf("only one moleculetype per force field is supported")
		}
		var at *Atom
		at, err = AtomFromGro(s)
		F.Atoms = append(F.Atoms, at)
	case "bonds", "pairs", "constraints", "angles", "dihedrals":
		var T *Term
		T, err = TermFromGro(s, F.currentHeader)
		F.addTerm(F.currentHeader, T)
	case "exclusions":
		var ex []int
		ex, err = parseints(fi(s)...)
		F.Exclusions = append(F.Exclusions, ex)
	case "system", "molecules", "":
		//ignored, the system is built from the molecule when writing.
	default:
		F.addRaw(F.currentHeader, s)
	}
	return err
}

func (F *FF) addTerm(header string, T *Term) {
	switch header {
	case "bonds":
		F.Bonds = append(F.Bonds, T)
	case "pairs":
		F.Pairs = append(F.Pairs, T)
	case "constraints":
		F.Constraints = append(F.Constraints, T)
	case "angles":
		F.Angles = append(F.Angles, T)
	case "dihedrals":
		F.Dihedrals = append(F.Dihedrals, T)
	}
}

func (F *FF) addRaw(header, s string) {
	for _, v := range F.Raw {
		if v.Header == header {
			v.Lines = append(v.Lines, s)
			return
		}
	}
	F.Raw = append(F.Raw, &Section{Header: header, Lines: []string{s}})
}

// WriteTop writes a complete Gromacs topology for a system made of copies of
// the molecule type in F, as many as needed to account for all the atoms in mol.
// It returns an error if mol's atoms are not a whole number of copies.
func (F *FF) WriteTop(out io.Writer, mol chem.Atomer, system string) (err error) {
	if F.Len() == 0 {
		return fmt.Errorf("force field %s has no atoms", F.Name)
	}
	if mol.Len() == 0 || mol.Len()%F.Len() != 0 {
		return fmt.Errorf("molecule has %d atoms, not a multiple of the %d in force field %s", mol.Len(), F.Len(), F.Name)
	}
	nmol := mol.Len() / F.Len()
	name := F.Name
	if name == "" {
		name = "MOL"
	}
	if system == "" {
		system = name
	}
	r := bufio.NewWriter(out)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	_, err = r.WriteString("; Written by mdgmx\n\n")
	qerr(err)
	for _, v := range F.Includes {
		inc := v
		if !filepath.IsAbs(inc) && F.Dir != "" {
			if _, serr := os.Stat(filepath.Join(F.Dir, inc)); serr == nil {
				inc, _ = filepath.Abs(filepath.Join(F.Dir, inc))
			}
		}
		_, err = r.WriteString(sf("#include \"%s\"\n", inc))
		qerr(err)
	}
	def := F.Defaults
	if def == nil && len(F.Includes) == 0 {
		def = &Defaults{NbFunc: 1, CombRule: 2, GenPairs: "yes", FudgeLJ: 0.5, FudgeQQ: 0.8333}
		if !F.SigmaEpsilon {
			def.CombRule = 1
		}
	}
	if def != nil {
		_, err = r.WriteString("\n[ defaults ]\n" + def.ToGro())
		qerr(err)
	}
	if len(F.ATypes) > 0 {
		_, err = r.WriteString("\n[ atomtypes ]\n")
		qerr(err)
		qerr(printGro(r, F.ATypes))
	}
	if len(F.LJ) > 0 {
		_, err = r.WriteString("\n[ nonbond_params ]\n")
		qerr(err)
		qerr(printGro(r, F.LJ))
	}
	_, err = r.WriteString(sf("\n[ moleculetype ]\n%s %d\n", name, F.NrExcl))
	qerr(err)
	_, err = r.WriteString("\n[ atoms ]\n")
	qerr(err)
	qerr(printGro(r, F.Atoms))
	terms := []struct {
		h string
		t []*Term
	}{{"bonds", F.Bonds}, {"pairs", F.Pairs}, {"constraints", F.Constraints}, {"angles", F.Angles}, {"dihedrals", F.Dihedrals}}
	for _, v := range terms {
		if len(v.t) == 0 {
			continue
		}
		_, err = r.WriteString(sf("\n[ %s ]\n", v.h))
		qerr(err)
		qerr(printGro(r, v.t))
	}
	if len(F.Exclusions) > 0 {
		_, err = r.WriteString("\n[ exclusions ]\n")
		qerr(err)
		for _, v := range F.Exclusions {
			_, err = r.WriteString(exclusion(v).ToGro())
			qerr(err)
		}
	}
	for _, v := range F.Raw {
		_, err = r.WriteString(sf("\n[ %s ]\n%s\n", v.Header, strings.Join(v.Lines, "\n")))
		qerr(err)
	}
	_, err = r.WriteString(sf("\n[ system ]\n%s\n\n[ molecules ]\n%s %d\n", system, name, nmol))
	qerr(err)
	return r.Flush()
}

type groer interface {
	ToGro() string
}

func printGro[G ~[]E, E groer](r io.StringWriter, g G) error {
	for _, v := range g {
		if _, e := r.WriteString(v.ToGro()); e != nil {
			return e
		}
	}
	return nil
}

type exclusion []int

func (e exclusion) ToGro() string {
	ret := make([]string, 0, len(e))
	for _, v := range e {
		ret = append(ret, sf("%4d", v))
	}
	return strings.Join(ret, " ") + "\n"
}

// DefaultsFromGro reads a [ defaults ] line.
func DefaultsFromGro(s string) (*Defaults, error) {
	f := fi(cleanString(s))
	if len(f) < 2 {
		return nil, fmt.Errorf("ill-formatted defaults line: %s", s)
	}
	ints, err := parseints(f[:2]...)
	if err != nil {
		return nil, err
	}
	d := &Defaults{NbFunc: ints[0], CombRule: ints[1], GenPairs: "no", FudgeLJ: 1, FudgeQQ: 1}
	if len(f) > 2 {
		d.GenPairs = f[2]
	}
	if len(f) > 4 {
		fl, err := parsefloats(f[3:5]...)
		if err != nil {
			return nil, err
		}
		d.FudgeLJ, d.FudgeQQ = fl[0], fl[1]
	}
	return d, nil
}

func (D *Defaults) ToGro() string {
	return sf("%d %d %s %g %g\n", D.NbFunc, D.CombRule, D.GenPairs, D.FudgeLJ, D.FudgeQQ)
}

// AtomFromGro reads a line from the [ atoms ] section.
func AtomFromGro(s string) (at *Atom, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s", r)
		}
	}()
	l := fi(cleanString(s))
	if len(l) < 7 {
		return nil, fmt.Errorf("atom line with %d fields, at least 7 expected", len(l))
	}
	at = new(Atom)
	at.ID, err = strconv.Atoi(l[0])
	qerr(err)
	at.Type = l[1]
	at.MolID, err = strconv.Atoi(l[2])
	qerr(err)
	at.MolName = l[3]
	at.Name = l[4]
	at.CGNr, err = strconv.Atoi(l[5])
	qerr(err)
	at.Charge, err = strconv.ParseFloat(l[6], 64)
	qerr(err)
	if len(l) > 7 {
		at.Mass, err = strconv.ParseFloat(l[7], 64)
		qerr(err)
	}
	return at, nil
}

// Writes the atom to a Gromacs topology line
func (A *Atom) ToGro() string {
	cg := A.CGNr
	if cg == 0 {
		cg = A.ID
	}
	if A.Mass == 0 {
		return sf("%6d %8s %5d %5s %5s %5d %10.5f\n", A.ID, A.Type, A.MolID, A.MolName, A.Name, cg, A.Charge)
	}
	return sf("%6d %8s %5d %5s %5s %5d %10.5f %10.5f\n", A.ID, A.Type, A.MolID, A.MolName, A.Name, cg, A.Charge, A.Mass)
}

// TermFromGro returns a term containing the information in the GromacsTop-formatted string s,
// given that the string is part of the header header.
func TermFromGro(s, header string) (T *Term, err error) {
	ats, ok := termAtoms[header]
	if !ok {
		return nil, fmt.Errorf("%s is not a bonded term header", header)
	}
	l := fi(cleanString(s))
	if len(l) < ats {
		return nil, fmt.Errorf("%s line with %d fields, at least %d expected", header, len(l), ats)
	}
	T = new(Term)
	T.IDs, err = parseints(l[:ats]...)
	if err != nil {
		return nil, err
	}
	if len(l) == ats {
		return T, nil
	}
	T.FuncType, err = strconv.Atoi(l[ats])
	if err != nil {
		return nil, err
	}
	T.Params, err = parsefloats(l[ats+1:]...)
	return T, err
}

// Writes the term to a string in Gromacs top format.
func (T *Term) ToGro() string {
	ret := make([]string, 0, len(T.IDs)+len(T.Params)+1)
	for _, v := range T.IDs {
		ret = append(ret, sf("%5d", v))
	}
	if T.FuncType > 0 {
		ret = append(ret, sf("%2d", T.FuncType))
	}
	for _, v := range T.Params {
		ret = append(ret, sf("%12.6g", v))
	}
	return strings.Join(ret, " ") + "\n"
}

// AtomTypeFromGro reads a string with the appropriate gromacs topology format
// to return a pointer to AtomType. If sigmaep is true, it transforms
// the data in the string from sigma/epsilon to c6/c12.
// Lines may or may not have the bonded type and atomic number columns.
func AtomTypeFromGro(s string, sigmaep bool) (ret *AtomType, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Couldn't read atom type from string. Error: %s String:%s", r, s)
		}
	}()
	f := fi(cleanString(s))
	n := len(f)
	if n < 6 {
		return nil, fmt.Errorf("atomtype line with %d fields, at least 6 expected", n)
	}
	ret = new(AtomType)
	ret.Name = f[0]
	if n >= 7 {
		if an, aerr := strconv.Atoi(f[n-6]); aerr == nil {
			ret.AtNum = an
		}
	}
	ret.Mass, err = strconv.ParseFloat(f[n-5], 64)
	qerr(err)
	ret.Charge, err = strconv.ParseFloat(f[n-4], 64)
	qerr(err)
	ret.Ptype = f[n-3]
	ret.C6, ret.C12, err = c6c12OrSigmaEpsilon(f[n-2], f[n-1], sigmaep)
	qerr(err)
	ret.SigmaEpsilon = sigmaep
	return ret, nil
}

func (A *AtomType) ToGro() string {
	c6, c12 := A.C6, A.C12
	if A.SigmaEpsilon {
		c6, c12 = c6c12ToSigmaepsilon(A.C6, A.C12)
	}
	return sf("%8s %4d %10.5f %10.5f %2s %14.6e %14.6e\n", A.Name, A.AtNum, A.Mass, A.Charge, A.Ptype, c6, c12)
}

func LJPairFromGro(s string, sigmaep bool) (ret *LJPair, err error) {
	f := fi(cleanString(s))
	if len(f) < 5 {
		return nil, fmt.Errorf("nonbond_params line with %d fields, at least 5 expected", len(f))
	}
	ret = new(LJPair)
	ret.Names[0] = f[0]
	ret.Names[1] = f[1]
	ret.FuncType, err = strconv.Atoi(f[2])
	if err != nil {
		return nil, err
	}
	ret.C6, ret.C12, err = c6c12OrSigmaEpsilon(f[3], f[4], sigmaep)
	ret.SigmaEpsilon = sigmaep
	return ret, err
}

func (L *LJPair) ToGro() string {
	c6, c12 := L.C6, L.C12
	if L.SigmaEpsilon {
		c6, c12 = c6c12ToSigmaepsilon(L.C6, L.C12)
	}
	return sf("%8s %8s %1d %14.6e %14.6e\n", L.Names[0], L.Names[1], L.FuncType, c6, c12)
}

func c6c12OrSigmaEpsilon(num1, num2 string, sigmaepsilon bool) (float64, float64, error) {
	n, err := parsefloats(num1, num2)
	if err != nil {
		return -1, -1, err
	}
	if sigmaepsilon {
		c6, c12 := sigmaepsilonToc6c12(n[0], n[1])
		return c6, c12, nil
	}
	return n[0], n[1], nil
}
