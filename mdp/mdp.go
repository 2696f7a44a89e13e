/*
 * mdp.go, part of mdgmx.
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

// Package mdp builds the Gromacs parameter (.mdp) file for a generic MD request.
package mdp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rmera/mdgmx/schema"
)

// The Gromacs names for the fixed, request-level parameters.
const (
	Integrator  = "integrator"
	TimeStep    = "dt"
	Steps       = "nsteps"
	CoulombType = "coulombtype"
	VdwType     = "vdw-type"
	PBC         = "pbc"
)

var axes = [3]string{"x", "y", "z"}

// Boundary returns the Gromacs pbc string for the given boundary descriptors:
// the letter of each of the first three axes whose descriptor is "periodic".
// Any other descriptor means the axis is not periodic.
func Boundary(descriptors []string) string {
	ret := ""
	for i, d := range descriptors {
		if i >= len(axes) {
			break
		}
		if d == schema.Periodic {
			ret += axes[i]
		}
	}
	return ret
}

// Params is an ordered set of mdp parameters.
type Params struct {
	schema.Group
}

// Merge collects the parameters of the request in a fixed order: integrator,
// dt, nsteps, coulombtype, vdw-type and pbc, followed by the output-frequency,
// temperature-coupling and pressure-coupling groups, each in its own order.
// If a key appears again in a later group, the later value wins and the key
// keeps the position where it first appeared.
func Merge(in *schema.InputMD) *Params {
	p := &Params{}
	p.Set(Integrator, in.Method)
	p.Set(TimeStep, in.StepSize)
	p.Set(Steps, in.MaxSteps)
	p.Set(CoulombType, in.LongForces.Method)
	p.Set(VdwType, in.ShortForces.Method)
	p.Set(PBC, Boundary(in.Boundary))
	for _, g := range []schema.Group{in.FreqWrite, in.TempCouple, in.PressCouple} {
		for _, v := range g {
			p.Set(v.Key, v.Value)
		}
	}
	return p
}

// WriteTo writes one "key = value" line per parameter, in order. Values are
// written verbatim. It implements io.WriterTo.
func (P *Params) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, v := range P.Group {
		c, err := fmt.Fprintf(bw, "%s = %v\n", v.Key, v.Value)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// WriteFile writes the parameters to a new file in dir (the default temporary
// directory if dir is empty) with a name built from pattern, as in os.CreateTemp.
// It returns the absolute name of the file. The file is removed if writing fails.
func (P *Params) WriteFile(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err = P.WriteTo(f); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
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
