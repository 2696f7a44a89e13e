/*
 * schema.go, part of mdgmx.
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

// Package schema holds the engine-independent molecular dynamics request and
// result models.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rmera/mdgmx/chem"
	"github.com/rmera/mdgmx/top"
)

// Periodic is the boundary descriptor that makes an axis periodic.
const Periodic = "periodic"

// Forces selects the method for a class of non-bonded interactions.
type Forces struct {
	Method string `yaml:"method" json:"method"`
}

// SystemEntry is one (molecule, force field) pair of the system. The files are
// the ones named in the request document; the objects are filled when the
// request is loaded.
type SystemEntry struct {
	Name           string         `yaml:"name,omitempty" json:"name,omitempty"`
	MoleculeFile   string         `yaml:"molecule" json:"molecule"`
	ForceFieldFile string         `yaml:"forcefield" json:"forcefield"`
	Molecule       *chem.Molecule `yaml:"-" json:"-"`
	ForceField     *top.FF        `yaml:"-" json:"-"`
}

// MolName returns the name of the entry's molecule: the explicit name if given, else
// the name of the molecule object, else the base name of its file.
func (S SystemEntry) MolName() string {
	switch {
	case S.Name != "":
		return S.Name
	case S.Molecule != nil && S.Molecule.Name != "":
		return S.Molecule.Name
	}
	return strings.TrimSuffix(filepath.Base(S.MoleculeFile), filepath.Ext(S.MoleculeFile))
}

// InputMD is a generic MD request.
type InputMD struct {
	SchemaName    string        `yaml:"schema_name" json:"schema_name"`
	SchemaVersion float64       `yaml:"schema_version" json:"schema_version"`
	Engine        string        `yaml:"engine" json:"engine"`
	Method        string        `yaml:"method" json:"method"`
	StepSize      float64       `yaml:"step_size" json:"step_size"`
	MaxSteps      int           `yaml:"max_steps" json:"max_steps"`
	Boundary      []string      `yaml:"boundary" json:"boundary"`
	System        []SystemEntry `yaml:"system" json:"system"`
	FreqWrite     Group         `yaml:"freq_write" json:"freq_write"`
	TempCouple    Group         `yaml:"temp_couple" json:"temp_couple"`
	PressCouple   Group         `yaml:"press_couple" json:"press_couple"`
	LongForces    Forces        `yaml:"long_forces" json:"long_forces"`
	ShortForces   Forces        `yaml:"short_forces" json:"short_forces"`
	Trajectory    []string      `yaml:"trajectory,omitempty" json:"trajectory,omitempty"` //explicit trajectory grouping, nil if none
}

// ErrEmptySystem is returned by Single when the request has no molecules.
var ErrEmptySystem = errors.New("empty system")

// Validate checks the shape of the request.
func (I *InputMD) Validate() error {
	if l := len(I.Boundary); l != 3 && l != 6 {
		return fmt.Errorf("boundary needs 3 or 6 descriptors, got %d", l)
	}
	for name, g := range map[string]Group{"freq_write": I.FreqWrite, "temp_couple": I.TempCouple, "press_couple": I.PressCouple} {
		for _, p := range g {
			switch p.Value.(type) {
			case string, bool, int, int64, uint64, float64, json.Number, nil:
			default:
				return fmt.Errorf("%s: parameter %q must be a scalar", name, p.Key)
			}
		}
	}
	return nil
}

// Single returns the only (molecule, force field) pair of the system. It fails if
// there is none, or more than one.
func (I *InputMD) Single() (SystemEntry, error) {
	switch len(I.System) {
	case 0:
		return SystemEntry{}, ErrEmptySystem
	case 1:
		return I.System[0], nil
	}
	return SystemEntry{}, fmt.Errorf("only single-pair systems are supported, got %d pairs", len(I.System))
}

// MolNames returns the names of the system molecules, in order.
func (I *InputMD) MolNames() []string {
	ret := make([]string, 0, len(I.System))
	for _, v := range I.System {
		ret = append(ret, v.MolName())
	}
	return ret
}

// OutputMD is the result of an MD run.
type OutputMD struct {
	SchemaName    string
	SchemaVersion float64
	Request       *InputMD
	Molecules     []*chem.Molecule
	Trajectories  map[string]*chem.Trajectory
	Success       bool
	Warnings      []error //problems that didn't invalidate the result, such as failed cleanups.
}

// MoleculeSummary describes one result molecule.
type MoleculeSummary struct {
	Name  string `json:"name"`
	Atoms int    `json:"atoms"`
}

// TrajectorySummary describes one result trajectory.
type TrajectorySummary struct {
	Atoms  int `json:"atoms"`
	Frames int `json:"frames"`
}

// Summary is a printable digest of an OutputMD.
type Summary struct {
	SchemaName    string                       `json:"schema_name"`
	SchemaVersion float64                      `json:"schema_version"`
	Success       bool                         `json:"success"`
	Molecules     []MoleculeSummary            `json:"molecules"`
	Trajectories  map[string]TrajectorySummary `json:"trajectories"`
	Warnings      []string                     `json:"warnings,omitempty"`
}

// Summary returns a digest of the result, without coordinates.
func (O *OutputMD) Summary() Summary {
	s := Summary{SchemaName: O.SchemaName, SchemaVersion: O.SchemaVersion, Success: O.Success,
		Molecules: []MoleculeSummary{}, Trajectories: map[string]TrajectorySummary{}}
	for _, m := range O.Molecules {
		s.Molecules = append(s.Molecules, MoleculeSummary{m.Name, m.Len()})
	}
	for k, t := range O.Trajectories {
		s.Trajectories[k] = TrajectorySummary{t.Len(), t.LenFrames()}
	}
	for _, w := range O.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	return s
}
