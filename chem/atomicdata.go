/*
 * atomicdata.go, part of mdgmx.
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

import "strings"

//A map for assigning mass to elements.
//Note that just common "bio-elements" are present
var symbolMass = map[string]float64{
	"H":  1.008,
	"C":  12.01,
	"O":  16.00,
	"N":  14.01,
	"P":  30.97,
	"S":  32.06,
	"Se": 78.96,
	"K":  39.1,
	"Ca": 40.08,
	"Mg": 24.30,
	"Cl": 35.45,
	"Na": 22.99,
	"Cu": 63.55,
	"Zn": 65.38,
	"Co": 58.93,
	"Fe": 55.84,
	"Mn": 54.94,
	"Cr": 51.996,
	"Si": 28.08,
	"Be": 9.012,
	"F":  18.998,
	"Br": 79.904,
	"I":  126.90,
}

// Mass returns the standard atomic mass for the element symbol, or 0
// if the element is not known.
func Mass(symbol string) float64 {
	return symbolMass[symbol]
}

// SymbolFromName tries to guess a chemical element symbol from a PDB or GRO
// atom name. Mostly based on AMBER names. It only deals with some common
// bio-elements, and returns the empty string when it can't guess.
func SymbolFromName(name string) string {
	name = strings.TrimLeft(strings.ToUpper(name), "0123456789")
	if name == "" {
		return ""
	}
	switch {
	case name == "OW" || name == "HW1" || name == "HW2":
		return string(name[0])
	case strings.HasPrefix(name, "CL"):
		return "Cl"
	case name == "NA" || name == "SOD":
		return "Na"
	case name == "CU":
		return "Cu"
	case name == "CO":
		return "Co"
	case strings.HasPrefix(name, "ZN"):
		return "Zn"
	case name == "SE":
		return "Se"
	case name == "MG":
		return "Mg"
	case name == "FE":
		return "Fe"
	case len(name) == 4 || name[0] == 'H':
		return "H"
	}
	switch name[0] {
	case 'C', 'N', 'O', 'P', 'S':
		return string(name[0])
	}
	return ""
}
