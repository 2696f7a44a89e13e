/*
 * request.go, part of mdgmx.
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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmera/mdgmx/schema"
	"gopkg.in/yaml.v3"
)

// LoadRequest reads a request document, JSON if the file ends in .json and YAML
// otherwise, and loads the molecule and force field of every system entry with
// codec. Relative file names in the system are taken from the directory of the
// request file.
func LoadRequest(path string, codec Codec) (*schema.InputMD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CodecError{Op: "read", Path: path, Err: err}
	}
	in := new(schema.InputMD)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(in)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(in)
	}
	if err != nil {
		return nil, &CodecError{Op: "read", Path: path, Err: err}
	}
	dir := filepath.Dir(path)
	for i := range in.System {
		e := &in.System[i]
		if e.MoleculeFile == "" || e.ForceFieldFile == "" {
			return nil, &CodecError{Op: "read", Path: path, Err: fmt.Errorf("system entry %d needs a molecule and a forcefield file", i)}
		}
		if !filepath.IsAbs(e.MoleculeFile) {
			e.MoleculeFile = filepath.Join(dir, e.MoleculeFile)
		}
		if !filepath.IsAbs(e.ForceFieldFile) {
			e.ForceFieldFile = filepath.Join(dir, e.ForceFieldFile)
		}
		if e.Molecule, err = codec.ReadMolecule(e.MoleculeFile); err != nil {
			return nil, &CodecError{Op: "read", Path: e.MoleculeFile, Err: err}
		}
		if e.ForceField, err = codec.ReadForceField(e.ForceFieldFile); err != nil {
			return nil, &CodecError{Op: "read", Path: e.ForceFieldFile, Err: err}
		}
	}
	return in, nil
}
