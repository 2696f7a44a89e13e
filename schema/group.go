/*
 * group.go, part of mdgmx.
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

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Param is one key = value pair of an engine parameter group.
type Param struct {
	Key   string
	Value any
}

// Group is an ordered set of engine parameters. It decodes from YAML
// mappings and JSON objects keeping the order of the document.
// Duplicated keys keep their first position and the last value.
type Group []Param

// Get returns the value for key, and whether it is present.
func (g Group) Get(key string) (any, bool) {
	for _, p := range g {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of key, or appends the pair if the key is not present.
func (g *Group) Set(key string, value any) {
	for i, p := range *g {
		if p.Key == key {
			(*g)[i].Value = value
			return
		}
	}
	*g = append(*g, Param{Key: key, Value: value})
}

// Keys returns the keys in order.
func (g Group) Keys() []string {
	ret := make([]string, 0, len(g))
	for _, p := range g {
		ret = append(ret, p.Key)
	}
	return ret
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (g *Group) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		*g = nil
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameter group must be a mapping", n.Line)
	}
	var ret Group
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: parameter %q must be a scalar", v.Line, k.Value)
		}
		var val any
		if err := v.Decode(&val); err != nil {
			return err
		}
		ret.Set(k.Value, val)
	}
	*g = ret
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (g Group) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range g {
		v := new(yaml.Node)
		if err := v.Encode(p.Value); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: p.Key}, v)
	}
	return n, nil
}

// UnmarshalJSON implements json.Unmarshaler. Numbers are kept as
// json.Number, so they render exactly as written.
func (g *Group) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if t == nil {
		*g = nil
		return nil
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("parameter group must be an object")
	}
	var ret Group
	for dec.More() {
		t, err = dec.Token()
		if err != nil {
			return err
		}
		key, ok := t.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in parameter group", t)
		}
		var val any
		if err = dec.Decode(&val); err != nil {
			return err
		}
		switch val.(type) {
		case map[string]any, []any:
			return fmt.Errorf("parameter %q must be a scalar", key)
		}
		ret.Set(key, val)
	}
	if _, err = dec.Token(); err != nil {
		return err
	}
	*g = ret
	return nil
}

// MarshalJSON implements json.Marshaler.
func (g Group) MarshalJSON() ([]byte, error) {
	if g == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
