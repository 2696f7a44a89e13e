/*
 * gromacsheaders.go, part of mdgmx
 *
 *
 * Copyright 2024 Raul Mera  <rmeraa{at}academicos(dot)uta(dot)cl>
 *
 *
 *  This program is free software; you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation; either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  This program is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 *  GNU General Public License for more details.
 *
 *  You should have received a copy of the GNU General Public License along
 *  with this program; if not, write to the Free Software Foundation, Inc.,
 *  51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 *
 *
 */

package top

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Utility functions

var sf = fmt.Sprintf

var fi = strings.Fields

func qerr(err error) {
	if err != nil {
		panic(err.Error())
	}
}

func parseints(s ...string) ([]int, error) {
	r := make([]int, 0, len(s))
	for _, v := range s {
		i, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		r = append(r, i)
	}
	return r, nil
}

func parsefloats(s ...string) ([]float64, error) {
	r := make([]float64, 0, len(s))
	for _, v := range s {
		i, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		r = append(r, i)
	}
	return r, nil
}

// Returns a string without gromacs comments (sequences starting with ';'),
// trailing and leading spaces, tabs and newlines
func cleanString(s string) string {
	f := strings.Split(s, ";")[0]
	return strings.Trim(f, "\r\n\t ")
}

// Gromacs header names, as they appear in the file, mapped to the names used
// in this package.
var headerAlias = map[string]string{
	"nonbond_params":      "nonbond",
	"virtual_sitesn":      "vsitesn",
	"position_restraints": "posres",
}

type topHeader struct {
	wany *regexp.Regexp
}

func newTopHeader() *topHeader {
	return &topHeader{wany: regexp.MustCompile(`^\[\p{Zs}*([A-Za-z0-9_]+)\p{Zs}*\]`)}
}

// Returns true if the line is a Gromacs header. It discards comments.
func (T *topHeader) Is(line string) bool {
	return T.wany.MatchString(cleanString(line))
}

// Returns a string indicating which Gromacs top file header
// the line is, or an empty string if the line is not a header.
func (T *topHeader) Which(line string) string {
	m := T.wany.FindStringSubmatch(cleanString(line))
	if m == nil {
		return ""
	}
	name := strings.ToLower(m[1])
	if a, ok := headerAlias[name]; ok {
		return a
	}
	return name
}

// StringReader is satisfied by *bufio.Reader and *strings.Reader
type StringReader interface {
	ReadString(byte) (string, error)
}
