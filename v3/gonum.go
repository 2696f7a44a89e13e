/*
 * gonum.go, part of mdgmx.
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

package v3

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a set of vectors in 3D space. Within the package a "vector" is
// a row, i.e. the cartesian coordinates of one point.
type Matrix struct {
	*mat.Dense
}

// NewMatrix returns a Matrix with 3 columns holding data, which is
// not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	if l == 0 || l%cols != 0 {
		return nil, &Error{fmt.Sprintf("Input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(l/cols, cols, data)}, nil
}

// Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	return &Matrix{mat.NewDense(vecs, cols, make([]float64, cols*vecs))}
}

// NVecs returns the number of vectors in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

// Vec returns the ith vector as a slice that shares memory with F.
func (F *Matrix) Vec(i int) []float64 {
	return F.RawRowView(i)
}

// SetVec sets the ith vector of F to v, which must have 3 elements.
func (F *Matrix) SetVec(i int, v []float64) {
	if len(v) != 3 {
		panic(ErrShape)
	}
	F.SetRow(i, v)
}

// Copy returns a deep copy of F.
func (F *Matrix) Copy() *Matrix {
	r := Zeros(F.NVecs())
	r.Dense.Copy(F.Dense)
	return r
}

// Scale multiplies every coordinate of F by f, in place.
func (F *Matrix) Scale(f float64) {
	F.Dense.Scale(f, F.Dense)
}

// Bounds returns the minimum and maximum value of each coordinate
// (x, y, z) over all the vectors in F.
func (F *Matrix) Bounds() (min, max [3]float64) {
	if F.NVecs() == 0 {
		return
	}
	col := make([]float64, F.NVecs())
	for j := 0; j < 3; j++ {
		mat.Col(col, j, F.Dense)
		min[j] = floats.Min(col)
		max[j] = floats.Max(col)
	}
	return min, max
}

// Equal reports whether A and B have the same shape and all their
// elements differ by at most tol.
func Equal(A, B *Matrix, tol float64) bool {
	if A.NVecs() != B.NVecs() {
		return false
	}
	return mat.EqualApprox(A.Dense, B.Dense, tol)
}

//Errors

type Error struct {
	message  string
	deco     []string
	critical bool
}

// Error returns a string with an error message.
func (err *Error) Error() string {
	return err.message
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical return whether the error is critical or it can be ignored
func (err *Error) Critical() bool { return err.critical }

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix = PanicMsg("mdgmx/v3: A Matrix should have 3 columns")
	ErrShape        = PanicMsg("mdgmx/v3: Dimension mismatch")
)
