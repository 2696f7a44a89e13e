/*
 * trr_write.go, part of mdgmx.
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

package trr

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/rmera/mdgmx/chem"
	v3 "github.com/rmera/mdgmx/v3"
)

// TRRWObj is a TRR trajectory open for writing.
type TRRWObj struct {
	f        *os.File
	w        *bufio.Writer
	filename string
	natoms   int
	writable bool
	double   bool
	frames   int64
	buf      []float64
}

// NewWriter creates filename and returns an object to write natoms-atom frames to it.
// Frames are written in single precision unless double is given and true.
func NewWriter(filename string, natoms int, double ...bool) (*TRRWObj, error) {
	if natoms <= 0 {
		return nil, &Error{"the trajectory needs at least one atom", filename, []string{"NewWriter"}, true}
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, &Error{UnableToOpen + ": " + err.Error(), filename, []string{"NewWriter"}, true}
	}
	W := &TRRWObj{f: f, w: bufio.NewWriter(f), filename: filename, natoms: natoms, writable: true}
	if len(double) > 0 {
		W.double = double[0]
	}
	return W, nil
}

// Len returns the number of atoms per frame.
func (W *TRRWObj) Len() int {
	return W.natoms
}

// Close flushes the buffered frames and closes the file.
func (W *TRRWObj) Close() error {
	if !W.writable {
		return nil
	}
	W.writable = false
	err := W.w.Flush()
	if err2 := W.f.Close(); err == nil {
		err = err2
	}
	return err
}

// WNext writes the next frame. The step is the number of frames written
// before, and the time is the step, in ps.
func (W *TRRWObj) WNext(coords *v3.Matrix, box ...[]float64) error {
	var b []float64
	if len(box) > 0 {
		b = box[0]
	}
	return W.WNextStep(coords, b, W.frames, float64(W.frames))
}

// WNextStep writes a frame with coordinates in Angstrom, an optional box (9 elements,
// nil for none), the MD step and the time in ps.
func (W *TRRWObj) WNextStep(coords *v3.Matrix, box []float64, step int64, time float64) error {
	if !W.writable {
		return &Error{TrajUnIni, W.filename, []string{"WNextStep"}, true}
	}
	if coords == nil {
		return &Error{NilCoordinates, W.filename, []string{"WNextStep"}, true}
	}
	if coords.NVecs() != W.natoms {
		return &Error{fmt.Sprintf("%d coordinates given, but %d expected", coords.NVecs(), W.natoms), W.filename, []string{"WNextStep"}, true}
	}
	if box != nil && len(box) < 9 {
		return &Error{fmt.Sprintf("box with %d elements, 9 expected", len(box)), W.filename, []string{"WNextStep"}, true}
	}
	rs := int32(4)
	if W.double {
		rs = 8
	}
	var boxSize int32
	if box != nil {
		boxSize = 9 * rs
	}
	header := []any{magic, int32(len(version) + 1), int32(len(version)), []byte(version),
		[13]int32{0, 0, boxSize, 0, 0, 0, 0, int32(3*W.natoms) * rs, 0, 0, int32(W.natoms), int32(step), 0}}
	for _, v := range header {
		if err := binary.Write(W.w, endian, v); err != nil {
			return &Error{WriteError + ": " + err.Error(), W.filename, []string{"binary.Write", "WNextStep"}, true}
		}
	}
	W.buf = W.buf[:0]
	W.buf = append(W.buf, time, 0) //time, lambda
	if box != nil {
		for _, v := range box[:9] {
			W.buf = append(W.buf, v/nm2A)
		}
	}
	for i := 0; i < W.natoms; i++ {
		for _, v := range coords.Vec(i) {
			W.buf = append(W.buf, v/nm2A)
		}
	}
	if err := W.writeReals(W.buf); err != nil {
		return &Error{WriteError + ": " + err.Error(), W.filename, []string{"binary.Write", "WNextStep"}, true}
	}
	W.frames++
	return nil
}

func (W *TRRWObj) writeReals(r []float64) error {
	if W.double {
		return binary.Write(W.w, endian, r)
	}
	r32 := make([]float32, len(r))
	for i, v := range r {
		r32[i] = float32(v)
	}
	return binary.Write(W.w, endian, r32)
}

// WriteAll writes all the frames of T to filename, in single precision.
func WriteAll(filename string, T *chem.Trajectory) error {
	W, err := NewWriter(filename, T.Len())
	if err != nil {
		return err
	}
	for i, c := range T.Frames {
		var box []float64
		if i < len(T.Boxes) {
			box = T.Boxes[i]
		}
		step, time := int64(i), float64(i)
		if i < len(T.Steps) {
			step = T.Steps[i]
		}
		if i < len(T.Times) {
			time = T.Times[i]
		}
		if err = W.WNextStep(c, box, step, time); err != nil {
			W.Close()
			return errDecorate(err, "WriteAll")
		}
	}
	return W.Close()
}
