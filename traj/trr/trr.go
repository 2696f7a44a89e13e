/*
 * trr.go, part of mdgmx.
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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rmera/mdgmx/chem"
	v3 "github.com/rmera/mdgmx/v3"
)

const (
	magic   int32 = 1993
	version       = "GMX_trn_file"
	nm2A          = 10.0
)

var endian = binary.BigEndian

type frameHeader struct {
	irSize, eSize, boxSize, virSize, presSize, topSize, symSize int32
	xSize, vSize, fSize                                          int32
	natoms, step, nre                                            int32
	t, lambda                                                    float64
	double                                                       bool
}

func (h *frameHeader) realSize() int32 {
	switch {
	case h.boxSize != 0:
		return h.boxSize / 9
	case h.natoms == 0:
		return 4
	case h.xSize != 0:
		return h.xSize / (h.natoms * 3)
	case h.vSize != 0:
		return h.vSize / (h.natoms * 3)
	case h.fSize != 0:
		return h.fSize / (h.natoms * 3)
	}
	return 4
}

// readHeader returns io.EOF only if the reader is exhausted before the first byte of the frame.
func readHeader(r io.Reader) (*frameHeader, error) {
	var m int32
	if err := binary.Read(r, endian, &m); err != nil {
		return nil, err
	}
	if m != magic {
		return nil, fmt.Errorf("wrong magic number %d, not a trr file", m)
	}
	var lens [2]int32
	if err := binary.Read(r, endian, &lens); err != nil {
		return nil, noEOF(err)
	}
	if lens[1] != int32(len(version)) {
		return nil, fmt.Errorf("unexpected version string length %d", lens[1])
	}
	vs := make([]byte, (lens[1]+3)/4*4)
	if _, err := io.ReadFull(r, vs); err != nil {
		return nil, noEOF(err)
	}
	if string(vs[:lens[1]]) != version {
		return nil, fmt.Errorf("unexpected version string %q", vs[:lens[1]])
	}
	var ints [13]int32
	if err := binary.Read(r, endian, &ints); err != nil {
		return nil, noEOF(err)
	}
	h := &frameHeader{irSize: ints[0], eSize: ints[1], boxSize: ints[2], virSize: ints[3],
		presSize: ints[4], topSize: ints[5], symSize: ints[6], xSize: ints[7], vSize: ints[8],
		fSize: ints[9], natoms: ints[10], step: ints[11], nre: ints[12]}
	if h.natoms < 0 {
		return nil, fmt.Errorf("negative number of atoms %d", h.natoms)
	}
	if h.irSize != 0 || h.eSize != 0 || h.topSize != 0 || h.symSize != 0 {
		return nil, fmt.Errorf("frames with input record, energy, topology or symbol blocks are not supported")
	}
	switch h.realSize() {
	case 4:
		var tl [2]float32
		if err := binary.Read(r, endian, &tl); err != nil {
			return nil, noEOF(err)
		}
		h.t, h.lambda = float64(tl[0]), float64(tl[1])
	case 8:
		var tl [2]float64
		if err := binary.Read(r, endian, &tl); err != nil {
			return nil, noEOF(err)
		}
		h.t, h.lambda = tl[0], tl[1]
		h.double = true
	default:
		return nil, fmt.Errorf("can't determine the precision of the frame")
	}
	return h, nil
}

// a truncated frame is an error, not the end of the trajectory.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// TRRObj is a TRR trajectory open for reading. It implements chem.Traj.
type TRRObj struct {
	f        *os.File
	r        *bufio.Reader
	filename string
	natoms   int
	readable bool
	next     *frameHeader //header read in advance, when opening.
	time     float64
	step     int64
	buf32    []float32
	buf64    []float64
}

// New opens the TRR file filename for reading. The number of atoms is taken
// from the first frame.
func New(filename string) (*TRRObj, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &Error{UnableToOpen + ": " + err.Error(), filename, []string{"New"}, true}
	}
	T := &TRRObj{f: f, r: bufio.NewReader(f), filename: filename}
	T.next, err = readHeader(T.r)
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("empty file")
		}
		return nil, &Error{err.Error(), filename, []string{"New"}, true}
	}
	T.natoms = int(T.next.natoms)
	T.readable = true
	return T, nil
}

// Readable returns true if the object is ready to be read from.
func (T *TRRObj) Readable() bool {
	return T.readable
}

// Len returns the number of atoms per frame.
func (T *TRRObj) Len() int {
	return T.natoms
}

// Time returns the time, in ps, of the last frame read.
func (T *TRRObj) Time() float64 { return T.time }

// Step returns the MD step of the last frame read.
func (T *TRRObj) Step() int64 { return T.step }

// Close closes the file. The object can't be read after this.
func (T *TRRObj) Close() {
	if !T.readable {
		return
	}
	T.readable = false
	T.f.Close()
}

func (T *TRRObj) reals(n int, double bool) ([]float64, error) {
	if cap(T.buf64) < n {
		T.buf64 = make([]float64, n)
	}
	out := T.buf64[:n]
	if double {
		return out, binary.Read(T.r, endian, out)
	}
	if cap(T.buf32) < n {
		T.buf32 = make([]float32, n)
	}
	b := T.buf32[:n]
	if err := binary.Read(T.r, endian, b); err != nil {
		return nil, err
	}
	for i, v := range b {
		out[i] = float64(v)
	}
	return out, nil
}

func (T *TRRObj) skip(n int32) error {
	if n <= 0 {
		return nil
	}
	_, err := T.r.Discard(int(n))
	return err
}

// Next reads the next frame with coordinates into output (in Angstrom) and, if box is given,
// puts the 9 box-vector components there, or zeros if the frame has no box.
// If output is nil the frame is read and discarded. At the end of the trajectory
// it returns an error satisfying chem.LastFrameError.
func (T *TRRObj) Next(output *v3.Matrix, box ...[]float64) error {
	if !T.readable {
		return &Error{TrajUnIni, T.filename, []string{"Next"}, true}
	}
	if output != nil && output.NVecs() != T.natoms {
		return &Error{fmt.Sprintf("matrix for %d atoms given, %d expected", output.NVecs(), T.natoms), T.filename, []string{"Next"}, true}
	}
	for {
		h := T.next
		T.next = nil
		var err error
		if h == nil {
			h, err = readHeader(T.r)
		}
		if errors.Is(err, io.EOF) {
			T.Close()
			return newlastFrameError(T.filename, "Next")
		}
		if err != nil {
			return &Error{ReadError + ": " + err.Error(), T.filename, []string{"Next"}, true}
		}
		if int(h.natoms) != T.natoms {
			return &Error{fmt.Sprintf("frame with %d atoms, %d expected", h.natoms, T.natoms), T.filename, []string{"Next"}, true}
		}
		var b []float64
		if h.boxSize != 0 {
			b, err = T.reals(9, h.double)
			if err != nil {
				return &Error{ReadError + ": " + noEOF(err).Error(), T.filename, []string{"Next"}, true}
			}
			b = append([]float64(nil), b...)
		}
		if err = T.skip(h.virSize + h.presSize); err != nil {
			return &Error{ReadError + ": " + noEOF(err).Error(), T.filename, []string{"Next"}, true}
		}
		if h.xSize == 0 {
			if err = T.skip(h.vSize + h.fSize); err != nil {
				return &Error{ReadError + ": " + noEOF(err).Error(), T.filename, []string{"Next"}, true}
			}
			continue
		}
		x, err := T.reals(3*T.natoms, h.double)
		if err != nil {
			return &Error{ReadError + ": " + noEOF(err).Error(), T.filename, []string{"Next"}, true}
		}
		if output != nil {
			for i := 0; i < T.natoms; i++ {
				output.Set(i, 0, x[3*i]*nm2A)
				output.Set(i, 1, x[3*i+1]*nm2A)
				output.Set(i, 2, x[3*i+2]*nm2A)
			}
		}
		if err = T.skip(h.vSize + h.fSize); err != nil {
			return &Error{ReadError + ": " + noEOF(err).Error(), T.filename, []string{"Next"}, true}
		}
		if len(box) > 0 && len(box[0]) >= 9 {
			for i := 0; i < 9; i++ {
				box[0][i] = 0
				if b != nil {
					box[0][i] = b[i] * nm2A
				}
			}
		}
		T.time, T.step = h.t, int64(h.step)
		return nil
	}
}

// ReadAll reads every frame with coordinates in the file, with their boxes,
// times and steps.
func ReadAll(filename string) (*chem.Trajectory, error) {
	T, err := New(filename)
	if err != nil {
		return nil, err
	}
	defer T.Close()
	ret := &chem.Trajectory{Name: filename, FileName: filename, NAtoms: T.Len()}
	for {
		c := v3.Zeros(T.Len())
		box := make([]float64, 9)
		err = T.Next(c, box)
		if chem.IsLastFrame(err) {
			break
		}
		if err != nil {
			return nil, errDecorate(err, "ReadAll")
		}
		if err = ret.AddFrame(c, box, T.Time(), T.Step()); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

//Errors

// errDecorate decorates err with the caller's name if it implements chem.Error.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(chem.Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}

// Error is the general structure for TRR trajectory errors. It fullfills chem.Error and chem.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err *Error) Error() string {
	return fmt.Sprintf("trr file %s error: %s", err.filename, err.message)
}

// Decorate Adds new information to the error
func (E *Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing trajectory was associated
func (err *Error) FileName() string { return err.filename }

// Format returns the format of the file (always "trr") associated to the error
func (err *Error) Format() string { return "trr" }

// Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

const (
	TrajUnIni      = "Traj object uninitialized"
	ReadError      = "Error reading frame"
	WriteError     = "Error writing frame"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
)

// lastFrameError implements chem.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "trr" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}
