/*
 * stf.go, part of mdgmx.
 *
 * Copyright 2021 Raul Mera <rauldotmeraatusachdotcl>
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

package stf

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rmera/mdgmx/chem"
	v3 "github.com/rmera/mdgmx/v3"
)

// DefaultPrec is the number of decimals kept for each coordinate when
// the header doesn't say otherwise.
const DefaultPrec = 2

//Write!

// StfW writes stf trajectories.
type StfW struct {
	f         *os.File
	h         io.WriteCloser
	natoms    int
	filename  string
	writeable bool
	prec      int
}

// Close flushes the compressor and closes the file. The writer can't be used after this.
func (S *StfW) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.h.Close()
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	return err
}

// Len returns the number of atoms per frame.
func (S *StfW) Len() int {
	return S.natoms
}

// WNext writes coord as the next frame. If box is given and has
// at least 9 elements, it is written as the box vectors of the frame.
func (S *StfW) WNext(coord *v3.Matrix, box ...[]float64) error {
	if !S.writeable {
		return &Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return &Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	v := coord.NVecs()
	if v != S.natoms {
		return &Error{fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, []string{"WNext"}, true}
	}
	w := bufio.NewWriter(S.h)
	var temp [3]int
	for i := 0; i < v; i++ {
		w.WriteString(coordsEncode(coord.Vec(i), temp, S.prec))
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		fmt.Fprint(w, "*")
		for _, c := range b[:9] {
			fmt.Fprintf(w, " %.*f", S.prec, c)
		}
		fmt.Fprint(w, "\n")
	} else {
		w.WriteString("*\n")
	}
	if err := w.Flush(); err != nil {
		return &Error{err.Error(), S.filename, []string{"WNext"}, true}
	}
	return nil
}

// NewWriter creates the file name and returns a writer for it. The compression
// is chosen from the last letter of the name: 'z' is gzip, anything else zstd.
// The header is written sorted by key. A "prec" key sets the precision.
func NewWriter(name string, natoms int, header map[string]string) (*StfW, error) {
	if natoms <= 0 {
		return nil, &Error{"the trajectory needs at least one atom", name, []string{"NewWriter"}, true}
	}
	S := &StfW{natoms: natoms, filename: name, prec: DefaultPrec}
	if p, ok := header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec <= 0 {
			return nil, &Error{fmt.Sprintf("invalid precision %q", p), name, []string{"NewWriter"}, true}
		}
		S.prec = prec
	}
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, &Error{UnableToOpen + ": " + err.Error(), name, []string{"NewWriter"}, true}
	}
	switch strings.ToLower(name)[len(name)-1] {
	case 'z':
		S.h, err = gzip.NewWriterLevel(S.f, gzip.BestCompression)
	default:
		S.h, err = zstd.NewWriter(S.f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	if err != nil {
		S.f.Close()
		return nil, &Error{"Can't create compressor " + err.Error(), name, []string{"NewWriter"}, true}
	}
	keys := make([]string, 0, len(header)+1)
	for k := range header {
		keys = append(keys, k)
	}
	if _, ok := header["prec"]; !ok {
		keys = append(keys, "prec")
	}
	slices.Sort(keys)
	headerstr := ""
	for _, k := range keys {
		val := header[k]
		if k == "prec" {
			val = strconv.Itoa(S.prec)
		}
		headerstr += fmt.Sprintf("%s=%s\n", k, val)
	}
	headerstr += fmt.Sprintf("** %d\n", S.natoms)
	if _, err = S.h.Write([]byte(headerstr)); err != nil {
		S.h.Close()
		S.f.Close()
		return nil, &Error{"Can't write header " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.writeable = true
	return S, nil
}

// WriteAll writes every frame of T to a new stf file.
func WriteAll(name string, T *chem.Trajectory, header map[string]string) error {
	w, err := NewWriter(name, T.Len(), header)
	if err != nil {
		return err
	}
	for i, c := range T.Frames {
		var box []float64
		if i < len(T.Boxes) {
			box = T.Boxes[i]
		}
		if err = w.WNext(c, box); err != nil {
			w.Close()
			return errDecorate(err, "WriteAll")
		}
	}
	return w.Close()
}

func coordsEncode(f []float64, temp [3]int, prec int) string {
	p := math.Pow(10.0, float64(prec))
	for i, v := range f[:3] {
		temp[i] = int(math.RoundToEven(v * p))
	}
	return fmt.Sprintf("%d %d %d\n", temp[0], temp[1], temp[2])
}

//Read!

// StfR reads stf trajectories. It implements chem.Traj.
type StfR struct {
	f        *os.File
	dec      io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	readable bool
}

// *zstd.Decoder's Close doesn't return an error, so it is not an io.ReadCloser.
type zstdCloser struct {
	*zstd.Decoder
}

func (s zstdCloser) Close() error {
	s.Decoder.Close()
	return nil
}

// New opens a STF trajectory for reading, and returns a pointer
// to the handle, a map with the metadata
// and error or nil.
func New(name string) (*StfR, map[string]string, error) {
	S := &StfR{natoms: -1, filename: name, prec: DefaultPrec}
	var err error
	S.f, err = os.Open(S.filename)
	if err != nil {
		return nil, nil, &Error{UnableToOpen + ": " + err.Error(), name, []string{"New"}, true}
	}
	in := bufio.NewReader(S.f)
	switch strings.ToLower(name)[len(name)-1] {
	case 'z':
		S.dec, err = gzip.NewReader(in)
	default:
		var d *zstd.Decoder
		d, err = zstd.NewReader(in)
		if err == nil {
			S.dec = zstdCloser{d}
		}
	}
	if err != nil {
		S.f.Close()
		return nil, nil, &Error{"Can't read header " + err.Error(), S.filename, []string{"New"}, true}
	}
	S.h = bufio.NewReader(S.dec)
	m := make(map[string]string)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.close()
			return nil, nil, &Error{"Can't read header " + err.Error(), S.filename, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.close()
				return nil, nil, &Error{fmt.Sprintf("Can't read atom number from '%s'", str), S.filename, []string{"New"}, true}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil {
				S.close()
				return nil, nil, &Error{fmt.Sprintf("Can't read atom number from '%s': %s", nat[1], err.Error()), S.filename, []string{"New"}, true}
			}
			break
		}
		k, v, ok := strings.Cut(str, "=")
		if !ok {
			S.close()
			return nil, nil, &Error{"Malformed header line: " + str, S.filename, []string{"New"}, true}
		}
		m[k] = v
	}
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec <= 0 {
			S.close()
			return nil, nil, &Error{fmt.Sprintf("invalid precision %q", p), S.filename, []string{"New"}, true}
		}
		S.prec = prec
	}
	S.readable = true
	return S, m, nil
}

// Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *StfR) Readable() bool {
	return S.readable
}

func coordsDecode(str string, temp *[3]float64, prec int) error {
	p := math.Pow(10.0, float64(prec))
	s := strings.Fields(str)
	if len(s) != 3 {
		return fmt.Errorf("Ill formated coordinates line in stf: %d fields: %s", len(s), str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("Can't parse coordinate %d (%s). Error: %w", i, v, err)
		}
		temp[i] = float64(f) / p
	}
	return nil
}

// Next puts in the given matrix (c) the coordinates for the next frame of the trajectory
// and, if given, and the information is present, puts the box vector information in box.
// At the end of the trajectory it returns an error satisfying chem.LastFrameError.
// If c is nil, the frame is read and checked, but discarded.
func (S *StfR) Next(c *v3.Matrix, box ...[]float64) error {
	if !S.readable {
		return &Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadString('\n')
		if err != nil {
			// EOF should only happen when reading the first atom
			if errors.Is(err, io.EOF) && i == 0 && b == "" {
				S.close()
				return newlastFrameError(S.filename, "Next")
			}
			return &Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
		}
		if err = coordsDecode(b, &temp, S.prec); err != nil {
			return &Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		if c == nil {
			continue
		}
		c.SetVec(i, temp[:])
	}
	s, err := S.h.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return &Error{"Can't read the frame termination mark: " + err.Error(), S.filename, []string{"Next"}, true}
	}
	if !strings.HasPrefix(s, "*") {
		return &Error{WrongFormat + ": wrong number of atoms in frame", S.filename, []string{"Next"}, true}
	}
	if len(box) == 0 || len(box[0]) < 9 {
		return nil
	}
	fields := strings.Fields(s)
	if len(fields) < 10 {
		//no box in this frame
		clear(box[0][:9])
		return nil
	}
	for j, v := range fields[1:10] {
		box[0][j], err = strconv.ParseFloat(v, 64)
		if err != nil {
			return &Error{"Can't read box: " + err.Error(), S.filename, []string{"Next"}, true}
		}
	}
	return nil
}

func (S *StfR) close() {
	S.readable = false
	if S.dec != nil {
		S.dec.Close()
	}
	S.f.Close()
}

// Close closes the object, and marks it as unreadable
func (S *StfR) Close() {
	if !S.readable {
		return
	}
	S.close()
}

// Len returns the number of atoms in each frame of the trajectory.
func (S *StfR) Len() int {
	return S.natoms
}

// ReadAll reads a whole stf file into memory.
func ReadAll(name string) (*chem.Trajectory, error) {
	r, _, err := New(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	T, err := chem.ReadAll(r, name)
	if err != nil {
		return nil, err
	}
	T.FileName = name
	return T, nil
}

//Errors

// errDecorate is a helper function that asserts that the error is
// implements chem.Error and decorates the error with the caller's name before returning it.
// Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(chem.Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}

// Error is the general structure for STF trajectory errors. It fullfills chem.Error and chem.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err *Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

// Decorate Adds new information to the error
func (E *Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// Filename returns the file to which the failing trajectory was associated
func (err *Error) FileName() string { return err.filename }

// Format returns the format of the file (always "stf") associated to the error
func (err *Error) Format() string { return "stf" }

// Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
)

// lastFrameError implements chem.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// lastFrameError does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "stf" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
