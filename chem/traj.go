/*
 * traj.go, part of mdgmx.
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

import (
	"fmt"

	v3 "github.com/rmera/mdgmx/v3"
)

// Trajectory is a trajectory fully loaded in memory.
type Trajectory struct {
	Name     string
	FileName string //the file the frames were read from, if any.
	NAtoms   int
	Frames   []*v3.Matrix
	Boxes    [][]float64 //one 9-element slice per frame, nil entries when absent
	Times    []float64   //ps
	Steps    []int64
}

// Len returns the number of atoms per frame.
func (T *Trajectory) Len() int { return T.NAtoms }

// LenFrames returns the number of frames.
func (T *Trajectory) LenFrames() int { return len(T.Frames) }

// AddFrame appends a frame, which must have NAtoms vectors. box, time and step
// are optional metadata.
func (T *Trajectory) AddFrame(c *v3.Matrix, box []float64, time float64, step int64) error {
	if c == nil || c.NVecs() != T.NAtoms {
		return fmt.Errorf("Trajectory %s: frame with wrong number of atoms, %d expected", T.Name, T.NAtoms)
	}
	T.Frames = append(T.Frames, c)
	T.Boxes = append(T.Boxes, box)
	T.Times = append(T.Times, time)
	T.Steps = append(T.Steps, step)
	return nil
}

// ReadAll loads every frame from the reader t into a new Trajectory.
// The reader is consumed.
func ReadAll(t Traj, name string) (*Trajectory, error) {
	if !t.Readable() {
		return nil, fmt.Errorf("Trajectory %s is not readable", name)
	}
	ret := &Trajectory{Name: name, NAtoms: t.Len()}
	for {
		c := v3.Zeros(t.Len())
		box := make([]float64, 9)
		err := t.Next(c, box)
		if IsLastFrame(err) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Trajectory %s, frame %d: %w", name, ret.LenFrames(), err)
		}
		if err = ret.AddFrame(c, box, 0, int64(ret.LenFrames())); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
