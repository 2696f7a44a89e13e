/*
 * doc.go, part of mdgmx.
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

// Package trr reads and writes Gromacs TRR trajectories.
//
// A TRR file is a sequence of frames, each a header followed by the data blocks
// the header declares (box, virial, pressure, coordinates, velocities, forces),
// all XDR-encoded (big endian). Reals are single or double precision; the size
// is deduced from the block sizes in the header. Gromacs works in nm, this
// package returns and takes Angstroms. Only box and coordinates are kept, frames
// without coordinates (velocity or force only) are skipped when reading.
package trr
