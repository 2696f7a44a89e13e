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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*
Package mdgmx runs generic molecular dynamics requests with the Gromacs engine.

A request (schema.InputMD) goes through three stages. PrepStage turns it into
the files Gromacs reads: a parameter (.mdp) file, a topology and a boxed
structure. ComputeStage runs grompp and mdrun in a scratch directory.
PostStage reads the final structure and the trajectory back into a
schema.OutputMD and removes the scratch directory. Pipeline chains the three,
stopping at the first stage that fails.

Every stage, and the pipeline, implement Component. Files are read and written
through a Codec, and programs are started through a cmdexec.Runner, so both can
be replaced.
*/
package mdgmx
