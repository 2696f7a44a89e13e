/*
 * errors.go, part of mdgmx.
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
	"fmt"
	"strings"
)

// decoration keeps the names of the functions an error went through.
type decoration struct {
	deco []string
}

// Decorate adds a caller name to the error, and returns all the names added so far.
func (d *decoration) Decorate(caller string) []string {
	if caller != "" {
		d.deco = append(d.deco, caller)
	}
	return d.deco
}

// PreconditionError means a request or bundle can't be processed by a stage.
// It is returned before the stage does any work.
type PreconditionError struct {
	decoration
	Stage string
	Msg   string
	Err   error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// CodecError means a molecule, force field, trajectory or parameter file
// couldn't be read or written.
type CodecError struct {
	decoration
	Op   string //read or write
	Path string
	Err  error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("can't %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// ExecutionError means an engine program couldn't run, failed, or didn't
// produce its outputs.
type ExecutionError struct {
	decoration
	Args     []string
	ExitCode int
	Missing  []string //declared outputs that were not produced
	Stderr   string   //last lines of the program's standard error
	Err      error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", strings.Join(e.Args, " "))
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	} else {
		fmt.Fprintf(&b, " with exit status %d", e.ExitCode)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ", missing outputs: %s", strings.Join(e.Missing, ", "))
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, "\n%s", e.Stderr)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// CleanupError means a temporary file or directory couldn't be removed.
// It is reported as a warning when the run already has a valid result.
type CleanupError struct {
	decoration
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("can't remove %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// StageError is the error of a failed pipeline run. It wraps the error of
// the stage that failed.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
