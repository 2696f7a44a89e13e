/*
 * component.go, part of mdgmx.
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
	"context"

	"github.com/google/uuid"
	"github.com/rmera/mdgmx/schema"
)

// Component is a step of the MD workflow. Execute returns whether it succeeded
// and its result. A non-nil error always comes with a false success.
type Component[I, O any] interface {
	InputSchema() string
	OutputSchema() string
	Execute(ctx context.Context, in I) (bool, O, error)
}

// Schema names for the values exchanged by the components.
const (
	SchemaInputMD      = "mdgmx.InputMD"
	SchemaOutputMD     = "mdgmx.OutputMD"
	SchemaInputBundle  = "mdgmx.InputBundle"
	SchemaOutputBundle = "mdgmx.OutputBundle"
)

var (
	_ Component[*schema.InputMD, *InputBundle]     = (*PrepStage)(nil)
	_ Component[*InputBundle, *OutputBundle]       = (*ComputeStage)(nil)
	_ Component[*OutputBundle, *schema.OutputMD]   = (*PostStage)(nil)
	_ Component[*schema.InputMD, *schema.OutputMD] = (*Pipeline)(nil)
)

// InputBundle holds the engine input files built from a request.
type InputBundle struct {
	RunID         string
	Request       *schema.InputMD
	MDPFile       string
	TopologyFile  string
	StructureFile string //boxed structure
	ScratchDir    string
	Success       bool //AND of the stages that produced the bundle
}

// OutputBundle holds the files the engine produced. The scratch directory
// still exists; PostStage removes it.
type OutputBundle struct {
	RunID          string
	Request        *schema.InputMD
	StructureFile  string
	TrajectoryFile string
	ScratchDir     string
	Success        bool
}

type runIDKey struct{}

// WithRunID returns a context carrying the run identifier id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom returns the run identifier in ctx, or a new one if there is none.
func RunIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// shortID gives a prefix of a run identifier suitable for file names.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
