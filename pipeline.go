/*
 * pipeline.go, part of mdgmx.
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
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rmera/mdgmx/schema"
)

// State is the state of a pipeline run.
type State int

const (
	StatePrep State = iota
	StateCompute
	StatePost
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePrep:
		return "prep"
	case StateCompute:
		return "compute"
	case StatePost:
		return "post"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Run is the outcome of a pipeline run. FailedStage and Err are only
// meaningful if State is StateFailed.
type Run struct {
	ID          string
	State       State
	FailedStage State
	Err         error
	Result      *schema.OutputMD
}

// Pipeline runs PrepStage, ComputeStage and PostStage in order. A stage
// starts only if the previous one succeeded; there are no retries.
type Pipeline struct {
	Prep    *PrepStage
	Compute *ComputeStage
	Post    *PostStage
	options
}

// NewPipeline returns a pipeline whose stages share cfg, codec and the options.
func NewPipeline(cfg RunConfig, codec Codec, opts ...Option) *Pipeline {
	return &Pipeline{
		Prep:    NewPrepStage(cfg, codec, opts...),
		Compute: NewComputeStage(cfg, opts...),
		Post:    NewPostStage(cfg, codec, opts...),
		options: newOptions(opts),
	}
}

func (P *Pipeline) InputSchema() string  { return SchemaInputMD }
func (P *Pipeline) OutputSchema() string { return SchemaOutputMD }

// errorKind names the kind of a stage error, for metrics.
func errorKind(err error) string {
	var (
		pe *PreconditionError
		ce *CodecError
		ee *ExecutionError
	)
	switch {
	case err == nil:
		return "unsuccessful"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &pe):
		return "precondition"
	case errors.As(err, &ce):
		return "codec"
	case errors.As(err, &ee):
		return "execution"
	}
	return "other"
}

// step runs one stage and updates r. It returns false if the run failed.
func step[I, O any](ctx context.Context, P *Pipeline, r *Run, c Component[I, O], in I) (O, bool) {
	log := P.logger.With("run", r.ID, "stage", r.State.String())
	start := time.Now()
	ok, out, err := c.Execute(ctx, in)
	P.metrics.ObserveStage(r.State.String(), time.Since(start))
	if ok && err == nil {
		return out, true
	}
	P.metrics.StageFailed(r.State.String(), errorKind(err))
	if err == nil {
		err = errors.New("stage reported failure")
	}
	r.FailedStage, r.State = r.State, StateFailed
	r.Err = &StageError{Stage: r.FailedStage, Err: err}
	log.Error("stage failed", "error", err)
	var zero O
	return zero, false
}

// Run takes req through the three stages. It always returns a non-nil Run.
func (P *Pipeline) Run(ctx context.Context, req *schema.InputMD) *Run {
	r := &Run{ID: uuid.NewString(), State: StatePrep}
	ctx = WithRunID(ctx, r.ID)
	P.logger.Info("run started", "run", r.ID)
	defer func() {
		P.metrics.RunFinished(r.State.String())
		P.logger.Info("run finished", "run", r.ID, "state", r.State.String())
	}()
	inb, ok := step[*schema.InputMD, *InputBundle](ctx, P, r, P.Prep, req)
	if !ok {
		return r
	}
	r.State = StateCompute
	outb, ok := step[*InputBundle, *OutputBundle](ctx, P, r, P.Compute, inb)
	if !ok {
		return r
	}
	r.State = StatePost
	res, ok := step[*OutputBundle, *schema.OutputMD](ctx, P, r, P.Post, outb)
	r.Result = res
	if !ok {
		return r
	}
	r.State = StateDone
	for _, w := range res.Warnings {
		P.logger.Warn("run warning", "run", r.ID, "error", w)
	}
	return r
}

// Execute runs the pipeline as a Component.
func (P *Pipeline) Execute(ctx context.Context, req *schema.InputMD) (bool, *schema.OutputMD, error) {
	r := P.Run(ctx, req)
	return r.State == StateDone, r.Result, r.Err
}
