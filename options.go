/*
 * options.go, part of mdgmx.
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
	"log/slog"
	"os"

	"github.com/rmera/mdgmx/cmdexec"
	"github.com/rmera/mdgmx/logging"
	"github.com/rmera/mdgmx/metrics"
)

type options struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	runner    cmdexec.Runner
	removeAll func(path string) error //removes scratch directories
}

// Option configures stages and pipelines.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the collectors to record to. The default records nothing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRunner sets how engine programs are started. The default runs
// operating-system processes.
func WithRunner(r cmdexec.Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, f := range opts {
		f(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.runner == nil {
		o.runner = cmdexec.New(cmdexec.WithLogger(o.logger))
	}
	if o.removeAll == nil {
		o.removeAll = os.RemoveAll
	}
	return o
}
