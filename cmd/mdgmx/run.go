/*
 * run.go, part of mdgmx.
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

package main

import (
	"encoding/json"
	"fmt"

	"github.com/rmera/mdgmx"
	"github.com/rmera/mdgmx/metrics"
	"github.com/spf13/cobra"
)

func newRunCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <request>",
		Short: "Run an MD request and print a summary of the results",
		Long: `Loads the request and the molecule and force field files it names, then runs
the preparation, simulation and post-processing stages. A JSON summary of the
results is printed to the standard output. Logs go to the standard error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, f, args[0])
		},
	}
}

func runRun(cmd *cobra.Command, f *flags, request string) (err error) {
	cfg, err := f.runConfig(cmd)
	if err != nil {
		return err
	}
	log, err := f.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	files := f.codec()
	req, err := mdgmx.LoadRequest(request, files)
	if err != nil {
		return err
	}
	m := metrics.New()
	defer func() {
		if f.metricsFile == "" {
			return
		}
		if merr := m.WriteFile(f.metricsFile); merr != nil && err == nil {
			err = merr
		}
	}()
	p := mdgmx.NewPipeline(cfg, files, mdgmx.WithLogger(log), mdgmx.WithMetrics(m))
	r := p.Run(cmd.Context(), req)
	if r.Result != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err = enc.Encode(r.Result.Summary()); err != nil {
			return err
		}
	}
	if r.State != mdgmx.StateDone {
		if r.Err != nil {
			return fmt.Errorf("run %s: %w", r.ID, r.Err)
		}
		return fmt.Errorf("run %s ended in state %s", r.ID, r.State)
	}
	return nil
}
