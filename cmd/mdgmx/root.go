/*
 * root.go, part of mdgmx.
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
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rmera/mdgmx"
	"github.com/rmera/mdgmx/codec"
	"github.com/rmera/mdgmx/logging"
	"github.com/spf13/cobra"
)

// flags holds the persistent flags shared by every command.
type flags struct {
	config         string
	logLevel       string
	timeout        time.Duration
	ncores         int
	archiveDir     string
	metricsFile    string
	followIncludes bool
	defines        []string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "mdgmx",
		Short:         "mdgmx runs molecular dynamics requests with Gromacs",
		Long:          `mdgmx takes a generic MD request (YAML or JSON), builds the Gromacs input files, runs grompp and mdrun, and reads the results back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "mdgmx.yaml", "Run configuration file. A missing file means the defaults")
	pf.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.DurationVar(&f.timeout, "timeout", 0, "Time limit for each Gromacs program, overrides the configuration")
	pf.IntVar(&f.ncores, "ncores", 0, "Threads for Gromacs, overrides the configuration")
	pf.StringVar(&f.archiveDir, "archive-dir", "", "Copy the results here, overrides the configuration")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")
	pf.BoolVar(&f.followIncludes, "follow-includes", false, "Read the files #include'd by topologies")
	pf.StringSliceVar(&f.defines, "define", nil, "Symbols defined for #ifdef blocks in topologies")

	root.AddCommand(newRunCmd(f), newMDPCmd(f), newVersionCmd())
	return root
}

// codec returns the file codec the flags ask for.
func (f *flags) codec() codec.Files {
	return codec.Files{FollowIncludes: f.followIncludes, Defines: f.defines}
}

// logger builds the logger for the command, writing to w.
func (f *flags) logger(w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(f.logLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level, w), nil
}

// runConfig loads the configuration file and applies the flags that were set.
func (f *flags) runConfig(cmd *cobra.Command) (mdgmx.RunConfig, error) {
	cfg, err := mdgmx.LoadRunConfig(f.config)
	if err != nil {
		return cfg, err
	}
	fl := cmd.Flags()
	if fl.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fl.Changed("ncores") {
		cfg.NCores = f.ncores
	}
	if fl.Changed("archive-dir") {
		cfg.ArchiveDir = f.archiveDir
	}
	return cfg, cfg.Validate()
}

// Execute runs the command line in args and returns the exit status.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "mdgmx: %v\n", err)
		return 1
	}
	return 0
}
