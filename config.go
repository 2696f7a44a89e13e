/*
 * config.go, part of mdgmx.
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
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEngine is the engine identifier requests must carry.
const DefaultEngine = "gmx"

// RunConfig holds the settings for running the engine. It is explicit
// state passed to every stage; nothing is taken from, or set in, the
// process environment except through os.ExpandEnv on Command.
type RunConfig struct {
	Engine       string        `yaml:"engine"`            //engine identifier requests must match
	Command      string        `yaml:"command"`           //the gmx program, possibly with a wrapper. Environment variables are expanded.
	NCores       int           `yaml:"ncores"`            //threads for the engine, 0 lets it decide
	ScratchDir   string        `yaml:"scratch_directory"` //where run scratch directories are created
	TempDir      string        `yaml:"temp_directory"`    //where the engine input files are written
	Timeout      time.Duration `yaml:"timeout"`           //bound for each engine invocation, 0 means none
	BoxDistance  float64       `yaml:"box_distance"`      //nm between the solute and the box
	MaxWarn      int           `yaml:"max_warn"`          //warnings grompp accepts
	ArchiveDir   string        `yaml:"archive_dir"`       //if set, results are copied here before cleanup
	ScratchMessy bool          `yaml:"scratch_messy"`     //keep the engine's untracked files
}

// DefaultRunConfig returns the default configuration.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Engine:      DefaultEngine,
		Command:     "gmx",
		BoxDistance: 2.0,
	}
}

// LoadRunConfig reads a YAML configuration. Settings missing in the file keep
// their default values. A missing file gives the default configuration.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err = cfg.absPaths(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// absPaths makes the configured directories absolute. Engine programs run in
// their scratch directory, where names relative to ours mean something else.
func (c *RunConfig) absPaths() error {
	for _, d := range []*string{&c.ScratchDir, &c.TempDir, &c.ArchiveDir} {
		if *d == "" {
			continue
		}
		abs, err := filepath.Abs(*d)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		*d = abs
	}
	return nil
}

// Validate checks the configuration values.
func (c RunConfig) Validate() error {
	switch {
	case len(c.command()) == 0:
		return errors.New("config: empty engine command")
	case c.NCores < 0:
		return fmt.Errorf("config: negative ncores %d", c.NCores)
	case c.BoxDistance <= 0:
		return fmt.Errorf("config: box_distance must be positive, got %g", c.BoxDistance)
	case c.Timeout < 0:
		return fmt.Errorf("config: negative timeout %s", c.Timeout)
	case c.MaxWarn < 0:
		return fmt.Errorf("config: negative max_warn %d", c.MaxWarn)
	}
	return nil
}

// command returns the engine program and its leading arguments.
func (c RunConfig) command() []string {
	return strings.Fields(os.ExpandEnv(c.Command))
}

// env is the environment overlay for engine processes. Gromacs must not
// back up the output files we create in advance.
func (c RunConfig) env() map[string]string {
	e := map[string]string{"GMX_MAXBACKUP": "-1"}
	if c.NCores > 0 {
		n := strconv.Itoa(c.NCores)
		e["OMP_NUM_THREADS"] = n
		e["MKL_NUM_THREADS"] = n
	}
	return e
}
