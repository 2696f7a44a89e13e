/*
 * mdp.go, part of mdgmx.
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
	"github.com/rmera/mdgmx"
	"github.com/rmera/mdgmx/mdp"
	"github.com/spf13/cobra"
)

func newMDPCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "mdp <request>",
		Short: "Print the Gromacs parameter file built from a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := mdgmx.LoadRequest(args[0], f.codec())
			if err != nil {
				return err
			}
			if err = req.Validate(); err != nil {
				return err
			}
			_, err = mdp.Merge(req).WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}
