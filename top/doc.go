/*
 * doc.go, part of mdgmx
 *
 * Copyright 2025 Raul Mera A. (rmeraaatacademicosdotutadotcl)
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

/*
Top is a package for reading and writing Gromacs force-field topologies (not to be
confused with the chem.Topology structure). A FF holds one molecule type; a
complete .top for a system is written from it plus the molecule the system is
made of.
Sections the package doesn't understand (settles, position restraints...) are
kept verbatim and written back. #define statements are not supported.
*/
package top
