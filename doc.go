/*
 * doc.go, part of gocell.
 *
 * Copyright 2024 Raul Mera <rauldotmeraatusachdotcl>
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
 *
 * goCell is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

/*Package cell is the main package of the goCell library. It finds, for any
particle of a system, every other particle within a cutoff distance of it,
in simulation cells that can be triclinic and periodic along any subset of
their axes, including the images of the particles in the neighboring
periodic copies of the cell.


	**goCell capabilities**


    Describes simulation cells by 3 arbitrary (non coplanar) cell vectors,
	an origin, and a periodicity flag per axis, with wrapping, minimum-image
	and reduced/absolute coordinate conversions.

    Builds cell lists at any positive cutoff, binning the particles so each
	neighbor query visits a constant number of bins, regardless of the
	system size.

    Iterates over the neighbors of a particle with a simple scanner-like
	protocol, reporting, for each neighbor, its index, distance, the vector
	to it, and through how many periodic boundaries it was reached.

    Accepts a progress/cancellation Reporter on the long operations, so
	interactive callers can follow or abort them.

	The bonds subpackage connects every pair of particles closer than a
	cutoff, with a uniform cutoff or a table of cutoffs per pair of
	particle types, concurrently.

	The cluster subpackage decomposes a system into connected components
	of the neighbor relation.

	The coord subpackage obtains coordination numbers and radial
	distribution functions, and plots the latter.

	The voro subpackage determines which of the neighbor pairs are in
	direct, Voronoi-sense contact, with support for per-particle radii.


goCell uses the v3 subpackage for coordinates, where each row of a v3.Matrix
(built on gonum's mat.Dense) is one point in space. All the coordinate
matrices the library takes or returns follow that convention.*/
package cell
