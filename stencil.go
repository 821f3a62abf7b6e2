/*
 * stencil.go, part of gocell.
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

package cell

import "math"

// The stencil search stops at this Chebyshev radius no matter what, to
// bound the work on skewed cells with cutoffs much larger than a bin.
const maxStencilRadius = 100

// makeStencil returns the list of bin offsets d such that some point of
// the bin displaced by d can lie within the cutoff of some point of the
// bin at the origin. The list is built by visiting shells of increasing
// Chebyshev radius and stops growing at the first shell that contributes
// nothing.
func makeStencil(binvecs, normals [3][3]float64, cutoffsq float64) [][3]int {
	var stencil [][3]int
	for radius := 0; radius < maxStencilRadius; radius++ {
		oldCount := len(stencil)
		for ix := -radius; ix <= radius; ix++ {
			for iy := -radius; iy <= radius; iy++ {
				for iz := -radius; iz <= radius; iz++ {
					if intAbs(ix) < radius && intAbs(iy) < radius && intAbs(iz) < radius {
						continue //the inside of the shell was visited with a smaller radius
					}
					//The shortest distance between the two bins is bounded from below by the
					//minimum over the 27 placements of the offset corner among the shortest
					//point-to-bin distances. This never overestimates, so no neighbor is lost.
					shortest := math.MaxFloat64
					for dx := -1; dx <= 1; dx++ {
						for dy := -1; dy <= 1; dy++ {
							for dz := -1; dz <= 1; dz++ {
								d := [3]int{dx + ix, dy + iy, dz + iz}
								if ds := pointToBinDistsq(binvecs, normals, d); ds < shortest {
									shortest = ds
								}
							}
						}
					}
					if shortest < cutoffsq {
						stencil = append(stencil, [3]int{ix, iy, iz})
					}
				}
			}
		}
		if len(stencil) == oldCount {
			break
		}
	}
	return stencil
}

// pointToBinDistsq returns the squared shortest distance between the point
// with fractional bin coordinates d and the bin sitting at the origin. The
// candidates are the distance to the bin corner, to each of the 3 edges
// meeting there and to each of the 3 faces meeting there; a distance to an
// edge or face only counts if the projection of the point falls inside it.
func pointToBinDistsq(binvecs, normals [3][3]float64, d [3]int) float64 {
	var p [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p[j] += float64(d[i]) * binvecs[i][j]
		}
	}
	distsq := dot3(p, p) //distance to the corner
	for dim := 0; dim < 3; dim++ {
		//distance to the edge along the dim vector
		col := binvecs[dim]
		t := -dot3(p, col) / dot3(col, col)
		if t > 0 && t < 1 {
			e := sub3(p, scale3(col, t))
			if ds := dot3(e, e); ds < distsq {
				distsq = ds
			}
		}
		//distance to the face not containing the dim vector
		u := binvecs[(dim+1)%3]
		v := binvecs[(dim+2)%3]
		n := normals[dim]
		t = dot3(n, p)
		p0 := sub3(p, scale3(n, t))
		uv := dot3(u, v)
		a := uv*dot3(p0, v) - dot3(v, v)*dot3(p0, u)
		b := uv*dot3(p0, u) - dot3(u, u)*dot3(p0, v)
		denom := uv*uv - dot3(u, u)*dot3(v, v)
		a /= denom
		b /= denom
		if a > 0 && b > 0 && a < 1 && b < 1 {
			if ds := t * t; ds < distsq {
				distsq = ds
			}
		}
	}
	return distsq
}

func intAbs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
