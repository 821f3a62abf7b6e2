/*
 * query.go, part of gocell.
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

import (
	"math"

	v3 "github.com/rmera/gocell/v3"
)

// Query iterates over all the neighbors of one particle within the cutoff
// radius of the Finder, in the style of bufio.Scanner:
//
//	q := finder.Query(i)
//	for q.Next() {
//		j := q.Current()
//		...
//	}
//	if err := q.Err(); err != nil {
//		...
//	}
//
// Every periodic image of a particle within the cutoff is reported
// separately, including images of the central particle itself, but never
// the particle at zero distance from itself. Each Query is for the use of
// a single goroutine, but any number of Queries on the same Finder can run
// concurrently.
type Query struct {
	f           *Finder
	centerIndex int
	center      [3]float64
	shifted     [3]float64 //center, translated to the periodic image whose surroundings we are visiting
	centerBin   [3]int
	currentBin  [3]int
	stencilCur  int
	cur         int32 //next particle to visit in the current bin, -1 when the bin is done
	index       int
	delta       [3]float64
	distsq      float64
	shift       [3]int8
	err         error
	atEnd       bool
}

// Query returns an iterator over the neighbors of the ith particle.
// Panics if i is out of range.
func (F *Finder) Query(i int) *Query {
	if i < 0 || i >= len(F.particles) {
		panic(ErrParticleOutOfRange)
	}
	Q := &Query{f: F, centerIndex: i, index: -1, cur: -1}
	Q.center = F.particles[i].pos
	rp := F.reducedBin(Q.center)
	for k := 0; k < 3; k++ {
		Q.centerBin[k] = int(math.Floor(rp[k]))
		if Q.centerBin[k] < 0 {
			Q.centerBin[k] = 0
		} else if Q.centerBin[k] >= F.binDim[k] {
			//the high clamp is binDim, not binDim-1; along non-periodic
			//directions the stencil walk just skips bins that don't exist.
			Q.centerBin[k] = F.binDim[k]
		}
	}
	return Q
}

// Next advances the iterator to the next neighbor within the cutoff. It
// returns false when all neighbors have been visited, or when the search
// can't go on; the two cases are told apart with Err.
func (Q *Query) Next() bool {
	if Q.atEnd || Q.err != nil {
		return false
	}
	F := Q.f
	for {
		for Q.cur >= 0 {
			p := &F.particles[Q.cur]
			Q.index = int(Q.cur)
			Q.cur = p.next
			Q.delta[0] = p.pos[0] - Q.shifted[0]
			Q.delta[1] = p.pos[1] - Q.shifted[1]
			Q.delta[2] = p.pos[2] - Q.shifted[2]
			Q.distsq = Q.delta[0]*Q.delta[0] + Q.delta[1]*Q.delta[1] + Q.delta[2]*Q.delta[2]
			if Q.distsq <= F.cutoffsq && (Q.index != Q.centerIndex || Q.shift != [3]int8{}) {
				return true
			}
		}
		//the current bin is exhausted; move on to the next stencil offset
		//that lands on an existing bin.
		for {
			if Q.stencilCur >= len(F.stencil) {
				Q.atEnd = true
				Q.index = -1
				return false
			}
			st := F.stencil[Q.stencilCur]
			Q.shifted = Q.center
			Q.shift = [3]int8{}
			skipBin := false
			for k := 0; k < 3; k++ {
				Q.currentBin[k] = Q.centerBin[k] + st[k]
				if !F.cell.pbc[k] {
					if Q.currentBin[k] < 0 || Q.currentBin[k] >= F.binDim[k] {
						skipBin = true
						break
					}
				} else if Q.currentBin[k] >= F.binDim[k] {
					s := Q.currentBin[k] / F.binDim[k]
					if s > math.MaxInt8 {
						Q.err = CError{"Periodic simulation cell is too small or cutoff radius is too large to generate neighbor lists", []string{"Query.Next"}}
						Q.atEnd = true
						Q.index = -1
						return false
					}
					Q.shift[k] = int8(s)
					Q.currentBin[k] -= s * F.binDim[k]
					for d := 0; d < 3; d++ {
						Q.shifted[d] -= float64(s) * F.cell.vecs[k][d]
					}
				} else if Q.currentBin[k] < 0 {
					s := (Q.currentBin[k] - F.binDim[k] + 1) / F.binDim[k]
					if s < math.MinInt8 {
						Q.err = CError{"Periodic simulation cell is too small or cutoff radius is too large to generate neighbor lists", []string{"Query.Next"}}
						Q.atEnd = true
						Q.index = -1
						return false
					}
					Q.shift[k] = int8(s)
					Q.currentBin[k] -= s * F.binDim[k]
					for d := 0; d < 3; d++ {
						Q.shifted[d] -= float64(s) * F.cell.vecs[k][d]
					}
				}
			}
			Q.stencilCur++
			if !skipBin {
				Q.cur = F.bins[Q.currentBin[0]+Q.currentBin[1]*F.binDim[0]+Q.currentBin[2]*F.binDim[0]*F.binDim[1]]
				break
			}
		}
	}
}

// Err returns the error that stopped the iteration, if any. It has to be
// checked once Next has returned false.
func (Q *Query) Err() error {
	return Q.err
}

// Current returns the index of the current neighbor. It is only valid
// after a call to Next that returned true; after the iteration ends it
// returns -1.
func (Q *Query) Current() int {
	return Q.index
}

// Delta returns the vector from the central particle to the current
// neighbor image.
func (Q *Query) Delta() [3]float64 {
	return Q.delta
}

// DeltaVec is as Delta, but puts the vector in the given matrix, which is
// allocated if nil, and returned.
func (Q *Query) DeltaVec(dst *v3.Matrix) *v3.Matrix {
	if dst == nil {
		dst = v3.Zeros(1)
	}
	for k := 0; k < 3; k++ {
		dst.Set(0, k, Q.delta[k])
	}
	return dst
}

// DistanceSquared returns the squared distance between the central
// particle and the current neighbor image.
func (Q *Query) DistanceSquared() float64 {
	return Q.distsq
}

// Distance returns the distance between the central particle and the
// current neighbor image.
func (Q *Query) Distance() float64 {
	return math.Sqrt(Q.distsq)
}

// PBCShift returns the periodic shift of the current neighbor image with
// respect to the wrapped position of the neighbor particle, in numbers of
// cell vectors.
func (Q *Query) PBCShift() [3]int8 {
	return Q.shift
}

// UnwrappedPBCShift returns the periodic shift of the current neighbor
// image with respect to the original, unwrapped coordinates the Finder was
// built with. Use this, rather than PBCShift, if you deal in the original
// coordinates.
func (Q *Query) UnwrappedPBCShift() [3]int8 {
	s1 := Q.f.particles[Q.centerIndex].shift
	s2 := Q.f.particles[Q.index].shift
	var ret [3]int8
	for k := 0; k < 3; k++ {
		ret[k] = Q.shift[k] - s1[k] + s2[k]
	}
	return ret
}
