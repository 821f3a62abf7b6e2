/*
 * finder.go, part of gocell.
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
	"fmt"
	"math"

	v3 "github.com/rmera/gocell/v3"
)

// The total number of bins is capped so pathological cutoff/cell
// combinations don't allocate absurd amounts of memory.
const binCountLimit = 128 * 128 * 128

// progressStride is how often (in particles) the long loops report their
// progress and check for cancellation.
const progressStride = 4096

// listParticle is one entry of the particles arena. The linked list of
// each bin is kept with indexes into the arena, with -1 as the "nil"
// sentinel, instead of pointers. This more than halves the memory the
// garbage collector has to trace on large systems.
type listParticle struct {
	pos   [3]float64 //position, wrapped into the cell along the periodic directions
	shift [3]int8    //how many times the particle was translated by each cell vector during wrapping
	next  int32      //index of the next particle in the same bin, or -1
}

// Finder is a neighbor finder: it bins the particles of a system into a
// grid of cells so all the neighbors of a particle within a fixed cutoff
// radius can be found in constant time, periodic images included. A Finder
// is immutable after creation, so any number of goroutines can run queries
// on it concurrently.
type Finder struct {
	cutoff    float64
	cutoffsq  float64
	cell      *Cell
	binDim    [3]int
	recip     [3][3]float64 //reciprocal bin cell: takes absolute coordinates (minus the cell origin) to fractional bin coordinates
	stencil   [][3]int
	bins      []int32
	particles []listParticle
}

// New builds a neighbor finder for the given particle positions (one per
// row of coords), simulation cell and cutoff radius. It returns an error
// if the cutoff is not positive, if the cell is degenerate, or if a
// particle lies so far outside a periodic cell that its wrap shift is not
// representable. An optional Reporter gets progress updates and may cancel
// the construction, in which case the error returned implements
// CanceledError. New panics if coords or c are nil.
func New(coords *v3.Matrix, c *Cell, cutoff float64, rep ...Reporter) (*Finder, error) {
	if coords == nil {
		panic(ErrNilData)
	}
	if c == nil {
		panic(ErrNilCell)
	}
	if cutoff <= 0 {
		return nil, CError{"Invalid parameter: Neighbor cutoff radius must be positive", []string{"New"}}
	}
	if c.IsDegenerate() {
		return nil, CError{"Invalid input data: Simulation cell is degenerate", []string{"New"}}
	}
	var r Reporter
	if len(rep) > 0 {
		r = rep[0]
	}
	n := coords.NVecs()
	if r != nil {
		r.SetProgressText("Building neighbor lists")
		r.SetProgressRange(n)
	}
	F := &Finder{cutoff: cutoff, cutoffsq: cutoff * cutoff, cell: c}

	//Number of bins along each cell vector: as many as fit whole cutoff
	//lengths in the distance between the two cell faces crossed by that
	//vector, but at least one.
	var normals [3][3]float64
	for i := 0; i < 3; i++ {
		normals[i] = c.normal(i)
		x := math.Abs(dot3(c.vecs[i], normals[i]) / cutoff)
		bd := int(math.Floor(math.Min(x, float64(binCountLimit))))
		if bd < 1 {
			bd = 1
		}
		F.binDim[i] = bd
	}
	//Impose the limit on the total number of bins, reducing the count in
	//each dimension by the same fraction.
	binCount := int64(F.binDim[0]) * int64(F.binDim[1]) * int64(F.binDim[2])
	if binCount > binCountLimit {
		factor := math.Pow(float64(binCountLimit)/float64(binCount), 1.0/3.0)
		for i := 0; i < 3; i++ {
			F.binDim[i] = int(float64(F.binDim[i]) * factor)
			if F.binDim[i] < 1 {
				F.binDim[i] = 1
			}
		}
		binCount = int64(F.binDim[0]) * int64(F.binDim[1]) * int64(F.binDim[2])
	}

	//The bin cell is the cell divided by the number of bins along each
	//vector, so its reciprocal is the cell inverse with each row scaled up
	//by the bin count of that dimension.
	var binvecs [3][3]float64
	for i := 0; i < 3; i++ {
		binvecs[i] = scale3(c.vecs[i], 1.0/float64(F.binDim[i]))
		for j := 0; j < 3; j++ {
			F.recip[i][j] = float64(F.binDim[i]) * c.inv[i][j]
		}
	}

	F.stencil = makeStencil(binvecs, normals, F.cutoffsq)

	F.bins = make([]int32, binCount)
	for i := range F.bins {
		F.bins[i] = -1
	}

	//Sort the particles into their bins, wrapping them into the cell along
	//the periodic directions.
	F.particles = make([]listParticle, n)
	for i := 0; i < n; i++ {
		a := &F.particles[i]
		a.pos = [3]float64{coords.At(i, 0), coords.At(i, 1), coords.At(i, 2)}
		rp := F.reducedBin(a.pos)
		var binLoc [3]int
		for k := 0; k < 3; k++ {
			binLoc[k] = int(math.Floor(rp[k]))
			if c.pbc[k] {
				if binLoc[k] < 0 || binLoc[k] >= F.binDim[k] {
					var shift int
					if binLoc[k] < 0 {
						shift = -(binLoc[k]+1)/F.binDim[k] + 1
					} else {
						shift = -binLoc[k] / F.binDim[k]
					}
					if shift > math.MaxInt8 || shift < math.MinInt8 {
						return nil, CError{fmt.Sprintf("Particle %d lies more than %d periodic copies outside the simulation cell, its wrap shift can't be stored", i, math.MaxInt8), []string{"New"}}
					}
					a.shift[k] = int8(shift)
					for d := 0; d < 3; d++ {
						a.pos[d] += float64(shift) * c.vecs[k][d]
					}
					binLoc[k] = Modulo(binLoc[k], F.binDim[k])
				}
			} else if binLoc[k] < 0 {
				binLoc[k] = 0
			} else if binLoc[k] >= F.binDim[k] {
				binLoc[k] = F.binDim[k] - 1
			}
		}
		binIndex := binLoc[0] + binLoc[1]*F.binDim[0] + binLoc[2]*F.binDim[0]*F.binDim[1]
		a.next = F.bins[binIndex]
		F.bins[binIndex] = int32(i)
		if r != nil && i%progressStride == 0 {
			r.SetProgressValue(i)
			if r.IsCanceled() {
				return nil, errDecorate(canceledError{}, "New")
			}
		}
	}
	if r != nil {
		r.SetProgressValue(n)
	}
	return F, nil
}

// reducedBin returns the given absolute position in fractional bin
// coordinates, i.e. the integer parts are the (unwrapped) bin indexes.
func (F *Finder) reducedBin(p [3]float64) [3]float64 {
	d := sub3(p, F.cell.origin)
	var ret [3]float64
	for r := 0; r < 3; r++ {
		ret[r] = F.recip[r][0]*d[0] + F.recip[r][1]*d[1] + F.recip[r][2]*d[2]
	}
	return ret
}

// Len returns the number of particles in the finder.
func (F *Finder) Len() int {
	return len(F.particles)
}

// Cutoff returns the cutoff radius of the finder.
func (F *Finder) Cutoff() float64 {
	return F.cutoff
}

// CutoffSquared returns the square of the cutoff radius of the finder.
func (F *Finder) CutoffSquared() float64 {
	return F.cutoffsq
}

// Cell returns the simulation cell of the finder.
func (F *Finder) Cell() *Cell {
	return F.cell
}

// Position returns the position of the ith particle, wrapped into the
// primary cell image along the periodic directions. Note that this can
// differ from the coordinates the finder was built with. Panics if i is
// out of range.
func (F *Finder) Position(i int) *v3.Matrix {
	if i < 0 || i >= len(F.particles) {
		panic(ErrParticleOutOfRange)
	}
	ret := v3.Zeros(1)
	for k := 0; k < 3; k++ {
		ret.Set(0, k, F.particles[i].pos[k])
	}
	return ret
}
