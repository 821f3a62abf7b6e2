/*
 * cell.go, part of gocell.
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

// Cell represents a simulation cell: a parallelepiped spanned by 3 vectors,
// an origin, and a periodicity flag for each of the 3 directions. The cell
// may be triclinic, i.e. the vectors don't need to be orthogonal to each
// other. A Cell is immutable once built, so it is safe to share between
// goroutines.
type Cell struct {
	vecs       [3][3]float64 //vecs[i] is the ith cell vector
	origin     [3]float64
	inv        [3][3]float64 //inverse of the matrix whose columns are the cell vectors
	pbc        [3]bool
	volume     float64
	invertible bool
}

// NewCell builds a simulation cell from the 3 cell vectors (one per row of
// vecs) and the periodicity flags. The origin of the cell, if not given, is
// taken as (0,0,0). NewCell panics if vecs is nil or doesn't have exactly 3
// vectors. A degenerate (zero or near-zero volume) cell is still built, but
// neighbor searching on it will return an error.
func NewCell(vecs *v3.Matrix, pbc [3]bool, origin ...*v3.Matrix) *Cell {
	if vecs == nil {
		panic(ErrNilCell)
	}
	if vecs.NVecs() != 3 {
		panic(ErrNotCellMatrix)
	}
	C := new(Cell)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			C.vecs[i][j] = vecs.At(i, j)
		}
	}
	if len(origin) > 0 && origin[0] != nil {
		o := origin[0]
		if o.NVecs() != 1 {
			panic(ErrNotVector)
		}
		C.origin = [3]float64{o.At(0, 0), o.At(0, 1), o.At(0, 2)}
	}
	C.pbc = pbc
	C.volume = math.Abs(det3(C.vecs))
	inv, err := gnInverse(C.vecs)
	if err != nil {
		//A degenerate cell gets the identity as its "inverse". Whoever
		//builds neighbor lists with it will get an error there.
		inv = identity3()
		C.invertible = false
	} else {
		C.invertible = true
	}
	C.inv = inv
	return C
}

// NewOrthoCell is a convenience constructor for the common case of an
// orthogonal cell with vectors (x,0,0), (0,y,0) and (0,0,z) and the origin
// at (0,0,0).
func NewOrthoCell(x, y, z float64, pbc [3]bool) *Cell {
	vecs := v3.Zeros(3)
	vecs.Set(0, 0, x)
	vecs.Set(1, 1, y)
	vecs.Set(2, 2, z)
	return NewCell(vecs, pbc)
}

// Vecs returns a copy of the 3 cell vectors, one per row.
func (C *Cell) Vecs() *v3.Matrix {
	ret := v3.Zeros(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ret.Set(i, j, C.vecs[i][j])
		}
	}
	return ret
}

// Origin returns a copy of the cell origin.
func (C *Cell) Origin() *v3.Matrix {
	ret := v3.Zeros(1)
	for j := 0; j < 3; j++ {
		ret.Set(0, j, C.origin[j])
	}
	return ret
}

// PBC returns the periodicity flags of the cell.
func (C *Cell) PBC() [3]bool {
	return C.pbc
}

// IsPeriodic returns true if the cell is periodic in at least one direction.
func (C *Cell) IsPeriodic() bool {
	return C.pbc[0] || C.pbc[1] || C.pbc[2]
}

// Volume returns the volume of the cell.
func (C *Cell) Volume() float64 {
	return C.volume
}

// IsDegenerate returns true if the cell vectors span a zero or near-zero
// volume, or the cell matrix could not be inverted.
func (C *Cell) IsDegenerate() bool {
	return C.volume <= appzero || !C.invertible
}

// IsAxisAligned returns true if the cell vectors are aligned with the
// cartesian axes.
func (C *Cell) IsAxisAligned() bool {
	return C.vecs[0][1] == 0 && C.vecs[0][2] == 0 &&
		C.vecs[1][0] == 0 && C.vecs[1][2] == 0 &&
		C.vecs[2][0] == 0 && C.vecs[2][1] == 0
}

// NormalVector returns the normal vector of the cell face spanned by the
// two cell vectors other than the dim one. The normal has unit length and
// points towards the inside of the cell. Panics if dim is not 0, 1 or 2.
// For a degenerate cell the returned vector is not usable.
func (C *Cell) NormalVector(dim int) *v3.Matrix {
	if dim < 0 || dim > 2 {
		panic(ErrNotDim)
	}
	n := C.normal(dim)
	ret := v3.Zeros(1)
	ret.Set(0, 0, n[0])
	ret.Set(0, 1, n[1])
	ret.Set(0, 2, n[2])
	return ret
}

// normal is as NormalVector but deals in plain arrays.
func (C *Cell) normal(dim int) [3]float64 {
	n := cross3(C.vecs[(dim+1)%3], C.vecs[(dim+2)%3])
	if dot3(n, C.vecs[dim]) < 0 {
		n = scale3(n, -1)
	}
	norm := norm3(n)
	return scale3(n, 1.0/norm)
}

// reducedPoint returns the given point in reduced (fractional) coordinates
// of the cell.
func (C *Cell) reducedPoint(p [3]float64) [3]float64 {
	d := sub3(p, C.origin)
	var ret [3]float64
	for r := 0; r < 3; r++ {
		ret[r] = C.inv[r][0]*d[0] + C.inv[r][1]*d[1] + C.inv[r][2]*d[2]
	}
	return ret
}

// reducedVector is as reducedPoint, but for a vector, i.e. the origin of
// the cell plays no role.
func (C *Cell) reducedVector(v [3]float64) [3]float64 {
	var ret [3]float64
	for r := 0; r < 3; r++ {
		ret[r] = C.inv[r][0]*v[0] + C.inv[r][1]*v[1] + C.inv[r][2]*v[2]
	}
	return ret
}

// absolute returns the absolute-coordinates point for the given reduced
// (fractional) coordinates.
func (C *Cell) absolute(red [3]float64) [3]float64 {
	ret := C.origin
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ret[j] += red[i] * C.vecs[i][j]
		}
	}
	return ret
}

// AbsoluteToReduced returns a new matrix with each point (row) of A
// expressed in reduced (fractional) coordinates of the cell.
func (C *Cell) AbsoluteToReduced(A *v3.Matrix) *v3.Matrix {
	n := A.NVecs()
	ret := v3.Zeros(n)
	for i := 0; i < n; i++ {
		red := C.reducedPoint([3]float64{A.At(i, 0), A.At(i, 1), A.At(i, 2)})
		for j := 0; j < 3; j++ {
			ret.Set(i, j, red[j])
		}
	}
	return ret
}

// ReducedToAbsolute returns a new matrix with each point (row) of A, given
// in reduced (fractional) coordinates of the cell, expressed in absolute
// coordinates.
func (C *Cell) ReducedToAbsolute(A *v3.Matrix) *v3.Matrix {
	n := A.NVecs()
	ret := v3.Zeros(n)
	for i := 0; i < n; i++ {
		abs := C.absolute([3]float64{A.At(i, 0), A.At(i, 1), A.At(i, 2)})
		for j := 0; j < 3; j++ {
			ret.Set(i, j, abs[j])
		}
	}
	return ret
}

// WrapPoints returns a new matrix with each point (row) of A translated
// into the primary cell image along the periodic directions of the cell.
// Non-periodic directions are left untouched.
func (C *Cell) WrapPoints(A *v3.Matrix) *v3.Matrix {
	n := A.NVecs()
	ret := v3.Zeros(n)
	ret.Copy(A)
	for i := 0; i < n; i++ {
		p := [3]float64{A.At(i, 0), A.At(i, 1), A.At(i, 2)}
		red := C.reducedPoint(p)
		for d := 0; d < 3; d++ {
			if !C.pbc[d] {
				continue
			}
			if s := math.Floor(red[d]); s != 0 {
				for k := 0; k < 3; k++ {
					ret.Set(i, k, ret.At(i, k)-s*C.vecs[d][k])
				}
			}
		}
	}
	return ret
}

// WrapVectors returns a new matrix where each vector (row) of A is replaced
// by its minimum image under the periodic directions of the cell, i.e. the
// shortest vector equivalent to it modulo whole-cell translations.
func (C *Cell) WrapVectors(A *v3.Matrix) *v3.Matrix {
	n := A.NVecs()
	ret := v3.Zeros(n)
	ret.Copy(A)
	for i := 0; i < n; i++ {
		v := [3]float64{A.At(i, 0), A.At(i, 1), A.At(i, 2)}
		red := C.reducedVector(v)
		for d := 0; d < 3; d++ {
			if !C.pbc[d] {
				continue
			}
			if s := math.Floor(red[d] + 0.5); s != 0 {
				for k := 0; k < 3; k++ {
					ret.Set(i, k, ret.At(i, k)-s*C.vecs[d][k])
				}
			}
		}
	}
	return ret
}

// IsWrappedVector returns true if the given vector is already its own
// minimum image under the periodic directions of the cell. It panics if v
// is not a single vector.
func (C *Cell) IsWrappedVector(v *v3.Matrix) bool {
	if v.NVecs() != 1 {
		panic(ErrNotVector)
	}
	red := C.reducedVector([3]float64{v.At(0, 0), v.At(0, 1), v.At(0, 2)})
	for d := 0; d < 3; d++ {
		if C.pbc[d] && math.Abs(red[d]) >= 0.5 {
			return false
		}
	}
	return true
}

// Modulo returns k modulo n, with the result always in [0,n), also for
// negative k. This is the modulo needed for bin indices, where Go's %
// operator, which can return negative values, is not what you want.
func Modulo(k, n int) int {
	k %= n
	if k < 0 {
		k += n
	}
	return k
}
