package cell

//A bunch of unexported mathematical functions, most of them just for convenience.
//Here the three vectors of a simulation cell are handled as plain [3][3]float64
//arrays (one vector per row) so the hot paths don't touch gonum at all.

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const appzero float64 = 0.000000000001 //used to correct floating point
//errors. Everything equal or less than this is considered zero.

//gnInverse returns the inverse of the 3x3 matrix whose columns are the
//three given vectors, as another set of row vectors (i.e. ret[r][c] is the
//r,c element of the inverse). It wraps the gonum implementation.
func gnInverse(vecs [3][3]float64) ([3][3]float64, error) {
	var ret [3][3]float64
	m := mat.NewDense(3, 3, nil)
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			m.Set(r, c, vecs[c][r])
		}
	}
	inv := new(mat.Dense)
	err := inv.Inverse(m)
	if err != nil {
		//gonum gives a Condition error for near-singular matrices but still
		//puts its best-effort result in the receiver. We keep that result
		//when it is usable, as whoever needs a non-singular cell checks the
		//volume separately.
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				v := inv.At(r, c)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return ret, CError{fmt.Sprintf("goCell: Couldn't invert the cell matrix: %s", err.Error()), []string{"mat.Inverse", "gnInverse"}}
				}
			}
		}
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			ret[r][c] = inv.At(r, c)
		}
	}
	return ret, nil
}

//cross3 returns the cross product of 2 vectors.
func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func scale3(v [3]float64, f float64) [3]float64 {
	return [3]float64{v[0] * f, v[1] * f, v[2] * f}
}

func norm3(a [3]float64) float64 {
	return math.Sqrt(dot3(a, a))
}

//det3 returns the determinant of the 3x3 matrix whose columns are the
//three given vectors, i.e. their triple product.
func det3(vecs [3][3]float64) float64 {
	return dot3(vecs[0], cross3(vecs[1], vecs[2]))
}

//identity3 is the fallback "inverse" for a degenerate cell.
func identity3() [3][3]float64 {
	return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}
