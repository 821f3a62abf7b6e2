package cell

import (
	"fmt"
	"math"
	"testing"

	v3 "github.com/rmera/gocell/v3"
)

func TestNewCell(Te *testing.T) {
	C := NewOrthoCell(10, 12, 14, [3]bool{true, true, true})
	if math.Abs(C.Volume()-1680) > appzero {
		Te.Error("wrong volume for a 10x12x14 cell:", C.Volume())
	}
	if !C.IsAxisAligned() {
		Te.Error("an orthogonal cell should be axis aligned")
	}
	if C.IsDegenerate() {
		Te.Error("a 10x12x14 cell is not degenerate")
	}
	if !C.IsPeriodic() || C.PBC() != [3]bool{true, true, true} {
		Te.Error("periodicity flags not preserved")
	}
	axes := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for dim := 0; dim < 3; dim++ {
		n := C.NormalVector(dim)
		for k := 0; k < 3; k++ {
			if math.Abs(n.At(0, k)-axes[dim][k]) > appzero {
				Te.Error("wrong normal for an orthogonal cell", dim, n)
			}
		}
	}
	fmt.Println("cell vectors:", C.Vecs())
}

func TestTriclinicGeometry(Te *testing.T) {
	vecs, err := v3.NewMatrix([]float64{10, 0, 0, 3, 9, 0, 1, 2, 8})
	if err != nil {
		Te.Fatal(err)
	}
	origin, _ := v3.NewMatrix([]float64{-5, -5, -5})
	C := NewCell(vecs, [3]bool{true, true, true}, origin)
	if math.Abs(C.Volume()-720) > 1e-9 {
		Te.Error("wrong volume for the triclinic cell:", C.Volume())
	}
	for j := 0; j < 3; j++ {
		if C.Origin().At(0, j) != -5 {
			Te.Error("origin not preserved:", C.Origin())
		}
	}
	if C.IsAxisAligned() {
		Te.Error("this triclinic cell is not axis aligned")
	}
	//each normal has unit length, is orthogonal to the other two cell
	//vectors and makes a positive projection with its own.
	for dim := 0; dim < 3; dim++ {
		n := C.NormalVector(dim)
		if math.Abs(n.Norm(2)-1) > 1e-9 {
			Te.Error("normal vector is not unitary", dim, n)
		}
		own := vecs.VecView(dim)
		if n.Dot(own) <= 0 {
			Te.Error("normal vector should point inwards", dim, n)
		}
		for _, other := range []int{(dim + 1) % 3, (dim + 2) % 3} {
			if math.Abs(n.Dot(vecs.VecView(other))) > 1e-9 {
				Te.Error("normal vector not orthogonal to the face", dim, other, n)
			}
		}
	}
	//reduced->absolute has to undo absolute->reduced.
	points, _ := v3.NewMatrix([]float64{0, 0, 0, -4.9, 3.2, 1.1, 7, 7, 7, -1, 12, -3})
	red := C.AbsoluteToReduced(points)
	back := C.ReducedToAbsolute(red)
	for i := 0; i < points.NVecs(); i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(back.At(i, j)-points.At(i, j)) > 1e-9 {
				Te.Error("reduced/absolute roundtrip failed", points.VecView(i), back.VecView(i))
			}
		}
	}
}

func TestWrapping(Te *testing.T) {
	C := NewOrthoCell(10, 10, 10, [3]bool{true, true, true})
	points, _ := v3.NewMatrix([]float64{12, -3, 25, 10, 0, 9.5})
	w := C.WrapPoints(points)
	expected := [][3]float64{{2, 7, 5}, {0, 0, 9.5}}
	for i, e := range expected {
		for j := 0; j < 3; j++ {
			if math.Abs(w.At(i, j)-e[j]) > 1e-9 {
				Te.Error("wrong wrapped point", i, w.VecView(i), e)
			}
		}
	}
	vecs, _ := v3.NewMatrix([]float64{7, -8, 3})
	mi := C.WrapVectors(vecs)
	for j, e := range [3]float64{-3, 2, 3} {
		if math.Abs(mi.At(0, j)-e) > 1e-9 {
			Te.Error("wrong minimum image", mi, e)
		}
	}
	if C.IsWrappedVector(mi) == false {
		Te.Error("a minimum image is, by definition, wrapped")
	}
	if C.IsWrappedVector(vecs) == true {
		Te.Error("(7,-8,3) is not a minimum image in a 10x10x10 cell")
	}
	onEdge, _ := v3.NewMatrix([]float64{5, 0, 0})
	if C.IsWrappedVector(onEdge) == true {
		Te.Error("a vector reaching exactly half a cell counts as not wrapped")
	}
	//along a non-periodic direction nothing is ever out of place.
	C2 := NewOrthoCell(10, 10, 10, [3]bool{true, true, false})
	long, _ := v3.NewMatrix([]float64{1, 1, 100})
	if C2.IsWrappedVector(long) == false {
		Te.Error("the z direction is not periodic, (1,1,100) should be 'wrapped'")
	}
	w2 := C2.WrapPoints(points)
	if w2.At(0, 2) != 25 {
		Te.Error("WrapPoints should not touch non-periodic directions", w2)
	}
}

func TestModulo(Te *testing.T) {
	cases := [][3]int{{-1, 5, 4}, {7, 5, 2}, {-5, 5, 0}, {0, 5, 0}, {-11, 5, 4}}
	for _, c := range cases {
		if r := Modulo(c[0], c[1]); r != c[2] {
			Te.Error("Modulo", c[0], c[1], "should be", c[2], "got", r)
		}
	}
}

func TestDegenerateCell(Te *testing.T) {
	//two parallel vectors span no volume.
	vecs, _ := v3.NewMatrix([]float64{1, 0, 0, 2, 0, 0, 0, 0, 1})
	C := NewCell(vecs, [3]bool{true, true, true})
	if !C.IsDegenerate() {
		Te.Error("a cell with parallel vectors should be degenerate")
	}
	coords, _ := v3.NewMatrix([]float64{0, 0, 0})
	_, err := New(coords, C, 1.0)
	if err == nil {
		Te.Error("building a finder on a degenerate cell has to fail")
	}
	fmt.Println("error obtained, as expected:", err)
}
