package cell

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	v3 "github.com/rmera/gocell/v3"
	"github.com/stretchr/testify/require"
)

type neighborRecord struct {
	i, j   int
	shift  [3]int8
	distsq float64
}

// collect runs a full query on the ith particle and returns the neighbors
// in the order they were visited, with their unwrapped shifts.
func collect(Te *testing.T, f *Finder, i int) []neighborRecord {
	var ret []neighborRecord
	q := f.Query(i)
	for q.Next() {
		ret = append(ret, neighborRecord{i, q.Current(), q.UnwrappedPBCShift(), q.DistanceSquared()})
	}
	if q.Err() != nil {
		Te.Fatal(q.Err())
	}
	return ret
}

// bruteNeighbors returns every (i, j, shift) triplet with the shifted copy
// of particle j within the cutoff of particle i, by checking all images in
// the given shift range, one by one, from the raw input coordinates.
func bruteNeighbors(coords *v3.Matrix, C *Cell, cutoff float64, srange int) map[string]float64 {
	ret := make(map[string]float64)
	n := coords.NVecs()
	vecs := C.Vecs()
	pbc := C.PBC()
	cutsq := cutoff * cutoff
	var smin, smax [3]int
	for k := 0; k < 3; k++ {
		if pbc[k] {
			smin[k], smax[k] = -srange, srange
		}
	}
	for i := 0; i < n; i++ {
		xi := [3]float64{coords.At(i, 0), coords.At(i, 1), coords.At(i, 2)}
		for j := 0; j < n; j++ {
			xj := [3]float64{coords.At(j, 0), coords.At(j, 1), coords.At(j, 2)}
			for sx := smin[0]; sx <= smax[0]; sx++ {
				for sy := smin[1]; sy <= smax[1]; sy++ {
					for sz := smin[2]; sz <= smax[2]; sz++ {
						if i == j && sx == 0 && sy == 0 && sz == 0 {
							continue
						}
						var d [3]float64
						s := [3]float64{float64(sx), float64(sy), float64(sz)}
						for k := 0; k < 3; k++ {
							d[k] = xj[k] - xi[k]
							for v := 0; v < 3; v++ {
								d[k] += s[v] * vecs.At(v, k)
							}
						}
						if dsq := dot3(d, d); dsq <= cutsq {
							ret[fmt.Sprintf("%d,%d,%d,%d,%d", i, j, sx, sy, sz)] = dsq
						}
					}
				}
			}
		}
	}
	return ret
}

func TestSimpleCubicCounts(Te *testing.T) {
	coords := lattice(5, 5, 5, 1.0)
	C := NewOrthoCell(5, 5, 5, [3]bool{true, true, true})
	f, err := New(coords, C, 1.5)
	require.NoError(Te, err)
	for i := 0; i < f.Len(); i++ {
		var first, second, total int
		q := f.Query(i)
		for q.Next() {
			total++
			switch {
			case math.Abs(q.DistanceSquared()-1) < 1e-9:
				first++
			case math.Abs(q.DistanceSquared()-2) < 1e-9:
				second++
			}
			//the delta vector has to be consistent with the distance.
			d := q.Delta()
			require.InDelta(Te, q.DistanceSquared(), dot3(d, d), 1e-12)
			dv := q.DeltaVec(nil)
			require.Equal(Te, d[1], dv.At(0, 1))
			require.InDelta(Te, q.Distance()*q.Distance(), q.DistanceSquared(), 1e-9)
		}
		require.NoError(Te, q.Err())
		//every particle of a periodic simple cubic lattice sees 6 first
		//plus 12 second neighbors within 1.5 spacings.
		require.Equal(Te, 18, total, "particle %d", i)
		require.Equal(Te, 6, first, "particle %d", i)
		require.Equal(Te, 12, second, "particle %d", i)
	}
	//the cutoff is inclusive, so cutting exactly at the lattice spacing
	//still gets the 6 first neighbors.
	f2, err := New(coords, C, 1.0)
	require.NoError(Te, err)
	q := f2.Query(62) //the center of the lattice
	total := 0
	for q.Next() {
		total++
	}
	require.NoError(Te, q.Err())
	require.Equal(Te, 6, total)
}

func TestCutoffBoundary(Te *testing.T) {
	coords, _ := v3.NewMatrix([]float64{0, 0, 0, 0, 0, 2})
	origin, _ := v3.NewMatrix([]float64{-25, -25, -25})
	vecs, _ := v3.NewMatrix([]float64{50, 0, 0, 0, 50, 0, 0, 0, 50})
	C := NewCell(vecs, [3]bool{false, false, false}, origin)
	f, err := New(coords, C, 2.0)
	require.NoError(Te, err)
	for i := 0; i < 2; i++ {
		recs := collect(Te, f, i)
		require.Len(Te, recs, 1, "a pair exactly at the cutoff is a neighbor")
		require.Equal(Te, 1-i, recs[0].j)
		require.InDelta(Te, 4.0, recs[0].distsq, 1e-12)
		require.Equal(Te, [3]int8{}, recs[0].shift)
	}
	f2, err := New(coords, C, 1.999999)
	require.NoError(Te, err)
	require.Empty(Te, collect(Te, f2, 0), "just under the cutoff is not a neighbor")
}

func TestSelfImages(Te *testing.T) {
	coords, _ := v3.NewMatrix([]float64{1, 1, 1})
	C := NewOrthoCell(2, 2, 2, [3]bool{true, true, true})
	f, err := New(coords, C, 2.2)
	require.NoError(Te, err)
	recs := collect(Te, f, 0)
	//the 6 face images at distance 2; the diagonal ones at 2*sqrt(2) are
	//beyond the cutoff. The particle at zero distance from itself is not
	//a neighbor.
	require.Len(Te, recs, 6)
	var deltaSum [3]float64
	q := f.Query(0)
	for q.Next() {
		require.Equal(Te, 0, q.Current())
		require.NotEqual(Te, [3]int8{}, q.PBCShift())
		require.Equal(Te, q.PBCShift(), q.UnwrappedPBCShift())
		require.InDelta(Te, 4.0, q.DistanceSquared(), 1e-12)
		d := q.Delta()
		for k := 0; k < 3; k++ {
			deltaSum[k] += d[k]
		}
	}
	require.NoError(Te, q.Err())
	for k := 0; k < 3; k++ {
		require.InDelta(Te, 0, deltaSum[k], 1e-12, "images come in symmetric pairs")
	}
}

func TestNonPeriodicBoundary(Te *testing.T) {
	coords := lattice(5, 5, 5, 1.0)
	C := NewOrthoCell(5, 5, 5, [3]bool{true, true, false})
	f, err := New(coords, C, 1.5)
	require.NoError(Te, err)
	center := 2 + 2*5 + 2*25 //(2,2,2), away from the open boundary
	require.Len(Te, collect(Te, f, center), 18)
	//a corner particle keeps its x and y images but loses the whole
	//z<0 layer: 5 of its 18 neighbors.
	require.Len(Te, collect(Te, f, 0), 13)
	top := 4 * 25 //(0,0,4), against the other open boundary
	require.Len(Te, collect(Te, f, top), 13)
}

func triclinicSystem(Te *testing.T, pbc [3]bool, n int) (*v3.Matrix, *Cell) {
	vecs, err := v3.NewMatrix([]float64{4, 0, 0, 1.8, 3.6, 0, 0.9, 1.2, 3.1})
	require.NoError(Te, err)
	origin, err := v3.NewMatrix([]float64{-1, -0.5, -0.3})
	require.NoError(Te, err)
	C := NewCell(vecs, pbc, origin)
	//random points in reduced coordinates, deliberately spilling out of
	//the cell a bit so the finder has to wrap some of them.
	rnd := rand.New(rand.NewSource(1))
	red := v3.Zeros(n)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			red.Set(i, j, -0.2+1.4*rnd.Float64())
		}
	}
	return C.ReducedToAbsolute(red), C
}

func TestTriclinicBruteForce(Te *testing.T) {
	for _, pbc := range [][3]bool{{true, true, true}, {true, false, true}} {
		coords, C := triclinicSystem(Te, pbc, 100)
		cutoff := 1.2
		f, err := New(coords, C, cutoff)
		require.NoError(Te, err)
		want := bruteNeighbors(coords, C, cutoff, 2)
		require.NotEmpty(Te, want, "the reference search should find something")
		got := 0
		for i := 0; i < f.Len(); i++ {
			q := f.Query(i)
			for q.Next() {
				s := q.UnwrappedPBCShift()
				key := fmt.Sprintf("%d,%d,%d,%d,%d", i, q.Current(), s[0], s[1], s[2])
				dsq, ok := want[key]
				require.True(Te, ok, "pbc %v: spurious neighbor %s", pbc, key)
				require.InDelta(Te, dsq, q.DistanceSquared(), 1e-9, "pbc %v: wrong distance for %s", pbc, key)
				delete(want, key)
				got++
			}
			require.NoError(Te, q.Err())
		}
		require.Empty(Te, want, "pbc %v: neighbors missed by the finder", pbc)
		fmt.Printf("pbc %v: %d neighbor pairs cross-checked\n", pbc, got)
	}
}

func TestQueryDeterminism(Te *testing.T) {
	coords, C := triclinicSystem(Te, [3]bool{true, true, true}, 100)
	f, err := New(coords, C, 1.2)
	require.NoError(Te, err)
	reference := make([][]neighborRecord, f.Len())
	for i := range reference {
		reference[i] = collect(Te, f, i)
	}
	//several goroutines querying the same finder at once must all see
	//exactly the reference sequences.
	const workers = 8
	results := make([][][]neighborRecord, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			mine := make([][]neighborRecord, f.Len())
			for i := range mine {
				var recs []neighborRecord
				q := f.Query(i)
				for q.Next() {
					recs = append(recs, neighborRecord{i, q.Current(), q.UnwrappedPBCShift(), q.DistanceSquared()})
				}
				mine[i] = recs
			}
			results[w] = mine
		}(w)
	}
	wg.Wait()
	for w := 0; w < workers; w++ {
		require.Equal(Te, reference, results[w], "worker %d saw different neighbors", w)
	}
}

func TestSymmetry(Te *testing.T) {
	coords, C := triclinicSystem(Te, [3]bool{true, true, true}, 150)
	f, err := New(coords, C, 1.2)
	require.NoError(Te, err)
	all := make([][]neighborRecord, f.Len())
	for i := range all {
		all[i] = collect(Te, f, i)
	}
	//every pair must be visible from both ends, with the opposite shift
	//and the same distance.
	for _, recs := range all {
		for _, r := range recs {
			rev := [3]int8{-r.shift[0], -r.shift[1], -r.shift[2]}
			found := false
			for _, back := range all[r.j] {
				if back.j == r.i && back.shift == rev {
					require.InDelta(Te, r.distsq, back.distsq, 1e-12, "asymmetric distance between %d and %d", r.i, r.j)
					found = true
					break
				}
			}
			require.True(Te, found, "particle %d sees %d (shift %v) but not the reverse", r.i, r.j, r.shift)
		}
	}
}
