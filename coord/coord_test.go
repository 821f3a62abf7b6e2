package coord

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	cell "github.com/rmera/gocell"
	v3 "github.com/rmera/gocell/v3"
	"github.com/stretchr/testify/require"
)

type testReporter struct {
	mu       sync.Mutex
	calls    int
	cancelAt int //cancel when this many IsCanceled calls have happened, -1 = never
}

func (r *testReporter) IsCanceled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.cancelAt >= 0 && r.calls > r.cancelAt
}
func (r *testReporter) SetProgressText(text string) {}
func (r *testReporter) SetProgressRange(max int)    {}
func (r *testReporter) SetProgressValue(val int)    {}

func lattice(nx, ny, nz int, spacing float64) *v3.Matrix {
	ret := v3.Zeros(nx * ny * nz)
	i := 0
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				ret.Set(i, 0, float64(x)*spacing)
				ret.Set(i, 1, float64(y)*spacing)
				ret.Set(i, 2, float64(z)*spacing)
				i++
			}
		}
	}
	return ret
}

// On a periodic simple cubic lattice with a cutoff between the second and
// third neighbor shell every particle coordinates with 6+12=18 others.
func TestNumbers(Te *testing.T) {
	coords := lattice(4, 4, 4, 1.0)
	C := cell.NewOrthoCell(4, 4, 4, [3]bool{true, true, true})
	nums, err := Numbers(coords, C, 1.5)
	if err != nil {
		Te.Fatal(err)
	}
	if len(nums) != 64 {
		Te.Fatalf("got %d coordination numbers for 64 particles", len(nums))
	}
	for i, n := range nums {
		if n != 18 {
			Te.Errorf("particle %d has coordination %d, want 18", i, n)
		}
	}
	fmt.Println("lattice coordination:", nums[0])
}

// Without periodicity the corner particles lose the neighbors that the
// wrap used to provide.
func TestNumbersNonPeriodic(Te *testing.T) {
	coords := lattice(4, 4, 4, 1.0)
	C := cell.NewOrthoCell(4, 4, 4, [3]bool{false, false, false})
	nums, err := Numbers(coords, C, 1.5)
	if err != nil {
		Te.Fatal(err)
	}
	if nums[0] != 6 {
		Te.Errorf("corner particle has coordination %d, want 6", nums[0])
	}
	center := 1 + 4 + 16 //(1,1,1), one step in from the corner
	if nums[center] != 18 {
		Te.Errorf("interior particle has coordination %d, want 18", nums[center])
	}
}

// The lattice g(r) must be zero except at the two neighbor shell
// distances, where the peak heights follow from the exact pair counts.
func TestRDF(Te *testing.T) {
	coords := lattice(4, 4, 4, 1.0)
	C := cell.NewOrthoCell(4, 4, 4, [3]bool{true, true, true})
	cutoff := 1.5
	r, g, err := RDF(coords, C, cutoff)
	require.NoError(Te, err)
	require.Equal(Te, defBins, len(r))
	require.Equal(Te, defBins, len(g))
	binSize := (cutoff + appzero) / float64(defBins)
	require.InDelta(Te, 0.0, r[0], 1e-12)
	require.InDelta(Te, binSize, r[1]-r[0], 1e-9)
	shell1 := int(1.0 / binSize)
	shell2 := int(math.Sqrt2 / binSize)
	factor := (4.0 / 3.0) * math.Pi * (64.0 / C.Volume()) * 64.0
	norm := func(bin int) float64 {
		r1 := binSize * float64(bin)
		r2 := r1 + binSize
		return factor * (r2*r2*r2 - r1*r1*r1)
	}
	require.InDelta(Te, 64.0*6.0/norm(shell1), g[shell1], 1e-9)
	require.InDelta(Te, 64.0*12.0/norm(shell2), g[shell2], 1e-9)
	for i := range g {
		if i == shell1 || i == shell2 {
			continue
		}
		require.Zerof(Te, g[i], "unexpected g(r) weight in bin %d (r=%f)", i, r[i])
	}
	fmt.Println("g(r) peaks:", g[shell1], g[shell2])
}

// A different bin count, and fewer goroutines, can't change the counts.
func TestRDFBinsOption(Te *testing.T) {
	coords := lattice(4, 4, 4, 1.0)
	C := cell.NewOrthoCell(4, 4, 4, [3]bool{true, true, true})
	o := DefaultOptions()
	o.Bins(100)
	o.Cpus(1)
	r, g, err := RDF(coords, C, 1.5, o)
	require.NoError(Te, err)
	require.Equal(Te, 100, len(r))
	binSize := (1.5 + appzero) / 100.0
	var total float64
	for i := range g {
		r1 := binSize * float64(i)
		r2 := r1 + binSize
		total += g[i] * (4.0 / 3.0) * math.Pi * (64.0 / C.Volume()) * 64.0 * (r2*r2*r2 - r1*r1*r1)
	}
	//all the 64*18 neighbor pairs have to land somewhere in the histogram.
	require.InDelta(Te, 64.0*18.0, total, 1e-6)
}

func TestPlotRDF(Te *testing.T) {
	coords := lattice(4, 4, 4, 1.0)
	C := cell.NewOrthoCell(4, 4, 4, [3]bool{true, true, true})
	r, g, err := RDF(coords, C, 1.5)
	if err != nil {
		Te.Fatal(err)
	}
	name := filepath.Join(Te.TempDir(), "rdf")
	if err := PlotRDF(r, g, "Simple cubic g(r)", name); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(name + ".png"); err != nil {
		Te.Errorf("the plot file was not written: %v", err)
	}
	if err := PlotRDF(r[:5], g, "bad", name); err == nil {
		Te.Error("expected an error for mismatched data")
	}
}

func TestCoordCancellation(Te *testing.T) {
	coords := lattice(4, 4, 4, 1.0)
	C := cell.NewOrthoCell(4, 4, 4, [3]bool{true, true, true})
	o := DefaultOptions()
	o.Cpus(2)
	o.Reporter(&testReporter{cancelAt: 1}) //survives the list build, dies in the workers
	_, err := Numbers(coords, C, 1.5, o)
	if err == nil {
		Te.Fatal("expected a cancellation error")
	}
	if _, ok := err.(cell.CanceledError); !ok {
		Te.Errorf("the error is not a cancellation: %v", err)
	}
}
