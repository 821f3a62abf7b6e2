package cluster

import (
	"fmt"
	"testing"

	cell "github.com/rmera/gocell"
	"github.com/rmera/gocell/bonds"
	v3 "github.com/rmera/gocell/v3"
)

// six particles in three clumps: {0,2}, {1,3,5} (a chain, 3 bridges 1 and
// 5) and the lone 4, all well separated at a cutoff of 1.
func system6() (*v3.Matrix, *cell.Cell) {
	coords, err := v3.NewMatrix([]float64{
		5, 5, 5,
		1, 1, 1,
		5.9, 5, 5,
		1.8, 1, 1,
		8, 8, 8,
		2.6, 1, 1,
	})
	if err != nil {
		panic(err.Error())
	}
	return coords, cell.NewOrthoCell(10, 10, 10, [3]bool{true, true, true})
}

func TestAssign(Te *testing.T) {
	coords, C := system6()
	clusters, n, err := Assign(coords, C, 1.0)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 3 {
		Te.Fatalf("got %d clusters, want 3", n)
	}
	want := []int{1, 2, 1, 2, 3, 2}
	for i, c := range clusters {
		if c != want[i] {
			Te.Errorf("particle %d is in cluster %d, want %d", i, c, want[i])
		}
	}
	fmt.Println("clusters:", clusters)
}

func TestGraph(Te *testing.T) {
	coords, C := system6()
	g, err := Graph(coords, C, 1.0)
	if err != nil {
		Te.Fatal(err)
	}
	if g.Nodes().Len() != 6 {
		Te.Errorf("got %d nodes, want 6", g.Nodes().Len())
	}
	edges := g.Edges()
	n := 0
	for edges.Next() {
		n++
	}
	//0-2, 1-3 and 3-5. Each pair is reported twice by the bond
	//generation, but the graph only keeps one edge per pair.
	if n != 3 {
		Te.Errorf("got %d edges, want 3", n)
	}
}

// A particle bonded only to its own periodic images is still a cluster of
// one: self-image bonds don't make edges.
func TestSelfImageCluster(Te *testing.T) {
	coords, _ := v3.NewMatrix([]float64{0.5, 0.5, 0.5})
	C := cell.NewOrthoCell(2, 2, 2, [3]bool{true, true, true})
	blist, err := bonds.Generate(coords, C, 2.1)
	if err != nil {
		Te.Fatal(err)
	}
	if len(blist) != 6 {
		Te.Fatalf("got %d self-image bonds, want 6", len(blist))
	}
	g := FromBonds(1, blist)
	if g.Nodes().Len() != 1 {
		Te.Errorf("got %d nodes, want 1", g.Nodes().Len())
	}
	if edges := g.Edges(); edges.Next() {
		Te.Error("a self-image bond produced an edge")
	}
	clusters, n, err := Assign(coords, C, 2.1)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 1 || clusters[0] != 1 {
		Te.Errorf("got %d clusters, IDs %v, want a single cluster 1", n, clusters)
	}
}

// Two particles close only through the periodic boundary are one cluster
// with the wrap on, two with it off.
func TestPeriodicMerge(Te *testing.T) {
	coords, err := v3.NewMatrix([]float64{
		0.2, 2, 2,
		3.8, 2, 2,
	})
	if err != nil {
		Te.Fatal(err)
	}
	C := cell.NewOrthoCell(4, 4, 4, [3]bool{true, true, true})
	_, n, err := Assign(coords, C, 0.5)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 1 {
		Te.Errorf("got %d clusters across the boundary, want 1", n)
	}
	open := cell.NewOrthoCell(4, 4, 4, [3]bool{false, false, false})
	_, n, err = Assign(coords, open, 0.5)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 2 {
		Te.Errorf("got %d clusters without periodicity, want 2", n)
	}
}
