/*
 * cluster.go, part of gocell.
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

/*Package cluster decomposes a system into clusters of particles connected,
directly or not, by the neighbor relation at a cutoff distance.*/
package cluster

import (
	"runtime"
	"sort"

	cell "github.com/rmera/gocell"
	"github.com/rmera/gocell/bonds"
	v3 "github.com/rmera/gocell/v3"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Options contains the options for the cluster decomposition, to be
// obtained with DefaultOptions and then modified with its methods, as
// needed.
type Options struct {
	cpus int
	rep  cell.Reporter
}

// DefaultOptions returns an Options with the default options: as many
// concurrent goroutines as logical CPUs, and no progress reporting.
func DefaultOptions() *Options {
	ret := new(Options)
	ret.cpus = runtime.NumCPU()
	return ret
}

// Cpus returns the current value of the Cpus option (the number of
// goroutines used to find the neighbor pairs) and sets it, if a valid
// value is given.
func (r *Options) Cpus(cpus ...int) int {
	ret := r.cpus
	if len(cpus) > 0 && cpus[0] > 0 {
		r.cpus = cpus[0]
	}
	return ret
}

// Reporter returns the current progress Reporter (possibly nil) and sets
// it, if one is given.
func (r *Options) Reporter(rep ...cell.Reporter) cell.Reporter {
	ret := r.rep
	if len(rep) > 0 && rep[0] != nil {
		r.rep = rep[0]
	}
	return ret
}

func getOptions(options []*Options) *Options {
	if len(options) > 0 && options[0] != nil {
		return options[0]
	}
	return DefaultOptions()
}

func (r *Options) bondOptions() *bonds.Options {
	ret := bonds.DefaultOptions()
	ret.Cpus(r.cpus)
	if r.rep != nil {
		ret.Reporter(r.rep)
	}
	return ret
}

// Graph returns the neighbor network of the system as an undirected graph
// with one node per particle, identified by the particle index, and an
// edge between every pair of particles within the cutoff distance of each
// other, periodic images included. Bonds between a particle and its own
// image don't produce edges.
func Graph(coords *v3.Matrix, c *cell.Cell, cutoff float64, options ...*Options) (*simple.UndirectedGraph, error) {
	o := getOptions(options)
	blist, err := bonds.Generate(coords, c, cutoff, o.bondOptions())
	if err != nil {
		return nil, errDecorate(err, "cluster.Graph")
	}
	return FromBonds(coords.NVecs(), blist), nil
}

// FromBonds returns the undirected graph of a system of n particles
// connected by the given bonds. Bonds between a particle and its own
// periodic image are skipped, as a graph edge needs two distinct ends.
func FromBonds(n int, blist []*bonds.Bond) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, b := range blist {
		if b.I == b.J {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(b.I), T: simple.Node(b.J)})
	}
	return g
}

// Assign gives each particle of the system to a cluster: a maximal set of
// particles connected by the neighbor relation at the given cutoff. It
// returns the 1-based cluster ID of each particle and the number of
// clusters. Clusters are numbered in order of their lowest particle
// index, so the cluster of particle 0 is always cluster 1.
func Assign(coords *v3.Matrix, c *cell.Cell, cutoff float64, options ...*Options) ([]int, int, error) {
	g, err := Graph(coords, c, cutoff, options...)
	if err != nil {
		return nil, 0, errDecorate(err, "cluster.Assign")
	}
	comps := topo.ConnectedComponents(g)
	lowest := make([]int64, len(comps))
	for i, comp := range comps {
		low := comp[0].ID()
		for _, node := range comp[1:] {
			if node.ID() < low {
				low = node.ID()
			}
		}
		lowest[i] = low
	}
	order := make([]int, len(comps))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return lowest[order[i]] < lowest[order[j]] })
	clusters := make([]int, coords.NVecs())
	for rank, ci := range order {
		for _, node := range comps[ci] {
			clusters[node.ID()] = rank + 1
		}
	}
	return clusters, len(comps), nil
}

//Errors

// Error implements cell.Error.
type Error struct {
	message string
	deco    []string
}

func (err Error) Error() string { return err.message }

// Decorate adds the dec string to the decoration slice of strings of the
// error, and returns the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// errDecorate is a helper function that asserts that the error implements
// cell.Error and decorates it with the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(cell.Error) //I know that is the type returned by the functions in this library.
	err2.Decorate(caller)
	return err2
}
