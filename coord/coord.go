/*
 * coord.go, part of gocell.
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

/*Package coord obtains per-particle coordination numbers and the radial
distribution function g(r) of a system, up to a cutoff distance.*/
package coord

import (
	"math"
	"runtime"
	"sort"

	cell "github.com/rmera/gocell"
	v3 "github.com/rmera/gocell/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const appzero float64 = 0.000000000001 //used to prevent divisions by zero.

// the default number of bins for the g(r) histogram.
const defBins = 400

// how often the workers check for cancellation.
const pollStride = 1000

// Options contains the options for the coordination analysis, to be
// obtained with DefaultOptions and then modified with its methods, as
// needed.
type Options struct {
	cpus int
	bins int
	rep  cell.Reporter
}

// DefaultOptions returns an Options with the default options: as many
// concurrent goroutines as logical CPUs, 400 histogram bins and no
// progress reporting.
func DefaultOptions() *Options {
	ret := new(Options)
	ret.cpus = runtime.NumCPU()
	ret.bins = defBins
	return ret
}

// Cpus returns the current value of the Cpus option (the number of
// goroutines to use in the concurrent calculation) and sets it, if a
// valid value is given.
func (r *Options) Cpus(cpus ...int) int {
	ret := r.cpus
	if len(cpus) > 0 && cpus[0] > 0 {
		r.cpus = cpus[0]
	}
	return ret
}

// Bins returns the current number of bins for the g(r) histogram and sets
// it, if a valid value is given.
func (r *Options) Bins(bins ...int) int {
	ret := r.bins
	if len(bins) > 0 && bins[0] > 0 {
		r.bins = bins[0]
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

// Numbers returns the coordination number of each particle: how many
// neighbors, periodic images included, lie within the cutoff distance of
// it.
func Numbers(coords *v3.Matrix, c *cell.Cell, cutoff float64, options ...*Options) ([]int, error) {
	o := getOptions(options)
	nums, _, err := analyze(coords, c, cutoff, false, o)
	if err != nil {
		return nil, errDecorate(err, "coord.Numbers")
	}
	return nums, nil
}

// RDF returns the radial distribution function g(r) of the system up to
// the cutoff distance, as the left edge r of each histogram bin and the
// normalized g value for the bin. The normalization is against an ideal
// gas of the same density, so a large-distance g should tend to 1 in a
// dense homogeneous system.
func RDF(coords *v3.Matrix, c *cell.Cell, cutoff float64, options ...*Options) ([]float64, []float64, error) {
	o := getOptions(options)
	_, hist, err := analyze(coords, c, cutoff, true, o)
	if err != nil {
		return nil, nil, errDecorate(err, "coord.RDF")
	}
	n := coords.NVecs()
	binSize := (cutoff + appzero) / float64(o.bins)
	r := make([]float64, o.bins)
	floats.Span(r, 0, binSize*float64(o.bins-1))
	g := make([]float64, o.bins)
	//the probability of finding 2 ideal-gas particles at each distance range.
	rho := float64(n) / c.Volume()
	factor := (4.0 / 3.0) * math.Pi * rho * float64(n)
	for i := range g {
		r1 := binSize * float64(i)
		r2 := r1 + binSize
		g[i] = hist[i] / (factor * (r2*r2*r2 - r1*r1*r1))
	}
	return r, g, nil
}

type unitResult struct {
	dists []float64
	err   error
}

// analyze builds the neighbor lists and has the neighbors of each
// particle counted, and their distances collected if wantHist, by cpus
// concurrent goroutines, each working on its own contiguous chunk of the
// particles. Each worker sends its results back through its own channel,
// read in order, so the histogram assembly is deterministic.
func analyze(coords *v3.Matrix, c *cell.Cell, cutoff float64, wantHist bool, o *Options) ([]int, []float64, error) {
	f, err := cell.New(coords, c, cutoff, o.rep)
	if err != nil {
		return nil, nil, err
	}
	n := f.Len()
	nums := make([]int, n)
	if n == 0 {
		return nums, make([]float64, o.bins), nil
	}
	if o.rep != nil {
		o.rep.SetProgressText("Computing coordination numbers")
		o.rep.SetProgressRange(n)
	}
	cpus := o.cpus
	if cpus < 1 {
		cpus = 1
	}
	if cpus > n {
		cpus = n
	}
	results := make([]chan *unitResult, cpus)
	for i := range results {
		results[i] = make(chan *unitResult)
	}
	chunk := n / cpus
	for w := 0; w < cpus; w++ {
		begin := w * chunk
		end := begin + chunk
		if w == cpus-1 {
			end = n
		}
		go unitAnalyze(f, begin, end, cpus, wantHist, nums, o, results[w])
	}
	var reterr error
	hist := make([]float64, o.bins)
	dividers := make([]float64, o.bins+1)
	floats.Span(dividers, 0, cutoff+appzero)
	for _, r := range results {
		res := <-r
		if res.err != nil && reterr == nil {
			reterr = res.err
		}
		if len(res.dists) > 0 {
			sort.Float64s(res.dists)
			floats.Add(hist, stat.Histogram(nil, dividers, res.dists, nil))
		}
	}
	if reterr != nil {
		return nil, nil, reterr
	}
	if o.rep != nil {
		o.rep.SetProgressValue(n)
	}
	return nums, hist, nil
}

// the worker function for the coordination analysis. Workers write to
// disjoint ranges of nums, so no synchronization is needed there. Only the
// first worker reports progress, scaled up by the worker count.
func unitAnalyze(f *cell.Finder, begin, end, cpus int, wantHist bool, nums []int, o *Options, out chan *unitResult) {
	ret := new(unitResult)
	for i := begin; i < end; i++ {
		q := f.Query(i)
		for q.Next() {
			nums[i]++
			if wantHist {
				ret.dists = append(ret.dists, q.Distance())
			}
		}
		if q.Err() != nil {
			ret.err = q.Err()
			ret.dists = nil
			break
		}
		if o.rep != nil && (i-begin)%pollStride == 0 {
			if begin == 0 {
				o.rep.SetProgressValue(i * cpus)
			}
			if o.rep.IsCanceled() {
				ret.err = canceled{}
				ret.dists = nil
				break
			}
		}
	}
	out <- ret
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

// canceled implements cell.CanceledError.
type canceled struct {
	deco []string
}

func (err canceled) Error() string { return "Canceled by the caller" }

// NormalCancellation does nothing.
func (err canceled) NormalCancellation() {}

func (err canceled) Decorate(dec string) []string {
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
