/*
 * bonds.go, part of gocell.
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

/*Package bonds generates bonds between the particles of a system, connecting
every pair closer than a cutoff distance, periodic images included. Each
pair is reported twice, once from each side; use Unique if you want each
bond only once.*/
package bonds

import (
	"fmt"
	"runtime"

	cell "github.com/rmera/gocell"
	v3 "github.com/rmera/gocell/v3"
)

// Bond is a bond between the particles with indexes I and J, of length
// Dist. Shift tells which periodic image of J the bond goes to, in cell
// vectors, relative to the coordinates the bonds were generated from: a
// zero Shift is a bond inside the cell.
type Bond struct {
	I     int
	J     int
	Dist  float64
	Shift [3]int8
}

// Options contains the options for the bond generation, to be obtained
// with DefaultOptions and then modified with its methods, as needed.
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
// goroutines to use in the concurrent calculation) and sets it, if a
// valid value is given.
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

// Generate returns all the bonds between particles closer than the cutoff,
// periodic images included. Each bond appears twice, once from each of its
// particles, except bonds between a particle and its own image, which
// appear once per image involved.
func Generate(coords *v3.Matrix, c *cell.Cell, cutoff float64, options ...*Options) ([]*Bond, error) {
	o := getOptions(options)
	all := func(i, j int, distsq float64) bool { return true }
	ret, err := generate(coords, c, cutoff, all, o)
	if err != nil {
		return nil, errDecorate(err, "bonds.Generate")
	}
	return ret, nil
}

// PairCutoffs is a table of cutoff distances per pair of particle types.
// Pairs without an entry (or with a non-positive one) don't bond.
type PairCutoffs struct {
	table map[[2]int]float64
}

// NewPairCutoffs returns an empty cutoff table.
func NewPairCutoffs() *PairCutoffs {
	return &PairCutoffs{table: make(map[[2]int]float64)}
}

func pairKey(t1, t2 int) [2]int {
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return [2]int{t1, t2}
}

// Set gives the pair of types t1,t2 the given cutoff. The order of the
// types doesn't matter. A non-positive cutoff removes the pair from the
// table.
func (P *PairCutoffs) Set(t1, t2 int, cutoff float64) {
	if cutoff <= 0 {
		delete(P.table, pairKey(t1, t2))
		return
	}
	P.table[pairKey(t1, t2)] = cutoff
}

// Get returns the cutoff for the pair of types t1,t2, or 0 if the pair is
// not in the table.
func (P *PairCutoffs) Get(t1, t2 int) float64 {
	return P.table[pairKey(t1, t2)]
}

// Max returns the largest cutoff in the table, or 0 for an empty table.
func (P *PairCutoffs) Max() float64 {
	var max float64
	for _, v := range P.table {
		if v > max {
			max = v
		}
	}
	return max
}

// GeneratePairwise is as Generate, but the cutoff for each pair of
// particles depends on their types: types gives the type of each particle,
// and cutoffs the cutoff distance per pair of types. Pairs of types
// without a cutoff in the table don't bond. The neighbor search runs at
// the largest cutoff of the table.
func GeneratePairwise(coords *v3.Matrix, c *cell.Cell, types []int, cutoffs *PairCutoffs, options ...*Options) ([]*Bond, error) {
	o := getOptions(options)
	if len(types) != coords.NVecs() {
		return nil, Error{fmt.Sprintf("Need one type per particle: %d types for %d particles", len(types), coords.NVecs()), []string{"bonds.GeneratePairwise"}}
	}
	if cutoffs == nil || cutoffs.Max() <= 0 {
		return nil, Error{"Need at least one pair of types with a positive cutoff", []string{"bonds.GeneratePairwise"}}
	}
	pairwise := func(i, j int, distsq float64) bool {
		co := cutoffs.Get(types[i], types[j])
		return co > 0 && distsq <= co*co
	}
	ret, err := generate(coords, c, cutoffs.Max(), pairwise, o)
	if err != nil {
		return nil, errDecorate(err, "bonds.GeneratePairwise")
	}
	return ret, nil
}

// how often the workers check for cancellation.
const pollStride = 4096

func getOptions(options []*Options) *Options {
	if len(options) > 0 && options[0] != nil {
		return options[0]
	}
	return DefaultOptions()
}

type unitResult struct {
	bonds []*Bond
	err   error
}

// generate does the actual work for Generate and GeneratePairwise. The
// particles are split in one contiguous chunk per goroutine, and each
// goroutine sends its bonds back through its own channel, so the final
// list doesn't depend on scheduling.
func generate(coords *v3.Matrix, c *cell.Cell, cutoff float64, accept func(i, j int, distsq float64) bool, o *Options) ([]*Bond, error) {
	f, err := cell.New(coords, c, cutoff, o.rep)
	if err != nil {
		return nil, err
	}
	n := f.Len()
	if n == 0 {
		return nil, nil
	}
	if o.rep != nil {
		o.rep.SetProgressText("Generating bonds")
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
		go unitGenerate(f, begin, end, cpus, accept, o, results[w])
	}
	var bonds []*Bond
	var reterr error
	for _, r := range results {
		res := <-r
		if res.err != nil && reterr == nil {
			reterr = res.err
		}
		bonds = append(bonds, res.bonds...)
	}
	if reterr != nil {
		return nil, reterr
	}
	if o.rep != nil {
		o.rep.SetProgressValue(n)
	}
	return bonds, nil
}

// the worker function for the bond generation. Only the first worker
// reports progress, scaled up by the worker count; the chunks are even,
// so this is a fair estimate of the total.
func unitGenerate(f *cell.Finder, begin, end, cpus int, accept func(i, j int, distsq float64) bool, o *Options, out chan *unitResult) {
	ret := new(unitResult)
	for i := begin; i < end; i++ {
		q := f.Query(i)
		for q.Next() {
			j := q.Current()
			if !accept(i, j, q.DistanceSquared()) {
				continue
			}
			ret.bonds = append(ret.bonds, &Bond{I: i, J: j, Dist: q.Distance(), Shift: q.UnwrappedPBCShift()})
		}
		if q.Err() != nil {
			ret.err = q.Err()
			ret.bonds = nil
			break
		}
		if o.rep != nil && (i-begin)%pollStride == 0 {
			if begin == 0 {
				o.rep.SetProgressValue(i * cpus)
			}
			if o.rep.IsCanceled() {
				ret.err = canceled{}
				ret.bonds = nil
				break
			}
		}
	}
	out <- ret
}

// Unique filters a list of bonds as returned by Generate or
// GeneratePairwise so each bond appears only once: for a regular bond the
// copy with I<J is kept; for a bond between a particle and its own
// periodic image, the copy whose first non-zero shift is positive.
func Unique(bonds []*Bond) []*Bond {
	ret := make([]*Bond, 0, len(bonds)/2)
	for _, b := range bonds {
		if b.I < b.J {
			ret = append(ret, b)
			continue
		}
		if b.I == b.J {
			for k := 0; k < 3; k++ {
				if b.Shift[k] > 0 {
					ret = append(ret, b)
					break
				}
				if b.Shift[k] < 0 {
					break
				}
			}
		}
	}
	return ret
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
