package voro

import (
	"fmt"
	"runtime"

	cell "github.com/rmera/gocell"
	v3 "github.com/rmera/gocell/v3"
)

// Options contains the options for the contact determination, to be
// obtained with DefaultOptions and then modified with its methods, as
// needed.
type Options struct {
	cpus  int
	rep   cell.Reporter
	radii []float64
	scan  *ScanOptions
}

// DefaultOptions returns an Options with the default options: as many
// concurrent goroutines as logical CPUs, equal radii for all particles,
// the default scan schedule and no progress reporting.
func DefaultOptions() *Options {
	ret := new(Options)
	ret.cpus = runtime.NumCPU()
	ret.scan = DefaultScanOptions()
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

// Radii returns the current per-particle radii (nil means all equal) and
// sets them, if a slice is given. The separating planes are placed at the
// radical plane of each pair, which for equal radii is the bisecting
// plane.
func (r *Options) Radii(radii ...[]float64) []float64 {
	ret := r.radii
	if len(radii) > 0 && radii[0] != nil {
		r.radii = radii[0]
	}
	return ret
}

// Scan returns the current scan schedule and sets it, if a valid one is
// given.
func (r *Options) Scan(scan ...*ScanOptions) *ScanOptions {
	ret := r.scan
	if len(scan) > 0 && scan[0] != nil && len(scan[0].Angles) >= 2 && scan[0].Angles[1] > 0 {
		r.scan = scan[0]
	}
	return ret
}

func getOptions(options []*Options) *Options {
	if len(options) > 0 && options[0] != nil {
		return options[0]
	}
	return DefaultOptions()
}

// ContactPlanes returns one plane per unique pair of particles, or
// particle and periodic image, within the cutoff distance of each other.
// Each plane comes with its Contact/NotContact flag set by the angle
// scan, so planes.ConfirmedContacts() are the pairs in actual Voronoi
// contact. A plane between distinct particles is built from the lower
// indexed one; a plane between a particle and its own image, from the
// image whose first non-zero cell shift is positive.
func ContactPlanes(coords *v3.Matrix, c *cell.Cell, cutoff float64, options ...*Options) (VPSlice, error) {
	o := getOptions(options)
	if o.radii != nil && len(o.radii) != coords.NVecs() {
		return nil, Error{fmt.Sprintf("Need one radius per particle: %d radii for %d particles", len(o.radii), coords.NVecs()), []string{"voro.ContactPlanes"}}
	}
	f, err := cell.New(coords, c, cutoff, o.rep)
	if err != nil {
		return nil, errDecorate(err, "voro.ContactPlanes")
	}
	n := f.Len()
	if n == 0 {
		return nil, nil
	}
	if o.rep != nil {
		o.rep.SetProgressText("Computing Voronoi contacts")
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
		go unitContacts(f, coords, begin, end, cpus, o, results[w])
	}
	var planes VPSlice
	var reterr error
	for _, r := range results {
		res := <-r
		if res.err != nil && reterr == nil {
			reterr = res.err
		}
		planes = append(planes, res.planes...)
	}
	if reterr != nil {
		return nil, errDecorate(reterr, "voro.ContactPlanes")
	}
	if o.rep != nil {
		o.rep.SetProgressValue(n)
	}
	return planes, nil
}

type unitResult struct {
	planes VPSlice
	err    error
}

// the worker function for the contact determination. Each particle's
// candidate planes, one per neighbor, block each other in the scan; only
// the planes this particle is responsible for (see ContactPlanes) get
// scanned and reported. The scans dominate the cost, so progress and
// cancellation run every particle.
func unitContacts(f *cell.Finder, coords *v3.Matrix, begin, end, cpus int, o *Options, out chan *unitResult) {
	ret := new(unitResult)
	delta := v3.Zeros(1)
	at2 := v3.Zeros(1)
	for i := begin; i < end; i++ {
		mine := make(VPSlice, 0, 20)
		emit := make([]bool, 0, 20)
		ati := coords.VecView(i)
		q := f.Query(i)
		for q.Next() {
			j := q.Current()
			q.DeltaVec(delta)
			at2.Add(ati, delta)
			var ri, rj float64
			if o.radii != nil {
				ri = o.radii[i]
				rj = o.radii[j]
			}
			mine = append(mine, PlaneBetween(ati, at2, i, j, ri, rj))
			emit = append(emit, emitable(i, j, q.UnwrappedPBCShift()))
		}
		if q.Err() != nil {
			ret.err = q.Err()
			ret.planes = nil
			break
		}
		for k, p := range mine {
			if !emit[k] {
				continue
			}
			mine.IsBlocked(p, o.scan)
			ret.planes = append(ret.planes, p)
		}
		if o.rep != nil {
			if begin == 0 {
				o.rep.SetProgressValue(i * cpus)
			}
			if o.rep.IsCanceled() {
				ret.err = canceled{}
				ret.planes = nil
				break
			}
		}
	}
	out <- ret
}

// emitable tells whether the plane from particle i to its neighbor j,
// reached through the given cell shift, is the copy of the pair that gets
// reported.
func emitable(i, j int, shift [3]int8) bool {
	if i != j {
		return j > i
	}
	for k := 0; k < 3; k++ {
		if shift[k] > 0 {
			return true
		}
		if shift[k] < 0 {
			return false
		}
	}
	return false //can't happen: a self neighbor always has a shift.
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
