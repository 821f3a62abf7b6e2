/*
 * voronoi.go, part of gocell.
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

/*Package voro determines whether pairs of particles are in direct contact,
in the Voronoi sense: two particles are in contact if the plane separating
them contributes a face to their Voronoi polyhedra. The determination is
numerical, by scanning rays between the two particles and testing whether
some ray reaches the separating plane before crossing any other plane, so
it is approximate, with a resolution set by the angle step of the scan.
Unequal particle radii are supported through radical (power diagram) plane
placement.*/
package voro

import (
	"fmt"
	"math"

	v3 "github.com/rmera/gocell/v3"
)

const (
	defMaxAngle  float64 = 87
	defAngleStep float64 = 5
	defCutoff    float64 = 5 //rather permissive
)

const deg2rad float64 = math.Pi / 180

// a test plane within this distance of the reference intersection counts
// as blocking. A plane that only grazes the polyhedron is not a face.
const tieTol float64 = 1e-9

// ScanOptions contains the options for the angle scans that decide whether
// there is a direction in which 2 particles are in direct contact (i.e.
// whether part of the plane separating them is a face of the Voronoi
// polyhedra for the system).
type ScanOptions struct {
	Angles []float64 //last angle and step between angles, in degrees. A full scan would be 0 to 90.
	Cutoff float64   //if the ray at a given angle intersects the plane farther than this, the angle is ignored.
}

// DefaultScanOptions returns the default settings for a scan.
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{Angles: []float64{defMaxAngle, defAngleStep}, Cutoff: defCutoff}
}

// VPlane is the plane separating 2 particles, with all the info we might
// want from it. For equal radii it bisects the pair; with unequal radii it
// sits at the radical plane, so Distance, measured from the first
// particle, is not half the interparticle distance anymore.
type VPlane struct {
	Particles  [2]int     //indexes of the 2 particles.
	Distance   float64    //distance from the first particle to the plane.
	Normal     *v3.Matrix //unit normal, pointing from the second particle toward the first.
	Point      *v3.Matrix //a point in the plane.
	NotContact bool       //true if this plane is a confirmed non-contact
	Contact    bool       //true if this plane is a confirmed contact
	at1        *v3.Matrix //position of the first particle
	at2        *v3.Matrix //position of the second particle, or of its periodic image, if the plane goes through a boundary.
}

// PlaneBetween returns the plane separating a particle at p1 with radius
// r1 from one at p2 with radius r2, indexes i and j. With r1 == r2 the
// plane bisects the segment between the particles; otherwise it is placed
// at the radical plane, (d*d + r1*r1 - r2*r2)/(2d) away from p1, with d
// the interparticle distance.
func PlaneBetween(p1, p2 *v3.Matrix, i, j int, r1, r2 float64) *VPlane {
	ret := new(VPlane)
	ret.Particles = [2]int{i, j}
	ret.at1 = v3.Zeros(1)
	ret.at1.Copy(p1)
	ret.at2 = v3.Zeros(1)
	ret.at2.Copy(p2)
	ret.Normal = v3.Zeros(1)
	ret.Normal.Sub(p1, p2)
	d := ret.Normal.Norm(2)
	ret.Normal.Unit(ret.Normal)
	ret.Distance = (d*d + r1*r1 - r2*r2) / (2 * d)
	ret.Point = v3.Zeros(1)
	ret.Point.Sub(p2, p1)
	ret.Point.Scale(ret.Distance/d, ret.Point)
	ret.Point.Add(ret.Point, p1)
	return ret
}

// DistanceInterVector obtains the distance from a point o to the plane in
// the direction of the point d, NOT in the direction of the vector d!
// It returns -1 if the line through o and d never intersects the plane.
// The sign of the result matters: a negative distance means the
// intersection is behind o, so the plane can't block anything in front.
func (V *VPlane) DistanceInterVector(o, d *v3.Matrix) float64 {
	od := v3.Zeros(1)
	od.Sub(d, o)
	od.Unit(od)
	dot := V.Normal.Dot(od)
	if dot == 0 {
		return -1 //the line and the plane never intersect.
		//The other corner case, where the line is contained in the plane,
		//should not happen, but it would also lead to a dot==0.
	}
	P := V.Parametric()
	subterm := P[0]*o.At(0, 0) + P[1]*o.At(0, 1) + P[2]*o.At(0, 2)
	deno := P[0]*od.At(0, 0) + P[1]*od.At(0, 1) + P[2]*od.At(0, 2)
	return (P[3] - subterm) / deno
}

// Parametric obtains the plane equation Ax+By+Cz = D for the plane, and
// returns A, B, C and D. A slice can be given to avoid the allocation; it
// needs at least 4 elements.
func (V *VPlane) Parametric(parameters ...[]float64) []float64 {
	var pars []float64
	if len(parameters) >= 1 && len(parameters[0]) >= 4 {
		pars = parameters[0]
	} else {
		pars = make([]float64, 4)
	}
	pars[0] = V.Normal.At(0, 0)
	pars[1] = V.Normal.At(0, 1)
	pars[2] = V.Normal.At(0, 2)
	pars[3] = V.Normal.Dot(V.Point)
	return pars
}

// OtherParticle, given the index of one of the particles separated by the
// plane, returns the index of the other one.
func (V *VPlane) OtherParticle(i int) int {
	if V.Particles[0] == i {
		return V.Particles[1]
	} else if V.Particles[1] == i {
		return V.Particles[0]
	}
	panic(fmt.Sprintf("Plane is not related to particle %d", i)) //This should always be a bug in the caller.
}

// Ends returns the positions of the 2 particles separated by the plane,
// the second one possibly a periodic image. The returned matrices are
// owned by the plane; don't write to them.
func (V *VPlane) Ends() (*v3.Matrix, *v3.Matrix) {
	return V.at1, V.at2
}

// VPSlice contains a slice of pointers to VPlane.
type VPSlice []*VPlane

// ParticlePlanes returns all the planes that separate the particle with
// index i from any other particle.
func (P VPSlice) ParticlePlanes(i int) VPSlice {
	ret := make([]*VPlane, 0, len(P)/10) //the cap value is just a wild guess
	for _, v := range P {
		if v.Particles[0] == i || v.Particles[1] == i {
			ret = append(ret, v)
		}
	}
	return VPSlice(ret)
}

// PairPlane returns a plane separating the particles with indexes i and
// j, or nil if there is none in the slice. The plane is always returned
// "from the point of view" of the first given particle: if it was built
// with the opposite orientation it gets flipped in place, swapping the
// particle order and the ends, negating the normal, and re-measuring
// Distance from the new first particle.
func (P VPSlice) PairPlane(i, j int) *VPlane {
	for _, v := range P {
		if v.Particles[0] == i && v.Particles[1] == j {
			return v
		}
		if v.Particles[0] == j && v.Particles[1] == i {
			v.Particles[0], v.Particles[1] = v.Particles[1], v.Particles[0]
			v.at1, v.at2 = v.at2, v.at1
			v.Normal.Scale(-1, v.Normal)
			d := v3.Zeros(1)
			d.Sub(v.at2, v.at1)
			v.Distance = d.Norm(2) - v.Distance
			return v
		}
	}
	return nil
}

// IsRepeated checks if a plane separating the same pair of particles is
// already in the slice. Planes through different periodic images of the
// same pair count as repeats here, so this is only meant for assembling
// plane sets by hand, in non-periodic systems.
func (P VPSlice) IsRepeated(p *VPlane) bool {
	for _, v := range P {
		if p.Particles[0] == v.Particles[1] && p.Particles[1] == v.Particles[0] {
			return true
		}
		if p.Particles[0] == v.Particles[0] && p.Particles[1] == v.Particles[1] {
			return true
		}
	}
	return false
}

// AllContacts returns the pairs of particles separated by the planes of
// the slice. It doesn't check the contact flags; filter the slice with
// ConfirmedContacts first if you only want the pairs in actual contact.
func (P VPSlice) AllContacts() [][2]int {
	r := make([][2]int, 0, len(P))
	for _, v := range P {
		r = append(r, [2]int{v.Particles[0], v.Particles[1]})
	}
	return r
}

// ConfirmedContacts returns the planes of the slice that have been
// confirmed as contacts by IsBlocked.
func (P VPSlice) ConfirmedContacts() VPSlice {
	ret := make([]*VPlane, 0, len(P)/10)
	for _, v := range P {
		if v.Contact {
			ret = append(ret, v)
		}
	}
	return ret
}

// IsBlocked tests whether every path between the plane p and its first
// particle is blocked by some other plane of the slice, scanning as given
// by the options. It records the veredict in the Contact/NotContact flags
// of p, and returns true if the plane is blocked (so, not a contact).
// Only the planes of the slice sharing a particle with p can block it in
// a Voronoi construction, so the slice is usually the output of
// ParticlePlanes for the first particle of p.
func (P VPSlice) IsBlocked(p *VPlane, options ...*ScanOptions) bool {
	var as *ScanOptions
	if len(options) > 0 && options[0] != nil {
		as = options[0]
	} else {
		as = DefaultScanOptions()
	}
	blocked := ConeBlocked(p, P, as.Cutoff, as.Angles)
	if blocked {
		p.NotContact = true
		return true
	}
	p.Contact = true
	return false
}

// ConeBlocked tests if every path between the first particle of the ref
// plane and the plane itself is blocked by one of the tests planes. It
// scans cones at increasing angles from the interparticle axis (from 0 to
// angles[0] degrees, where angles[0] should be <90) in angles[1] steps,
// and returns false as soon as one ray reaches the ref plane with no test
// plane intersecting at a shorter distance. Rays that only reach the ref
// plane farther than the cutoff are ignored.
// This is a brute-force, slow and clumsy system, pending a pure Go 3D
// Voronoi tessellation to replace it.
func ConeBlocked(ref *VPlane, tests VPSlice, cutoff float64, angles []float64) bool {
	ati := ref.at1
	atj := ref.at2
	axis := v3.Zeros(1)
	aux := v3.Zeros(1)
	ax2 := v3.Zeros(1)
	axis.Sub(atj, ati)
	//an aux vector that can't be colinear with the axis (defined as atj-ati),
	//so the cross product gives a valid second axis, perpendicular to the first.
	if math.Abs(axis.At(0, 0)) >= math.Abs(axis.At(0, 1)) {
		aux.Set(0, 1, 1.0)
	} else {
		aux.Set(0, 0, 1.0)
	}
	ax2.Cross(axis, aux)
	ax2.Add(ax2, ati)
	maxang := angles[0]
	if maxang >= 90 { //rays at 90 or more never intersect the ref plane.
		maxang = 89
	}
	truetests := make([]*VPlane, 0, len(tests))
	for _, test := range tests {
		if test == ref {
			continue
		}
		if test.Particles[0] != ref.Particles[0] && test.Particles[1] != ref.Particles[0] &&
			test.Particles[0] != ref.Particles[1] && test.Particles[1] != ref.Particles[1] {
			continue //planes sharing no particle with ref can't make Voronoi faces disappear.
		}
		truetests = append(truetests, test)
	}
	for ang := 0.0; ang <= maxang; ang += angles[1] {
		//now the cone
		dir := RotateAbout(atj, ati, ax2, ang*deg2rad)
		for rot := 0.0; rot < 360; rot += angles[1] {
			ndir := RotateAbout(dir, ati, atj, rot*deg2rad)
			refdist := ref.DistanceInterVector(ati, ndir)
			if refdist < 0 || refdist > cutoff {
				continue //at this angle there is never a useful intersection.
			}
			blocked := false
			for _, test := range truetests {
				dtest := test.DistanceInterVector(ati, ndir)
				if dtest <= refdist+tieTol && dtest >= 0 { //dtest<0 means the ray never meets that plane.
					blocked = true
					break
				}
			}
			if !blocked {
				return false
			}
		}
	}
	return true
}

// RotateAbout rotates the point p by angle radians about the axis going
// from ax1 to ax2, with the Rodrigues rotation formula. It returns the
// rotated point; p is not affected.
func RotateAbout(p, ax1, ax2 *v3.Matrix, angle float64) *v3.Matrix {
	k := v3.Zeros(1)
	k.Sub(ax2, ax1)
	k.Unit(k)
	v := v3.Zeros(1)
	v.Sub(p, ax1)
	kxv := v3.Zeros(1)
	kxv.Cross(k, v)
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	kdv := k.Dot(v)
	ret := v3.Zeros(1)
	ret.Scale(cos, v)
	kxv.Scale(sin, kxv)
	ret.Add(ret, kxv)
	k.Scale(kdv*(1-cos), k)
	ret.Add(ret, k)
	ret.Add(ret, ax1)
	return ret
}
