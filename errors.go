/*
 * errors.go, part of gocell.
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

package cell

// Error is the interface for errors that all packages in this library implement.
// The Decorate method allows to add and retrieve info from the error, without
// changing its type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Decorate adds information when you pass the error up. Each call also returns the "decoration" slice of strings resulting from the current call. If passed an empty string, it should just return the current value, not add the empty string to the slice.
	//The decorate slice should contain a list of functions in the calling stack, plus, for each function, any relevant information, or nothing. If information is to be added to an element of the slice, it should be in this format: "FunctionName: Extra info"
}

// CError (Concrete Error) is the concrete type implementing the Error
// interface in this package.
type CError struct {
	msg  string
	deco []string
}

func (err CError) Error() string { return err.msg }

// Decorate adds the dec string to the decoration slice of strings of the
// error, and returns the resulting slice.
func (err CError) Decorate(dec string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since err.deco is a slice, and hence a pointer itself.
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// CanceledError has a useless function to distinguish the harmless errors
// (i.e. the caller itself asked to stop through a Reporter) so they can be
// filtered in a typeswitch that looks for this interface.
type CanceledError interface {
	Error
	NormalCancellation() //does nothing, just to separate this interface from other Errors.
}

// canceledError implements CanceledError.
type canceledError struct {
	deco []string
}

func (err canceledError) Error() string { return "Canceled by the caller" }

// NormalCancellation does nothing.
func (err canceledError) NormalCancellation() {}

func (err canceledError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// errDecorate is a helper function that asserts that the error implements
// Error and decorates it with the caller's name before returning it.
// If used with an error that doesn't implement Error, it will cause a panic.
func errDecorate(err error, caller string) error {
	err2 := err.(Error) //I know that is the type returned by the functions in this library.
	err2.Decorate(caller)
	return err2
}

// PanicMsg is a message used for panics, even though it does satisfy the
// error interface. For errors, use Error/CError. Panics are kept for
// programming errors, such as passing a nil matrix or an out of range
// index to a function that needs the opposite.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNilData            = PanicMsg("goCell: nil positions matrix given")
	ErrNilCell            = PanicMsg("goCell: nil simulation cell given")
	ErrNotCellMatrix      = PanicMsg("goCell: a simulation cell takes exactly 3 vectors")
	ErrNotVector          = PanicMsg("goCell: a single 1x3 vector is required")
	ErrNotDim             = PanicMsg("goCell: cell dimensions go from 0 to 2")
	ErrParticleOutOfRange = PanicMsg("goCell: particle index out of range")
)
