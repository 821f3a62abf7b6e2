/*
 * progress.go, part of gocell.
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

import (
	"log"
	"sync"
)

// Reporter is the interface to which the long-running functions in this
// library report their progress, and through which the caller can ask them
// to stop. It purposely looks like the progress dialog of a GUI, but
// implementations can of course do anything with the calls, including
// nothing. The functions in this library poll IsCanceled every few thousand
// particles, and, if it returns true, abandon their work and return an
// error implementing CanceledError.
//
// Methods on a Reporter may be called concurrently from several goroutines,
// so implementations need to take care of their own locking.
type Reporter interface {
	IsCanceled() bool
	SetProgressText(text string)
	SetProgressRange(max int)
	SetProgressValue(val int)
}

// LogReporter is a Reporter that writes the progress to the standard
// logger (or does nothing, if Silent) and never cancels. The zero value is
// ready to use.
type LogReporter struct {
	Silent bool
	mu     sync.Mutex
	text   string
	max    int
	last   int //last percentage logged, so we don't flood the log
}

// IsCanceled always returns false.
func (R *LogReporter) IsCanceled() bool { return false }

// SetProgressText logs the given text and takes it as the prefix for the
// progress lines that follow.
func (R *LogReporter) SetProgressText(text string) {
	R.mu.Lock()
	defer R.mu.Unlock()
	R.text = text
	R.last = -1
	if !R.Silent {
		log.Printf("%s", text)
	}
}

// SetProgressRange sets the value that represents 100% progress.
func (R *LogReporter) SetProgressRange(max int) {
	R.mu.Lock()
	defer R.mu.Unlock()
	R.max = max
}

// SetProgressValue logs the progress as a percentage of the range. Values
// mapping to a percentage already logged are dropped.
func (R *LogReporter) SetProgressValue(val int) {
	R.mu.Lock()
	defer R.mu.Unlock()
	if R.max <= 0 || R.Silent {
		return
	}
	pc := val * 100 / R.max
	if pc == R.last {
		return
	}
	R.last = pc
	log.Printf("%s: %d%%", R.text, pc)
}
