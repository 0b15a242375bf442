// This file is part of Advision.
//
// Advision is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Advision is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Advision.  If not, see <https://www.gnu.org/licenses/>.

// Package advierrors implements curated errors: predefined error messages
// that callers can match on without caring about the exact formatted string.
package advierrors

import (
	"fmt"
	"strings"
)

// Values is the type used to specify arguments for a curated error.
type Values []interface{}

type curated struct {
	message string
	values  Values
}

// Errorf creates a new curated error from message, a printf-style format
// string, and values to interpolate into it.
func Errorf(message string, values ...interface{}) error {
	return curated{message: message, values: values}
}

// Error implements the go language error interface. Normalisation removes
// duplicate adjacent message parts that appear when a curated error wraps
// another curated error with the same head.
func (e curated) Error() string {
	s := fmt.Errorf(e.message, e.values...).Error()

	p := strings.SplitN(s, ": ", 3)
	if len(p) > 1 && p[0] == p[1] {
		return strings.Join(p[1:], ": ")
	}
	return strings.Join(p, ": ")
}

// Head returns the leading message template of err, or err.Error() if err is
// not a curated error.
func Head(err error) string {
	if e, ok := err.(curated); ok {
		return e.message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsAny reports whether err originates from this package.
func IsAny(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(curated)
	return ok
}

// Is reports whether err is a curated error with the given message head.
func Is(err error, head string) bool {
	if err == nil {
		return false
	}
	e, ok := err.(curated)
	return ok && e.message == head
}

// Has reports whether msg appears as the head of err or of any curated error
// wrapped in its values.
func Has(err error, msg string) bool {
	if !IsAny(err) {
		return false
	}
	if Is(err, msg) {
		return true
	}
	for _, v := range err.(curated).values {
		if e, ok := v.(curated); ok && Has(e, msg) {
			return true
		}
	}
	return false
}
