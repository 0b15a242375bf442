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

package logger_test

import (
	"strings"
	"testing"

	"github.com/pandamystique/advision/logger"
)

func TestTail(t *testing.T) {
	log := logger.NewLogger(4)
	w := &strings.Builder{}

	log.Log(logger.Allow, "a", "one")
	log.Log(logger.Allow, "b", "two")
	log.Log(logger.Allow, "c", "three")

	log.Tail(w, 2)
	want := "b: two\nc: three\n"
	if w.String() != want {
		t.Fatalf("Tail() = %q, want %q", w.String(), want)
	}
}

func TestRingOverwrite(t *testing.T) {
	log := logger.NewLogger(2)
	w := &strings.Builder{}

	log.Log(logger.Allow, "a", "1")
	log.Log(logger.Allow, "b", "2")
	log.Log(logger.Allow, "c", "3")

	log.Write(w)
	want := "b: 2\nc: 3\n"
	if w.String() != want {
		t.Fatalf("Write() = %q, want %q", w.String(), want)
	}
}

type denyPermission struct{}

func (denyPermission) AllowLogging() bool { return false }

func TestPermissionDenied(t *testing.T) {
	log := logger.NewLogger(4)
	w := &strings.Builder{}

	log.Log(denyPermission{}, "tag", "detail")
	log.Write(w)
	if w.String() != "" {
		t.Fatalf("expected no output, got %q", w.String())
	}
}
