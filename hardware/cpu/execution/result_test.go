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

package execution

import "testing"

func TestZeroValueResultIsKnownAndNoInterrupt(t *testing.T) {
	var r Result
	if r.Unknown {
		t.Fatal("zero-value Result must not report Unknown")
	}
	if r.InterruptTaken {
		t.Fatal("zero-value Result must not report InterruptTaken")
	}
	if r.Cycles != 0 {
		t.Fatalf("Cycles = %d, want 0", r.Cycles)
	}
}

func TestResultFieldsAreIndependentlySettable(t *testing.T) {
	r := Result{
		Address:        0x123,
		Opcode:         0xE5,
		Cycles:         2,
		Unknown:        true,
		InterruptTaken: true,
	}
	if r.Address != 0x123 || r.Opcode != 0xE5 || r.Cycles != 2 || !r.Unknown || !r.InterruptTaken {
		t.Fatalf("Result did not retain assigned fields: %+v", r)
	}
}
