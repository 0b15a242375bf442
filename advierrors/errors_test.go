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

package advierrors

import "testing"

func TestErrorfFormatsValues(t *testing.T) {
	err := Errorf(FirmwareSize, 512)
	want := "advision: firmware image is 512 bytes, expected 1024"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestHeadReturnsMessageTemplate(t *testing.T) {
	err := Errorf(SaveStateVersion, 1, 2)
	if Head(err) != SaveStateVersion {
		t.Fatalf("Head() = %q, want the template %q", Head(err), SaveStateVersion)
	}
}

func TestHeadOnPlainErrorReturnsItsText(t *testing.T) {
	plain := errString("boom")
	if Head(plain) != "boom" {
		t.Fatalf("Head(plain) = %q, want %q", Head(plain), "boom")
	}
}

func TestHeadOnNilIsEmpty(t *testing.T) {
	if Head(nil) != "" {
		t.Fatal("Head(nil) should be empty")
	}
}

func TestIsAnyDistinguishesCuratedFromPlainErrors(t *testing.T) {
	if !IsAny(Errorf(SaveStateMagic)) {
		t.Fatal("curated error not recognized by IsAny")
	}
	if IsAny(errString("boom")) {
		t.Fatal("plain error incorrectly recognized by IsAny")
	}
	if IsAny(nil) {
		t.Fatal("nil incorrectly recognized by IsAny")
	}
}

func TestIsMatchesOnlyItsOwnHead(t *testing.T) {
	err := Errorf(ConfigT1Window)
	if !Is(err, ConfigT1Window) {
		t.Fatal("Is did not match its own head")
	}
	if Is(err, SaveStateMagic) {
		t.Fatal("Is matched an unrelated head")
	}
}

func TestHasFindsWrappedCuratedErrorInValues(t *testing.T) {
	inner := Errorf(SaveStateTruncated)
	outer := Errorf("advision: load failed: %v", inner)
	if !Has(outer, SaveStateTruncated) {
		t.Fatal("Has did not find the wrapped curated error's head")
	}
	if Has(outer, FirmwareSize) {
		t.Fatal("Has matched a head that was never present")
	}
}

func TestHasOnPlainErrorIsFalse(t *testing.T) {
	if Has(errString("boom"), FirmwareSize) {
		t.Fatal("Has on a non-curated error should always be false")
	}
}

func TestErrorNormalizesDuplicateAdjacentHeads(t *testing.T) {
	// A formatted message whose first two ": "-delimited segments are
	// identical collapses to a single occurrence.
	e := curated{message: "advision: advision: bad magic"}
	got := e.Error()
	want := "advision: bad magic"
	if got != want {
		t.Fatalf("Error() = %q, want deduplicated %q", got, want)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
