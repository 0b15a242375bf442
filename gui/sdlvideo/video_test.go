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

package sdlvideo

import (
	"testing"

	"github.com/pandamystique/advision/hardware/display"
)

func TestRasterizeFullBrightnessUsesLEDColor(t *testing.T) {
	var frame display.Frame
	frame[0] = 1.0

	pixels := make([]byte, display.Width*display.Height*pixelDepth)
	for i := pixelDepth - 1; i < len(pixels); i += pixelDepth {
		pixels[i] = 255
	}
	rasterize(frame, pixels)

	if pixels[0] != ledColor[0] || pixels[1] != ledColor[1] || pixels[2] != ledColor[2] {
		t.Fatalf("pixel 0 = %v, want %v", pixels[:3], ledColor)
	}
	if pixels[3] != 255 {
		t.Fatalf("alpha clobbered: got %d, want 255", pixels[3])
	}
}

func TestRasterizeZeroBrightnessIsBlack(t *testing.T) {
	var frame display.Frame
	pixels := make([]byte, display.Width*display.Height*pixelDepth)
	rasterize(frame, pixels)
	for i := 0; i < 3; i++ {
		if pixels[i] != 0 {
			t.Fatalf("pixel[%d] = %d, want 0", i, pixels[i])
		}
	}
}

func TestRasterizeClampsOutOfRangeBrightness(t *testing.T) {
	var frame display.Frame
	frame[0] = 5.0 // out of [0,1], must clamp to 1
	pixels := make([]byte, display.Width*display.Height*pixelDepth)
	rasterize(frame, pixels)
	if pixels[0] != ledColor[0] {
		t.Fatalf("pixel[0] = %d, want clamped %d", pixels[0], ledColor[0])
	}
}

func TestApplyGammaIdentityAtOne(t *testing.T) {
	pixels := []byte{10, 20, 30, 255}
	want := append([]byte(nil), pixels...)
	applyGamma(pixels, 1.0)
	for i := range want {
		if pixels[i] != want[i] {
			t.Fatalf("pixel[%d] = %d, want unchanged %d", i, pixels[i], want[i])
		}
	}
}

func TestApplyGammaLeavesAlphaUntouched(t *testing.T) {
	pixels := []byte{128, 128, 128, 200}
	applyGamma(pixels, 2.2)
	if pixels[3] != 200 {
		t.Fatalf("alpha = %d, want untouched 200", pixels[3])
	}
}

func TestApplyGammaBrightensMidtonesAboveOne(t *testing.T) {
	pixels := []byte{128, 128, 128, 255}
	applyGamma(pixels, 2.2)
	if pixels[0] <= 128 {
		t.Fatalf("gamma 2.2 on mid grey = %d, want brighter than 128", pixels[0])
	}
}

func TestSetGammaCachesLookupTable(t *testing.T) {
	v := &Video{gamma: 1.0, gammaLUT: identityLUT()}
	v.SetGamma(2.2)

	want := buildGammaLUT(float32(2.2))
	if v.gammaLUT != want {
		t.Fatalf("gammaLUT after SetGamma(2.2) does not match a freshly built table")
	}
}

func TestApplyScanlinesDimsOddRowsOnly(t *testing.T) {
	pixels := make([]byte, display.Width*display.Height*pixelDepth)
	for i := 0; i < len(pixels); i += pixelDepth {
		pixels[i], pixels[i+1], pixels[i+2] = 200, 200, 200
	}
	applyScanlines(pixels)

	evenRow := 0 * display.Width * pixelDepth
	oddRow := 1 * display.Width * pixelDepth
	if pixels[evenRow] != 200 {
		t.Fatalf("even row dimmed: got %d, want 200", pixels[evenRow])
	}
	if pixels[oddRow] != 100 {
		t.Fatalf("odd row = %d, want halved to 100", pixels[oddRow])
	}
}
