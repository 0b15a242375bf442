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

// Package sdlvideo renders the display's phosphor buffer to an SDL window
// and maps keyboard input to the console's eight-button controller
// snapshot: a window, a renderer, a single streaming texture updated once
// per frame, and a pixel buffer with a fixed alpha channel — simplified
// because the phosphor buffer is a single greyscale plane rather than a
// three-channel television signal built up scanline by scanline.
package sdlvideo

import (
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/pandamystique/advision/hardware/display"
	"github.com/pandamystique/advision/hardware/ports"
	"github.com/pandamystique/advision/logger"
)

const pixelDepth = 4 // ABGR8888: bytes R, G, B, A in memory

// ledColor is the phosphor's tint: Adventure Vision's real LEDs are red.
var ledColor = [3]byte{0xff, 0x20, 0x20} // R, G, B at full brightness

const windowTitle = "Adventure Vision"

// Video renders display.Frame values to an SDL window.
type Video struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	pixels   []byte
	scale    int32

	gamma     float32
	gammaLUT  [256]byte
	scanlines bool
}

// NewVideo opens a window sized to display.Width x display.Height scaled by
// scale, and its backing texture and pixel buffer. MUST be called from the
// thread that will also call Render and PollInput — SDL's window and event
// APIs are not safe to call from any other goroutine. When integerScale is
// false the window is made resizable and content is stretched to fill it
// via the renderer's logical size instead of being locked to whole-pixel
// multiples.
func NewVideo(scale int32, integerScale bool) (*Video, error) {
	if scale < 1 {
		scale = 1
	}
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("sdlvideo: %w", err)
	}

	v := &Video{scale: scale, gamma: 1.0, gammaLUT: identityLUT()}

	w, h := int32(display.Width)*scale, int32(display.Height)*scale
	flags := uint32(sdl.WINDOW_SHOWN)
	if !integerScale {
		flags |= sdl.WINDOW_RESIZABLE
	}
	window, err := sdl.CreateWindow(windowTitle,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		w, h, flags)
	if err != nil {
		return nil, fmt.Errorf("sdlvideo: %w", err)
	}
	v.window = window

	v.renderer, err = sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, fmt.Errorf("sdlvideo: %w", err)
	}
	if integerScale {
		if err := v.renderer.SetScale(float32(scale), float32(scale)); err != nil {
			return nil, fmt.Errorf("sdlvideo: %w", err)
		}
	} else {
		if err := v.renderer.SetLogicalSize(int32(display.Width), int32(display.Height)); err != nil {
			return nil, fmt.Errorf("sdlvideo: %w", err)
		}
	}

	v.texture, err = v.renderer.CreateTexture(uint32(sdl.PIXELFORMAT_ABGR8888),
		sdl.TEXTUREACCESS_STREAMING, display.Width, display.Height)
	if err != nil {
		return nil, fmt.Errorf("sdlvideo: %w", err)
	}

	v.pixels = make([]byte, display.Width*display.Height*pixelDepth)
	for i := pixelDepth - 1; i < len(v.pixels); i += pixelDepth {
		v.pixels[i] = 255 // alpha, never changed again
	}

	logger.Logf(logger.Allow, "sdlvideo", "window: %dx%d at scale %d", w, h, scale)

	return v, nil
}

// SetGamma sets the gamma-correction exponent applied to every pixel before
// it reaches the texture. 1.0 (the default) is a no-op. The lookup table is
// rebuilt here, once per preference change, rather than once per frame.
func (v *Video) SetGamma(gamma float64) {
	if gamma <= 0 {
		gamma = 1.0
	}
	v.gamma = float32(gamma)
	v.gammaLUT = buildGammaLUT(v.gamma)
}

// SetScanlines toggles the alternating-row darkening that imitates the
// visible gaps between a real LED column's vertically stacked dice.
func (v *Video) SetScanlines(on bool) { v.scanlines = on }

// SetFullscreen switches the window in or out of desktop fullscreen mode.
func (v *Video) SetFullscreen(on bool) error {
	var flags uint32
	if on {
		flags = uint32(sdl.WINDOW_FULLSCREEN_DESKTOP)
	}
	if err := v.window.SetFullscreen(flags); err != nil {
		return fmt.Errorf("sdlvideo: %w", err)
	}
	return nil
}

// Render draws one phosphor frame and presents it.
func (v *Video) Render(frame display.Frame) error {
	rasterize(frame, v.pixels)
	if v.gamma != 0 && v.gamma != 1.0 {
		applyGammaLUT(v.pixels, &v.gammaLUT)
	}
	if v.scanlines {
		applyScanlines(v.pixels)
	}

	if err := v.texture.Update(nil, v.pixels, display.Width*pixelDepth); err != nil {
		return fmt.Errorf("sdlvideo: %w", err)
	}
	if err := v.renderer.Copy(v.texture, nil, nil); err != nil {
		return fmt.Errorf("sdlvideo: %w", err)
	}
	v.renderer.Present()
	return nil
}

// rasterize converts a phosphor frame to ABGR8888 pixels (bytes R, G, B, A
// in memory), tinted by
// ledColor and leaving the alpha byte (every 4th) untouched. Split out from
// Render so the colour math can be tested without an open SDL window.
func rasterize(frame display.Frame, pixels []byte) {
	for y := 0; y < display.Height; y++ {
		for x := 0; x < display.Width; x++ {
			i := (y*display.Width + x) * pixelDepth
			b := frame.Pixel(x, y)
			if b < 0 {
				b = 0
			} else if b > 1 {
				b = 1
			}
			pixels[i] = byte(float32(ledColor[0]) * b)
			pixels[i+1] = byte(float32(ledColor[1]) * b)
			pixels[i+2] = byte(float32(ledColor[2]) * b)
		}
	}
}

// buildGammaLUT computes the 256-entry gamma lookup table raising every
// channel value to 1/gamma. Called once per SetGamma, not once per frame.
func buildGammaLUT(gamma float32) [256]byte {
	inv := 1.0 / float64(gamma)
	var lut [256]byte
	for v := 0; v < 256; v++ {
		c := math.Pow(float64(v)/255.0, inv) * 255.0
		if c > 255 {
			c = 255
		} else if c < 0 {
			c = 0
		}
		lut[v] = byte(c)
	}
	return lut
}

// identityLUT is buildGammaLUT(1.0), used before SetGamma is ever called.
func identityLUT() [256]byte {
	var lut [256]byte
	for v := range lut {
		lut[v] = byte(v)
	}
	return lut
}

// applyGammaLUT maps every colour channel (not alpha) through lut, in place.
func applyGammaLUT(pixels []byte, lut *[256]byte) {
	for i := 0; i < len(pixels); i += pixelDepth {
		pixels[i] = lut[pixels[i]]
		pixels[i+1] = lut[pixels[i+1]]
		pixels[i+2] = lut[pixels[i+2]]
	}
}

// applyGamma raises every colour channel (not alpha) to 1/gamma, in place,
// building the lookup table fresh each call. Used directly only by tests;
// Render uses the cached Video.gammaLUT
// instead so the table isn't rebuilt every frame.
func applyGamma(pixels []byte, gamma float32) {
	lut := buildGammaLUT(gamma)
	applyGammaLUT(pixels, &lut)
}

// applyScanlines halves the brightness of every odd display row, imitating
// the visible gaps between a real LED column's stacked dice.
func applyScanlines(pixels []byte) {
	for y := 1; y < display.Height; y += 2 {
		row := y * display.Width * pixelDepth
		for i := row; i < row+display.Width*pixelDepth; i += pixelDepth {
			pixels[i] /= 2
			pixels[i+1] /= 2
			pixels[i+2] /= 2
		}
	}
}

// PollInput drains the SDL event queue, returning the accumulated button
// state, whether the user requested the window close (or pressed Escape),
// and whether the mute hotkey (M) was pressed this poll.
func (v *Video) PollInput(prev ports.Buttons) (ports.Buttons, bool, bool) {
	in := prev
	quit := false
	muteToggled := false

	for {
		ev := sdl.PollEvent()
		if ev == nil {
			break
		}
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.KeyboardEvent:
			down := e.Type == sdl.KEYDOWN
			switch e.Keysym.Scancode {
			case sdl.SCANCODE_ESCAPE:
				if down {
					quit = true
				}
			case sdl.SCANCODE_M:
				if down && e.Repeat == 0 {
					muteToggled = true
				}
			case sdl.SCANCODE_UP:
				in.Up = down
			case sdl.SCANCODE_DOWN:
				in.Down = down
			case sdl.SCANCODE_LEFT:
				in.Left = down
			case sdl.SCANCODE_RIGHT:
				in.Right = down
			case sdl.SCANCODE_Z:
				in.B1 = down
			case sdl.SCANCODE_X:
				in.B2 = down
			case sdl.SCANCODE_C:
				in.B3 = down
			case sdl.SCANCODE_V:
				in.B4 = down
			}
		}
	}

	return in, quit, muteToggled
}

// Close releases the texture, renderer and window.
func (v *Video) Close() {
	if v.texture != nil {
		v.texture.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Destroy()
	}
	if v.window != nil {
		v.window.Destroy()
	}
}
