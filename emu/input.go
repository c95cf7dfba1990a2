package emu

import (
	"github.com/veandco/go-sdl2/sdl"

	"sufami/hw"
)

// Default keyboard mapping for pad 1.
var keymap = map[sdl.Scancode]hw.PadState{
	sdl.SCANCODE_UP:     hw.PadUp,
	sdl.SCANCODE_DOWN:   hw.PadDown,
	sdl.SCANCODE_LEFT:   hw.PadLeft,
	sdl.SCANCODE_RIGHT:  hw.PadRight,
	sdl.SCANCODE_X:      hw.PadA,
	sdl.SCANCODE_Z:      hw.PadB,
	sdl.SCANCODE_S:      hw.PadX,
	sdl.SCANCODE_A:      hw.PadY,
	sdl.SCANCODE_Q:      hw.PadL,
	sdl.SCANCODE_W:      hw.PadR,
	sdl.SCANCODE_RETURN: hw.PadStart,
	sdl.SCANCODE_RSHIFT: hw.PadSelect,
}

// readKeyboard builds pad 1's state from the current keyboard snapshot.
func readKeyboard() hw.PadState {
	var state hw.PadState
	keys := sdl.GetKeyboardState()
	for code, mask := range keymap {
		if keys[code] != 0 {
			state |= mask
		}
	}
	return state
}
