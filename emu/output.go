package emu

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"sufami/hw"
)

// Output is the SDL video sink: a window with a streaming texture the size
// of the PPU framebuffer.
type Output struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	w, h int
}

func NewOutput(title string, cfg VideoConfig) (*Output, error) {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("sdl video init: %w", err)
	}

	scale := int32(cfg.Scale)
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(hw.FrameWidth)*scale, int32(hw.FrameHeight)*scale,
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	flags := uint32(sdl.RENDERER_ACCELERATED)
	if !cfg.DisableVSync {
		flags |= sdl.RENDERER_PRESENTVSYNC
	}
	renderer, err := sdl.CreateRenderer(window, -1, flags)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	return &Output{window: window, renderer: renderer}, nil
}

// Present uploads and displays one frame.
func (o *Output) Present(frame hw.Frame) error {
	if o.texture == nil || o.w != frame.Width || o.h != frame.Height {
		if o.texture != nil {
			o.texture.Destroy()
		}
		tex, err := o.renderer.CreateTexture(
			sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING,
			int32(frame.Width), int32(frame.Height))
		if err != nil {
			return err
		}
		o.texture = tex
		o.w, o.h = frame.Width, frame.Height
	}

	if err := o.texture.Update(nil, frame.Video, frame.Width*4); err != nil {
		return err
	}
	o.renderer.Clear()
	o.renderer.Copy(o.texture, nil, nil)
	o.renderer.Present()
	return nil
}

// Poll drains the SDL event queue. Returns false when the user asked to
// quit.
func (o *Output) Poll() bool {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
				return false
			}
		}
	}
	return true
}

func (o *Output) Close() {
	if o.texture != nil {
		o.texture.Destroy()
	}
	if o.renderer != nil {
		o.renderer.Destroy()
	}
	if o.window != nil {
		o.window.Destroy()
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO | sdl.INIT_EVENTS)
}
