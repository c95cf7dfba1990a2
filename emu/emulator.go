// Package emu is the host harness around the console core: SDL video and
// audio sinks, keyboard input, configuration, and SRAM/save-state
// persistence. The core itself never touches SDL.
package emu

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veandco/go-sdl2/sdl"

	"sufami/emu/log"
	"sufami/hw"
	"sufami/hw/snapshot"
	"sufami/sfc"
)

type Emulator struct {
	SNES *hw.SNES
	cfg  Config

	out   *Output
	audio *AudioOut

	romPath  string
	sramPath string
}

// Launch loads the cartridge (restoring SRAM if a .srm file exists next to
// it), powers up the console and opens the host window and audio device.
func Launch(romPath string, cfg Config) (*Emulator, error) {
	buf, err := os.ReadFile(romPath)
	if err != nil {
		return nil, err
	}

	sramPath := savePath(romPath, cfg, ".srm")
	sram, _ := os.ReadFile(sramPath)

	cart, err := sfc.LoadWithSRAM(buf, sram)
	if err != nil {
		return nil, err
	}

	e := &Emulator{
		SNES:     hw.NewSNES(cart),
		cfg:      cfg,
		romPath:  romPath,
		sramPath: sramPath,
	}

	e.out, err = NewOutput("sufami - "+cart.Title(), cfg.Video)
	if err != nil {
		return nil, err
	}

	if !cfg.Audio.DisableAudio {
		e.audio, err = NewAudioOut(cfg.Audio)
		if err != nil {
			log.ModEmu.WarnZ("audio disabled").Error("err", err).End()
			e.audio = nil
		}
	}
	return e, nil
}

// Run is the frame loop: input, one frame of emulation, video, audio.
// Returns when the user quits or the CPU hits STP.
func (e *Emulator) Run() error {
	defer e.shutdown()

	for {
		if !e.out.Poll() {
			return nil
		}
		e.handleHotkeys()

		var pads [4]hw.PadState
		pads[0] = readKeyboard()

		frame := e.SNES.RunFrame(pads)

		if err := e.out.Present(frame); err != nil {
			return fmt.Errorf("presenting frame: %w", err)
		}
		if e.audio != nil {
			e.audio.Queue(frame.Samples)
		}

		if e.SNES.CPU.Halted() {
			log.ModEmu.ErrorZ("CPU halted (STP), stopping").End()
			return nil
		}
	}
}

func (e *Emulator) handleHotkeys() {
	keys := sdl.GetKeyboardState()
	switch {
	case keys[sdl.SCANCODE_F5] != 0:
		if err := e.SaveState(); err != nil {
			log.ModEmu.WarnZ("save state failed").Error("err", err).End()
		}
	case keys[sdl.SCANCODE_F7] != 0:
		if err := e.LoadState(); err != nil {
			log.ModEmu.WarnZ("load state failed").Error("err", err).End()
		}
	case keys[sdl.SCANCODE_F10] != 0:
		e.SNES.Reset()
	}
}

func (e *Emulator) statePath() string {
	return savePath(e.romPath, e.cfg, ".state")
}

func (e *Emulator) SaveState() error {
	data := e.SNES.Snapshot().Encode()
	if err := os.WriteFile(e.statePath(), data, 0644); err != nil {
		return err
	}
	log.ModEmu.InfoZ("state saved").String("path", e.statePath()).End()
	return nil
}

func (e *Emulator) LoadState() error {
	data, err := os.ReadFile(e.statePath())
	if err != nil {
		return err
	}
	st, err := snapshot.Decode(data)
	if err != nil {
		return err
	}
	e.SNES.Restore(st)
	log.ModEmu.InfoZ("state loaded").String("path", e.statePath()).End()
	return nil
}

// shutdown persists SRAM and tears the host surfaces down.
func (e *Emulator) shutdown() {
	if sram := e.SNES.SRAM(); len(sram) > 0 {
		if err := os.WriteFile(e.sramPath, sram, 0644); err != nil {
			log.ModEmu.WarnZ("saving sram").Error("err", err).End()
		} else {
			log.ModEmu.InfoZ("sram saved").String("path", e.sramPath).End()
		}
	}
	if e.audio != nil {
		e.audio.Close()
	}
	e.out.Close()
}

// savePath derives a sibling file of the ROM, or a file in the configured
// save directory.
func savePath(romPath string, cfg Config, ext string) string {
	base := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath)) + ext
	if cfg.General.SaveDir != "" {
		return filepath.Join(cfg.General.SaveDir, base)
	}
	return filepath.Join(filepath.Dir(romPath), base)
}
