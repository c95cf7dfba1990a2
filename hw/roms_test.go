package hw

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sufami/sfc"
	"sufami/tests"
)

// Smoke test against the homebrew test-ROM suite: every plain LoROM/HiROM
// image must come up, run a couple of seconds of frames without the CPU
// hitting STP, and end up actually drawing something.
//
// Opt-in: the suite is fetched on first use and the run is slow.
func TestRunTestROMs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping long test")
	}
	if os.Getenv("SUFAMI_TESTROMS") == "" {
		t.Skip("set SUFAMI_TESTROMS=1 to fetch and run the test-ROM suite")
	}

	root := tests.RomsPath(t)

	var roms []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".sfc") {
			roms = append(roms, path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(roms) == 0 {
		t.Fatalf("no .sfc images under %s", root)
	}

	for _, path := range roms {
		name, _ := filepath.Rel(root, path)
		t.Run(name, func(t *testing.T) {
			cart, err := sfc.Open(path)
			if errors.Is(err, sfc.ErrUnsupportedCoprocessor) {
				t.Skipf("coprocessor cart: %v", err)
			}
			if errors.Is(err, sfc.ErrUnrecognized) {
				t.Skipf("not a cartridge image: %v", err)
			}
			if err != nil {
				t.Fatal(err)
			}

			s := NewSNES(cart)
			var frame Frame
			for i := 0; i < 120; i++ {
				frame = s.RunFrame([4]PadState{})
				if s.CPU.Halted() {
					t.Fatalf("CPU halted (STP) on frame %d", i)
				}
			}

			blank := true
			for i := 0; i < len(frame.Video); i += 4 {
				if frame.Video[i] != 0 || frame.Video[i+1] != 0 || frame.Video[i+2] != 0 {
					blank = false
					break
				}
			}
			if blank {
				t.Error("screen still blank after 120 frames")
			}
		})
	}
}
