package main

import (
	"fmt"
	"io"
	"os"

	"sufami/emu"
	"sufami/emu/log"
	"sufami/sfc"
)

var version = "devel"

func main() {
	cli := parseArgs(os.Args[1:])

	if cli.Log != 0 {
		log.EnableDebugModules(log.ModuleMask(cli.Log))
	}

	switch {
	case cli.RomInfos.RomPath != "":
		cart, err := sfc.Open(cli.RomInfos.RomPath)
		checkf(err, "failed to open rom")
		cart.PrintInfos(os.Stdout)

	case cli.Run.RomPath != "":
		cfg := emu.LoadConfigOrDefault()
		if cli.Run.NoAudio {
			cfg.Audio.DisableAudio = true
		}
		if cli.Run.Scale > 0 {
			cfg.Video.Scale = cli.Run.Scale
		}

		e, err := emu.Launch(cli.Run.RomPath, cfg)
		checkf(err, "error during power up")
		if cli.Run.Trace != nil && cli.Run.Trace.w != nil {
			e.SNES.CPU.SetTraceOutput(cli.Run.Trace.w)
			defer cli.Run.Trace.Close()
		}
		checkf(e.Run(), "emulation error")

	default:
		fmt.Println("sufami", version)
	}
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintf(os.Stderr, ": %v\n", err)
	os.Exit(1)
}

// outfile is a flag value writing to a file, stdout or stderr.
type outfile struct {
	w    io.Writer
	path string
}

func (f *outfile) UnmarshalText(text []byte) error {
	f.path = string(text)
	switch f.path {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		w, err := os.Create(f.path)
		if err != nil {
			return err
		}
		f.w = w
	}
	return nil
}

func (f *outfile) Close() {
	if c, ok := f.w.(io.Closer); ok && f.w != os.Stdout && f.w != os.Stderr {
		c.Close()
	}
}
