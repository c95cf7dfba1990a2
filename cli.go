package main

import (
	"strings"

	"github.com/alecthomas/kong"

	"sufami/emu/log"
)

type CLI struct {
	Run      Run      `cmd:"" help:"Run a ROM in the emulator." default:"withargs"`
	RomInfos RomInfos `cmd:"" help:"Show ROM infos." name:"rom-infos"`
	Version  Version  `cmd:"" help:"Show sufami version."`

	Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
}

type Run struct {
	RomPath string `arg:"" name:"/path/to/rom" help:"ROM to run." required:"" type:"existingfile"`

	NoAudio bool     `name:"no-audio" help:"Disable audio output."`
	Scale   int      `name:"scale" help:"Window scale factor." default:"0"`
	Trace   *outfile `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
}

type RomInfos struct {
	RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
}

type Version struct{}

var vars = kong.Vars{
	"log_help": "Enable debug logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("sufami"),
		kong.Description("SNES emulator."),
		kong.UsageOnError(),
		vars)
	if err != nil {
		panic(err)
	}
	_, err = parser.Parse(args)
	parser.FatalIfErrorf(err)
	return cli
}

// logModMask decodes a comma-separated module list into a debug mask.
type logModMask log.ModuleMask

func (m *logModMask) UnmarshalText(text []byte) error {
	for _, modname := range strings.Split(string(text), ",") {
		if modname == "all" {
			*m |= logModMask(log.ModuleMaskAll)
			continue
		}
		mod, found := log.ModuleByName(modname)
		if !found {
			log.ModEmu.FatalZ("invalid module name").String("name", modname).End()
		}
		*m |= logModMask(mod.Mask())
	}
	return nil
}
