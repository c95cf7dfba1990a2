// Package sfc implements a reader for SNES/Super Famicom cartridge images
// (.sfc/.smc), with LoROM/HiROM detection and address translation.
package sfc

import (
	"errors"
	"fmt"
	"io"
	"os"

	"sufami/emu/log"
)

var (
	// ErrUnrecognized is returned when neither header candidate scores
	// acceptably.
	ErrUnrecognized = errors.New("sfc: unrecognized cartridge")

	// ErrUnsupportedCoprocessor is returned when the cartridge declares an
	// enhancement chip we can't emulate.
	ErrUnsupportedCoprocessor = errors.New("sfc: unsupported coprocessor")
)

type Mapping uint8

const (
	LoROM Mapping = iota
	HiROM
)

func (m Mapping) String() string {
	switch m {
	case LoROM:
		return "LoROM"
	case HiROM:
		return "HiROM"
	}
	return "unknown"
}

// Coprocessor is the cartridge expansion slot variant. Only detection is
// implemented: the core reports unsupported chips at load time.
type Coprocessor uint8

const (
	CoprocNone Coprocessor = iota
	CoprocDSP
	CoprocSA1
	CoprocSuperFX
	CoprocOther
)

func (c Coprocessor) String() string {
	switch c {
	case CoprocNone:
		return "none"
	case CoprocDSP:
		return "DSP"
	case CoprocSA1:
		return "SA-1"
	case CoprocSuperFX:
		return "SuperFX"
	}
	return "other"
}

type TVStandard uint8

const (
	NTSC TVStandard = iota
	PAL
)

func (tv TVStandard) String() string {
	if tv == PAL {
		return "PAL"
	}
	return "NTSC"
}

type Cartridge struct {
	header

	ROM  []byte
	SRAM []byte

	mapping Mapping
}

// Open loads a cartridge from file.
func Open(path string) (*Cartridge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return Load(buf)
}

// Load parses a raw cartridge image. A 512-byte copier header is stripped if
// present. The internal header is located by scoring both the LoROM and HiROM
// candidate positions; mapping is decided primarily from the checksum
// complement pair, not from the header mapping byte, so that overflowing
// title fields can't misclassify the image.
func Load(buf []byte) (*Cartridge, error) {
	if len(buf)%1024 == 512 {
		log.ModCart.DebugZ("stripping copier header").End()
		buf = buf[512:]
	}
	if len(buf) < 0x8000 {
		return nil, fmt.Errorf("%w: image too small (%d bytes)", ErrUnrecognized, len(buf))
	}

	loScore, loHdr := scoreHeaderAt(buf, 0x7FB0, LoROM)
	hiScore, hiHdr := scoreHeaderAt(buf, 0xFFB0, HiROM)

	cart := &Cartridge{ROM: buf}
	switch {
	case loScore <= 0 && hiScore <= 0:
		return nil, fmt.Errorf("%w: header scores lo=%d hi=%d", ErrUnrecognized, loScore, hiScore)
	case hiScore > loScore:
		cart.mapping = HiROM
		cart.header = hiHdr
	default:
		cart.mapping = LoROM
		cart.header = loHdr
	}

	cart.SRAM = make([]byte, cart.SRAMSize())

	log.ModCart.InfoZ("cartridge loaded").
		String("title", cart.Title()).
		Stringer("mapping", cart.mapping).
		Int("rom", len(cart.ROM)).
		Int("sram", len(cart.SRAM)).
		Bool("fastrom", cart.FastROM()).
		End()

	if chip := cart.CoprocessorKind(); chip != CoprocNone {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCoprocessor, chip)
	}
	return cart, nil
}

// LoadWithSRAM is Load plus restoration of a battery-backed RAM image. A
// mismatched size is tolerated: the saved bytes are copied into a buffer of
// the header-declared size.
func LoadWithSRAM(buf, sram []byte) (*Cartridge, error) {
	cart, err := Load(buf)
	if err != nil {
		return nil, err
	}
	copy(cart.SRAM, sram)
	return cart, nil
}

func (c *Cartridge) Mapping() Mapping {
	return c.mapping
}

// Read returns the byte mapped at bank:offset, or (0, false) if the cartridge
// doesn't respond at this address (open bus).
func (c *Cartridge) Read(bank uint8, offset uint16) (uint8, bool) {
	switch c.mapping {
	case LoROM:
		return c.readLoROM(bank, offset)
	default:
		return c.readHiROM(bank, offset)
	}
}

// Write stores into battery-backed RAM. Writes to ROM regions are discarded.
func (c *Cartridge) Write(bank uint8, offset uint16, val uint8) {
	if idx, inSRAM := c.sramIndex(bank, offset); inSRAM {
		c.SRAM[idx] = val
	}
}

func (c *Cartridge) readLoROM(bank uint8, offset uint16) (uint8, bool) {
	if idx, inSRAM := c.sramIndex(bank, offset); inSRAM {
		return c.SRAM[idx], true
	}
	if offset < 0x8000 {
		// Banks $40-$6F mirror the ROM upper halves into the lower; the rest
		// of the low region doesn't belong to the cartridge.
		if b := bank & 0x7F; b < 0x40 || b > 0x6F {
			return 0, false
		}
	}
	idx := int(bank&0x7F)<<15 | int(offset&0x7FFF)
	return c.ROM[idx%len(c.ROM)], true
}

func (c *Cartridge) readHiROM(bank uint8, offset uint16) (uint8, bool) {
	if idx, inSRAM := c.sramIndex(bank, offset); inSRAM {
		return c.SRAM[idx], true
	}
	b := bank & 0x7F
	switch {
	case b >= 0x40: // full 64K banks
		idx := int(b&0x3F)<<16 | int(offset)
		return c.ROM[idx%len(c.ROM)], true
	case offset >= 0x8000: // mirrored upper halves
		idx := int(b&0x3F)<<16 | int(offset)
		return c.ROM[idx%len(c.ROM)], true
	}
	return 0, false
}

func (c *Cartridge) sramIndex(bank uint8, offset uint16) (int, bool) {
	if len(c.SRAM) == 0 {
		return 0, false
	}
	switch c.mapping {
	case LoROM:
		// Banks $70-$7D and $F0-$FF, offsets $0000-$7FFF.
		b := bank & 0x7F
		if b >= 0x70 && b <= 0x7D || bank >= 0xF0 {
			if offset < 0x8000 {
				idx := int(b&0x0F)<<15 | int(offset)
				return idx % len(c.SRAM), true
			}
		}
	case HiROM:
		// Banks $20-$3F and $A0-$BF, offsets $6000-$7FFF.
		b := bank & 0x7F
		if b >= 0x20 && b <= 0x3F && offset >= 0x6000 && offset < 0x8000 {
			idx := int(b&0x1F)<<13 | int(offset-0x6000)
			return idx % len(c.SRAM), true
		}
	}
	return 0, false
}

// PrintInfos writes a short human-readable description of the cartridge.
func (c *Cartridge) PrintInfos(w io.Writer) {
	fmt.Fprintf(w, "title:    %s\n", c.Title())
	fmt.Fprintf(w, "mapping:  %s\n", c.mapping)
	fmt.Fprintf(w, "tv:       %s\n", c.TV())
	fmt.Fprintf(w, "rom:      %d KiB\n", len(c.ROM)/1024)
	fmt.Fprintf(w, "sram:     %d KiB\n", len(c.SRAM)/1024)
	fmt.Fprintf(w, "fastrom:  %t\n", c.FastROM())
	fmt.Fprintf(w, "coproc:   %s\n", c.CoprocessorKind())
}
