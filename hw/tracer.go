package hw

import (
	"fmt"
	"io"
)

// tracer writes one line per executed instruction. The format is stable so
// traces can be diffed between runs.
type tracer struct {
	w io.Writer
}

func (t *tracer) write(c *CPU) {
	mode := 'n'
	if c.E {
		mode = 'e'
	}
	fmt.Fprintf(t.w, "%02X:%04X A:%04X X:%04X Y:%04X S:%04X D:%04X DB:%02X P:%s %c CYC:%d\n",
		c.PB, c.PC, c.A, c.X, c.Y, c.S, c.D, c.DB, c.P, mode, c.Cycles)
}
