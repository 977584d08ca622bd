// Package fastcolor writes fixed-width, optionally colored columns without
// the allocation cost of fmt-style formatting. Color codes are only emitted
// when stdout is a terminal.
package fastcolor

import (
	"io"
	"os"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

type Color string

const (
	Reset  Color = "\x1b[0m"
	Bold   Color = "\x1b[1m"
	FgRed  Color = "\x1b[31m"
	FgBlue Color = "\x1b[34m"
)

var enabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

var spaces = "                                                                                "

func pad(w io.StringWriter, n int) {
	for n > 0 {
		chunk := n
		if chunk > len(spaces) {
			chunk = len(spaces)
		}
		w.WriteString(spaces[:chunk])
		n -= chunk
	}
}

// WriteStringFixed writes s in exactly width cells, truncating or padding as
// needed. rightAlign pads on the left.
func (c Color) WriteStringFixed(w io.StringWriter, s string, width int, rightAlign bool) {
	if utf8.RuneCountInString(s) > width {
		rs := []rune(s)
		s = string(rs[:width])
	}
	fill := width - utf8.RuneCountInString(s)
	if enabled && c != Reset {
		w.WriteString(string(c))
	}
	if rightAlign {
		pad(w, fill)
		w.WriteString(s)
	} else {
		w.WriteString(s)
		pad(w, fill)
	}
	if enabled && c != Reset {
		w.WriteString(string(Reset))
	}
}
