// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gauge draws sensor readings as horizontal bars on the terminal
// (stdout) using ANSI color codes.
//
// Each cell of the bar is colored along a cold to hot ramp, so a glance is
// enough to tell a warm room from a cold one.
package gauge

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for a gauge.
type Opts struct {
	// Width is the number of cells of a full bar. Defaults to 20.
	Width int
	// Min and Max are the values drawn as an empty and a full bar.
	Min, Max float64
	Palette  *ansi256.Palette
	// W defaults to stdout, with ANSI codes translated on Windows.
	W io.Writer

	_ struct{}
}

// Dev is a bar gauge that outputs to the console.
type Dev struct {
	w        io.Writer
	width    int
	min, max float64
	palette  ansi256.Palette

	buf bytes.Buffer
}

// New returns a gauge spanning [opts.Min, opts.Max].
func New(opts *Opts) (*Dev, error) {
	if opts.Max <= opts.Min {
		return nil, fmt.Errorf("gauge: invalid range [%g, %g]", opts.Min, opts.Max)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	width := opts.Width
	if width <= 0 {
		width = 20
	}
	return &Dev{w: w, width: width, min: opts.Min, max: opts.Max, palette: *p}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("Gauge[%g, %g]", d.min, d.max)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m"))
	return err
}

// Show writes one line: the label, the bar and the value with its unit.
// Values outside the range are clamped for the bar but printed as is.
func (d *Dev) Show(label, unit string, v float64) error {
	d.buf.Reset()
	_, _ = fmt.Fprintf(&d.buf, "\033[0m%-12s ", label)
	filled := d.cells(v)
	for i := range d.width {
		if i < filled {
			_, _ = io.WriteString(&d.buf, d.palette.Block(d.ramp(i)))
		} else {
			_, _ = io.WriteString(&d.buf, d.palette.Block(color.NRGBA{A: 255}))
		}
	}
	_, _ = fmt.Fprintf(&d.buf, "\033[0m %5.1f%s\n", v, unit)
	_, err := d.buf.WriteTo(d.w)
	return err
}

// cells returns the number of filled cells for v.
func (d *Dev) cells(v float64) int {
	f := (v - d.min) / (d.max - d.min)
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return d.width
	}
	return int(math.Round(f * float64(d.width)))
}

// ramp returns the color of cell i, blue at the low end, red at the high end.
func (d *Dev) ramp(i int) color.NRGBA {
	x := 1.0
	if d.width > 1 {
		x = float64(i) / float64(d.width-1)
	}
	return color.NRGBA{R: uint8(255 * x), G: uint8(64 * (1 - math.Abs(2*x-1))), B: uint8(255 * (1 - x)), A: 255}
}

var _ fmt.Stringer = &Dev{}
