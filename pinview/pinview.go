// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pinview renders the 16 pins of an expander to a terminal using ANSI
// color codes, one block per pin.
//
// Inputs are drawn in green and outputs in red, bright when high and dark
// when low. Port 0 is drawn first, pin 0 leftmost.
package pinview

import (
	"bytes"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"

	"github.com/GermanBionicSystems/expander/pcal95555"
)

// Opts represents the options available for the view.
type Opts struct {
	Palette *ansi256.Palette

	InputHigh  color.NRGBA
	InputLow   color.NRGBA
	OutputHigh color.NRGBA
	OutputLow  color.NRGBA
}

// DefaultOpts are the colors used when New is given nil.
var DefaultOpts = Opts{
	InputHigh:  color.NRGBA{0x00, 0xFF, 0x00, 0xFF},
	InputLow:   color.NRGBA{0x00, 0x40, 0x00, 0xFF},
	OutputHigh: color.NRGBA{0xFF, 0x00, 0x00, 0xFF},
	OutputLow:  color.NRGBA{0x40, 0x00, 0x00, 0xFF},
}

// Snapshot is the state of the 16 pins, one bit per pin.
type Snapshot struct {
	Levels uint16 // Input register, after polarity inversion.
	Inputs uint16 // Configuration register, 1 = input.
}

// Capture reads a Snapshot from d. It does three to four register reads.
func Capture(d *pcal95555.Dev) (Snapshot, error) {
	dirs, err := d.Directions()
	if err != nil {
		return Snapshot{}, err
	}
	levels, err := d.ReadInputs()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Levels: levels, Inputs: dirs}, nil
}

// View writes pin snapshots to a terminal.
type View struct {
	w      io.Writer
	blocks [4]string // indexed by input<<1 | high
	buf    bytes.Buffer
}

// New returns a View that writes to stdout, on Windows too.
func New(opts *Opts) *View {
	return NewWriter(colorable.NewColorableStdout(), opts)
}

// NewWriter returns a View that writes to w.
func NewWriter(w io.Writer, opts *Opts) *View {
	if opts == nil {
		opts = &DefaultOpts
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	v := &View{w: w}
	v.blocks[0] = p.Block(opts.OutputLow)
	v.blocks[1] = p.Block(opts.OutputHigh)
	v.blocks[2] = p.Block(opts.InputLow)
	v.blocks[3] = p.Block(opts.InputHigh)
	return v
}

func (v *View) String() string {
	return "PinView"
}

// Halt implements conn.Resource.
//
// It moves to the next line and resets the colors so the terminal is not
// left corrupted.
func (v *View) Halt() error {
	_, err := v.w.Write([]byte("\n\033[0m"))
	return err
}

// Show redraws the current line with s.
func (v *View) Show(s Snapshot) error {
	// This code is designed to minimize the amount of memory allocated per call.
	v.buf.Reset()
	_, _ = v.buf.WriteString("\r\033[0m")
	for pin := range pcal95555.NumPins {
		if pin == 8 {
			_, _ = v.buf.WriteString("\033[0m ")
		}
		i := 0
		if s.Inputs&(1<<pin) != 0 {
			i |= 2
		}
		if s.Levels&(1<<pin) != 0 {
			i |= 1
		}
		_, _ = v.buf.WriteString(v.blocks[i])
	}
	_, _ = v.buf.WriteString("\033[0m ")
	_, err := v.buf.WriteTo(v.w)
	return err
}
