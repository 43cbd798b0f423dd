// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pinview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/maruel/ansi256"

	"github.com/GermanBionicSystems/expander/pcal95555"
	"github.com/GermanBionicSystems/expander/pcal95555/pcal95555test"
)

func TestShow(t *testing.T) {
	var buf bytes.Buffer
	v := NewWriter(&buf, nil)
	if err := v.Show(Snapshot{Levels: 0x8001, Inputs: 0xFF00}); err != nil {
		t.Fatal(err)
	}
	p := ansi256.Default
	outHigh := p.Block(DefaultOpts.OutputHigh)
	outLow := p.Block(DefaultOpts.OutputLow)
	inHigh := p.Block(DefaultOpts.InputHigh)
	inLow := p.Block(DefaultOpts.InputLow)
	want := "\r\033[0m" + outHigh + strings.Repeat(outLow, 7) + "\033[0m " +
		strings.Repeat(inLow, 7) + inHigh + "\033[0m "
	if got := buf.String(); got != want {
		t.Errorf("Show() = %q\nwant %q", got, want)
	}
	buf.Reset()
	if err := v.Halt(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\n\033[0m" {
		t.Errorf("Halt() wrote %q", buf.String())
	}
}

func TestCapture(t *testing.T) {
	sim := pcal95555test.New(0x21, false)
	d, err := pcal95555.New(sim, 0x21, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if err := d.SetMultipleDirections(0x000F, pcal95555.Output); err != nil {
		t.Fatal(err)
	}
	if err := d.WritePin(1, false); err != nil {
		t.Fatal(err)
	}
	sim.SetInput(12, false)
	s, err := Capture(d)
	if err != nil {
		t.Fatal(err)
	}
	if s.Inputs != 0xFFF0 || s.Levels != 0xEFFD {
		t.Errorf("Capture() = %+v", s)
	}
}
