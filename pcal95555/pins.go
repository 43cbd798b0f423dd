// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// Pin extends gpio.PinIO with the per-pin features of the expander.
type Pin interface {
	gpio.PinIO
	pin.PinFunc
	// SetPolarityInverted makes the input register report the inverse of the
	// level at the pin.
	SetPolarityInverted(p bool) error
	// IsPolarityInverted returns true if the input register reports the
	// inverse of the level at the pin.
	IsPolarityInverted() (bool, error)
	// SetDriveStrength sets the output drive strength. PCAL9555A only.
	SetDriveStrength(s DriveStrength) error
	// EnableInputLatch latches input changes until read. PCAL9555A only.
	EnableInputLatch(enable bool) error
}

// port exposes one 8-bit port as a conn.Conn.
type port struct {
	dev    *Dev
	number int
	name   string
}

// Tx takes bytes to either read or write. Only half duplex is supported so it
// is an error to pass 2 buffers at once. Written bytes go to the output
// register one after the other; read bytes are successive samples of the
// input register.
func (p *port) Tx(w, r []byte) error {
	switch {
	case len(w) > 0 && len(r) > 0:
		return errors.New("pcal95555: only conn.Half duplex is supported")
	case len(w) > 0:
		for _, b := range w {
			if err := p.dev.writeRegister(outputRegs[p.number], b); err != nil {
				return err
			}
		}
	case len(r) > 0:
		for i := range r {
			v, err := p.dev.readRegister(inputRegs[p.number])
			if err != nil {
				return err
			}
			r[i] = v
		}
	}
	return nil
}

// Duplex returns that this is a half duplex connection.
func (p *port) Duplex() conn.Duplex {
	return conn.Half
}

func (p *port) String() string {
	return p.name
}

type portpin struct {
	dev    *Dev
	number int
	name   string
}

func (p *portpin) String() string {
	return p.name
}

// Halt sets the pin to a high-impedance input.
func (p *portpin) Halt() error {
	return p.dev.SetPinDirection(p.number, Input)
}

func (p *portpin) Name() string {
	return p.name
}

func (p *portpin) Number() int {
	return p.number
}

func (p *portpin) Function() string {
	return string(p.Func())
}

// In sets the pin as an input. On a PCAL9555A pull is applied with the pull
// registers; on a PCA9555 only gpio.Float and gpio.PullNoChange are
// accepted.
//
// Edges are reported on the shared INT line, not per pin. Use
// RegisterPinInterrupt and Dev.WaitForInterrupt instead.
func (p *portpin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return errors.New("pcal95555: per-pin edge detection not supported, use RegisterPinInterrupt")
	}
	switch pull {
	case gpio.PullNoChange:
	case gpio.Float:
		if p.dev.HasExtendedFeatures() {
			if err := p.dev.SetPullEnable(p.number, false); err != nil {
				return err
			}
		}
	case gpio.PullUp, gpio.PullDown:
		if err := p.dev.SetPullDirection(p.number, pull == gpio.PullUp); err != nil {
			return err
		}
		if err := p.dev.SetPullEnable(p.number, true); err != nil {
			return err
		}
	default:
		return fmt.Errorf("pcal95555: unsupported pull %s", pull)
	}
	return p.dev.SetPinDirection(p.number, Input)
}

// Read returns the current pin level. A failed read returns gpio.Low; check
// Dev.ErrorFlags to tell it apart from a low pin.
func (p *portpin) Read() gpio.Level {
	l, _ := p.dev.ReadPin(p.number)
	return l
}

func (p *portpin) WaitForEdge(timeout time.Duration) bool {
	return false
}

func (p *portpin) Pull() gpio.Pull {
	if !p.dev.HasExtendedFeatures() {
		return gpio.Float
	}
	pull, err := p.dev.PinPull(p.number)
	if err != nil {
		return gpio.PullNoChange
	}
	return pull
}

// DefaultPull returns the power-on pull. The PCAL9555A starts with 100 kΩ
// pull-ups enabled.
func (p *portpin) DefaultPull() gpio.Pull {
	if p.dev.HasExtendedFeatures() {
		return gpio.PullUp
	}
	return gpio.Float
}

// Out writes the output latch and then configures the pin as an output, so
// the pin never drives the previous latch value.
func (p *portpin) Out(l gpio.Level) error {
	if err := p.dev.WritePin(p.number, l); err != nil {
		return err
	}
	return p.dev.SetPinDirection(p.number, Output)
}

func (p *portpin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("pcal95555: PWM is not supported")
}

func (p *portpin) Func() pin.Func {
	dir, err := p.dev.PinDirection(p.number)
	if err != nil {
		return pin.FuncNone
	}
	if dir == Input {
		return gpio.IN
	}
	return gpio.OUT
}

func (p *portpin) SupportedFuncs() []pin.Func {
	return supportedFuncs[:]
}

func (p *portpin) SetFunc(f pin.Func) error {
	switch f {
	case gpio.IN:
		return p.dev.SetPinDirection(p.number, Input)
	case gpio.OUT:
		return p.dev.SetPinDirection(p.number, Output)
	default:
		return errors.New("pcal95555: Function not supported: " + string(f))
	}
}

func (p *portpin) SetPolarityInverted(inv bool) error {
	pol := Normal
	if inv {
		pol = Inverted
	}
	return p.dev.SetPinPolarity(p.number, pol)
}

func (p *portpin) IsPolarityInverted() (bool, error) {
	pol, err := p.dev.PinPolarity(p.number)
	return pol == Inverted, err
}

func (p *portpin) SetDriveStrength(s DriveStrength) error {
	return p.dev.SetDriveStrength(p.number, s)
}

func (p *portpin) EnableInputLatch(enable bool) error {
	return p.dev.EnableInputLatch(p.number, enable)
}

// pinName returns the gpioreg name of a pin, like PCAL9555_20_P1_3.
func pinName(dev string, number int) string {
	return dev + "_P" + strconv.Itoa(number>>3) + "_" + strconv.Itoa(number&7)
}

var supportedFuncs = [...]pin.Func{gpio.IN, gpio.OUT}

var _ Pin = &portpin{}
var _ conn.Conn = &port{}
