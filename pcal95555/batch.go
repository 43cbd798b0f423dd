// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// PinDirection is one entry of a SetDirections call.
type PinDirection struct {
	Pin int
	Dir Direction
}

// PinLevel is one entry of a WritePins call or of a ReadPins result.
type PinLevel struct {
	Pin   int
	Level gpio.Level
}

func (p PinLevel) String() string {
	return fmt.Sprintf("%d=%s", p.Pin, p.Level)
}

// PinPolarity is one entry of a SetPolarities call.
type PinPolarity struct {
	Pin      int
	Polarity Polarity
}

// PinValue is one entry of a boolean per-pin batch call. Its meaning depends
// on the call: pull enabled, pull-up selected, latch enabled or interrupt
// enabled.
type PinValue struct {
	Pin   int
	Value bool
}

// PinDrive is one entry of a SetDriveStrengths call.
type PinDrive struct {
	Pin   int
	Level DriveStrength
}

// Every batch call validates all of its entries before the first bus
// transaction and then does one read and one write per touched register.
// When a pin appears more than once the last entry wins.

// SetDirections configures the direction of several pins.
func (d *Dev) SetDirections(pins []PinDirection) error {
	var u portUpdate
	for _, p := range pins {
		if err := d.checkPin(p.Pin); err != nil {
			return err
		}
		u.set(p.Pin, p.Dir == Input)
	}
	return d.applyPorts(configRegs, &u)
}

// WritePins sets the output latch of several pins.
func (d *Dev) WritePins(pins []PinLevel) error {
	var u portUpdate
	for _, p := range pins {
		if err := d.checkPin(p.Pin); err != nil {
			return err
		}
		u.set(p.Pin, bool(p.Level))
	}
	return d.applyPorts(outputRegs, &u)
}

// ReadPins returns the level of each requested pin, in the order given.
// Each input register is read at most once.
func (d *Dev) ReadPins(pins ...int) ([]PinLevel, error) {
	var need [2]bool
	for _, pin := range pins {
		if err := d.checkPin(pin); err != nil {
			return nil, err
		}
		need[pin>>3] = true
	}
	var regs [2]uint8
	for port := range 2 {
		if !need[port] {
			continue
		}
		v, err := d.readRegister(inputRegs[port])
		if err != nil {
			return nil, err
		}
		regs[port] = v
	}
	out := make([]PinLevel, len(pins))
	for i, pin := range pins {
		out[i] = PinLevel{Pin: pin, Level: regs[pin>>3]&(1<<(pin&7)) != 0}
	}
	return out, nil
}

// SetPolarities sets the polarity inversion of several pins.
func (d *Dev) SetPolarities(pins []PinPolarity) error {
	var u portUpdate
	for _, p := range pins {
		if err := d.checkPin(p.Pin); err != nil {
			return err
		}
		u.set(p.Pin, p.Polarity == Inverted)
	}
	return d.applyPorts(polarityRegs, &u)
}

// SetPullEnables enables or disables the pull resistor of several pins.
// PCAL9555A only.
func (d *Dev) SetPullEnables(pins []PinValue) error {
	return d.setValues("SetPullEnables", pullEnRegs, pins, false)
}

// SetPullDirections selects pull-up (true) or pull-down (false) for several
// pins. PCAL9555A only.
func (d *Dev) SetPullDirections(pins []PinValue) error {
	return d.setValues("SetPullDirections", pullSelRegs, pins, false)
}

// EnableInputLatches enables or disables the input latch of several pins.
// PCAL9555A only.
func (d *Dev) EnableInputLatches(pins []PinValue) error {
	return d.setValues("EnableInputLatches", latchRegs, pins, false)
}

// ConfigureInterrupts enables (true) or masks (false) the interrupt of
// several pins. PCAL9555A only.
func (d *Dev) ConfigureInterrupts(pins []PinValue) error {
	return d.setValues("ConfigureInterrupts", intMaskRegs, pins, true)
}

// SetDriveStrengths sets the drive strength of several pins. Only the drive
// strength registers holding at least one listed pin are accessed.
// PCAL9555A only.
func (d *Dev) SetDriveStrengths(pins []PinDrive) error {
	if err := d.requireExtended("SetDriveStrengths"); err != nil {
		return err
	}
	var mask, bits [4]uint8
	for _, p := range pins {
		if err := d.checkPin(p.Pin); err != nil {
			return err
		}
		if p.Level > Level3 {
			return fmt.Errorf("pcal95555: invalid drive strength %d for pin %d", p.Level, p.Pin)
		}
		reg, shift := driveStrengthReg(p.Pin)
		i := reg - RegDriveStrength0
		mask[i] |= 3 << shift
		bits[i] = bits[i]&^(3<<shift) | uint8(p.Level)<<shift
	}
	for i := range mask {
		if mask[i] == 0 {
			continue
		}
		if err := d.modifyRegister(RegDriveStrength0+uint8(i), mask[i], bits[i]); err != nil {
			return err
		}
	}
	return nil
}

// setValues is the gated batch path for the one-bit-per-pin extended
// registers. invert stores !Value, for the active-low interrupt mask.
func (d *Dev) setValues(op string, regs [2]uint8, pins []PinValue, invert bool) error {
	if err := d.requireExtended(op); err != nil {
		return err
	}
	var u portUpdate
	for _, p := range pins {
		if err := d.checkPin(p.Pin); err != nil {
			return err
		}
		u.set(p.Pin, p.Value != invert)
	}
	return d.applyPorts(regs, &u)
}
