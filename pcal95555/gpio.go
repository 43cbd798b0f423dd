// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Direction is the value of a configuration register bit.
type Direction uint8

const (
	Output Direction = 0
	Input  Direction = 1
)

func (d Direction) String() string {
	if d == Input {
		return "Input"
	}
	return "Output"
}

// Polarity is the value of a polarity inversion register bit.
type Polarity uint8

const (
	Normal   Polarity = 0
	Inverted Polarity = 1
)

func (p Polarity) String() string {
	if p == Inverted {
		return "Inverted"
	}
	return "Normal"
}

// DriveStrength is the output current capability of a pin, from a quarter
// (Level0) to full (Level3).
type DriveStrength uint8

const (
	Level0 DriveStrength = 0 // 0.25x
	Level1 DriveStrength = 1 // 0.5x
	Level2 DriveStrength = 2 // 0.75x
	Level3 DriveStrength = 3 // 1x, the power-on value
)

func (s DriveStrength) String() string {
	return fmt.Sprintf("Level%d", uint8(s))
}

// driveStrengthReg returns the register and bit shift of the 2-bit drive
// strength field of pin. Pins 0-3 are in DRIVE_STRENGTH_0, 4-7 in
// DRIVE_STRENGTH_1 and so on.
func driveStrengthReg(pin int) (reg uint8, shift uint8) {
	return RegDriveStrength0 + uint8(pin>>2), uint8(pin&3) * 2
}

func outputConf(port0OpenDrain, port1OpenDrain bool) uint8 {
	var v uint8
	if port0OpenDrain {
		v |= 1 << 0
	}
	if port1OpenDrain {
		v |= 1 << 1
	}
	return v
}

// SetPinDirection configures pin as an input or an output.
func (d *Dev) SetPinDirection(pin int, dir Direction) error {
	if err := d.checkPin(pin); err != nil {
		return err
	}
	return d.setPinBit(configRegs, pin, dir == Input)
}

// SetMultipleDirections configures every pin selected by mask. Each port
// with selected pins is read and written once.
func (d *Dev) SetMultipleDirections(mask gpio.GPIOValue, dir Direction) error {
	if err := d.checkMask(mask); err != nil {
		return err
	}
	return d.setMaskBits(configRegs, mask, dir == Input)
}

// PinDirection reads the configured direction of pin.
func (d *Dev) PinDirection(pin int) (Direction, error) {
	in, err := d.pinBit(configRegs, pin)
	if in {
		return Input, err
	}
	return Output, err
}

// Directions returns the configuration registers of both ports, port 1 in
// the high byte. A set bit is an input.
func (d *Dev) Directions() (uint16, error) {
	return d.readPair(configRegs)
}

// ReadPin returns the level at pin, after polarity inversion.
//
// On failure it returns gpio.Low together with the error, so the level alone
// cannot tell a low pin from a failed read.
func (d *Dev) ReadPin(pin int) (gpio.Level, error) {
	high, err := d.pinBit(inputRegs, pin)
	return gpio.Level(high), err
}

// ReadInputs returns the input registers of both ports, port 1 in the high
// byte.
func (d *Dev) ReadInputs() (uint16, error) {
	return d.readPair(inputRegs)
}

// WritePin sets the output latch of pin. The level is only driven if the
// pin is configured as an output.
func (d *Dev) WritePin(pin int, l gpio.Level) error {
	if err := d.checkPin(pin); err != nil {
		return err
	}
	return d.setPinBit(outputRegs, pin, bool(l))
}

// TogglePin inverts the output latch of pin. It acts on the driven value,
// not on the level read back at the pin.
func (d *Dev) TogglePin(pin int) error {
	if err := d.checkPin(pin); err != nil {
		return err
	}
	reg := outputRegs[pin>>3]
	v, err := d.readRegister(reg)
	if err != nil {
		return err
	}
	return d.writeRegister(reg, v^1<<(pin&7))
}

// SetPinPolarity sets whether the input register reports pin inverted.
func (d *Dev) SetPinPolarity(pin int, p Polarity) error {
	if err := d.checkPin(pin); err != nil {
		return err
	}
	return d.setPinBit(polarityRegs, pin, p == Inverted)
}

// SetMultiplePolarities sets the polarity of every pin selected by mask.
func (d *Dev) SetMultiplePolarities(mask gpio.GPIOValue, p Polarity) error {
	if err := d.checkMask(mask); err != nil {
		return err
	}
	return d.setMaskBits(polarityRegs, mask, p == Inverted)
}

// PinPolarity reads the polarity inversion setting of pin.
func (d *Dev) PinPolarity(pin int) (Polarity, error) {
	inv, err := d.pinBit(polarityRegs, pin)
	if inv {
		return Inverted, err
	}
	return Normal, err
}

// SetPullEnable enables or disables the pull resistor of pin. PCAL9555A
// only.
func (d *Dev) SetPullEnable(pin int, enable bool) error {
	if err := d.requireExtended("SetPullEnable"); err != nil {
		return err
	}
	if err := d.checkPin(pin); err != nil {
		return err
	}
	return d.setPinBit(pullEnRegs, pin, enable)
}

// SetPullDirection selects a pull-up (true) or pull-down (false) resistor
// for pin. It has no effect until the pull is enabled. PCAL9555A only.
func (d *Dev) SetPullDirection(pin int, pullUp bool) error {
	if err := d.requireExtended("SetPullDirection"); err != nil {
		return err
	}
	if err := d.checkPin(pin); err != nil {
		return err
	}
	return d.setPinBit(pullSelRegs, pin, pullUp)
}

// PinPull reads the pull resistor configuration of pin. PCAL9555A only.
func (d *Dev) PinPull(pin int) (gpio.Pull, error) {
	if err := d.requireExtended("PinPull"); err != nil {
		return gpio.PullNoChange, err
	}
	enabled, err := d.pinBit(pullEnRegs, pin)
	if err != nil {
		return gpio.PullNoChange, err
	}
	if !enabled {
		return gpio.Float, nil
	}
	up, err := d.pinBit(pullSelRegs, pin)
	if err != nil {
		return gpio.PullNoChange, err
	}
	if up {
		return gpio.PullUp, nil
	}
	return gpio.PullDown, nil
}

// SetDriveStrength sets the output drive strength of pin. PCAL9555A only.
func (d *Dev) SetDriveStrength(pin int, level DriveStrength) error {
	if err := d.requireExtended("SetDriveStrength"); err != nil {
		return err
	}
	if err := d.checkPin(pin); err != nil {
		return err
	}
	if level > Level3 {
		return fmt.Errorf("pcal95555: invalid drive strength %d", level)
	}
	reg, shift := driveStrengthReg(pin)
	return d.modifyRegister(reg, 3<<shift, uint8(level)<<shift)
}

// EnableInputLatch enables or disables the input latch of pin. A latched
// input holds a change until the input register is read. PCAL9555A only.
func (d *Dev) EnableInputLatch(pin int, enable bool) error {
	if err := d.requireExtended("EnableInputLatch"); err != nil {
		return err
	}
	if err := d.checkPin(pin); err != nil {
		return err
	}
	return d.setPinBit(latchRegs, pin, enable)
}

// EnableMultipleInputLatches enables or disables the input latch of every
// pin selected by mask. PCAL9555A only.
func (d *Dev) EnableMultipleInputLatches(mask gpio.GPIOValue, enable bool) error {
	if err := d.requireExtended("EnableMultipleInputLatches"); err != nil {
		return err
	}
	if err := d.checkMask(mask); err != nil {
		return err
	}
	return d.setMaskBits(latchRegs, mask, enable)
}

// SetOutputMode selects open-drain (true) or push-pull (false) outputs for
// each port. PCAL9555A only.
func (d *Dev) SetOutputMode(port0OpenDrain, port1OpenDrain bool) error {
	if err := d.requireExtended("SetOutputMode"); err != nil {
		return err
	}
	return d.writeRegister(RegOutputConf, outputConf(port0OpenDrain, port1OpenDrain))
}

// DumpRegisters reads every register present on the detected variant. The
// interrupt status registers are skipped since reading them clears them.
func (d *Dev) DumpRegisters() ([]RegisterValue, error) {
	var out []RegisterValue
	for _, r := range registerMap {
		if r.extended && d.variant != PCAL9555A {
			continue
		}
		if r.addr == RegIntStatus0 || r.addr == RegIntStatus1 {
			continue
		}
		v, err := d.readRegister(r.addr)
		if err != nil {
			return out, err
		}
		out = append(out, RegisterValue{Name: r.name, Addr: r.addr, Value: v})
	}
	return out, nil
}

func (d *Dev) pinBit(regs [2]uint8, pin int) (bool, error) {
	if err := d.checkPin(pin); err != nil {
		return false, err
	}
	v, err := d.readRegister(regs[pin>>3])
	if err != nil {
		return false, err
	}
	return v&(1<<(pin&7)) != 0, nil
}

// readPair reads a port register pair, port 0 first.
func (d *Dev) readPair(regs [2]uint8) (uint16, error) {
	lo, err := d.readRegister(regs[0])
	if err != nil {
		return 0, err
	}
	hi, err := d.readRegister(regs[1])
	if err != nil {
		return uint16(lo), err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}
