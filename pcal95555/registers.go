// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"fmt"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

// Register addresses. The 0x00-0x07 block is common to PCA9555 and
// PCAL9555A; 0x40 and above exist only on the PCAL9555A.
const (
	RegInputPort0     uint8 = 0x00
	RegInputPort1     uint8 = 0x01
	RegOutputPort0    uint8 = 0x02
	RegOutputPort1    uint8 = 0x03
	RegPolarityInv0   uint8 = 0x04
	RegPolarityInv1   uint8 = 0x05
	RegConfigPort0    uint8 = 0x06
	RegConfigPort1    uint8 = 0x07
	RegDriveStrength0 uint8 = 0x40
	RegDriveStrength1 uint8 = 0x41
	RegDriveStrength2 uint8 = 0x42
	RegDriveStrength3 uint8 = 0x43
	RegInputLatch0    uint8 = 0x44
	RegInputLatch1    uint8 = 0x45
	RegPullEnable0    uint8 = 0x46
	RegPullEnable1    uint8 = 0x47
	RegPullSelect0    uint8 = 0x48
	RegPullSelect1    uint8 = 0x49
	RegIntMask0       uint8 = 0x4A
	RegIntMask1       uint8 = 0x4B
	RegIntStatus0     uint8 = 0x4C
	RegIntStatus1     uint8 = 0x4D
	RegOutputConf     uint8 = 0x4F
)

// NumPins is the number of GPIO pins on the device.
const NumPins = 16

const pinMask gpio.GPIOValue = 1<<NumPins - 1

// Per-port register pairs, indexed by pin>>3.
var (
	inputRegs     = [2]uint8{RegInputPort0, RegInputPort1}
	outputRegs    = [2]uint8{RegOutputPort0, RegOutputPort1}
	polarityRegs  = [2]uint8{RegPolarityInv0, RegPolarityInv1}
	configRegs    = [2]uint8{RegConfigPort0, RegConfigPort1}
	latchRegs     = [2]uint8{RegInputLatch0, RegInputLatch1}
	pullEnRegs    = [2]uint8{RegPullEnable0, RegPullEnable1}
	pullSelRegs   = [2]uint8{RegPullSelect0, RegPullSelect1}
	intMaskRegs   = [2]uint8{RegIntMask0, RegIntMask1}
	intStatusRegs = [2]uint8{RegIntStatus0, RegIntStatus1}
)

type regInfo struct {
	name     string
	addr     uint8
	def      uint8 // power-on value
	readOnly bool
	extended bool
}

// registerMap lists every register in address order.
var registerMap = [...]regInfo{
	{name: "INPUT_PORT_0", addr: RegInputPort0, readOnly: true},
	{name: "INPUT_PORT_1", addr: RegInputPort1, readOnly: true},
	{name: "OUTPUT_PORT_0", addr: RegOutputPort0, def: 0xFF},
	{name: "OUTPUT_PORT_1", addr: RegOutputPort1, def: 0xFF},
	{name: "POLARITY_INV_0", addr: RegPolarityInv0, def: 0x00},
	{name: "POLARITY_INV_1", addr: RegPolarityInv1, def: 0x00},
	{name: "CONFIG_PORT_0", addr: RegConfigPort0, def: 0xFF},
	{name: "CONFIG_PORT_1", addr: RegConfigPort1, def: 0xFF},
	{name: "DRIVE_STRENGTH_0", addr: RegDriveStrength0, def: 0xFF, extended: true},
	{name: "DRIVE_STRENGTH_1", addr: RegDriveStrength1, def: 0xFF, extended: true},
	{name: "DRIVE_STRENGTH_2", addr: RegDriveStrength2, def: 0xFF, extended: true},
	{name: "DRIVE_STRENGTH_3", addr: RegDriveStrength3, def: 0xFF, extended: true},
	{name: "INPUT_LATCH_0", addr: RegInputLatch0, def: 0x00, extended: true},
	{name: "INPUT_LATCH_1", addr: RegInputLatch1, def: 0x00, extended: true},
	{name: "PULL_ENABLE_0", addr: RegPullEnable0, def: 0xFF, extended: true},
	{name: "PULL_ENABLE_1", addr: RegPullEnable1, def: 0xFF, extended: true},
	{name: "PULL_SELECT_0", addr: RegPullSelect0, def: 0xFF, extended: true},
	{name: "PULL_SELECT_1", addr: RegPullSelect1, def: 0xFF, extended: true},
	{name: "INT_MASK_0", addr: RegIntMask0, def: 0xFF, extended: true},
	{name: "INT_MASK_1", addr: RegIntMask1, def: 0xFF, extended: true},
	{name: "INT_STATUS_0", addr: RegIntStatus0, readOnly: true, extended: true},
	{name: "INT_STATUS_1", addr: RegIntStatus1, readOnly: true, extended: true},
	{name: "OUTPUT_CONF", addr: RegOutputConf, def: 0x00, extended: true},
}

// RegisterName returns the datasheet name of a register, or its hex address
// if it is not part of the map.
func RegisterName(reg uint8) string {
	for _, r := range registerMap {
		if r.addr == reg {
			return r.name
		}
	}
	return fmt.Sprintf("0x%02X", reg)
}

// RegisterValue is one entry of a register dump.
type RegisterValue struct {
	Name  string
	Addr  uint8
	Value uint8
}

func (r RegisterValue) String() string {
	return fmt.Sprintf("%-16s 0x%02X = 0x%02X", r.Name, r.Addr, r.Value)
}

// readRegister reads one register, retrying up to d.retries extra times.
// A terminal failure sets I2CReadFail.
func (d *Dev) readRegister(reg uint8) (uint8, error) {
	var buf [1]byte
	var err error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if err = d.bus.ReadRegister(d.addr, reg, buf[:]); err == nil {
			glog.V(2).Infof("pcal95555: 0x%02x read %s = 0x%02x", d.addr, RegisterName(reg), buf[0])
			return buf[0], nil
		}
		glog.V(2).Infof("pcal95555: 0x%02x read %s attempt %d/%d: %v", d.addr, RegisterName(reg), attempt+1, d.retries+1, err)
	}
	d.flags |= I2CReadFail
	return 0, fmt.Errorf("%w: %s after %d attempts: %w", ErrReadFailed, RegisterName(reg), d.retries+1, err)
}

// writeRegister writes one register, retrying up to d.retries extra times.
// A terminal failure sets I2CWriteFail.
func (d *Dev) writeRegister(reg, value uint8) error {
	buf := [1]byte{value}
	var err error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if err = d.bus.WriteRegister(d.addr, reg, buf[:]); err == nil {
			glog.V(2).Infof("pcal95555: 0x%02x write %s = 0x%02x", d.addr, RegisterName(reg), value)
			return nil
		}
		glog.V(2).Infof("pcal95555: 0x%02x write %s attempt %d/%d: %v", d.addr, RegisterName(reg), attempt+1, d.retries+1, err)
	}
	d.flags |= I2CWriteFail
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrWriteFailed, RegisterName(reg), d.retries+1, err)
}

// modifyRegister replaces the bits selected by mask with bits, always as one
// read followed by one write.
func (d *Dev) modifyRegister(reg, mask, bits uint8) error {
	v, err := d.readRegister(reg)
	if err != nil {
		return err
	}
	return d.writeRegister(reg, v&^mask|bits&mask)
}

// setPinBit sets or clears the bit of pin in the port register pair regs.
func (d *Dev) setPinBit(regs [2]uint8, pin int, value bool) error {
	bit := uint8(1) << (pin & 7)
	var bits uint8
	if value {
		bits = bit
	}
	return d.modifyRegister(regs[pin>>3], bit, bits)
}

// setMaskBits sets or clears every pin selected by mask, touching only the
// ports that have at least one selected pin.
func (d *Dev) setMaskBits(regs [2]uint8, mask gpio.GPIOValue, value bool) error {
	var u portUpdate
	for pin := 0; pin < NumPins; pin++ {
		if mask&(1<<pin) != 0 {
			u.set(pin, value)
		}
	}
	return d.applyPorts(regs, &u)
}

// portUpdate accumulates the bits to change in a pair of port registers.
type portUpdate struct {
	mask [2]uint8
	bits [2]uint8
}

func (u *portUpdate) set(pin int, value bool) {
	port, bit := pin>>3, uint8(1)<<(pin&7)
	u.mask[port] |= bit
	if value {
		u.bits[port] |= bit
	} else {
		u.bits[port] &^= bit
	}
}

func (d *Dev) applyPorts(regs [2]uint8, u *portUpdate) error {
	for port := range 2 {
		if u.mask[port] == 0 {
			continue
		}
		if err := d.modifyRegister(regs[port], u.mask[port], u.bits[port]); err != nil {
			return err
		}
	}
	return nil
}
