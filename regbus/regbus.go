// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package regbus defines the byte-addressed register transport used by
// register-mapped I²C devices, and adapters from concrete bus implementations.
//
// A register write is sent as a single I²C write of the register address
// followed by the data bytes. A register read is a write of the register
// address followed by a repeated-start read of len(data) bytes, in one
// transaction.
package regbus

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"tinygo.org/x/drivers"
)

// ErrAddress is returned when an address does not fit in 7 bits.
var ErrAddress = errors.New("regbus: address is not a 7-bit I²C address")

// Bus is the capability a register-mapped device driver needs from the
// underlying bus. Both calls block until the transaction completes.
//
// An error means the device did not acknowledge or the transfer failed; the
// contents of data are then undefined for reads.
type Bus interface {
	// WriteRegister writes data to the device at addr, starting at register
	// reg.
	WriteRegister(addr, reg uint8, data []byte) error
	// ReadRegister fills data from the device at addr, starting at register
	// reg.
	ReadRegister(addr, reg uint8, data []byte) error
}

// txer is the transaction primitive shared by periph.io and TinyGo buses.
type txer interface {
	Tx(addr uint16, w, r []byte) error
}

type txBus struct {
	name string
	bus  txer
}

// FromI2C returns a Bus that talks over a periph.io I²C bus.
func FromI2C(b i2c.Bus) Bus {
	return &txBus{name: b.String(), bus: b}
}

// FromTinyGo returns a Bus that talks over a TinyGo I²C bus, typically a
// *machine.I2C.
func FromTinyGo(b drivers.I2C) Bus {
	return &txBus{name: "tinygo", bus: b}
}

func (t *txBus) WriteRegister(addr, reg uint8, data []byte) error {
	if addr > 0x7f {
		return fmt.Errorf("%w: 0x%02x", ErrAddress, addr)
	}
	w := make([]byte, 1+len(data))
	w[0] = reg
	copy(w[1:], data)
	return t.bus.Tx(uint16(addr), w, nil)
}

func (t *txBus) ReadRegister(addr, reg uint8, data []byte) error {
	if addr > 0x7f {
		return fmt.Errorf("%w: 0x%02x", ErrAddress, addr)
	}
	return t.bus.Tx(uint16(addr), []byte{reg}, data)
}

func (t *txBus) String() string {
	return t.name
}

var _ Bus = &txBus{}
var _ fmt.Stringer = &txBus{}
