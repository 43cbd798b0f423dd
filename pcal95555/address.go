// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"fmt"

	"github.com/golang/glog"
)

// BaseAddress is the device address with A2, A1 and A0 tied low.
const BaseAddress uint8 = 0x20

// AddressFromPins returns the device address for the given levels of the
// A0, A1 and A2 address pins.
func AddressFromPins(a0, a1, a2 bool) uint8 {
	addr := BaseAddress
	if a0 {
		addr |= 1 << 0
	}
	if a1 {
		addr |= 1 << 1
	}
	if a2 {
		addr |= 1 << 2
	}
	return addr
}

func validAddr(addr uint8) bool {
	return addr&^7 == BaseAddress
}

// Address returns the 7-bit address used for bus transactions.
func (d *Dev) Address() uint8 {
	return d.addr
}

// AddressBits returns the A2:A1:A0 part of the address as bits 2..0.
func (d *Dev) AddressBits() uint8 {
	return d.addr & 7
}

// ChangeAddress makes every later transaction use addr. It does not
// reprogram the device; use it when the address pins are driven by software
// or several expanders share a Dev.
func (d *Dev) ChangeAddress(addr uint8) error {
	if !validAddr(addr) {
		return fmt.Errorf("pcal95555: address 0x%02x not in 0x%02x-0x%02x", addr, BaseAddress, BaseAddress|7)
	}
	glog.V(1).Infof("pcal95555: %s address 0x%02x -> 0x%02x", d, d.addr, addr)
	d.addr = addr
	return nil
}

// ChangeAddressPins is ChangeAddress for the given A0, A1 and A2 levels.
func (d *Dev) ChangeAddressPins(a0, a1, a2 bool) error {
	return d.ChangeAddress(AddressFromPins(a0, a1, a2))
}

// WithAddress runs fn with the device temporarily switched to addr. The
// original address is restored when fn returns, fails or panics.
func (d *Dev) WithAddress(addr uint8, fn func() error) error {
	if !validAddr(addr) {
		return fmt.Errorf("pcal95555: address 0x%02x not in 0x%02x-0x%02x", addr, BaseAddress, BaseAddress|7)
	}
	orig := d.addr
	d.addr = addr
	defer func() {
		d.addr = orig
	}()
	return fn()
}

// ProbeAddress reports whether a device answers at addr by reading its input
// port 0 once. Error flags are not touched and the current address is kept.
func (d *Dev) ProbeAddress(addr uint8) error {
	return d.WithAddress(addr, func() error {
		var buf [1]byte
		if err := d.bus.ReadRegister(d.addr, RegInputPort0, buf[:]); err != nil {
			return fmt.Errorf("pcal95555: no device at 0x%02x: %w", d.addr, err)
		}
		return nil
	})
}
