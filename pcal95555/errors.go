// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"errors"
	"fmt"
	"strings"

	"periph.io/x/conn/v3/gpio"
)

// Flags is the sticky error register of a Dev. Every failing operation ORs
// its cause in; only ClearErrorFlags removes bits.
type Flags uint16

const (
	InvalidPin         Flags = 1 << 0 // Pin index outside 0-15.
	InvalidMask        Flags = 1 << 1 // Mask has bits outside 0-15.
	I2CReadFail        Flags = 1 << 2 // A register read failed after all retries.
	I2CWriteFail       Flags = 1 << 3 // A register write failed after all retries.
	UnsupportedFeature Flags = 1 << 4 // Extended feature used on a chip that lacks it.

	// AllFlags selects every flag, for ClearErrorFlags.
	AllFlags Flags = 0xFFFF
)

var flagNames = [...]string{"InvalidPin", "InvalidMask", "I2CReadFail", "I2CWriteFail", "UnsupportedFeature"}

func (f Flags) String() string {
	if f == 0 {
		return "None"
	}
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
			f &^= 1 << i
		}
	}
	if f != 0 {
		parts = append(parts, fmt.Sprintf("0x%04x", uint16(f)))
	}
	return strings.Join(parts, "|")
}

var (
	ErrInvalidPin  = errors.New("pcal95555: invalid pin")
	ErrInvalidMask = errors.New("pcal95555: invalid pin mask")
	ErrReadFailed  = errors.New("pcal95555: register read failed")
	ErrWriteFailed = errors.New("pcal95555: register write failed")
	ErrUnsupported = errors.New("pcal95555: feature requires PCAL9555A")
)

// ErrorFlags returns the accumulated error flags.
func (d *Dev) ErrorFlags() Flags {
	return d.flags
}

// ClearErrorFlags clears the flags selected by mask and leaves the others
// untouched. Use AllFlags to clear everything.
func (d *Dev) ClearErrorFlags(mask Flags) {
	d.flags &^= mask
}

// SetRetries sets how many additional attempts are made for each register
// read or write before it is reported as failed. 0 means a single attempt.
func (d *Dev) SetRetries(n int) {
	if n < 0 {
		n = 0
	}
	d.retries = n
}

// Retries returns the configured retry count.
func (d *Dev) Retries() int {
	return d.retries
}

func (d *Dev) checkPin(pin int) error {
	if pin < 0 || pin >= NumPins {
		d.flags |= InvalidPin
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	return nil
}

func (d *Dev) checkMask(mask gpio.GPIOValue) error {
	if mask&^pinMask != 0 {
		d.flags |= InvalidMask
		return fmt.Errorf("%w: 0x%x", ErrInvalidMask, mask)
	}
	return nil
}

// requireExtended is the capability gate in front of every PCAL9555A-only
// operation. It only touches the bus to initialize a device whose variant was
// never detected; once known, the variant is checked without I/O.
func (d *Dev) requireExtended(op string) error {
	if !d.initialized && d.variant == Unknown {
		if err := d.EnsureInitialized(); err != nil {
			d.flags |= UnsupportedFeature
			return fmt.Errorf("%w: %s on %s: %w", ErrUnsupported, op, d.variant, err)
		}
	}
	if d.variant != PCAL9555A {
		d.flags |= UnsupportedFeature
		return fmt.Errorf("%w: %s on %s", ErrUnsupported, op, d.variant)
	}
	return nil
}
