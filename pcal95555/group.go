// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

// The internal structure for a group of pins.
type pinGroup struct {
	dev         *Dev
	pins        []*portpin
	defaultMask gpio.GPIOValue
}

// Group returns a gpio.Group made up of the specified pins, which may span
// both ports. Offset N of the group values is the N-th pin given.
func (d *Dev) Group(pins ...int) (gpio.Group, error) {
	if len(pins) == 0 {
		return nil, fmt.Errorf("pcal95555: empty group")
	}
	grouppins := make([]*portpin, len(pins))
	var seen gpio.GPIOValue
	for ix, number := range pins {
		if err := d.checkPin(number); err != nil {
			return nil, err
		}
		if seen&(1<<number) != 0 {
			return nil, fmt.Errorf("pcal95555: pin %d appears twice in group", number)
		}
		seen |= 1 << number
		grouppins[ix] = d.Pins[number].(*portpin)
	}
	return &pinGroup{dev: d, pins: grouppins, defaultMask: gpio.GPIOValue(1)<<len(pins) - 1}, nil
}

// Pins returns the set of pin.Pin that make up that group.
func (pg *pinGroup) Pins() []pin.Pin {
	pins := make([]pin.Pin, len(pg.pins))
	for ix, p := range pg.pins {
		pins[ix] = p
	}
	return pins
}

// Given the offset within the group, return the corresponding GPIO pin.
func (pg *pinGroup) ByOffset(offset int) pin.Pin {
	return pg.pins[offset]
}

// Given the specific name of a pin, return it. If it can't be found, nil is
// returned.
func (pg *pinGroup) ByName(name string) pin.Pin {
	for _, p := range pg.pins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Given the GPIO pin number, return that pin from the set.
func (pg *pinGroup) ByNumber(number int) pin.Pin {
	for _, p := range pg.pins {
		if p.Number() == number {
			return p
		}
	}
	return nil
}

func (pg *pinGroup) mask(mask gpio.GPIOValue) gpio.GPIOValue {
	if mask == 0 {
		return pg.defaultMask
	}
	return mask & pg.defaultMask
}

// Out writes value to the pins of the group selected by mask. If mask is 0,
// every pin of the group is written. The output latches are written first,
// then the pins are made outputs.
func (pg *pinGroup) Out(value, mask gpio.GPIOValue) error {
	mask = pg.mask(mask)
	var levels []PinLevel
	var dirs []PinDirection
	for ix, p := range pg.pins {
		if mask&(1<<ix) == 0 {
			continue
		}
		levels = append(levels, PinLevel{Pin: p.number, Level: value&(1<<ix) != 0})
		dirs = append(dirs, PinDirection{Pin: p.number, Dir: Output})
	}
	if err := pg.dev.WritePins(levels); err != nil {
		return err
	}
	return pg.dev.SetDirections(dirs)
}

// Read returns the state of the pins of the group selected by mask. Pins are
// not reconfigured; reading an output returns its driven level.
func (pg *pinGroup) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	mask = pg.mask(mask)
	var numbers []int
	var offsets []int
	for ix, p := range pg.pins {
		if mask&(1<<ix) != 0 {
			numbers = append(numbers, p.number)
			offsets = append(offsets, ix)
		}
	}
	levels, err := pg.dev.ReadPins(numbers...)
	if err != nil {
		return 0, err
	}
	var result gpio.GPIOValue
	for i, l := range levels {
		if l.Level {
			result |= 1 << offsets[i]
		}
	}
	return result, nil
}

// WaitForEdge is not implemented for groups. The device has a single INT
// output shared by all pins; use Dev.WaitForInterrupt with
// RegisterPinInterrupt.
func (pg *pinGroup) WaitForEdge(timeout time.Duration) (number int, edge gpio.Edge, err error) {
	return -1, gpio.NoEdge, gpio.ErrGroupFeatureNotImplemented
}

// Halt makes every pin of the group an input.
func (pg *pinGroup) Halt() error {
	dirs := make([]PinDirection, len(pg.pins))
	for ix, p := range pg.pins {
		dirs[ix] = PinDirection{Pin: p.number, Dir: Input}
	}
	return pg.dev.SetDirections(dirs)
}

// String returns the device name and configured pins for the group.
func (pg *pinGroup) String() string {
	s := fmt.Sprintf("%s - [ ", pg.dev)
	for _, p := range pg.pins {
		s += fmt.Sprintf("%d ", p.Number())
	}
	s += "]"
	return s
}

var _ gpio.Group = &pinGroup{}
