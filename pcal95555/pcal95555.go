// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang/glog"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"

	"github.com/GermanBionicSystems/expander/regbus"
)

// Opts holds the configuration options for the device.
type Opts struct {
	// Retries is the number of extra attempts for each register read or
	// write. Default is 1.
	Retries int
	// Init, when set, is applied by EnsureInitialized instead of the
	// power-on defaults.
	Init *InitConfig
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	Retries: 1,
}

// InitConfig is a complete start-up configuration, one bit per pin.
type InitConfig struct {
	Direction  uint16 // 1 = input, 0 = output.
	Output     uint16 // Output latch levels.
	PullEnable uint16 // 1 = pull resistor enabled. PCAL9555A only.
	PullUp     uint16 // 1 = pull-up, 0 = pull-down. PCAL9555A only.

	// Open-drain outputs per port. PCAL9555A only.
	OpenDrainPort0 bool
	OpenDrainPort1 bool
}

// DefaultInitConfig makes every pin an input with pull resistors disabled
// and push-pull outputs latched low.
var DefaultInitConfig = InitConfig{
	Direction: 0xFFFF,
	PullUp:    0xFFFF,
}

// Dev is a PCA9555 or PCAL9555A GPIO expander.
//
// Pins and Conns give access through the periph.io gpio.PinIO and conn.Conn
// interfaces; the methods on Dev give access to every register feature.
type Dev struct {
	Pins  []Pin       // Pins are indexed by pin number, 0-15.
	Conns []conn.Conn // Conns are indexed by port, 0-1.

	bus         regbus.Bus
	addr        uint8
	name        string
	retries     int
	flags       Flags
	variant     ChipVariant
	initialized bool
	init        *InitConfig
	registered  []string

	irq         [NumPins]pinInterrupt
	irqCallback func(status uint16)
	edgePin     gpio.PinIn
}

// New returns a device that communicates over bus with the expander at addr,
// 0x20 to 0x27. It does not touch the bus; the first PCAL9555A-only call
// initializes the device, or call EnsureInitialized explicitly. Opts can be
// nil.
//
// The pins are registered in gpioreg as PCAL9555_<addr>_P<port>_<bit>.
func New(bus regbus.Bus, addr uint8, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if !validAddr(addr) {
		return nil, fmt.Errorf("pcal95555: address 0x%02x not in 0x%02x-0x%02x", addr, BaseAddress, BaseAddress|7)
	}
	d := &Dev{
		bus:  bus,
		addr: addr,
		name: "PCAL9555_" + strconv.FormatInt(int64(addr), 16),
		init: opts.Init,
	}
	d.SetRetries(opts.Retries)

	d.Pins = make([]Pin, NumPins)
	for i := range d.Pins {
		p := &portpin{
			dev:    d,
			number: i,
			name:   pinName(d.name, i),
		}
		d.Pins[i] = p
		// Ignore registration failure, like a second Dev on the same address.
		if gpioreg.Register(p) == nil {
			d.registered = append(d.registered, p.name)
		}
	}
	d.Conns = []conn.Conn{
		&port{dev: d, number: 0, name: d.name + "_P0"},
		&port{dev: d, number: 1, name: d.name + "_P1"},
	}
	return d, nil
}

// NewI2C returns an initialized device on a periph.io I²C bus. Opts can be
// nil.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if addr > 0x7f {
		return nil, fmt.Errorf("pcal95555: address 0x%x is not a 7-bit address", addr)
	}
	d, err := New(regbus.FromI2C(b), uint8(addr), opts)
	if err != nil {
		return nil, err
	}
	if err := d.EnsureInitialized(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return d.name
}

// Close removes the pin registrations. The bus is left open.
func (d *Dev) Close() error {
	for _, name := range d.registered {
		if err := gpioreg.Unregister(name); err != nil {
			return err
		}
	}
	d.registered = nil
	return nil
}

// Halt implements conn.Resource. It returns every pin to a high-impedance
// input.
func (d *Dev) Halt() error {
	return d.SetMultipleDirections(pinMask, Input)
}

// IsInitialized reports whether EnsureInitialized has completed.
func (d *Dev) IsInitialized() bool {
	return d.initialized
}

// EnsureInitialized detects the chip variant and then writes either the
// power-on defaults or Opts.Init. It does so once; later calls return nil
// without bus traffic. A call that fails leaves the device uninitialized so
// it can be retried.
func (d *Dev) EnsureInitialized() error {
	if d.initialized {
		return nil
	}
	if err := d.Redetect(); err != nil {
		return err
	}
	var err error
	if d.init != nil {
		err = d.InitFromConfig(*d.init)
	} else {
		err = d.ResetToDefault()
	}
	if err != nil {
		return err
	}
	d.initialized = true
	glog.V(1).Infof("pcal95555: %s initialized as %s", d, d.variant)
	return nil
}

// ResetToDefault writes the power-on value of every writable register: all
// pins inputs with outputs latched high and no polarity inversion. On a
// PCAL9555A it also sets full drive strength, disables input latches,
// enables pull-ups, masks every interrupt and selects push-pull outputs.
//
// It is a register rewrite, not a device reset. Every register is attempted
// even if an earlier one fails.
func (d *Dev) ResetToDefault() error {
	var errs []error
	for _, r := range registerMap {
		if r.readOnly || (r.extended && d.variant != PCAL9555A) {
			continue
		}
		if err := d.writeRegister(r.addr, r.def); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InitFromConfig writes a complete configuration. The output latch is
// written before the direction so that new outputs start at the configured
// level.
//
// On a PCA9555 the base registers are written and, if c asks for pull
// resistors or open-drain outputs, ErrUnsupported is returned.
func (d *Dev) InitFromConfig(c InitConfig) error {
	err := d.writeAll([]regWrite{
		{RegOutputPort0, uint8(c.Output)},
		{RegOutputPort1, uint8(c.Output >> 8)},
		{RegConfigPort0, uint8(c.Direction)},
		{RegConfigPort1, uint8(c.Direction >> 8)},
	})
	if err != nil {
		return err
	}
	if d.variant != PCAL9555A {
		if c.PullEnable != 0 || c.OpenDrainPort0 || c.OpenDrainPort1 {
			return d.requireExtended("InitFromConfig")
		}
		return nil
	}
	return d.writeAll([]regWrite{
		{RegPullEnable0, uint8(c.PullEnable)},
		{RegPullEnable1, uint8(c.PullEnable >> 8)},
		{RegPullSelect0, uint8(c.PullUp)},
		{RegPullSelect1, uint8(c.PullUp >> 8)},
		{RegOutputConf, outputConf(c.OpenDrainPort0, c.OpenDrainPort1)},
	})
}

type regWrite struct {
	reg, val uint8
}

// writeAll stops at the first failing write.
func (d *Dev) writeAll(writes []regWrite) error {
	for _, w := range writes {
		if err := d.writeRegister(w.reg, w.val); err != nil {
			return err
		}
	}
	return nil
}

var _ conn.Resource = &Dev{}
