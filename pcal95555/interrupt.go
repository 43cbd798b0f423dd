// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

// PinHandler is called by HandleInterrupt with the pin number and the level
// read after the change.
type PinHandler func(pin int, level gpio.Level)

type pinInterrupt struct {
	edge    gpio.Edge
	handler PinHandler
}

// matches reports whether a pin observed at level satisfies the edge.
func (p *pinInterrupt) matches(level gpio.Level) bool {
	switch p.edge {
	case gpio.RisingEdge:
		return level == gpio.High
	case gpio.FallingEdge:
		return level == gpio.Low
	case gpio.BothEdges:
		return true
	}
	return false
}

// RegisterPinInterrupt stores handler to be called by HandleInterrupt when
// pin changes in the direction given by edge. A previous registration for pin
// is replaced. It does not enable the interrupt on the device; see
// ConfigureInterrupt.
func (d *Dev) RegisterPinInterrupt(pin int, edge gpio.Edge, handler PinHandler) error {
	if err := d.checkPin(pin); err != nil {
		return err
	}
	switch edge {
	case gpio.RisingEdge, gpio.FallingEdge, gpio.BothEdges:
	default:
		return fmt.Errorf("pcal95555: invalid edge %s for pin %d", edge, pin)
	}
	if handler == nil {
		return fmt.Errorf("pcal95555: nil handler for pin %d", pin)
	}
	d.irq[pin] = pinInterrupt{edge: edge, handler: handler}
	return nil
}

// UnregisterPinInterrupt removes the handler of pin. Removing a pin that has
// no handler is not an error.
func (d *Dev) UnregisterPinInterrupt(pin int) error {
	if err := d.checkPin(pin); err != nil {
		return err
	}
	d.irq[pin] = pinInterrupt{}
	return nil
}

// SetInterruptCallback sets a handler called by HandleInterrupt with every
// status snapshot, after the per-pin handlers. nil removes it.
func (d *Dev) SetInterruptCallback(fn func(status uint16)) {
	d.irqCallback = fn
}

// ConfigureInterruptMask writes both interrupt mask registers. A set bit
// masks the pin; a cleared bit enables its interrupt. PCAL9555A only.
func (d *Dev) ConfigureInterruptMask(mask gpio.GPIOValue) error {
	if err := d.requireExtended("ConfigureInterruptMask"); err != nil {
		return err
	}
	if err := d.checkMask(mask); err != nil {
		return err
	}
	return d.writeAll([]regWrite{
		{RegIntMask0, uint8(mask)},
		{RegIntMask1, uint8(mask >> 8)},
	})
}

// ConfigureInterrupt enables or masks the interrupt of pin. PCAL9555A only.
func (d *Dev) ConfigureInterrupt(pin int, enable bool) error {
	if err := d.requireExtended("ConfigureInterrupt"); err != nil {
		return err
	}
	if err := d.checkPin(pin); err != nil {
		return err
	}
	return d.setPinBit(intMaskRegs, pin, !enable)
}

// InterruptStatus reads the interrupt status registers, port 1 in the high
// byte. Reading clears the status on the device, so the returned value is
// the only record of which pins triggered. PCAL9555A only.
//
// Both ports are always read. If one of them fails, the status of the other
// is still returned along with the error.
func (d *Dev) InterruptStatus() (uint16, error) {
	if err := d.requireExtended("InterruptStatus"); err != nil {
		return 0, err
	}
	var status uint16
	var errs []error
	for port, reg := range intStatusRegs {
		v, err := d.readRegister(reg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		status |= uint16(v) << (8 * port)
	}
	return status, errors.Join(errs...)
}

func (d *Dev) hasInterruptHandlers() bool {
	if d.irqCallback != nil {
		return true
	}
	for i := range d.irq {
		if d.irq[i].handler != nil {
			return true
		}
	}
	return false
}

// HandleInterrupt reads the interrupt status once and dispatches it. For each
// triggered pin with a handler, the pin level is read and the handler is
// called if the level matches the registered edge: High for
// gpio.RisingEdge, Low for gpio.FallingEdge, any for gpio.BothEdges. The
// callback set with SetInterruptCallback is then called with the raw status.
//
// Without any handler it returns nil and does not touch the bus. A failure to
// read a pin level, or one of the two status registers, is returned once
// dispatch has finished; it does not stop the other pins from being
// dispatched.
//
// It must not be called concurrently with any other method.
func (d *Dev) HandleInterrupt() error {
	if !d.hasInterruptHandlers() {
		return nil
	}
	status, err := d.InterruptStatus()
	if err != nil && status == 0 {
		return err
	}
	glog.V(2).Infof("pcal95555: %s interrupt status 0x%04x", d, status)

	var errs []error
	if err != nil {
		// The port that was read has been cleared on the device; dispatch it.
		errs = append(errs, err)
	}
	var levels [2]uint8
	var read, failed [2]bool
	for pin := range NumPins {
		h := &d.irq[pin]
		if status&(1<<pin) == 0 || h.handler == nil {
			continue
		}
		port := pin >> 3
		if !read[port] {
			read[port] = true
			v, err := d.readRegister(inputRegs[port])
			if err != nil {
				failed[port] = true
				errs = append(errs, err)
			}
			levels[port] = v
		}
		if failed[port] {
			continue
		}
		level := gpio.Level(levels[port]&(1<<(pin&7)) != 0)
		if h.matches(level) {
			h.handler(pin, level)
		}
	}
	if d.irqCallback != nil {
		d.irqCallback(status)
	}
	return errors.Join(errs...)
}

// SetEdgePin sets a host pin connected to the active-low INT output of the
// device, for use by WaitForInterrupt. The pin is configured as an input
// with pull-up and falling edge detection. nil removes it.
func (d *Dev) SetEdgePin(p gpio.PinIn) error {
	if p == nil {
		d.edgePin = nil
		return nil
	}
	if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("pcal95555: configuring INT pin %s: %w", p, err)
	}
	d.edgePin = p
	return nil
}

// WaitForInterrupt waits up to timeout for the INT pin set with SetEdgePin
// to fall and then calls HandleInterrupt in the calling goroutine. A negative
// timeout waits forever. It returns false if no edge was seen.
func (d *Dev) WaitForInterrupt(timeout time.Duration) (bool, error) {
	if d.edgePin == nil {
		return false, errors.New("pcal95555: no INT pin, call SetEdgePin first")
	}
	if !d.edgePin.WaitForEdge(timeout) {
		return false, nil
	}
	return true, d.HandleInterrupt()
}
