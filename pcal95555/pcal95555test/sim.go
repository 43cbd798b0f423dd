// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pcal95555test provides a register level simulation of the PCA9555
// and PCAL9555A for tests and for running tools without hardware.
package pcal95555test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/expander/regbus"
)

// ErrNack is returned for transactions the simulated device does not
// acknowledge.
var ErrNack = errors.New("pcal95555test: NACK")

// Op is one transaction seen by the simulator.
type Op struct {
	Write bool
	Addr  uint8
	Reg   uint8
	Data  []byte
}

func (o Op) String() string {
	dir := "R"
	if o.Write {
		dir = "W"
	}
	return fmt.Sprintf("%s 0x%02x[0x%02x] % x", dir, o.Addr, o.Reg, o.Data)
}

// Sim simulates one expander. The zero value is not usable; use New.
//
// Pins configured as outputs read back their output latch. Inputs read the
// level set with SetInput. Polarity inversion applies to both. On a
// simulated PCAL9555A, a change of an input with its interrupt unmasked sets
// the interrupt status bit, and reading a status register clears it.
type Sim struct {
	Addr     uint8
	Extended bool

	mu sync.Mutex
	// Regs holds the register file, indexed by register address.
	Regs [256]uint8
	// FailReads and FailWrites make the next N reads or writes fail.
	FailReads  int
	FailWrites int
	// Reads and Writes count every attempted transaction, including failed
	// ones.
	Reads  int
	Writes int
	Ops    []Op

	inputs uint16
}

// New returns a simulated PCAL9555A (extended) or PCA9555 at addr, with
// every register at its power-on value and all input pins high.
func New(addr uint8, extended bool) *Sim {
	s := &Sim{Addr: addr, Extended: extended, inputs: 0xFFFF}
	for _, r := range [...]uint8{0x02, 0x03, 0x06, 0x07} {
		s.Regs[r] = 0xFF
	}
	if extended {
		for r := uint8(0x40); r <= 0x43; r++ {
			s.Regs[r] = 0xFF
		}
		for _, r := range [...]uint8{0x46, 0x47, 0x48, 0x49, 0x4A, 0x4B} {
			s.Regs[r] = 0xFF
		}
	}
	return s
}

func (s *Sim) exists(reg uint8) bool {
	if reg <= 0x07 {
		return true
	}
	return s.Extended && reg >= 0x40 && reg <= 0x4F && reg != 0x4E
}

// WriteRegister implements regbus.Bus.
func (s *Sim) WriteRegister(addr, reg uint8, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	s.Ops = append(s.Ops, Op{Write: true, Addr: addr, Reg: reg, Data: append([]byte(nil), data...)})
	if s.FailWrites > 0 {
		s.FailWrites--
		return fmt.Errorf("%w: injected write failure", ErrNack)
	}
	if addr != s.Addr || !s.exists(reg) {
		return ErrNack
	}
	for i, b := range data {
		r := s.next(reg, i)
		switch r {
		case 0x00, 0x01, 0x4C, 0x4D:
			// Read-only.
		default:
			s.Regs[r] = b
		}
	}
	return nil
}

// ReadRegister implements regbus.Bus.
func (s *Sim) ReadRegister(addr, reg uint8, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	defer func() {
		s.Ops = append(s.Ops, Op{Addr: addr, Reg: reg, Data: append([]byte(nil), data...)})
	}()
	if s.FailReads > 0 {
		s.FailReads--
		return fmt.Errorf("%w: injected read failure", ErrNack)
	}
	if addr != s.Addr || !s.exists(reg) {
		return ErrNack
	}
	for i := range data {
		r := s.next(reg, i)
		switch r {
		case 0x00, 0x01:
			data[i] = s.input(int(r))
		case 0x4C, 0x4D:
			data[i] = s.Regs[r]
			s.Regs[r] = 0
		default:
			data[i] = s.Regs[r]
		}
	}
	return nil
}

// next returns the register accessed by the i-th byte of a transaction
// starting at reg. The auto-increment toggles within a register pair.
func (s *Sim) next(reg uint8, i int) uint8 {
	if i == 0 {
		return reg
	}
	return reg ^ uint8(i&1)
}

// input computes the input register of port.
func (s *Sim) input(port int) uint8 {
	config := s.Regs[0x06+port]
	out := s.Regs[0x02+port]
	in := uint8(s.inputs >> (8 * port))
	v := out&^config | in&config
	return v ^ s.Regs[0x04+port]
}

// SetInput sets the external level seen by pin. If pin is an input with its
// interrupt enabled and the level changes, its status bit is set.
func (s *Sim) SetInput(pin int, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bit := uint16(1) << pin
	old := s.inputs&bit != 0
	if high {
		s.inputs |= bit
	} else {
		s.inputs &^= bit
	}
	if old == high || !s.Extended {
		return
	}
	port, b := pin>>3, uint8(1)<<(pin&7)
	if s.Regs[0x06+port]&b != 0 && s.Regs[0x4A+port]&b == 0 {
		s.Regs[0x4C+port] |= b
	}
}

// Pending returns the interrupt status without clearing it.
func (s *Sim) Pending() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint16(s.Regs[0x4D])<<8 | uint16(s.Regs[0x4C])
}

// Reg returns the value of a register without counting a transaction.
func (s *Sim) Reg(reg uint8) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg <= 0x01 {
		return s.input(int(reg))
	}
	return s.Regs[reg]
}

// ResetCounters clears Reads, Writes and Ops.
func (s *Sim) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads, s.Writes, s.Ops = 0, 0, nil
}

// Transactions returns Reads + Writes.
func (s *Sim) Transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Reads + s.Writes
}

var _ regbus.Bus = &Sim{}
