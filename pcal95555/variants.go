// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"github.com/golang/glog"
)

// ChipVariant identifies which member of the family answers on the bus.
type ChipVariant uint8

const (
	// Unknown means detection has not run or the device did not answer.
	Unknown ChipVariant = iota
	// PCA9555 is the base 16-bit expander with registers 0x00-0x07 only.
	// Datasheet: https://www.nxp.com/docs/en/data-sheet/PCA9555.pdf
	PCA9555
	// PCAL9555A adds the Agile I/O registers 0x40-0x4F: drive strength,
	// input latch, pull resistors, interrupt mask/status and output mode.
	// Datasheet: https://www.nxp.com/docs/en/data-sheet/PCAL9555A.pdf
	PCAL9555A
)

func (v ChipVariant) String() string {
	switch v {
	case PCA9555:
		return "PCA9555"
	case PCAL9555A:
		return "PCAL9555A"
	default:
		return "Unknown"
	}
}

// ChipVariant returns the detected variant. It does not touch the bus; it is
// Unknown until EnsureInitialized or Redetect has reached the device.
func (d *Dev) ChipVariant() ChipVariant {
	return d.variant
}

// HasExtendedFeatures reports whether the PCAL9555A Agile I/O registers are
// available. It does not touch the bus.
func (d *Dev) HasExtendedFeatures() bool {
	return d.variant == PCAL9555A
}

// Redetect runs the variant detection again and replaces the memoized
// result. On error the variant is Unknown.
func (d *Dev) Redetect() error {
	v, err := d.detect()
	d.variant = v
	return err
}

// detect classifies the device with a read / probe / read sequence:
//
//  1. read INPUT_PORT_0 to make sure the device answers at all;
//  2. read OUTPUT_CONF, which only exists on the PCAL9555A. A PCA9555 NACKs
//     the unknown register;
//  3. read INPUT_PORT_0 again to make sure the bus recovered from the probe.
//
// The probe in step 2 is a single attempt and does not set error flags since
// a NACK is an expected answer.
func (d *Dev) detect() (ChipVariant, error) {
	if _, err := d.readRegister(RegInputPort0); err != nil {
		glog.Warningf("pcal95555: no answer at 0x%02x: %v", d.addr, err)
		return Unknown, err
	}
	variant := PCA9555
	var buf [1]byte
	if err := d.bus.ReadRegister(d.addr, RegOutputConf, buf[:]); err == nil {
		variant = PCAL9555A
	} else {
		glog.V(1).Infof("pcal95555: 0x%02x rejected %s: %v", d.addr, RegisterName(RegOutputConf), err)
	}
	if _, err := d.readRegister(RegInputPort0); err != nil {
		glog.Warningf("pcal95555: bus did not recover at 0x%02x after variant probe: %v", d.addr, err)
		return Unknown, err
	}
	glog.V(1).Infof("pcal95555: 0x%02x detected %s", d.addr, variant)
	return variant, nil
}
