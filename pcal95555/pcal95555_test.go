// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcal95555

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/GermanBionicSystems/expander/pcal95555/pcal95555test"
	"github.com/GermanBionicSystems/expander/regbus"
)

const address uint16 = 0x20

// detectOps is the sandwich probe answered by a PCAL9555A.
var detectOps = []i2ctest.IO{
	{Addr: address, W: []byte{RegInputPort0}, R: []byte{0xFF}},
	{Addr: address, W: []byte{RegOutputConf}, R: []byte{0x00}},
	{Addr: address, W: []byte{RegInputPort0}, R: []byte{0xFF}},
}

// resetOps are the writes of ResetToDefault on a PCAL9555A.
var resetOps = []i2ctest.IO{
	{Addr: address, W: []byte{RegOutputPort0, 0xFF}},
	{Addr: address, W: []byte{RegOutputPort1, 0xFF}},
	{Addr: address, W: []byte{RegPolarityInv0, 0x00}},
	{Addr: address, W: []byte{RegPolarityInv1, 0x00}},
	{Addr: address, W: []byte{RegConfigPort0, 0xFF}},
	{Addr: address, W: []byte{RegConfigPort1, 0xFF}},
	{Addr: address, W: []byte{RegDriveStrength0, 0xFF}},
	{Addr: address, W: []byte{RegDriveStrength1, 0xFF}},
	{Addr: address, W: []byte{RegDriveStrength2, 0xFF}},
	{Addr: address, W: []byte{RegDriveStrength3, 0xFF}},
	{Addr: address, W: []byte{RegInputLatch0, 0x00}},
	{Addr: address, W: []byte{RegInputLatch1, 0x00}},
	{Addr: address, W: []byte{RegPullEnable0, 0xFF}},
	{Addr: address, W: []byte{RegPullEnable1, 0xFF}},
	{Addr: address, W: []byte{RegPullSelect0, 0xFF}},
	{Addr: address, W: []byte{RegPullSelect1, 0xFF}},
	{Addr: address, W: []byte{RegIntMask0, 0xFF}},
	{Addr: address, W: []byte{RegIntMask1, 0xFF}},
	{Addr: address, W: []byte{RegOutputConf, 0x00}},
}

func concat(ops ...[]i2ctest.IO) []i2ctest.IO {
	var out []i2ctest.IO
	for _, o := range ops {
		out = append(out, o...)
	}
	return out
}

// newSim returns an initialized Dev backed by a simulator, with the
// transaction counters cleared.
func newSim(t *testing.T, extended bool) (*Dev, *pcal95555test.Sim) {
	t.Helper()
	sim := pcal95555test.New(uint8(address), extended)
	d, err := New(sim, uint8(address), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := d.EnsureInitialized(); err != nil {
		t.Fatal(err)
	}
	sim.ResetCounters()
	return d, sim
}

func TestNew(t *testing.T) {
	for _, test := range []struct {
		name    string
		addr    uint8
		wantErr bool
	}{
		{name: "base", addr: 0x20},
		{name: "highest", addr: 0x27},
		{name: "below", addr: 0x1F, wantErr: true},
		{name: "above", addr: 0x28, wantErr: true},
	} {
		t.Run(test.name, func(t *testing.T) {
			bus := i2ctest.Playback{DontPanic: true}
			d, err := New(regbus.FromI2C(&bus), test.addr, nil)
			if test.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			defer d.Close()
			if d.IsInitialized() {
				t.Error("New must not initialize")
			}
			if d.ChipVariant() != Unknown {
				t.Errorf("ChipVariant() = %s, want Unknown", d.ChipVariant())
			}
			if d.Retries() != 1 {
				t.Errorf("Retries() = %d, want 1", d.Retries())
			}
			if bus.Count != 0 {
				t.Errorf("New issued %d transactions", bus.Count)
			}
		})
	}
}

func TestNewI2C(t *testing.T) {
	bus := i2ctest.Playback{Ops: concat(detectOps, resetOps)}
	d, err := NewI2C(&bus, address, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if !d.IsInitialized() {
		t.Error("expected initialized")
	}
	if !d.HasExtendedFeatures() || d.ChipVariant() != PCAL9555A {
		t.Errorf("ChipVariant() = %s, want PCAL9555A", d.ChipVariant())
	}
	if d.ErrorFlags() != 0 {
		t.Errorf("ErrorFlags() = %s", d.ErrorFlags())
	}
	// Second call is a no-op.
	if err := d.EnsureInitialized(); err != nil {
		t.Fatal(err)
	}
}

func TestNewI2C_initConfig(t *testing.T) {
	ops := concat(detectOps, []i2ctest.IO{
		{Addr: address, W: []byte{RegOutputPort0, 0x01}},
		{Addr: address, W: []byte{RegOutputPort1, 0x80}},
		{Addr: address, W: []byte{RegConfigPort0, 0xF0}},
		{Addr: address, W: []byte{RegConfigPort1, 0x0F}},
		{Addr: address, W: []byte{RegPullEnable0, 0xF0}},
		{Addr: address, W: []byte{RegPullEnable1, 0x00}},
		{Addr: address, W: []byte{RegPullSelect0, 0x30}},
		{Addr: address, W: []byte{RegPullSelect1, 0x00}},
		{Addr: address, W: []byte{RegOutputConf, 0x02}},
	})
	bus := i2ctest.Playback{Ops: ops}
	opts := DefaultOpts
	opts.Init = &InitConfig{
		Direction:      0x0FF0,
		Output:         0x8001,
		PullEnable:     0x00F0,
		PullUp:         0x0030,
		OpenDrainPort1: true,
	}
	d, err := NewI2C(&bus, address, &opts)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestInitFromConfig_base(t *testing.T) {
	d, sim := newSim(t, false)
	err := d.InitFromConfig(InitConfig{Direction: 0x00FF, Output: 0x0100})
	if err != nil {
		t.Fatal(err)
	}
	if got := sim.Reg(RegConfigPort1); got != 0x00 {
		t.Errorf("CONFIG_PORT_1 = 0x%02x", got)
	}
	if got := sim.Reg(RegOutputPort1); got != 0x01 {
		t.Errorf("OUTPUT_PORT_1 = 0x%02x", got)
	}
	err = d.InitFromConfig(InitConfig{Direction: 0xFFFF, OpenDrainPort0: true})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("InitFromConfig() = %v, want ErrUnsupported", err)
	}
	if d.ErrorFlags()&UnsupportedFeature == 0 {
		t.Error("expected UnsupportedFeature")
	}
}

func TestEnsureInitialized_noDevice(t *testing.T) {
	sim := pcal95555test.New(0x21, true)
	d, err := New(sim, uint8(address), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if err := d.EnsureInitialized(); !errors.Is(err, ErrReadFailed) {
		t.Fatalf("EnsureInitialized() = %v, want ErrReadFailed", err)
	}
	if d.IsInitialized() {
		t.Error("failed initialization must not latch")
	}
	if d.ChipVariant() != Unknown {
		t.Errorf("ChipVariant() = %s, want Unknown", d.ChipVariant())
	}
	// The device shows up at the configured address and the call is retried.
	sim.Addr = uint8(address)
	if err := d.EnsureInitialized(); err != nil {
		t.Fatal(err)
	}
	if d.ChipVariant() != PCAL9555A {
		t.Errorf("ChipVariant() = %s, want PCAL9555A", d.ChipVariant())
	}
}

func TestResetToDefault(t *testing.T) {
	for _, extended := range []bool{false, true} {
		d, sim := newSim(t, extended)
		sim.Regs[RegOutputPort0] = 0x12
		sim.Regs[RegPolarityInv1] = 0x34
		sim.Regs[RegConfigPort0] = 0x00
		if extended {
			sim.Regs[RegPullEnable0] = 0x00
			sim.Regs[RegOutputConf] = 0x03
		}
		if err := d.ResetToDefault(); err != nil {
			t.Fatal(err)
		}
		for _, r := range registerMap {
			if r.readOnly || (r.extended && !extended) {
				continue
			}
			if got := sim.Reg(r.addr); got != r.def {
				t.Errorf("extended=%t %s = 0x%02x, want 0x%02x", extended, r.name, got, r.def)
			}
		}
		want := 6
		if extended {
			want = 19
		}
		if sim.Writes != want || sim.Reads != 0 {
			t.Errorf("extended=%t: %d writes, %d reads; want %d writes", extended, sim.Writes, sim.Reads, want)
		}
		_ = d.Close()
	}
}

func TestResetToDefault_continuesOnError(t *testing.T) {
	d, sim := newSim(t, true)
	d.SetRetries(0)
	sim.FailWrites = 1
	err := d.ResetToDefault()
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("ResetToDefault() = %v, want ErrWriteFailed", err)
	}
	if sim.Writes != 19 {
		t.Errorf("%d writes, want 19", sim.Writes)
	}
}

func TestHalt(t *testing.T) {
	d, sim := newSim(t, false)
	sim.Regs[RegConfigPort0] = 0x00
	sim.Regs[RegConfigPort1] = 0x00
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if sim.Reg(RegConfigPort0) != 0xFF || sim.Reg(RegConfigPort1) != 0xFF {
		t.Error("Halt must make every pin an input")
	}
}

func TestFlags_String(t *testing.T) {
	for _, test := range []struct {
		f    Flags
		want string
	}{
		{0, "None"},
		{InvalidPin, "InvalidPin"},
		{InvalidPin | I2CWriteFail, "InvalidPin|I2CWriteFail"},
		{UnsupportedFeature | InvalidMask | I2CReadFail, "InvalidMask|I2CReadFail|UnsupportedFeature"},
		{0x8001, "InvalidPin|0x8000"},
	} {
		if got := test.f.String(); got != test.want {
			t.Errorf("Flags(0x%04x).String() = %q, want %q", uint16(test.f), got, test.want)
		}
	}
}

func TestFlags_values(t *testing.T) {
	got := []Flags{InvalidPin, InvalidMask, I2CReadFail, I2CWriteFail, UnsupportedFeature}
	want := []Flags{0x0001, 0x0002, 0x0004, 0x0008, 0x0010}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("flag values mismatch (-want +got):\n%s", diff)
	}
}

func TestRetries(t *testing.T) {
	for _, test := range []struct {
		name     string
		retries  int
		failures int
		wantErr  bool
	}{
		{name: "no retry success", retries: 0, failures: 0},
		{name: "no retry failure", retries: 0, failures: 1, wantErr: true},
		{name: "recovers on last attempt", retries: 2, failures: 2},
		{name: "exhausted", retries: 2, failures: 3, wantErr: true},
		{name: "negative is single attempt", retries: -3, failures: 1, wantErr: true},
	} {
		t.Run(test.name, func(t *testing.T) {
			d, sim := newSim(t, true)
			d.SetRetries(test.retries)
			sim.FailWrites = test.failures
			err := d.WritePin(3, true)
			if test.wantErr != (err != nil) {
				t.Fatalf("WritePin() = %v, wantErr %t", err, test.wantErr)
			}
			attempts := max(test.retries, 0) + 1
			if !test.wantErr {
				attempts = test.failures + 1
			}
			if sim.Reads != 1 || sim.Writes != attempts {
				t.Errorf("%d reads, %d writes; want 1 read, %d writes", sim.Reads, sim.Writes, attempts)
			}
			if got := d.ErrorFlags()&I2CWriteFail != 0; got != test.wantErr {
				t.Errorf("I2CWriteFail = %t, want %t", got, test.wantErr)
			}
		})
	}
}

func TestRetries_readHalf(t *testing.T) {
	d, sim := newSim(t, true)
	d.SetRetries(1)
	sim.FailReads = 1
	if err := d.TogglePin(0); err != nil {
		t.Fatal(err)
	}
	if sim.Reads != 2 || sim.Writes != 1 {
		t.Errorf("%d reads, %d writes; want 2 reads, 1 write", sim.Reads, sim.Writes)
	}
	sim.FailReads = 2
	if err := d.TogglePin(0); !errors.Is(err, ErrReadFailed) {
		t.Fatalf("TogglePin() = %v, want ErrReadFailed", err)
	}
	if d.ErrorFlags() != I2CReadFail {
		t.Errorf("ErrorFlags() = %s, want I2CReadFail", d.ErrorFlags())
	}
}

func TestClearErrorFlags(t *testing.T) {
	d, sim := newSim(t, true)
	d.SetRetries(2)
	if err := d.WritePin(16, true); !errors.Is(err, ErrInvalidPin) {
		t.Fatalf("WritePin(16) = %v", err)
	}
	sim.FailWrites = 3
	if err := d.WritePin(1, true); !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("WritePin(1) = %v", err)
	}
	if sim.Writes != 3 {
		t.Errorf("%d write attempts, want 3", sim.Writes)
	}
	// Flags are sticky across later successes.
	if err := d.WritePin(1, true); err != nil {
		t.Fatal(err)
	}
	if d.ErrorFlags() != InvalidPin|I2CWriteFail {
		t.Fatalf("ErrorFlags() = %s", d.ErrorFlags())
	}
	d.ClearErrorFlags(I2CWriteFail)
	if d.ErrorFlags() != InvalidPin {
		t.Fatalf("ErrorFlags() = %s, want InvalidPin", d.ErrorFlags())
	}
	d.ClearErrorFlags(AllFlags)
	if d.ErrorFlags() != 0 {
		t.Fatalf("ErrorFlags() = %s, want None", d.ErrorFlags())
	}
}

func TestRegisterName(t *testing.T) {
	if got := RegisterName(RegIntStatus1); got != "INT_STATUS_1" {
		t.Errorf("RegisterName(0x4D) = %q", got)
	}
	if got := RegisterName(0x4E); got != "0x4E" {
		t.Errorf("RegisterName(0x4E) = %q", got)
	}
}

func TestRedetect(t *testing.T) {
	d, sim := newSim(t, true)
	sim.Extended = false
	if err := d.Redetect(); err != nil {
		t.Fatal(err)
	}
	if d.ChipVariant() != PCA9555 || d.HasExtendedFeatures() {
		t.Fatalf("ChipVariant() = %s", d.ChipVariant())
	}
	if err := d.SetPullEnable(0, true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetPullEnable() = %v", err)
	}
	// Default retries is 1: two attempts fail, the device is then unknown.
	sim.FailReads = 2
	if err := d.Redetect(); err == nil {
		t.Fatal("Redetect() must fail")
	}
	if d.ChipVariant() != Unknown {
		t.Errorf("ChipVariant() = %s", d.ChipVariant())
	}
}
