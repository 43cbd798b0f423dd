// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// pcal95555 reads and drives the pins of a PCA9555 or PCAL9555A GPIO
// expander.
//
// Usage:
//
//	pcal95555 [flags] info
//	pcal95555 [flags] read [pin...]
//	pcal95555 [flags] write <pin> <0|1>
//	pcal95555 [flags] toggle <pin>
//	pcal95555 [flags] dump
//	pcal95555 [flags] watch
//
// watch redraws the pins until interrupted. With -int it also dispatches the
// expander interrupts signalled on that host pin.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/expander/pcal95555"
	"github.com/GermanBionicSystems/expander/pcal95555/pcal95555test"
	"github.com/GermanBionicSystems/expander/pinview"
)

func parsePin(s string) (int, error) {
	pin, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid pin %q", s)
	}
	return pin, nil
}

func info(d *pcal95555.Dev) error {
	fmt.Printf("%s at 0x%02x: %s\n", d, d.Address(), d.ChipVariant())
	fmt.Printf("retries: %d\n", d.Retries())
	fmt.Printf("extended features: %t\n", d.HasExtendedFeatures())
	return nil
}

func read(d *pcal95555.Dev, args []string) error {
	var pins []int
	for _, a := range args {
		pin, err := parsePin(a)
		if err != nil {
			return err
		}
		pins = append(pins, pin)
	}
	if len(pins) == 0 {
		for pin := range pcal95555.NumPins {
			pins = append(pins, pin)
		}
	}
	levels, err := d.ReadPins(pins...)
	if err != nil {
		return err
	}
	for _, l := range levels {
		fmt.Printf("%s\t%s\n", d.Pins[l.Pin], l.Level)
	}
	return nil
}

func write(d *pcal95555.Dev, args []string) error {
	if len(args) != 2 {
		return errors.New("write takes a pin and a level")
	}
	pin, err := parsePin(args[0])
	if err != nil {
		return err
	}
	var l gpio.Level
	switch args[1] {
	case "0":
	case "1":
		l = gpio.High
	default:
		return fmt.Errorf("invalid level %q", args[1])
	}
	if pin < 0 || pin >= len(d.Pins) {
		return d.WritePin(pin, l)
	}
	// Out writes the latch before switching the pin to output.
	return d.Pins[pin].Out(l)
}

func toggle(d *pcal95555.Dev, args []string) error {
	if len(args) != 1 {
		return errors.New("toggle takes a pin")
	}
	pin, err := parsePin(args[0])
	if err != nil {
		return err
	}
	if err := d.SetPinDirection(pin, pcal95555.Output); err != nil {
		return err
	}
	return d.TogglePin(pin)
}

func dump(d *pcal95555.Dev) error {
	regs, err := d.DumpRegisters()
	for _, r := range regs {
		fmt.Println(r)
	}
	return err
}

func watch(d *pcal95555.Dev, intName string, interval time.Duration) error {
	view := pinview.New(nil)
	defer view.Halt()
	show := func() error {
		s, err := pinview.Capture(d)
		if err != nil {
			return err
		}
		return view.Show(s)
	}

	if intName != "" {
		p := gpioreg.ByName(intName)
		if p == nil {
			return fmt.Errorf("no INT pin %q", intName)
		}
		if err := d.SetEdgePin(p); err != nil {
			return err
		}
		d.SetInterruptCallback(func(status uint16) {
			glog.V(1).Infof("interrupt status 0x%04x", status)
		})
		if err := d.ConfigureInterruptMask(0); err != nil {
			return err
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if intName != "" {
			if _, err := d.WaitForInterrupt(interval); err != nil {
				return err
			}
		} else {
			time.Sleep(interval)
		}
		if err := show(); err != nil {
			return err
		}
	}
}

func open(busName string, addr uint, fake bool, opts *pcal95555.Opts) (*pcal95555.Dev, func() error, error) {
	if base := uint(pcal95555.BaseAddress); addr < base || addr > base+7 {
		return nil, nil, fmt.Errorf("invalid address 0x%x, must be 0x20-0x27", addr)
	}
	if fake {
		sim := pcal95555test.New(uint8(addr), true)
		d, err := pcal95555.New(sim, uint8(addr), opts)
		if err != nil {
			return nil, nil, err
		}
		if err := d.EnsureInitialized(); err != nil {
			_ = d.Close()
			return nil, nil, err
		}
		return d, d.Close, nil
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, err
	}
	d, err := pcal95555.NewI2C(bus, uint16(addr), opts)
	if err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	return d, func() error {
		err := d.Close()
		if err2 := bus.Close(); err == nil {
			err = err2
		}
		return err
	}, nil
}

func mainImpl() error {
	busName := flag.String("b", "", "I²C bus to use")
	addr := flag.Uint("a", 0x20, "I²C address of the expander, 0x20-0x27")
	retries := flag.Int("r", pcal95555.DefaultOpts.Retries, "extra attempts per register access")
	intPin := flag.String("int", "", "host GPIO connected to the INT output, for watch")
	interval := flag.Duration("i", 200*time.Millisecond, "refresh interval for watch")
	fake := flag.Bool("fake", false, "use a simulated PCAL9555A instead of the bus")
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) == 0 {
		return errors.New("specify a command: info, read, write, toggle, dump or watch")
	}

	if !*fake {
		if _, err := host.Init(); err != nil {
			return err
		}
	}
	d, closeFn, err := open(*busName, *addr, *fake, &pcal95555.Opts{Retries: *retries})
	if err != nil {
		return err
	}
	defer closeFn()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "info":
		err = info(d)
	case "read":
		err = read(d, rest)
	case "write":
		err = write(d, rest)
	case "toggle":
		err = toggle(d, rest)
	case "dump":
		err = dump(d)
	case "watch":
		err = watch(d, *intPin, *interval)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if flags := d.ErrorFlags(); flags != 0 {
		glog.Warningf("%s error flags: %s", d, flags)
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "pcal95555: %s.\n", err)
		os.Exit(1)
	}
}
