// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pcal95555 provides a driver for the NXP PCA9555 and PCAL9555A
// 16-bit I²C GPIO expanders.
//
// Both chips share the input, output, polarity inversion and configuration
// registers. The PCAL9555A adds "Agile I/O" registers: per-pin drive
// strength, input latch, pull-up/pull-down resistors, interrupt mask and
// status, and a per-port push-pull/open-drain output mode. The variant is
// detected by EnsureInitialized, which the first PCAL9555A-only call runs if
// it was not done yet. On a PCA9555 those calls then fail with
// ErrUnsupported without any bus traffic.
//
// Pins 0-7 are port 0 (P0_0..P0_7) and pins 8-15 are port 1 (P1_0..P1_7).
//
// # Errors
//
// Every failing call returns an error and also ORs a bit into a sticky error
// register, readable with Dev.ErrorFlags. The flags persist across later
// successful calls until Dev.ClearErrorFlags is called.
//
// # Register access
//
// The driver keeps no copy of the device registers. Each pin update is a
// read-modify-write of the live register, and multi-pin updates perform one
// read and one write per touched register. Each read or write is retried
// Dev.SetRetries extra times before it is reported as failed.
//
// # Concurrency
//
// A Dev does no locking. Calls that may run concurrently, including
// HandleInterrupt, must be serialized by the caller.
//
// # Datasheets
//
// https://www.nxp.com/docs/en/data-sheet/PCA9555.pdf
//
// https://www.nxp.com/docs/en/data-sheet/PCAL9555A.pdf
package pcal95555
