// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package expander is a container for the PCA9555 / PCAL9555A GPIO expander
// driver and its tooling.
//
// The driver is in package pcal95555, the register transport in regbus and a
// terminal pin viewer in pinview. cmd/pcal95555 is a command line tool.
package expander
