// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Bootlink - single-wire bootloader transport tool
//
// A CLI tool for exchanging value and block frames with a microcontroller
// bootloader over its half-duplex single-wire link.

package main

import (
	"os"

	"github.com/Thermoquad/bootlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
