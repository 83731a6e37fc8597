// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Mastlink - Master Gateway Tool
//
// A CLI tool for driving a serial-attached hardware master over its
// command/response protocol.

package main

import (
	"os"

	"github.com/Thermoquad/mastlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
