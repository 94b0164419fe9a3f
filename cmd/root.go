// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Transport flags
	ioTimeout time.Duration
	lineEcho  bool
	traceFile string
)

var rootCmd = &cobra.Command{
	Use:   "bootlink",
	Short: "Single-wire bootloader transport tool",
	Long: `Bootlink - talk to a microcontroller bootloader over its single-wire link.

Exchanges value frames (a byte and its complement) and block frames (length code,
4 to 1024 payload bytes, CRC-32) with a device, monitors the line, replays
recorded traces and self-tests both physical layers on a simulated wire.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 38400] [--echo]
  WebSocket: --url ws://host/path [--username user]

Use --echo with adapters that tie TX and RX together onto the single wire, so
every transmitted byte is read back and must be dropped.

For WebSocket authentication, the password is read from the BOOTLINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.0.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", bootio.DefaultBitRate, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Transport flags
	rootCmd.PersistentFlags().DurationVar(&ioTimeout, "timeout", bootio.DefaultTimeout, "Per-byte inactivity timeout")
	rootCmd.PersistentFlags().BoolVar(&lineEcho, "echo", false, "Drop the echo of sent bytes (single-wire adapters)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "Append every frame to a CBOR trace file")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
