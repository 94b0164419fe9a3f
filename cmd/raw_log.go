// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw line bytes without framing",
	Long: `Continuously display every byte received on the connection as hex, with a
timestamp per read and the gap since the previous read.

Gaps longer than the inactivity timeout are marked, since the bootloader would
abandon a frame there. Useful to see what a programmer actually puts on the
wire before frames are decoded.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Bootlink - Raw Line Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	buf := make([]byte, 128)
	var last time.Time
	total := 0

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, ErrConnectionClosed) {
				log.Printf("Connection closed after %d bytes: %v", total, err)
				return nil
			}
			return fmt.Errorf("read error after %d bytes: %v", total, err)
		}
		if n == 0 {
			continue
		}

		now := time.Now()
		gap := ""
		if !last.IsZero() {
			d := now.Sub(last)
			gap = fmt.Sprintf(" +%v", d.Round(time.Microsecond))
			if d > ioTimeout {
				gap += " (timeout)"
			}
		}
		last = now
		total += n

		fmt.Printf("[%s]%s %3d: % X\n", now.Format("15:04:05.000"), gap, n, buf[:n])
	}
}
