// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
	"github.com/spf13/cobra"
)

var (
	probeWait  int
	probeBlock bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test the connection by waiting for a valid frame",
	Long: `Wait for a valid value frame (or block frame with --block) until the wait
expires.

Line errors are ignored: the probe keeps receiving until a frame passes its
complement or CRC check, so it can be started before the programmer.

Exit codes:
  0 - Frame received before the wait expired
  1 - Wait expired without receiving a valid frame
  2 - Connection error

Useful for testing wiring, bit rate and echo settings against a programmer.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeWait, "wait", 10, "Seconds to wait for a frame")
	probeCmd.Flags().BoolVar(&probeBlock, "block", false, "Wait for a block frame instead of a value frame")
}

func runProbe(cmd *cobra.Command, args []string) error {
	// Count failed attempts on the receiving goroutine
	failed := 0
	s, err := OpenSession(bootio.ObserverFunc(func(e bootio.Event) {
		if e.Err != nil {
			failed++
		}
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(exitConnError)
	}
	defer s.Close()

	fmt.Printf("Bootlink - Probe\n")
	fmt.Printf("Connection: %s\n", s.Info)
	fmt.Printf("Wait: %d seconds\n", probeWait)
	fmt.Printf("Waiting for valid frame...\n\n")

	// Channel for frame reception
	frameChan := make(chan bootio.Event, 1)
	errChan := make(chan error, 1)

	// Receiver goroutine
	go func() {
		buf := make([]byte, bootio.MaxBlockSize)
		for {
			var e bootio.Event
			var err error
			if probeBlock {
				var n int
				n, err = s.Transport.RecvData(buf)
				e = bootio.Event{Kind: bootio.KindBlock, Payload: buf[:n]}
			} else {
				e.Kind = bootio.KindValue
				e.Value, err = s.Transport.RecvVal()
			}
			if err == nil {
				if failed > 0 {
					fmt.Printf("(%d failed attempts before the frame)\n", failed)
				}
				frameChan <- e
				return
			}
			if s.Port.Err() != nil {
				errChan <- s.check(err)
				return
			}
		}
	}()

	// Wait for frame or timeout
	select {
	case e := <-frameChan:
		fmt.Printf("SUCCESS: Received valid frame\n")
		if e.Kind == bootio.KindValue {
			fmt.Printf("  Value: 0x%02X (%d)\n", e.Value, e.Value)
		} else {
			fmt.Printf("  Length: %d bytes\n", len(e.Payload))
			fmt.Printf("  CRC: 0x%08X\n", bootio.CRC32(e.Payload))
		}
		os.Exit(exitOK)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(exitConnError)

	case <-time.After(time.Duration(probeWait) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", probeWait)
		os.Exit(exitLineError)
	}

	return nil
}
