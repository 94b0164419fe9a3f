// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/Thermoquad/bootlink/pkg/bootio"
	"github.com/Thermoquad/bootlink/pkg/trace"
	"github.com/spf13/cobra"
)

var replayErrorsOnly bool

var replayCmd = &cobra.Command{
	Use:   "replay <trace-file>",
	Short: "Print a recorded frame trace",
	Long: `Decode a trace written with --trace and print every frame with its original
timestamp, followed by the statistics of the whole trace.

Traces are CBOR sequences and can be appended to across several runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayErrorsOnly, "errors-only", false, "Only print failed frames")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open trace %s: %v", args[0], err)
	}
	defer f.Close()

	stats := bootio.NewStatistics()
	n, err := trace.Replay(f, func(rec trace.Record) error {
		e := rec.Event()
		stats.Observe(e)
		if replayErrorsOnly && e.Err == nil {
			return nil
		}
		fmt.Print(bootio.FormatEventAt(rec.At(), e))
		return nil
	})
	if err != nil {
		return fmt.Errorf("trace %s: record %d: %v", args[0], n+1, err)
	}

	fmt.Printf("\n%d records\n", n)
	fmt.Print(stats.String())
	return nil
}
