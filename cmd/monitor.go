// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	monitorValues bool
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Receive frames continuously and track line errors",
	Long: `Receive block frames (or value frames with --value) in a loop and keep
statistics of valid frames, timeouts, framing errors and checksum errors.

An idle line produces one timeout per inactivity window. Timeouts are counted
but only displayed with --show-all.

Frames are checked in real-time, with errors highlighted immediately and
periodic statistics summaries displayed at configurable intervals.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorValues, "value", false, "Receive value frames instead of block frames")
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show timeouts too (not just frames and errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

// copyEvent detaches an event from the transport's receive buffer
func copyEvent(e bootio.Event) bootio.Event {
	if e.Payload != nil {
		e.Payload = append([]byte(nil), e.Payload...)
	}
	return e
}

// receiveLoop receives frames until the connection fails. Results reach the
// caller through the session observers.
func receiveLoop(s *Session, values bool) error {
	buf := make([]byte, bootio.MaxBlockSize)
	for {
		var err error
		if values {
			_, err = s.Transport.RecvVal()
		} else {
			_, err = s.Transport.RecvData(buf)
		}
		if err != nil && s.Port.Err() != nil {
			return s.check(err)
		}
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if useTUI {
		return runMonitorTUI()
	}
	return runMonitorText()
}

// runMonitorTUI runs the monitor in TUI mode
func runMonitorTUI() error {
	events := make(chan bootio.Event, 64)

	s, err := OpenSession(bootio.ObserverFunc(func(e bootio.Event) {
		events <- copyEvent(e)
	}))
	if err != nil {
		return err
	}
	defer s.Close()

	m := initialModel(s.Info, monitorValues, showAll)
	p := tea.NewProgram(m)

	// Forward events to the TUI
	go func() {
		for e := range events {
			p.Send(frameMsg(e))
		}
	}()

	// Receiver goroutine
	go func() {
		err := receiveLoop(s, monitorValues)
		p.Send(linkClosedMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// runMonitorText runs the monitor in text mode
func runMonitorText() error {
	stats := bootio.NewStatistics()
	events := make(chan bootio.Event, 64)

	s, err := OpenSession(bootio.ObserverFunc(func(e bootio.Event) {
		events <- copyEvent(e)
	}))
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Bootlink - Frame Monitor\n")
	fmt.Printf("Connection: %s\n", s.Info)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if monitorValues {
		fmt.Printf("Frames: value\n")
	} else {
		fmt.Printf("Frames: block\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	done := make(chan error, 1)
	go func() {
		done <- receiveLoop(s, monitorValues)
	}()

	// Statistics ticker
	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case e := <-events:
			stats.Observe(e)
			if errors.Is(e.Err, bootio.ErrTimeout) && !showAll {
				continue
			}
			fmt.Print(bootio.FormatEvent(e))

		case <-statsTicker.C:
			// Print statistics
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()

		case err := <-done:
			log.Printf("Connection closed: %v", err)
			fmt.Println()
			fmt.Print(stats.String())
			return nil
		}
	}
}
