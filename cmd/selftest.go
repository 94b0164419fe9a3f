// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
	"github.com/Thermoquad/bootlink/pkg/driver/sim"
	"github.com/spf13/cobra"
)

var (
	selfTestRounds int
	selfTestSeed   int64
)

var selfTestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Exercise both physical layers on a simulated wire",
	Long: `Run the transport over a simulated single-wire line, once with the hardware
UART physical layer and once with the bit-banged timer physical layer.

Checks value frames for all 256 values, block frames for the shortest, longest
and random lengths, and that complement errors, corrupted payloads, framing
errors and stalled senders are all rejected.

The simulated clock runs at 16 ticks per bit of --baud, and the inactivity
window is --timeout. No connection is opened.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed`,
	Args: cobra.NoArgs,
	RunE: runSelfTestCmd,
}

func init() {
	rootCmd.AddCommand(selfTestCmd)
	selfTestCmd.Flags().IntVar(&selfTestRounds, "rounds", 8, "Number of random block lengths per variant")
	selfTestCmd.Flags().Int64Var(&selfTestSeed, "seed", 0, "Random seed (0 picks one from the clock)")
}

// simVariant builds one physical layer on a simulated bus
type simVariant struct {
	name  string
	build func(bus *sim.Bus, cfg bootio.Config) bootio.Link
}

var simVariants = []simVariant{
	{
		name: "hardware UART",
		build: func(bus *sim.Bus, cfg bootio.Config) bootio.Link {
			return bootio.NewHardwareUART(bus.UART(), bootio.NewSupervisor(bus.Countdown(), cfg.Timeout), cfg)
		},
	},
	{
		name: "bit-banged timer",
		build: func(bus *sim.Bus, cfg bootio.Config) bootio.Link {
			return bootio.NewBitBang(bus.BitTimer(), bootio.NewSupervisor(bus.Countdown(), cfg.Timeout), cfg)
		},
	},
}

// selfTestConfig returns the simulated line timing for a bit rate
func selfTestConfig(bitRate int, timeout time.Duration) bootio.Config {
	return bootio.Config{
		ClockHz: uint32(bitRate) * 16,
		BitRate: uint32(bitRate),
		Timeout: timeout,
	}
}

func runSelfTestCmd(cmd *cobra.Command, args []string) error {
	cfg := selfTestConfig(baudRate, ioTimeout)
	if err := cfg.Validate(); err != nil {
		return err
	}
	seed := selfTestSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fmt.Printf("Bootlink - Self Test\n")
	fmt.Printf("Line: %d bit/s, %d ticks per bit, timeout %v\n", cfg.BitRate, cfg.BitTicks(), cfg.Timeout)
	fmt.Printf("Seed: %d (reproduce with --seed %d)\n\n", seed, seed)

	failures := 0
	for _, v := range simVariants {
		rng := rand.New(rand.NewSource(seed))
		failures += selfTest(os.Stdout, v, cfg, selfTestRounds, rng)
	}

	if failures > 0 {
		fmt.Printf("\nResult: FAILED (%d checks)\n", failures)
		os.Exit(exitLineError)
	}
	fmt.Printf("\nResult: PASSED\n")
	return nil
}

// selfTest runs every check against one variant and returns the number of
// failed checks.
func selfTest(w io.Writer, v simVariant, cfg bootio.Config, rounds int, rng *rand.Rand) int {
	bus := sim.NewBus(cfg.ClockHz, cfg.BitRate)
	tr := bootio.New(v.build(bus, cfg))
	buf := make([]byte, bootio.MaxBlockSize)

	fmt.Fprintf(w, "=== %s ===\n", v.name)
	failures := 0
	check := func(name string, err error) {
		if err != nil {
			failures++
			fmt.Fprintf(w, "  FAIL %-28s %v\n", name, err)
			return
		}
		fmt.Fprintf(w, "  ok   %s\n", name)
	}

	check("value round trip (256)", func() error {
		for i := 0; i < 256; i++ {
			tr.SendVal(byte(i))
			bus.Inject(bus.Transmitted()...)
			got, err := tr.RecvVal()
			if err != nil {
				return fmt.Errorf("value %d: %w", i, err)
			}
			if got != byte(i) {
				return fmt.Errorf("sent %d, received %d", i, got)
			}
		}
		return nil
	}())

	check("complement rejected", func() error {
		bus.Inject(0x5A, 0x5A)
		return expectErr(tr.RecvVal, bootio.ErrChecksum)
	}())

	lengths := []int{bootio.MinBlockSize, bootio.MaxBlockSize}
	for i := 0; i < rounds; i++ {
		lengths = append(lengths, (rng.Intn(bootio.MaxBlockSize/bootio.BlockAlign)+1)*bootio.BlockAlign)
	}
	check(fmt.Sprintf("block round trip (%d)", len(lengths)), func() error {
		for _, n := range lengths {
			payload := make([]byte, n)
			rng.Read(payload)
			if err := tr.SendData(payload); err != nil {
				return err
			}
			bus.Inject(bus.Transmitted()...)
			got, err := tr.RecvData(buf)
			if err != nil {
				return fmt.Errorf("length %d: %w", n, err)
			}
			if !bytes.Equal(buf[:got], payload) {
				return fmt.Errorf("length %d: payload mismatch", n)
			}
		}
		return nil
	}())

	check("corrupted payload rejected", func() error {
		payload := make([]byte, 64)
		rng.Read(payload)
		if err := tr.SendData(payload); err != nil {
			return err
		}
		wire := bus.Transmitted()
		wire[2+rng.Intn(len(payload))] ^= 1 << uint(rng.Intn(8))
		bus.Inject(wire...)
		return expectErr(func() (int, error) { return tr.RecvData(buf) }, bootio.ErrChecksum)
	}())

	check("framing error detected", func() error {
		bus.InjectFrame(0x00, false)
		bus.Idle(bus.BitTicks())
		return expectErr(func() (int, error) { return 0, tr.Recv(buf[:1]) }, bootio.ErrFraming)
	}())

	check("stalled sender times out", func() error {
		bus.Inject(0x00, 0xFF, 1, 2)
		return expectErr(func() (int, error) { return tr.RecvData(buf) }, bootio.ErrTimeout)
	}())

	return failures
}

// expectErr calls fn and checks that it fails with target
func expectErr[T any](fn func() (T, error), target error) error {
	_, err := fn()
	if err == nil {
		return fmt.Errorf("accepted, want %v", target)
	}
	if !errors.Is(err, target) {
		return fmt.Errorf("got %v, want %v", err, target)
	}
	return nil
}
