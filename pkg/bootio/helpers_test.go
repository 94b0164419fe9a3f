// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio_test

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
	"github.com/Thermoquad/bootlink/pkg/driver/sim"
)

const (
	testClock   = 614400 // 16 ticks per bit at 38400
	testRate    = 38400
	testTimeout = 10 * time.Millisecond
)

func testConfig() bootio.Config {
	return bootio.Config{ClockHz: testClock, BitRate: testRate, Timeout: testTimeout}
}

// variant builds one physical layer on a simulated bus.
type variant struct {
	name  string
	build func(bus *sim.Bus, cfg bootio.Config) bootio.Link
}

var variants = []variant{
	{
		name: "hwuart",
		build: func(bus *sim.Bus, cfg bootio.Config) bootio.Link {
			sup := bootio.NewSupervisor(bus.Countdown(), cfg.Timeout)
			return bootio.NewHardwareUART(bus.UART(), sup, cfg)
		},
	},
	{
		name: "bitbang",
		build: func(bus *sim.Bus, cfg bootio.Config) bootio.Link {
			sup := bootio.NewSupervisor(bus.Countdown(), cfg.Timeout)
			return bootio.NewBitBang(bus.BitTimer(), sup, cfg)
		},
	},
}

// forEachVariant runs fn against a fresh bus and transport per physical layer.
func forEachVariant(t *testing.T, fn func(t *testing.T, bus *sim.Bus, tr *bootio.Transport)) {
	t.Helper()
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			cfg := testConfig()
			bus := sim.NewBus(cfg.ClockHz, cfg.BitRate)
			fn(t, bus, bootio.New(v.build(bus, cfg)))
		})
	}
}

// windowTicks returns the inactivity window in bus ticks.
func windowTicks(bus *sim.Bus) int {
	return int(bus.Ticks(testTimeout))
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}
