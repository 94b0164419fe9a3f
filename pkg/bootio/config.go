// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

import (
	"fmt"
	"time"
)

// Config describes the line timing shared by every physical layer.
type Config struct {
	ClockHz uint32        // timer/peripheral input clock
	BitRate uint32        // bits per second on the wire
	Timeout time.Duration // per-byte inactivity window
}

// DefaultConfig returns 38400 bit/s on a 48 MHz clock with a 500 ms timeout.
func DefaultConfig() Config {
	return Config{
		ClockHz: DefaultClockHz,
		BitRate: DefaultBitRate,
		Timeout: DefaultTimeout,
	}
}

// clockCount converts a frequency into clock counts, rounded to nearest.
func (c Config) clockCount(hz uint32) uint32 {
	return (c.ClockHz + hz/2) / hz
}

// BitTicks returns the number of clock counts in one bit period.
func (c Config) BitTicks() uint32 {
	return c.clockCount(c.BitRate)
}

// HalfBitTicks returns the number of clock counts in half a bit period.
func (c Config) HalfBitTicks() uint32 {
	return c.clockCount(2 * c.BitRate)
}

// Validate checks that the configuration can be programmed into the peripherals.
func (c Config) Validate() error {
	if c.ClockHz == 0 {
		return fmt.Errorf("invalid clock: 0 Hz")
	}
	if c.BitRate == 0 {
		return fmt.Errorf("invalid bit rate: 0")
	}
	if c.BitRate > c.ClockHz/16 {
		return fmt.Errorf("bit rate %d too high for %d Hz clock (min 16 counts per bit)", c.BitRate, c.ClockHz)
	}
	if c.Timeout < TimeoutResolution || c.Timeout > MaxTimeout {
		return fmt.Errorf("invalid timeout: %v (valid %v to %v)", c.Timeout, TimeoutResolution, MaxTimeout)
	}
	return nil
}
