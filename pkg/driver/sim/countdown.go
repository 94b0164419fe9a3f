//go:build !tinygo && !baremetal

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import (
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
)

// Countdown is a one-shot timer counting bus ticks. Polling it does not
// advance the clock.
type Countdown struct {
	bus     *Bus
	window  uint64
	armedAt uint64
	reloads int
}

var _ bootio.Countdown = (*Countdown)(nil)

// Countdown attaches a timeout timer to the bus.
func (b *Bus) Countdown() *Countdown {
	return &Countdown{bus: b}
}

// Configure implements bootio.Countdown.
func (c *Countdown) Configure(window time.Duration) {
	c.window = c.bus.Ticks(window)
}

// Reload implements bootio.Countdown.
func (c *Countdown) Reload() {
	c.armedAt = c.bus.now
	c.reloads++
}

// Elapsed implements bootio.Countdown.
func (c *Countdown) Elapsed() bool {
	return c.bus.now-c.armedAt >= c.window
}

// Reloads returns how many times the countdown was rearmed.
func (c *Countdown) Reloads() int {
	return c.reloads
}
