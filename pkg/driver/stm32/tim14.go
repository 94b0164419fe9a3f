//go:build tinygo || baremetal

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import (
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
)

// Countdown is a basic timer counting in 0.1 ms steps. Its update flag marks
// the end of the window.
type Countdown struct {
	base    uintptr
	clockHz uint32
}

var _ bootio.Countdown = (*Countdown)(nil)

// NewTIM14 returns TIM14 as a countdown on a timer clock of clockHz.
func NewTIM14(clockHz uint32) *Countdown {
	return &Countdown{base: tim14Base, clockHz: clockHz}
}

// Configure implements bootio.Countdown. The update request source is
// limited to overflow so that Reload does not raise the flag.
func (c *Countdown) Configure(window time.Duration) {
	reg(c.base + timPSC).Set(c.clockHz/10000 - 1)
	reg(c.base + timARR).Set(uint32(window/bootio.TimeoutResolution) - 1)
	reg(c.base + timCR1).Set(timCR1URS)
	reg(c.base + timEGR).Set(timEGRUG)
	reg(c.base + timCR1).Set(timCR1CEN | timCR1URS)
}

// Reload implements bootio.Countdown.
func (c *Countdown) Reload() {
	reg(c.base + timEGR).Set(timEGRUG)
	reg(c.base + timSR).Set(^uint32(timSRUIF))
}

// Elapsed implements bootio.Countdown.
func (c *Countdown) Elapsed() bool {
	return reg(c.base+timSR).Get()&timSRUIF != 0
}
