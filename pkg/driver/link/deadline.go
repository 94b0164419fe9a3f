// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
)

// Deadline is a bootio.Countdown on the wall clock.
type Deadline struct {
	window time.Duration
	start  time.Time
	now    func() time.Time
}

var _ bootio.Countdown = (*Deadline)(nil)

// NewDeadline creates an unconfigured countdown.
func NewDeadline() *Deadline {
	return &Deadline{now: time.Now}
}

// Configure implements bootio.Countdown.
func (d *Deadline) Configure(window time.Duration) {
	d.window = window
}

// Reload implements bootio.Countdown.
func (d *Deadline) Reload() {
	d.start = d.now()
}

// Elapsed implements bootio.Countdown.
func (d *Deadline) Elapsed() bool {
	return d.now().Sub(d.start) >= d.window
}

