// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

import "time"

// Countdown is a free-running timer that flags when its window elapses.
type Countdown interface {
	// Configure sets the window length.
	Configure(window time.Duration)
	// Reload restarts the window and clears the elapsed flag.
	Reload()
	// Elapsed reports whether the window ran out since the last Reload.
	Elapsed() bool
}

// Supervisor detects inactivity during a receive. Receivers arm it on entry and
// after every delivered byte, so the deadline rolls per byte: a slow but steady
// sender never times out.
type Supervisor struct {
	countdown Countdown
}

// NewSupervisor programs the countdown with the inactivity window.
func NewSupervisor(c Countdown, window time.Duration) *Supervisor {
	c.Configure(window)
	c.Reload()
	return &Supervisor{countdown: c}
}

// Arm restarts the inactivity window.
func (s *Supervisor) Arm() {
	s.countdown.Reload()
}

// Expired reports whether the window elapsed without being rearmed.
func (s *Supervisor) Expired() bool {
	return s.countdown.Elapsed()
}
