//go:build !tinygo && !baremetal

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import "github.com/Thermoquad/bootlink/pkg/bootio"

// BitTimer simulates a general-purpose timer wired to the line: compare
// channel 1 drives it, capture channel 2 watches it.
type BitTimer struct {
	bus *Bus

	period uint32
	half   uint32
	cnt    uint32

	transmit bool
	out      bool // compare output, true = released
	preload  bool
	level    bool // line level at the last tick

	events bootio.TimerEvent
}

var _ bootio.BitTimer = (*BitTimer)(nil)

// BitTimer attaches a timer to the bus.
func (b *Bus) BitTimer() *BitTimer {
	return &BitTimer{bus: b, out: true, preload: true, level: true}
}

// Configure implements bootio.BitTimer.
func (t *BitTimer) Configure(bitTicks, halfBitTicks uint32) {
	t.period = bitTicks
	t.half = halfBitTicks
	t.cnt = 0
}

// Capture implements bootio.BitTimer.
func (t *BitTimer) Capture() {
	if t.transmit {
		// output released: the line is back at idle
		t.level = true
	}
	t.transmit = false
	t.out = true
	t.bus.driven = true
	t.bus.recording = false
	t.cnt = 0
	t.events = 0
}

// Output implements bootio.BitTimer. The update event is raised at once so
// the first level can be preloaded.
func (t *BitTimer) Output() {
	t.transmit = true
	t.out = true
	t.preload = true
	t.bus.driven = true
	t.bus.recording = true
	t.cnt = 0
	t.events = bootio.EventUpdate
}

// Events implements bootio.BitTimer. Each call advances the bus one tick.
func (t *BitTimer) Events() bootio.TimerEvent {
	t.tick()
	return t.events
}

// Clear implements bootio.BitTimer.
func (t *BitTimer) Clear(ev bootio.TimerEvent) {
	t.events &^= ev
}

// Level implements bootio.BitTimer.
func (t *BitTimer) Level() bool {
	return t.level
}

// Drive implements bootio.BitTimer.
func (t *BitTimer) Drive(low bool) {
	t.preload = !low
}

func (t *BitTimer) tick() {
	if t.transmit {
		t.bus.driven = t.out
	}
	level, _ := t.bus.step()

	if t.transmit {
		t.cnt++
		if t.cnt >= t.period {
			t.cnt = 0
			t.out = t.preload
			t.events |= bootio.EventUpdate
		}
	} else {
		if level != t.level {
			// slave reset on either edge
			t.cnt = 0
			if !level {
				t.events |= bootio.EventEdge
			}
		} else {
			t.cnt++
			if t.cnt >= t.period {
				t.cnt = 0
			}
		}
		if t.cnt == t.half {
			t.events |= bootio.EventHalfBit
		}
	}
	t.level = level
}
