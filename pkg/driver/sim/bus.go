//go:build !tinygo && !baremetal

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sim simulates the bootloader's single-wire line and the peripherals
// attached to it, for host-side testing.
//
// Time is virtual: the clock advances one tick each time a peripheral status
// register is polled, so a busy-wait loop in the transport drives the
// simulation deterministically. The line is a wired-AND of the level driven by
// the remote programmer (queued with Inject) and the level driven by the
// device under test.
package sim

import (
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
)

// Bus is one simulated single-wire line.
type Bus struct {
	clockHz  uint32
	bitTicks int // remote bit period

	now uint64

	remote []bool // queued remote levels, one per tick
	head   int

	driven    bool // device output, true = released
	recording bool
	wave      []bool // device levels while transmitting
}

// NewBus creates an idle line. bitRate is the programmer's rate, used by
// Inject and Transmitted.
func NewBus(clockHz, bitRate uint32) *Bus {
	return &Bus{
		clockHz:  clockHz,
		bitTicks: int((clockHz + bitRate/2) / bitRate),
		driven:   true,
	}
}

// Now returns the tick count.
func (b *Bus) Now() uint64 {
	return b.now
}

// BitTicks returns the programmer's bit period in ticks.
func (b *Bus) BitTicks() int {
	return b.bitTicks
}

// Ticks converts a duration into clock ticks.
func (b *Bus) Ticks(d time.Duration) uint64 {
	return uint64(d) * uint64(b.clockHz) / uint64(time.Second)
}

// Inject queues 8N1 characters from the programmer.
func (b *Bus) Inject(data ...byte) {
	for _, c := range data {
		b.InjectFrame(c, true)
	}
}

// InjectFrame queues one character with a chosen stop bit level.
func (b *Bus) InjectFrame(c byte, stop bool) {
	b.InjectLevels(false, b.bitTicks)
	for i := 0; i < bootio.DataBits; i++ {
		b.InjectLevels(c&(1<<i) != 0, b.bitTicks)
	}
	b.InjectLevels(stop, b.bitTicks)
}

// InjectLevels queues a constant remote level for a number of ticks.
func (b *Bus) InjectLevels(high bool, ticks int) {
	for i := 0; i < ticks; i++ {
		b.remote = append(b.remote, high)
	}
}

// Idle queues an idle (high) gap.
func (b *Bus) Idle(ticks int) {
	b.InjectLevels(true, ticks)
}

// Pending returns the number of queued remote ticks not yet on the line.
func (b *Bus) Pending() int {
	return len(b.remote) - b.head
}

// Waveform returns the levels recorded while the device was transmitting.
func (b *Bus) Waveform() []bool {
	return b.wave
}

// Transmitted decodes and clears what the device sent since the last call.
func (b *Bus) Transmitted() []byte {
	out := Decode(b.wave, b.bitTicks)
	b.wave = b.wave[:0]
	return out
}

// step advances the clock one tick and returns the line and remote levels.
func (b *Bus) step() (line, remote bool) {
	remote = true
	if b.head < len(b.remote) {
		remote = b.remote[b.head]
		b.head++
		if b.head == len(b.remote) {
			b.remote = b.remote[:0]
			b.head = 0
		}
	}
	if b.recording {
		b.wave = append(b.wave, b.driven)
	}
	b.now++
	return remote && b.driven, remote
}

// Decode recovers 8N1 characters from a sampled waveform. Characters with a
// low stop bit are dropped. Samples past the end read as idle.
func Decode(wave []bool, bitTicks int) []byte {
	level := func(i int) bool {
		if i >= len(wave) {
			return true
		}
		return wave[i]
	}

	var out []byte
	prev := true
	for i := 0; i < len(wave); i++ {
		if !prev || wave[i] {
			prev = wave[i]
			continue
		}
		mid := i + bitTicks/2
		if level(mid) {
			prev = wave[i]
			continue
		}
		var c byte
		for k := 0; k < bootio.DataBits; k++ {
			if level(mid + (k+1)*bitTicks) {
				c |= 1 << k
			}
		}
		stop := mid + (bootio.DataBits+1)*bitTicks
		if level(stop) {
			out = append(out, c)
		}
		i = stop
		prev = true
	}
	return out
}
