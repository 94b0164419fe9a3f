//go:build !tinygo && !baremetal

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import "github.com/Thermoquad/bootlink/pkg/bootio"

// UART simulates a UART in single-wire half-duplex mode. The receiver samples
// the shared line, so with both directions enabled it hears its own output.
type UART struct {
	bus      *Bus
	bitTicks int

	te, re bool

	// receiver
	active bool
	cnt    int
	acc    byte
	prev   bool
	rdr    byte
	rxne   bool
	fe     bool

	// transmitter
	tdr     byte
	tdrFull bool
	shift   []bool
}

var _ bootio.UART = (*UART)(nil)

// UART attaches a UART to the bus.
func (b *Bus) UART() *UART {
	return &UART{bus: b, bitTicks: b.bitTicks, prev: true}
}

// Configure implements bootio.UART.
func (u *UART) Configure(bitTicks uint32) {
	u.bitTicks = int(bitTicks)
}

// Enable implements bootio.UART. Disabling the receiver abandons a character
// in progress.
func (u *UART) Enable(tx, rx bool) {
	u.te, u.re = tx, rx
	if !rx {
		u.active = false
	}
}

// Status implements bootio.UART. Each call advances the bus one tick.
func (u *UART) Status() bootio.UARTStatus {
	u.tick()
	var s bootio.UARTStatus
	if u.rxne {
		s |= bootio.StatusRXNE
	}
	if u.fe {
		s |= bootio.StatusFE
	}
	if !u.tdrFull {
		s |= bootio.StatusTXE
		if len(u.shift) == 0 {
			s |= bootio.StatusTC
		}
	}
	return s
}

// ClearFraming implements bootio.UART.
func (u *UART) ClearFraming() {
	u.fe = false
}

// Read implements bootio.UART.
func (u *UART) Read() byte {
	u.rxne = false
	return u.rdr
}

// Write implements bootio.UART. Writes with the transmitter disabled are
// ignored.
func (u *UART) Write(b byte) {
	if !u.te {
		return
	}
	u.tdr = b
	u.tdrFull = true
}

func (u *UART) tick() {
	if len(u.shift) == 0 && u.tdrFull {
		u.shift = frameLevels(u.shift, u.tdr, u.bitTicks)
		u.tdrFull = false
	}
	u.bus.driven = true
	u.bus.recording = len(u.shift) > 0
	if len(u.shift) > 0 {
		u.bus.driven = u.shift[0]
		u.shift = u.shift[1:]
	}
	level, _ := u.bus.step()
	u.receive(level)
}

func (u *UART) receive(level bool) {
	defer func() { u.prev = level }()
	if !u.re {
		return
	}
	if !u.active {
		if u.prev && !level {
			u.active = true
			u.cnt = 0
			u.acc = 0
		}
		return
	}

	u.cnt++
	half := u.bitTicks / 2
	if u.cnt < half || (u.cnt-half)%u.bitTicks != 0 {
		return
	}
	switch k := (u.cnt - half) / u.bitTicks; {
	case k == 0:
		// start bit must still be low at mid-bit
		if level {
			u.active = false
		}
	case k <= bootio.DataBits:
		if level {
			u.acc |= 1 << (k - 1)
		}
	default:
		u.rdr = u.acc
		u.rxne = true
		if !level {
			u.fe = true
		}
		u.active = false
	}
}

// frameLevels appends the per-tick levels of one 8N1 character.
func frameLevels(dst []bool, c byte, bitTicks int) []bool {
	put := func(high bool) {
		for i := 0; i < bitTicks; i++ {
			dst = append(dst, high)
		}
	}
	put(false)
	for i := 0; i < bootio.DataBits; i++ {
		put(c&(1<<i) != 0)
	}
	put(true)
	return dst
}
