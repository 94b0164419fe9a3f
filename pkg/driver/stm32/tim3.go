//go:build tinygo || baremetal

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import "github.com/Thermoquad/bootlink/pkg/bootio"

// Timer is a general-purpose timer whose channel 1 pin is the line. Channel 1
// runs in PWM mode 2 to generate bits, channel 2 captures falling edges on TI1.
type Timer struct {
	base    uintptr
	idr     uintptr // input data register of the channel 1 pin
	pinMask uint32
	half    uint32
}

var _ bootio.BitTimer = (*Timer)(nil)

// TIM3 is TIM3 with its channel 1 on PB4.
var TIM3 = &Timer{base: tim3Base, idr: gpioBBase + gpioIDR, pinMask: 1 << 4}

// Configure implements bootio.BitTimer.
func (t *Timer) Configure(bitTicks, halfBitTicks uint32) {
	t.half = halfBitTicks
	reg(t.base + timARR).Set(bitTicks - 1)
	reg(t.base + timCCR1).Set(halfBitTicks)
	reg(t.base + timEGR).Set(timEGRUG)
	reg(t.base + timCR1).Set(timCR1CEN)
	reg(t.base + timCCMR1).Set(timCCMR1OC1PE | timCCMR1OC1MPWM2 | timCCMR1CC2SInTI1 | timCCMR1IC2FCKIntN)
}

// Capture implements bootio.BitTimer.
func (t *Timer) Capture() {
	reg(t.base + timSMCR).Set(timSMCRSMSReset | timSMCRTSTI1FED)
	reg(t.base + timCCER).Set(timCCERCC2E | timCCERCC2P)
	reg(t.base + timCCR1).Set(t.half)
	reg(t.base + timEGR).Set(timEGRUG)
}

// Output implements bootio.BitTimer. The update generation also raises the
// update flag, so the first level is preloaded right away.
func (t *Timer) Output() {
	reg(t.base + timSMCR).Set(0)
	reg(t.base + timCCR1).Set(0)
	reg(t.base + timEGR).Set(timEGRUG)
	reg(t.base + timCCER).Set(timCCERCC1E)
}

// Events implements bootio.BitTimer.
func (t *Timer) Events() bootio.TimerEvent {
	sr := reg(t.base + timSR).Get()
	var ev bootio.TimerEvent
	if sr&timSRCC1IF != 0 {
		ev |= bootio.EventHalfBit
	}
	if sr&timSRCC2IF != 0 {
		ev |= bootio.EventEdge
	}
	if sr&timSRUIF != 0 {
		ev |= bootio.EventUpdate
	}
	return ev
}

// Clear implements bootio.BitTimer. Status flags are cleared by writing zero.
func (t *Timer) Clear(ev bootio.TimerEvent) {
	var mask uint32
	if ev&bootio.EventHalfBit != 0 {
		mask |= timSRCC1IF
	}
	if ev&bootio.EventEdge != 0 {
		mask |= timSRCC2IF
	}
	if ev&bootio.EventUpdate != 0 {
		mask |= timSRUIF
	}
	reg(t.base + timSR).Set(^mask)
}

// Level implements bootio.BitTimer.
func (t *Timer) Level() bool {
	return reg(t.idr).Get()&t.pinMask != 0
}

// Drive implements bootio.BitTimer. In PWM mode 2 a zero compare value keeps
// the output high for the whole period and an all-ones value keeps it low.
func (t *Timer) Drive(low bool) {
	ccr := uint32(0)
	if low {
		ccr = 0xFFFFFFFF
	}
	reg(t.base + timCCR1).Set(ccr)
}
