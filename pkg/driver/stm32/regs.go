//go:build tinygo || baremetal

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package stm32 binds the bootloader transport to STM32 peripherals: USART2 for
// the hardware UART variant, TIM3 for the bit-banged variant and TIM14 as the
// inactivity timer.
//
// Peripheral clocks and pin alternate functions are set up by the board before
// NewLink is called.
package stm32

import (
	"runtime/volatile"
	"unsafe"
)

// Peripheral base addresses (APB1)
const (
	tim3Base   = 0x40000400
	tim14Base  = 0x40002000
	usart2Base = 0x40004400
	gpioBBase  = 0x48000400
)

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// General-purpose timer register offsets
const (
	timCR1   = 0x00
	timSMCR  = 0x08
	timSR    = 0x10
	timEGR   = 0x14
	timCCMR1 = 0x18
	timCCER  = 0x20
	timPSC   = 0x28
	timARR   = 0x2C
	timCCR1  = 0x34
)

// Timer bits
const (
	timCR1CEN = 1 << 0
	timCR1URS = 1 << 2

	timSMCRSMSReset = 4 << 0 // slave reset mode
	timSMCRTSTI1FED = 4 << 4 // trigger on any TI1 edge

	timCCMR1OC1PE      = 1 << 3
	timCCMR1OC1MPWM2   = 7 << 4
	timCCMR1CC2SInTI1  = 2 << 8
	timCCMR1IC2FCKIntN = 3 << 12 // 8 samples at the timer clock

	timCCERCC1E = 1 << 0
	timCCERCC2E = 1 << 4
	timCCERCC2P = 1 << 5

	timSRUIF   = 1 << 0
	timSRCC1IF = 1 << 1
	timSRCC2IF = 1 << 2

	timEGRUG = 1 << 0
)

// GPIO input data register
const gpioIDR = 0x10

// USART bits common to both register layouts
const (
	usartCR3HDSEL = 1 << 3
	usartCR1TE    = 1 << 3
	usartCR1RE    = 1 << 2
	usartFE       = 1 << 1
	usartRXNE     = 1 << 5
	usartTC       = 1 << 6
	usartTXE      = 1 << 7
)
