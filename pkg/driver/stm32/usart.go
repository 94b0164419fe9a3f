//go:build tinygo || baremetal

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import "github.com/Thermoquad/bootlink/pkg/bootio"

// USART is a USART in single-wire half-duplex mode.
type USART struct {
	base uintptr
}

var _ bootio.UART = (*USART)(nil)

// USART2 is the USART on PA2.
var USART2 = &USART{base: usart2Base}

// Configure implements bootio.UART.
func (u *USART) Configure(bitTicks uint32) {
	reg(u.base + usartBRR).Set(bitTicks)
	reg(u.base + usartCR3).Set(usartCR3HDSEL)
}

// Enable implements bootio.UART.
func (u *USART) Enable(tx, rx bool) {
	cr1 := uint32(usartCR1UE)
	if tx {
		cr1 |= usartCR1TE
	}
	if rx {
		cr1 |= usartCR1RE
	}
	reg(u.base + usartCR1).Set(cr1)
}

// Status implements bootio.UART.
func (u *USART) Status() bootio.UARTStatus {
	isr := reg(u.base + usartISR).Get()
	var s bootio.UARTStatus
	if isr&usartRXNE != 0 {
		s |= bootio.StatusRXNE
	}
	if isr&usartTXE != 0 {
		s |= bootio.StatusTXE
	}
	if isr&usartTC != 0 {
		s |= bootio.StatusTC
	}
	if isr&usartFE != 0 {
		s |= bootio.StatusFE
	}
	return s
}

// ClearFraming implements bootio.UART.
func (u *USART) ClearFraming() {
	u.clearFraming()
}

// Read implements bootio.UART.
func (u *USART) Read() byte {
	return byte(reg(u.base + usartRDR).Get())
}

// Write implements bootio.UART.
func (u *USART) Write(b byte) {
	reg(u.base + usartTDR).Set(uint32(b))
}
