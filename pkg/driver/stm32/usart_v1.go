//go:build (tinygo || baremetal) && usartv1

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

// USART register layout with one status register and one data register
// (STM32F1, F4). Status and data are aliased onto the names of the newer
// layout.
const (
	usartSR  = 0x00
	usartDR  = 0x04
	usartBRR = 0x08
	usartCR1 = 0x0C
	usartCR3 = 0x14

	usartISR = usartSR
	usartRDR = usartDR
	usartTDR = usartDR

	usartCR1UE = 1 << 13
)

func (u *USART) clearFraming() {
	reg(u.base + usartSR).Set(^uint32(usartFE))
}
