//go:build (tinygo || baremetal) && !usartv1

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

// USART register layout with separate status, clear and data registers
// (STM32F0, G0, L0).
const (
	usartCR1 = 0x00
	usartCR3 = 0x08
	usartBRR = 0x0C
	usartISR = 0x1C
	usartICR = 0x20
	usartRDR = 0x24
	usartTDR = 0x28

	usartCR1UE = 1 << 0
)

func (u *USART) clearFraming() {
	reg(u.base + usartICR).Set(usartFE)
}
