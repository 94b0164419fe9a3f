//go:build (tinygo || baremetal) && io_pa2

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import "github.com/Thermoquad/bootlink/pkg/bootio"

// NewLink returns the hardware UART physical layer on USART2 (PA2).
func NewLink(cfg bootio.Config) bootio.Link {
	timeout := bootio.NewSupervisor(NewTIM14(cfg.ClockHz), cfg.Timeout)
	return bootio.NewHardwareUART(USART2, timeout, cfg)
}
