//go:build (tinygo || baremetal) && !io_pa2

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package stm32

import "github.com/Thermoquad/bootlink/pkg/bootio"

// NewLink returns the bit-banged physical layer on TIM3 channel 1.
func NewLink(cfg bootio.Config) bootio.Link {
	timeout := bootio.NewSupervisor(NewTIM14(cfg.ClockHz), cfg.Timeout)
	return bootio.NewBitBang(TIM3, timeout, cfg)
}
