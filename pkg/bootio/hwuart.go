// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

// HardwareUART is the physical layer backed by a UART peripheral in
// single-wire half-duplex mode.
type HardwareUART struct {
	uart    UART
	timeout *Supervisor
}

// NewHardwareUART programs the bit period and enables both directions.
func NewHardwareUART(u UART, timeout *Supervisor, cfg Config) *HardwareUART {
	u.Configure(cfg.BitTicks())
	u.Enable(true, true)
	return &HardwareUART{uart: u, timeout: timeout}
}

// Recv implements Link.
func (h *HardwareUART) Recv(buf []byte) error {
	h.timeout.Arm()
	h.uart.ClearFraming()
	for i := range buf {
		for h.uart.Status()&StatusRXNE == 0 {
			if h.timeout.Expired() {
				return ErrTimeout
			}
		}
		buf[i] = h.uart.Read()
		if h.uart.Status()&StatusFE != 0 {
			return ErrFraming
		}
		h.timeout.Arm()
	}
	return nil
}

// Send implements Link. The receiver is off while transmitting so the shared
// line does not echo our own bytes back.
func (h *HardwareUART) Send(buf []byte) {
	h.uart.Enable(true, false)
	for _, b := range buf {
		for h.uart.Status()&StatusTXE == 0 {
		}
		h.uart.Write(b)
	}
	for h.uart.Status()&StatusTC == 0 {
	}
	h.uart.Enable(true, true)
}
