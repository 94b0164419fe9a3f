// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// serialPollTimeout bounds each driver read so a blocked Read notices Close.
const serialPollTimeout = 50 * time.Millisecond

// serialPort is the part of serial.Port a connection needs
type serialPort interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
}

// SerialConnection is an adapter wired to the single-wire line
type SerialConnection struct {
	port   serialPort
	closed atomic.Bool
}

func openSerial(name string, baud int) (*SerialConnection, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", name, err)
	}

	s, err := newSerialConnection(port)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("serial port %s: %v", name, err)
	}
	return s, nil
}

func newSerialConnection(port serialPort) (*SerialConnection, error) {
	if err := port.SetReadTimeout(serialPollTimeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	// Whatever the adapter buffered before we opened it (boot noise, a
	// half-sent frame) must not become the first byte of a frame
	if err := port.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("failed to flush input: %w", err)
	}
	return &SerialConnection{port: port}, nil
}

// Read blocks until at least one byte arrives or the connection is closed.
func (s *SerialConnection) Read(p []byte) (int, error) {
	for {
		n, err := s.port.Read(p)
		if s.closed.Load() {
			return 0, ErrConnectionClosed
		}
		if err != nil {
			return n, closedError(err)
		}
		if n > 0 {
			return n, nil
		}
		// Poll timeout with a quiet line
	}
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrConnectionClosed
	}
	n, err := s.port.Write(p)
	if err != nil {
		return n, closedError(err)
	}
	return n, nil
}

// Close releases the port. A Read blocked in the driver returns within one
// poll timeout.
func (s *SerialConnection) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.port.Close()
}
