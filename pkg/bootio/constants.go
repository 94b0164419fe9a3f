// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package bootio implements the host-communication transport of the bootloader.
//
// The transport runs over a single half-duplex wire, either through a hardware
// UART or through a UART emulated with a general-purpose timer. On top of the
// byte transport it provides two datagrams:
//
//	Value frame:  value | ^value
//	Block frame:  code | ^code | payload (4..1024 bytes) | CRC-32 (LE)
//
// where the payload length is (code+1)*4. Every operation blocks the caller and
// busy-waits on the peripherals; the only way out of a stalled receive is the
// per-byte inactivity timeout.
package bootio

import "time"

// Line framing
const (
	DataBits  = 8
	FrameBits = 1 + DataBits + 1 // start + data + stop
)

// Defaults
const (
	DefaultClockHz = 48000000
	DefaultBitRate = 38400
	DefaultTimeout = 500 * time.Millisecond
)

// Countdown resolution of the timeout timer. The countdown is 16 bits wide.
const (
	TimeoutResolution = 100 * time.Microsecond
	MaxTimeout        = 65535 * TimeoutResolution
)

// Value frame
const (
	ValueFrameSize = 2
	complementMask = 0xFF
)

// Block frame
const (
	BlockAlign     = 4
	MinBlockSize   = BlockAlign
	MaxBlockSize   = 256 * BlockAlign // 1024
	ChecksumSize   = 4
	MinLengthCode  = 0x00
	MaxLengthCode  = 0xFF
	BlockPadFiller = 0xFF // erased flash
)
