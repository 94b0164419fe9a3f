// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

import "errors"

// Line errors. No layer retries; recovery belongs to the caller.
var (
	ErrTimeout  = errors.New("timeout: no byte within the inactivity window")
	ErrFraming  = errors.New("framing error")
	ErrChecksum = errors.New("checksum mismatch")
)

// Caller errors, reported before anything touches the line.
var (
	ErrBlockLength = errors.New("invalid block length (multiple of 4, 4 to 1024)")
	ErrShortBuffer = errors.New("receive buffer shorter than 1024 bytes")
)
