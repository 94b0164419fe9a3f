// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

import (
	"encoding/binary"
	"hash/crc32"
)

// ChecksumFunc computes the 32-bit block trailer over a payload.
type ChecksumFunc func(data []byte) uint32

// CRC32 is the standard (IEEE 802.3) CRC-32.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// putChecksum stores the trailer in the byte order the firmware writes it:
// the little-endian memory image of the 32-bit value.
func putChecksum(b []byte, crc uint32) {
	binary.LittleEndian.PutUint32(b, crc)
}

func getChecksum(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}
