// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

import "fmt"

// ValidateBlockLength checks that n is a payload length a block frame can carry.
func ValidateBlockLength(n int) error {
	if n < MinBlockSize || n > MaxBlockSize || n%BlockAlign != 0 {
		return fmt.Errorf("%w: %d", ErrBlockLength, n)
	}
	return nil
}

// LengthCode returns the wire code for a payload of n bytes.
func LengthCode(n int) (byte, error) {
	if err := ValidateBlockLength(n); err != nil {
		return 0, err
	}
	return byte(n/BlockAlign - 1), nil
}

// BlockLength returns the payload length announced by a wire code.
func BlockLength(code byte) int {
	return (int(code) + 1) * BlockAlign
}

// PadBlock returns data extended with erased-flash filler to the next
// multiple of four bytes. The input is returned as is when already aligned.
func PadBlock(data []byte) []byte {
	rem := len(data) % BlockAlign
	if rem == 0 {
		return data
	}
	padded := make([]byte, len(data)+BlockAlign-rem)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = BlockPadFiller
	}
	return padded
}
