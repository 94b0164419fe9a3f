// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestLengthCode(t *testing.T) {
	tests := []struct {
		n       int
		code    byte
		wantErr bool
	}{
		{4, 0x00, false},
		{8, 0x01, false},
		{512, 0x7F, false},
		{1020, 0xFE, false},
		{1024, 0xFF, false},
		{0, 0, true},
		{2, 0, true},
		{6, 0, true},
		{1025, 0, true},
		{1028, 0, true},
		{-4, 0, true},
	}

	for _, tt := range tests {
		code, err := LengthCode(tt.n)
		if tt.wantErr {
			if !errors.Is(err, ErrBlockLength) {
				t.Errorf("LengthCode(%d) error = %v, want ErrBlockLength", tt.n, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("LengthCode(%d) error: %v", tt.n, err)
			continue
		}
		if code != tt.code {
			t.Errorf("LengthCode(%d) = 0x%02X, want 0x%02X", tt.n, code, tt.code)
		}
	}
}

func TestBlockLength_InverseOfLengthCode(t *testing.T) {
	for c := MinLengthCode; c <= MaxLengthCode; c++ {
		n := BlockLength(byte(c))
		if n < MinBlockSize || n > MaxBlockSize || n%BlockAlign != 0 {
			t.Fatalf("BlockLength(0x%02X) = %d out of range", c, n)
		}
		code, err := LengthCode(n)
		if err != nil || code != byte(c) {
			t.Fatalf("LengthCode(BlockLength(0x%02X)) = 0x%02X, %v", c, code, err)
		}
	}
}

func TestPadBlock(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"aligned", []byte{1, 2, 3, 4}, []byte{1, 2, 3, 4}},
		{"one short", []byte{1, 2, 3}, []byte{1, 2, 3, 0xFF}},
		{"three short", []byte{1}, []byte{1, 0xFF, 0xFF, 0xFF}},
		{"five", []byte{1, 2, 3, 4, 5}, []byte{1, 2, 3, 4, 5, 0xFF, 0xFF, 0xFF}},
		{"empty", []byte{}, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadBlock(tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("PadBlock() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestChecksumByteOrder(t *testing.T) {
	var b [ChecksumSize]byte
	putChecksum(b[:], 0x11223344)
	if !bytes.Equal(b[:], []byte{0x44, 0x33, 0x22, 0x11}) {
		t.Errorf("putChecksum() = % X, want 44 33 22 11", b)
	}
	if got := getChecksum(b[:]); got != 0x11223344 {
		t.Errorf("getChecksum() = 0x%08X", got)
	}
}

func TestCRC32_KnownValue(t *testing.T) {
	if got := CRC32([]byte("123456789")); got != 0xCBF43926 {
		t.Errorf("CRC32(\"123456789\") = 0x%08X, want 0xCBF43926", got)
	}
}

// ============================================================
// Config Tests
// ============================================================

func TestConfig_Ticks(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.BitTicks(); got != 1250 {
		t.Errorf("BitTicks() = %d, want 1250", got)
	}
	if got := cfg.HalfBitTicks(); got != 625 {
		t.Errorf("HalfBitTicks() = %d, want 625", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"zero clock", Config{BitRate: 9600, Timeout: time.Second}, true},
		{"zero rate", Config{ClockHz: 8000000, Timeout: time.Second}, true},
		{"rate too high", Config{ClockHz: 1000000, BitRate: 115200, Timeout: time.Second}, true},
		{"timeout too short", Config{ClockHz: 8000000, BitRate: 9600, Timeout: 10 * time.Microsecond}, true},
		{"timeout too long", Config{ClockHz: 8000000, BitRate: 9600, Timeout: 10 * time.Second}, true},
		{"max timeout", Config{ClockHz: 8000000, BitRate: 9600, Timeout: MaxTimeout}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
