// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame counts and error rates. It implements Observer and
// is not safe for concurrent use.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Received frames
	TotalFrames    uint64
	ValidFrames    uint64
	ValueFrames    uint64
	BlockFrames    uint64
	Timeouts       uint64
	FramingErrors  uint64
	ChecksumErrors uint64
	OtherErrors    uint64

	// Sent frames
	SentFrames uint64

	// Payload bytes of blocks
	BytesIn  uint64
	BytesOut uint64

	// Rates (calculated)
	FrameRate float64 // received frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Observe implements Observer.
func (s *Statistics) Observe(e Event) {
	s.LastUpdateTime = time.Now()

	if e.Dir == DirSend {
		s.SentFrames++
		s.BytesOut += uint64(len(e.Payload))
		return
	}

	s.TotalFrames++
	if e.Err != nil {
		switch {
		case errors.Is(e.Err, ErrTimeout):
			s.Timeouts++
		case errors.Is(e.Err, ErrFraming):
			s.FramingErrors++
		case errors.Is(e.Err, ErrChecksum):
			s.ChecksumErrors++
		default:
			s.OtherErrors++
		}
		return
	}

	s.ValidFrames++
	switch e.Kind {
	case KindValue:
		s.ValueFrames++
	case KindBlock:
		s.BlockFrames++
		s.BytesIn += uint64(len(e.Payload))
	}
}

// Errors returns the number of failed receive operations.
func (s *Statistics) Errors() uint64 {
	return s.Timeouts + s.FramingErrors + s.ChecksumErrors + s.OtherErrors
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, timeoutPercent, framingPercent, checksumPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		timeoutPercent = float64(s.Timeouts) * 100.0 / float64(s.TotalFrames)
		framingPercent = float64(s.FramingErrors) * 100.0 / float64(s.TotalFrames)
		checksumPercent = float64(s.ChecksumErrors) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Received Frames: %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)
	result += fmt.Sprintf("  Values:           %5d\n", s.ValueFrames)
	result += fmt.Sprintf("  Blocks:           %5d (%d bytes)\n", s.BlockFrames, s.BytesIn)

	if s.Timeouts > 0 {
		result += fmt.Sprintf("Timeouts:        %8d (%.1f%%)\n", s.Timeouts, timeoutPercent)
	}
	if s.FramingErrors > 0 {
		result += fmt.Sprintf("Framing Errors:  %8d (%.1f%%)\n", s.FramingErrors, framingPercent)
	}
	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors, checksumPercent)
	}
	if s.OtherErrors > 0 {
		result += fmt.Sprintf("Other Errors:    %8d\n", s.OtherErrors)
	}
	if s.SentFrames > 0 {
		result += fmt.Sprintf("Sent Frames:     %8d (%d bytes)\n", s.SentFrames, s.BytesOut)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
