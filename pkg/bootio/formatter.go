// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FormatErrorKind returns the short name of a transport error.
func FormatErrorKind(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrFraming):
		return "FRAMING"
	case errors.Is(err, ErrChecksum):
		return "CHECKSUM"
	case errors.Is(err, ErrBlockLength):
		return "BLOCK_LENGTH"
	case errors.Is(err, ErrShortBuffer):
		return "SHORT_BUFFER"
	default:
		return "ERROR"
	}
}

// FormatEvent formats a frame event into a human-readable string
func FormatEvent(e Event) string {
	return FormatEventAt(time.Now(), e)
}

// FormatEventAt formats a frame event stamped with t.
func FormatEventAt(t time.Time, e Event) string {
	timestamp := t.Format("15:04:05.000")

	if e.Err != nil {
		return fmt.Sprintf("[%s] %s %s %s: %v\n", timestamp, e.Dir, e.Kind, FormatErrorKind(e.Err), e.Err)
	}

	switch e.Kind {
	case KindValue:
		return fmt.Sprintf("[%s] %s VALUE 0x%02X (%d)\n", timestamp, e.Dir, e.Value, e.Value)
	case KindBlock:
		result := fmt.Sprintf("[%s] %s BLOCK code=0x%02X len=%d\n", timestamp, e.Dir, e.Value, BlockLength(e.Value))
		return result + FormatPayload(e.Payload)
	default:
		return fmt.Sprintf("[%s] %s UNKNOWN\n", timestamp, e.Dir)
	}
}

// FormatPayload returns a hex dump of data, 16 bytes per row.
func FormatPayload(data []byte) string {
	var b strings.Builder
	b.WriteString("  Payload: ")
	for i, v := range data {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n           ")
		}
		fmt.Fprintf(&b, "%02X ", v)
	}
	b.WriteString("\n")
	return b.String()
}
