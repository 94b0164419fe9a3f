// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package trace records transport events as a stream of CBOR items and plays
// them back.
//
// Each frame operation becomes one CBOR map with small integer keys, so a
// trace can be appended to while it is being read and inspected with any
// CBOR tool.
package trace

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/bootlink/pkg/bootio"
)

// Record is one traced frame operation.
type Record struct {
	Time    int64  `cbor:"0,keyasint"` // unix nanoseconds
	Dir     uint8  `cbor:"1,keyasint"`
	Kind    uint8  `cbor:"2,keyasint"`
	Value   uint8  `cbor:"3,keyasint"`
	Payload []byte `cbor:"4,keyasint,omitempty"`
	ErrKind string `cbor:"5,keyasint,omitempty"`
	ErrMsg  string `cbor:"6,keyasint,omitempty"`
}

// NewRecord captures an event stamped with t. The payload is copied.
func NewRecord(t time.Time, e bootio.Event) Record {
	rec := Record{
		Time:  t.UnixNano(),
		Dir:   uint8(e.Dir),
		Kind:  uint8(e.Kind),
		Value: e.Value,
	}
	if len(e.Payload) > 0 {
		rec.Payload = append([]byte(nil), e.Payload...)
	}
	if e.Err != nil {
		rec.ErrKind = bootio.FormatErrorKind(e.Err)
		rec.ErrMsg = e.Err.Error()
	}
	return rec
}

// At returns the record timestamp.
func (r Record) At() time.Time {
	return time.Unix(0, r.Time)
}

// Event rebuilds the transport event. Errors match the transport sentinels
// with errors.Is and keep their original message.
func (r Record) Event() bootio.Event {
	e := bootio.Event{
		Dir:     bootio.Direction(r.Dir),
		Kind:    bootio.FrameKind(r.Kind),
		Value:   r.Value,
		Payload: r.Payload,
	}
	if r.ErrKind != "" {
		e.Err = &tracedError{kind: sentinel(r.ErrKind), msg: r.ErrMsg}
	}
	return e
}

type tracedError struct {
	kind error
	msg  string
}

func (e *tracedError) Error() string { return e.msg }
func (e *tracedError) Unwrap() error { return e.kind }

func sentinel(kind string) error {
	switch kind {
	case "TIMEOUT":
		return bootio.ErrTimeout
	case "FRAMING":
		return bootio.ErrFraming
	case "CHECKSUM":
		return bootio.ErrChecksum
	case "BLOCK_LENGTH":
		return bootio.ErrBlockLength
	case "SHORT_BUFFER":
		return bootio.ErrShortBuffer
	default:
		return nil
	}
}

// Writer appends records to a stream. It implements bootio.Observer; the
// first write error is kept and later events are dropped.
type Writer struct {
	enc *cbor.Encoder
	now func() time.Time
	n   int
	err error
}

// NewWriter creates a trace writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w), now: time.Now}
}

// Observe implements bootio.Observer.
func (w *Writer) Observe(e bootio.Event) {
	if w.err != nil {
		return
	}
	w.err = w.Write(NewRecord(w.now(), e))
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode trace record: %w", err)
	}
	w.n++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.n
}

// Err returns the first error hit by Observe.
func (w *Writer) Err() error {
	return w.err
}

// Reader decodes records from a stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a trace reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at a clean end of stream.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return rec, io.EOF
		}
		return rec, fmt.Errorf("failed to decode trace record: %w", err)
	}
	return rec, nil
}

// Replay feeds every record of r to fn in order and returns how many were
// read.
func Replay(r io.Reader, fn func(Record) error) (int, error) {
	tr := NewReader(r)
	n := 0
	for {
		rec, err := tr.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
		if err := fn(rec); err != nil {
			return n, err
		}
	}
}
