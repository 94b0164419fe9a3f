// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

import "fmt"

// Option configures a Transport.
type Option func(*Transport)

// WithChecksum replaces the block checksum (CRC32 by default).
func WithChecksum(fn ChecksumFunc) Option {
	return func(t *Transport) {
		t.checksum = fn
	}
}

// WithObserver attaches an observer notified after every frame operation.
func WithObserver(o Observer) Option {
	return func(t *Transport) {
		t.observer = o
	}
}

// Transport frames values and blocks on top of a physical layer.
//
// A Transport is not safe for concurrent use: the caller serializes whole
// request/response exchanges.
type Transport struct {
	link     Link
	checksum ChecksumFunc
	observer Observer

	val [ValueFrameSize]byte
	crc [ChecksumSize]byte
}

// New creates a transport over link.
func New(link Link, opts ...Option) *Transport {
	t := &Transport{
		link:     link,
		checksum: CRC32,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Recv receives exactly len(buf) raw bytes.
func (t *Transport) Recv(buf []byte) error {
	return t.link.Recv(buf)
}

// Send transmits raw bytes.
func (t *Transport) Send(buf []byte) {
	t.link.Send(buf)
}

// SendVal transmits v followed by its complement.
func (t *Transport) SendVal(v byte) {
	t.sendVal(v)
	t.notify(Event{Dir: DirSend, Kind: KindValue, Value: v})
}

func (t *Transport) sendVal(v byte) {
	t.val[0], t.val[1] = v, ^v
	t.link.Send(t.val[:])
}

// RecvVal receives a value frame. Only the complement relation is checked.
func (t *Transport) RecvVal() (byte, error) {
	v, err := t.recvVal()
	t.notify(Event{Dir: DirRecv, Kind: KindValue, Value: v, Err: err})
	return v, err
}

func (t *Transport) recvVal() (byte, error) {
	if err := t.link.Recv(t.val[:]); err != nil {
		return 0, err
	}
	v, c := t.val[0], t.val[1]
	if v^c != complementMask {
		return v, fmt.Errorf("%w: value 0x%02X, complement 0x%02X", ErrChecksum, v, c)
	}
	return v, nil
}

// SendData transmits buf as a block frame. The length must be a multiple of
// four between 4 and 1024; otherwise nothing is sent.
func (t *Transport) SendData(buf []byte) error {
	code, err := LengthCode(len(buf))
	if err != nil {
		return err
	}
	putChecksum(t.crc[:], t.checksum(buf))
	t.sendVal(code)
	t.link.Send(buf)
	t.link.Send(t.crc[:])
	t.notify(Event{Dir: DirSend, Kind: KindBlock, Value: code, Payload: buf})
	return nil
}

// RecvData receives a block frame into buf and returns the payload length.
// buf must hold MaxBlockSize bytes since the length is only known once the
// frame arrives. On error the content of buf is undefined.
func (t *Transport) RecvData(buf []byte) (int, error) {
	if len(buf) < MaxBlockSize {
		return 0, ErrShortBuffer
	}
	code, n, err := t.recvData(buf)
	ev := Event{Dir: DirRecv, Kind: KindBlock, Value: code, Err: err}
	if err == nil {
		ev.Payload = buf[:n]
	}
	t.notify(ev)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (t *Transport) recvData(buf []byte) (byte, int, error) {
	code, err := t.recvVal()
	if err != nil {
		return code, 0, fmt.Errorf("length code: %w", err)
	}
	n := BlockLength(code)
	if err := t.link.Recv(buf[:n]); err != nil {
		return code, 0, fmt.Errorf("payload: %w", err)
	}
	if err := t.link.Recv(t.crc[:]); err != nil {
		return code, 0, fmt.Errorf("checksum: %w", err)
	}
	got, want := getChecksum(t.crc[:]), t.checksum(buf[:n])
	if got != want {
		return code, 0, fmt.Errorf("%w: received 0x%08X, computed 0x%08X", ErrChecksum, got, want)
	}
	return code, n, nil
}

func (t *Transport) notify(e Event) {
	if t.observer != nil {
		t.observer.Observe(e)
	}
}
