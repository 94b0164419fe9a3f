// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/bootlink/pkg/bootio"
)

const testTimeout = 50 * time.Millisecond

// fakeLine is the remote end of a host connection. Bytes written by the remote
// come out of Read; bytes written by the host are recorded and optionally
// reflected back like a single-wire adapter does.
type fakeLine struct {
	rd *io.PipeReader
	wr *io.PipeWriter

	mu   sync.Mutex
	sent bytes.Buffer
	echo bool
}

func newFakeLine(echo bool) *fakeLine {
	rd, wr := io.Pipe()
	return &fakeLine{rd: rd, wr: wr, echo: echo}
}

func (f *fakeLine) Read(p []byte) (int, error) {
	return f.rd.Read(p)
}

func (f *fakeLine) Write(p []byte) (int, error) {
	f.mu.Lock()
	f.sent.Write(p)
	f.mu.Unlock()
	if f.echo {
		if _, err := f.wr.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// remote sends bytes from the programmer side.
func (f *fakeLine) remote(t *testing.T, data ...byte) {
	t.Helper()
	_, err := f.wr.Write(data)
	require.NoError(t, err)
}

func (f *fakeLine) Sent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.sent.Bytes()...)
}

func (f *fakeLine) Close() error {
	return f.wr.Close()
}

func TestPortRecv(t *testing.T) {
	line := newFakeLine(false)
	defer line.Close()
	port := Open(line, testTimeout)

	line.remote(t, 1, 2, 3)
	buf := make([]byte, 3)
	require.NoError(t, port.Recv(buf))
	assert.Equal(t, []byte{1, 2, 3}, buf)
}

func TestPortRecvTimeout(t *testing.T) {
	line := newFakeLine(false)
	defer line.Close()
	port := Open(line, testTimeout)

	line.remote(t, 1)
	start := time.Now()
	err := port.Recv(make([]byte, 2))
	assert.ErrorIs(t, err, bootio.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), testTimeout)
}

func TestPortRecvClosed(t *testing.T) {
	line := newFakeLine(false)
	port := Open(line, time.Second)

	require.NoError(t, line.Close())
	err := port.Recv(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, bootio.ErrTimeout)
	assert.ErrorIs(t, port.Err(), io.EOF)
}

func TestPortCloseStopsFullReader(t *testing.T) {
	line := newFakeLine(false)
	port := Open(line, testTimeout)

	// Nobody receives, so the queue fills and the reader blocks on it
	go line.wr.Write(make([]byte, rxQueue+256))
	require.Eventually(t, func() bool { return len(port.rx) == rxQueue },
		time.Second, time.Millisecond)

	require.NoError(t, port.Close())
	assert.ErrorIs(t, port.Recv(make([]byte, 1)), ErrClosed)
	assert.ErrorIs(t, port.Err(), ErrClosed)

	stopped := make(chan struct{})
	go func() {
		for range port.rx {
		}
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("reader still running after Close")
	}

	assert.NoError(t, port.Close(), "second Close")
}

func TestPortEchoSuppressed(t *testing.T) {
	line := newFakeLine(true)
	defer line.Close()
	port := Open(line, testTimeout, WithEcho(true))
	tr := bootio.New(port)

	tr.SendVal(0x10)
	assert.Equal(t, []byte{0x10, 0xEF}, line.Sent())

	line.remote(t, 0x20, 0xDF)
	v, err := tr.RecvVal()
	require.NoError(t, err)
	assert.Equal(t, byte(0x20), v)
}

func TestPortEchoKeepsTimeoutArmed(t *testing.T) {
	const window = 20 * time.Millisecond
	line := newFakeLine(false)
	defer line.Close()
	port := Open(line, window, WithEcho(true))

	sent := make([]byte, 64)
	port.Send(sent)

	// The echo trickles back far slower than one window in total, but
	// never with a gap longer than a tenth of it
	go func() {
		for _, b := range sent {
			if _, err := line.wr.Write([]byte{b}); err != nil {
				return
			}
			time.Sleep(window / 10)
		}
		line.wr.Write([]byte{0x42})
	}()

	start := time.Now()
	buf := make([]byte, 1)
	require.NoError(t, port.Recv(buf))
	assert.Equal(t, byte(0x42), buf[0])
	assert.Greater(t, time.Since(start), window)
}

func TestPortEchoNotSuppressed(t *testing.T) {
	line := newFakeLine(true)
	defer line.Close()
	port := Open(line, testTimeout)
	tr := bootio.New(port)

	tr.SendVal(0x10)
	v, err := tr.RecvVal()
	require.NoError(t, err)
	assert.Equal(t, byte(0x10), v, "own value frame read back")
}

func TestPortBlockFrame(t *testing.T) {
	line := newFakeLine(false)
	defer line.Close()
	tr := bootio.New(Open(line, testTimeout))

	payload := bytes.Repeat([]byte{0xA5, 0x5A}, 512)
	wire := []byte{0xFF, 0x00}
	wire = append(wire, payload...)
	wire = binary.LittleEndian.AppendUint32(wire, crc32.ChecksumIEEE(payload))
	line.remote(t, wire...)

	buf := make([]byte, bootio.MaxBlockSize)
	n, err := tr.RecvData(buf)
	require.NoError(t, err)
	assert.Equal(t, 1024, n)
	assert.Equal(t, payload, buf[:n])

	require.NoError(t, tr.SendData(payload[:8]))
	sent := line.Sent()
	require.Len(t, sent, 2+8+4)
	assert.Equal(t, []byte{0x01, 0xFE}, sent[:2])
}

type brokenWriter struct {
	io.Reader
}

func (brokenWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestPortSendError(t *testing.T) {
	rd, wr := io.Pipe()
	defer wr.Close()
	port := Open(brokenWriter{rd}, testTimeout)

	port.Send([]byte{1})
	assert.ErrorIs(t, port.Err(), io.ErrClosedPipe)
}

func TestDeadline(t *testing.T) {
	now := time.Unix(0, 0)
	d := NewDeadline()
	d.now = func() time.Time { return now }
	d.Configure(500 * time.Millisecond)
	d.Reload()

	now = now.Add(499 * time.Millisecond)
	assert.False(t, d.Elapsed())
	now = now.Add(time.Millisecond)
	assert.True(t, d.Elapsed())

	d.Reload()
	assert.False(t, d.Elapsed())
}
