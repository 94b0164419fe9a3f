// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/bootlink/pkg/bootio"
)

func fixedClock() func() time.Time {
	t := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func TestWriterReader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.now = fixedClock()

	payload := []byte{1, 2, 3, 4}
	events := []bootio.Event{
		{Dir: bootio.DirSend, Kind: bootio.KindValue, Value: 0x31},
		{Dir: bootio.DirRecv, Kind: bootio.KindBlock, Value: 0x00, Payload: payload},
		{Dir: bootio.DirRecv, Kind: bootio.KindBlock, Value: 0x03, Err: fmt.Errorf("checksum: %w", bootio.ErrTimeout)},
	}
	for _, e := range events {
		w.Observe(e)
	}
	require.NoError(t, w.Err())
	assert.Equal(t, 3, w.Count())

	// the trace owns its copy of the payload
	payload[0] = 0xEE

	r := NewReader(&buf)
	var got []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, rec)
	}
	require.Len(t, got, 3)

	assert.Equal(t, uint8(bootio.DirSend), got[0].Dir)
	assert.Equal(t, uint8(0x31), got[0].Value)
	assert.Empty(t, got[0].Payload)
	assert.Empty(t, got[0].ErrKind)

	assert.Equal(t, []byte{1, 2, 3, 4}, got[1].Payload)
	assert.True(t, got[1].At().After(got[0].At()))

	ev := got[2].Event()
	assert.Equal(t, bootio.KindBlock, ev.Kind)
	assert.True(t, errors.Is(ev.Err, bootio.ErrTimeout))
	assert.Equal(t, "checksum: "+bootio.ErrTimeout.Error(), ev.Err.Error())
	assert.Equal(t, "TIMEOUT", bootio.FormatErrorKind(ev.Err))
}

func TestRecordIntegerKeys(t *testing.T) {
	data, err := cbor.Marshal(Record{Time: 1, Dir: 1, Kind: 0, Value: 7})
	require.NoError(t, err)

	var m map[int]interface{}
	require.NoError(t, cbor.Unmarshal(data, &m))
	assert.Contains(t, m, 0)
	assert.Contains(t, m, 3)
	assert.NotContains(t, m, 4, "empty payload omitted")
	assert.NotContains(t, m, 5, "no error kind on success")
}

func TestUnknownErrorKind(t *testing.T) {
	ev := Record{ErrKind: "ERROR", ErrMsg: "line busy"}.Event()
	require.Error(t, ev.Err)
	assert.Equal(t, "line busy", ev.Err.Error())
	assert.Equal(t, "ERROR", bootio.FormatErrorKind(ev.Err))
}

func TestReplay(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for i := 0; i < 5; i++ {
		require.NoError(t, w.Write(Record{Value: uint8(i)}))
	}

	var values []uint8
	n, err := Replay(&buf, func(rec Record) error {
		values = append(values, rec.Value)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []uint8{0, 1, 2, 3, 4}, values)
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Write(Record{}))
	}

	stop := errors.New("stop")
	n, err := Replay(&buf, func(Record) error { return stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestReplayTruncated(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(Record{Payload: []byte{1, 2, 3, 4}}))
	data := buf.Bytes()

	_, err := Replay(bytes.NewReader(data[:len(data)-2]), func(Record) error { return nil })
	assert.Error(t, err)
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterKeepsFirstError(t *testing.T) {
	w := NewWriter(failWriter{})
	w.Observe(bootio.Event{})
	w.Observe(bootio.Event{})
	assert.Error(t, w.Err())
	assert.Equal(t, 0, w.Count())
}
