// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
	"github.com/Thermoquad/bootlink/pkg/driver/link"
	"github.com/gorilla/websocket"
)

// =============================================================================
// Serial
// =============================================================================

// fakeSerial returns queued reads, or (0, nil) like a driver read timeout
type fakeSerial struct {
	mu          sync.Mutex
	reads       [][]byte
	readErr     error
	flushed     bool
	readTimeout time.Duration
	closed      bool
}

func (f *fakeSerial) Read(p []byte) (int, error) {
	time.Sleep(time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reads) > 0 {
		n := copy(p, f.reads[0])
		f.reads = f.reads[1:]
		return n, nil
	}
	return 0, f.readErr
}

func (f *fakeSerial) Write(p []byte) (int, error) { return len(p), nil }

func (f *fakeSerial) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSerial) ResetInputBuffer() error {
	f.flushed = true
	return nil
}

func (f *fakeSerial) SetReadTimeout(t time.Duration) error {
	f.readTimeout = t
	return nil
}

func (f *fakeSerial) queue(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, b)
}

func TestSerialConnection_FlushesOnOpen(t *testing.T) {
	port := &fakeSerial{}
	if _, err := newSerialConnection(port); err != nil {
		t.Fatalf("newSerialConnection: %v", err)
	}
	if !port.flushed {
		t.Error("stale input not flushed")
	}
	if port.readTimeout != serialPollTimeout {
		t.Errorf("read timeout = %v, want %v", port.readTimeout, serialPollTimeout)
	}
}

func TestSerialConnection_ReadSkipsPollTimeouts(t *testing.T) {
	port := &fakeSerial{}
	conn, err := newSerialConnection(port)
	if err != nil {
		t.Fatalf("newSerialConnection: %v", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		port.queue([]byte{0x5A})
	}()

	buf := make([]byte, 4)
	n, err := conn.Read(buf)
	if err != nil || n != 1 || buf[0] != 0x5A {
		t.Fatalf("Read = %d, %v (% X), want 1 byte 5A", n, err, buf[:n])
	}
}

func TestSerialConnection_CloseUnblocksRead(t *testing.T) {
	port := &fakeSerial{}
	conn, err := newSerialConnection(port)
	if err != nil {
		t.Fatalf("newSerialConnection: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := conn.Read(make([]byte, 1))
		done <- err
	}()
	time.Sleep(5 * time.Millisecond)

	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrConnectionClosed) {
			t.Errorf("Read after Close = %v, want ErrConnectionClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read still blocked after Close")
	}

	if _, err := conn.Write([]byte{1}); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Write after Close = %v, want ErrConnectionClosed", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSerialConnection_DriverErrorIsPermanent(t *testing.T) {
	unplugged := errors.New("device not configured")
	conn, err := newSerialConnection(&fakeSerial{readErr: unplugged})
	if err != nil {
		t.Fatalf("newSerialConnection: %v", err)
	}

	_, err = conn.Read(make([]byte, 1))
	if !errors.Is(err, ErrConnectionClosed) || !errors.Is(err, unplugged) {
		t.Errorf("Read = %v, want ErrConnectionClosed wrapping the driver error", err)
	}
}

// =============================================================================
// WebSocket
// =============================================================================

// newBridge starts a WebSocket bridge running serve on each connection
func newBridge(t *testing.T, serve func(c *websocket.Conn, r *http.Request)) string {
	t.Helper()
	var upgrader websocket.Upgrader
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		serve(c, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketConnection_ByteStream(t *testing.T) {
	auth := make(chan string, 1)
	url := newBridge(t, func(c *websocket.Conn, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		auth <- user + ":" + pass

		c.WriteMessage(websocket.TextMessage, []byte("bridge ready"))
		c.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02, 0x03})
		c.WriteMessage(websocket.BinaryMessage, []byte{})
		c.WriteMessage(websocket.BinaryMessage, []byte{0x04})

		// Reflect one message, then hang up
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		c.WriteMessage(websocket.BinaryMessage, data)
		c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	})

	conn, err := dialWebSocket(url, "admin", "secret", false)
	if err != nil {
		t.Fatalf("dialWebSocket: %v", err)
	}
	defer conn.Close()

	if got := <-auth; got != "admin:secret" {
		t.Errorf("basic auth = %q, want admin:secret", got)
	}

	// Frames may span messages; text messages are not line bytes
	buf := make([]byte, 4)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(buf, []byte{1, 2, 3, 4}) {
		t.Errorf("read % X, want 01 02 03 04", buf)
	}

	if _, err := conn.Write([]byte{0xAA, 0x55}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := io.ReadFull(conn, buf[:2]); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(buf[:2], []byte{0xAA, 0x55}) {
		t.Errorf("read % X, want AA 55", buf[:2])
	}

	_, err = conn.Read(buf)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("Read after hang-up = %v, want ErrConnectionClosed", err)
	}
	if _, again := conn.Read(buf); again != err {
		t.Errorf("second Read = %v, want the same error %v", again, err)
	}
}

func TestWebSocketConnection_SessionSeesHangUp(t *testing.T) {
	url := newBridge(t, func(c *websocket.Conn, r *http.Request) {
		c.WriteMessage(websocket.BinaryMessage, []byte{0x10})
	})

	conn, err := dialWebSocket(url, "", "", false)
	if err != nil {
		t.Fatalf("dialWebSocket: %v", err)
	}
	port := link.Open(conn, 50*time.Millisecond)
	defer port.Close()
	s := &Session{Port: port, Transport: bootio.New(port)}

	_, err = s.Transport.RecvVal()
	if err == nil {
		t.Fatal("RecvVal succeeded on a half frame")
	}
	err = s.check(err)
	if !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("check = %v, want ErrConnectionClosed", err)
	}
	if !strings.Contains(err.Error(), "connection lost") {
		t.Errorf("check = %q, want a connection lost report", err)
	}
}

func TestDialWebSocket_RejectsScheme(t *testing.T) {
	for _, u := range []string{"http://localhost/ws", "localhost:8080", "ftp://x"} {
		if _, err := dialWebSocket(u, "", "", false); err == nil {
			t.Errorf("dialWebSocket(%q) succeeded", u)
		}
	}
}
