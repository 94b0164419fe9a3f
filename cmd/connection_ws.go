// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsDialTimeout      = 15 * time.Second
	wsCloseGrace       = time.Second
)

// WebSocketConnection is a bridge that relays line bytes in binary messages.
// Message boundaries carry no meaning; a frame may span several messages.
type WebSocketConnection struct {
	conn   *websocket.Conn
	msg    io.Reader // unread part of the current binary message
	failed error     // gorilla must not be read again after an error
	closed atomic.Bool
}

func dialWebSocket(rawURL, username, password string, insecure bool) (*WebSocketConnection, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: insecure}
	}

	header := http.Header{}
	if username != "" && password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		header.Set("Authorization", "Basic "+token)
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsDialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}
	return &WebSocketConnection{conn: conn}, nil
}

// Read streams binary messages as one byte stream and skips anything else.
func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.failed != nil {
		return 0, w.failed
	}
	for {
		if w.msg == nil {
			typ, r, err := w.conn.NextReader()
			if err != nil {
				return 0, w.fail(err)
			}
			if typ != websocket.BinaryMessage {
				continue
			}
			w.msg = r
		}

		n, err := w.msg.Read(p)
		if err == io.EOF {
			w.msg = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		if err != nil {
			return n, w.fail(err)
		}
		return n, nil
	}
}

func (w *WebSocketConnection) fail(err error) error {
	if w.closed.Load() {
		w.failed = ErrConnectionClosed
	} else {
		w.failed = closedError(err)
	}
	return w.failed
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, ErrConnectionClosed
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, closedError(err)
	}
	return len(p), nil
}

// Close says goodbye to the bridge and drops the connection, which unblocks
// a pending Read.
func (w *WebSocketConnection) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, bye, time.Now().Add(wsCloseGrace))
	return w.conn.Close()
}
