// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Connection is the host end of the single wire: a serial adapter on the
// line, or a WebSocket bridge in front of one.
//
// Read blocks until bytes arrive. Once the connection is closed, by either
// side, Read and Write fail with an error wrapping ErrConnectionClosed.
type Connection interface {
	io.ReadWriteCloser
}

// ErrConnectionClosed marks errors after which the connection is unusable.
var ErrConnectionClosed = errors.New("connection closed")

// closedError wraps the cause of a permanent connection failure
func closedError(cause error) error {
	if cause == nil || errors.Is(cause, ErrConnectionClosed) {
		return ErrConnectionClosed
	}
	return fmt.Errorf("%w: %w", ErrConnectionClosed, cause)
}

// OpenConnection opens the connection selected by the flags and describes it
func OpenConnection() (Connection, string, error) {
	switch {
	case wsURL != "" && portName != "":
		return nil, "", fmt.Errorf("--port and --url are mutually exclusive")

	case wsURL != "":
		password := ""
		if wsUsername != "" {
			var err error
			if password, err = readPassword(os.Stdin, os.Stderr); err != nil {
				return nil, "", err
			}
		}
		conn, err := dialWebSocket(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil

	case portName != "":
		conn, err := openSerial(portName, baudRate)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// readPassword returns BOOTLINK_PASSWORD, or prompts for it on prompt. Input
// is hidden when in is a terminal.
func readPassword(in *os.File, prompt io.Writer) (string, error) {
	if pw := os.Getenv("BOOTLINK_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(prompt, "Password: ")
	defer fmt.Fprintln(prompt)

	if fd := int(in.Fd()); term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %v", err)
	}
	return strings.TrimSpace(line), nil
}
