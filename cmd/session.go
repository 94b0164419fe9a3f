// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/Thermoquad/bootlink/pkg/bootio"
	"github.com/Thermoquad/bootlink/pkg/driver/link"
	"github.com/Thermoquad/bootlink/pkg/trace"
)

// Session is an open connection with the bootloader transport on top
type Session struct {
	Info      string
	Port      *link.Port
	Transport *bootio.Transport

	traceOut  *os.File
	traceRecs *trace.Writer
}

// OpenSession opens the connection selected by the flags and attaches the
// observers, plus a trace writer when --trace is set.
func OpenSession(observers ...bootio.Observer) (*Session, error) {
	if ioTimeout <= 0 {
		return nil, fmt.Errorf("invalid timeout: %v", ioTimeout)
	}

	conn, info, err := OpenConnection()
	if err != nil {
		return nil, err
	}
	s := &Session{Info: info}

	obs := bootio.Observers(observers)
	if traceFile != "" {
		f, err := os.OpenFile(traceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to open trace file %s: %v", traceFile, err)
		}
		s.traceOut = f
		s.traceRecs = trace.NewWriter(f)
		obs = append(obs, s.traceRecs)
	}

	s.Port = link.Open(conn, ioTimeout, link.WithEcho(lineEcho))

	var opts []bootio.Option
	if len(obs) > 0 {
		opts = append(opts, bootio.WithObserver(obs))
	}
	s.Transport = bootio.New(s.Port, opts...)
	return s, nil
}

// Close stops the link reader, closes the connection and the trace file
func (s *Session) Close() error {
	err := s.Port.Close()
	if s.traceOut != nil {
		if terr := s.traceRecs.Err(); terr != nil {
			log.Printf("Trace incomplete: %v", terr)
		}
		if cerr := s.traceOut.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// check reports a link failure that the transport could not see, such as a
// dropped WebSocket or an unplugged adapter, in place of the line error it
// caused.
func (s *Session) check(err error) error {
	perr := s.Port.Err()
	switch {
	case perr == nil:
		return err
	case errors.Is(perr, ErrConnectionClosed):
		return fmt.Errorf("connection lost: %w", perr)
	default:
		return fmt.Errorf("connection failed: %w", perr)
	}
}
