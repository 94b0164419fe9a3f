// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link runs the bootloader transport from a host over a byte stream,
// typically a USB serial adapter wired to the single-wire line or a
// WebSocket bridge in front of one.
package link

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Thermoquad/bootlink/pkg/bootio"
)

// rxQueue holds more than one full block frame so the reader never stalls
// behind an echoed transmission.
const rxQueue = 4096

// DefaultPollInterval is how long Recv sleeps between empty polls.
const DefaultPollInterval = 100 * time.Microsecond

// ErrClosed is returned by Recv once the stream is gone, wrapping the reader's
// error.
var ErrClosed = errors.New("link closed")

// Option configures a Port.
type Option func(*Port)

// WithEcho drops the copy of every sent byte that a single-wire adapter
// reflects back to the receiver.
func WithEcho(echo bool) Option {
	return func(p *Port) {
		p.echo = echo
	}
}

// WithPollInterval sets the sleep between empty receive polls.
func WithPollInterval(d time.Duration) Option {
	return func(p *Port) {
		p.poll = d
	}
}

// Port is a bootio.Link over a host byte stream.
type Port struct {
	rw      io.ReadWriter
	timeout *bootio.Supervisor
	echo    bool
	poll    time.Duration

	rx      chan byte
	skip    int // echoed bytes still to drop
	done    chan struct{}
	closing sync.Once

	mu  sync.Mutex
	err error
}

var _ bootio.Link = (*Port)(nil)

// New starts reading rw in the background. The reader exits when rw returns
// an error or the port is closed.
func New(rw io.ReadWriter, timeout *bootio.Supervisor, opts ...Option) *Port {
	p := &Port{
		rw:      rw,
		timeout: timeout,
		poll:    DefaultPollInterval,
		rx:      make(chan byte, rxQueue),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	go p.pump()
	return p
}

// Open creates a port timed by the wall clock.
func Open(rw io.ReadWriter, timeout time.Duration, opts ...Option) *Port {
	return New(rw, bootio.NewSupervisor(NewDeadline(), timeout), opts...)
}

func (p *Port) pump() {
	defer close(p.rx)
	buf := make([]byte, 256)
	for {
		n, err := p.rw.Read(buf)
		for _, b := range buf[:n] {
			select {
			case p.rx <- b:
			case <-p.done:
				return
			}
		}
		if err != nil {
			p.setErr(err)
			return
		}
		select {
		case <-p.done:
			return
		default:
		}
	}
}

// Recv implements bootio.Link. Besides the line errors it fails with ErrClosed
// once the stream is gone.
func (p *Port) Recv(buf []byte) error {
	p.timeout.Arm()
	for i := 0; i < len(buf); {
		select {
		case <-p.done:
			return p.closedErr()
		default:
		}
		select {
		case b, ok := <-p.rx:
			if !ok {
				return p.closedErr()
			}
			// An echo is line activity too
			p.timeout.Arm()
			if p.skip > 0 {
				p.skip--
				continue
			}
			buf[i] = b
			i++
			continue
		default:
		}
		if p.timeout.Expired() {
			return bootio.ErrTimeout
		}
		time.Sleep(p.poll)
	}
	return nil
}

func (p *Port) closedErr() error {
	err := p.Err()
	if errors.Is(err, ErrClosed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrClosed, err)
}

// Send implements bootio.Link. Write errors are kept and reported by Err.
func (p *Port) Send(buf []byte) {
	if len(buf) == 0 {
		return
	}
	if _, err := p.rw.Write(buf); err != nil {
		p.setErr(fmt.Errorf("write failed: %w", err))
		return
	}
	if p.echo {
		p.skip += len(buf)
	}
}

// Close stops the reader and closes rw if it is an io.Closer. Recv fails with
// ErrClosed from then on, even if the reader is still blocked in rw.
func (p *Port) Close() error {
	var err error
	p.closing.Do(func() {
		p.setErr(ErrClosed)
		close(p.done)
		if c, ok := p.rw.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

// Err returns the first stream error seen by the reader or by Send.
func (p *Port) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Port) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
}
