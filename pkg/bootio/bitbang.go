// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

// bitPhase is the position of the bit-banged receiver within a character.
type bitPhase int

const (
	phaseIdle  bitPhase = iota // no character in progress, waiting for a falling edge
	phaseStart                 // next sample must be low
	phaseData                  // sampling data bits, LSB first
	phaseStop                  // next sample must be high
)

// bitState is the receiver state: a phase plus the data bit index and the
// character being assembled. It never outlives a Recv call.
type bitState struct {
	phase bitPhase
	bit   int
	acc   byte
}

// sample feeds one half-bit sample into the state. It returns true with the
// completed character when the stop bit is accepted.
func (s *bitState) sample(high bool) (byte, bool, error) {
	switch s.phase {
	case phaseStart:
		if high {
			return 0, false, ErrFraming
		}
		s.acc = 0
		s.bit = 0
		s.phase = phaseData
	case phaseData:
		s.acc >>= 1
		if high {
			s.acc |= 0x80
		}
		s.bit++
		if s.bit == DataBits {
			s.phase = phaseStop
		}
	case phaseStop:
		if !high {
			return 0, false, ErrFraming
		}
		s.phase = phaseIdle
		return s.acc, true, nil
	}
	return 0, false, nil
}

// BitBang is the physical layer emulating a UART with a timer: the compare
// channel generates bits, the capture channel locks sampling to start edges.
type BitBang struct {
	timer   BitTimer
	timeout *Supervisor
}

// NewBitBang programs the bit timing and leaves the timer in receive mode.
func NewBitBang(t BitTimer, timeout *Supervisor, cfg Config) *BitBang {
	t.Configure(cfg.BitTicks(), cfg.HalfBitTicks())
	t.Capture()
	return &BitBang{timer: t, timeout: timeout}
}

// Recv implements Link.
func (b *BitBang) Recv(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	b.timeout.Arm()
	st := bitState{phase: phaseIdle}
	i := 0
	for {
		ev := b.timer.Events()
		if ev&EventHalfBit != 0 {
			b.timer.Clear(EventHalfBit)
			if st.phase != phaseIdle {
				c, done, err := st.sample(b.timer.Level())
				if err != nil {
					return err
				}
				if done {
					buf[i] = c
					i++
					if i == len(buf) {
						return nil
					}
					b.timeout.Arm()
				}
			}
		}
		if ev&EventEdge != 0 {
			b.timer.Clear(EventEdge)
			if st.phase == phaseIdle {
				st.phase = phaseStart
			}
		}
		if b.timeout.Expired() {
			return ErrTimeout
		}
	}
}

// Send implements Link. Levels are preloaded one bit period ahead. The stop
// bit is the idle level, so the line goes back to the capture channel as soon
// as the last stop bit starts.
func (b *BitBang) Send(buf []byte) {
	b.timer.Output()
	bit, i := 0, 0
	var acc byte
	for {
		if b.timer.Events()&EventUpdate == 0 {
			continue
		}
		b.timer.Clear(EventUpdate)
		if i == len(buf) {
			break
		}
		low := false
		switch {
		case bit == 0:
			acc = buf[i]
			low = true
			bit++
		case bit <= DataBits:
			low = acc&1 == 0
			acc >>= 1
			bit++
		default:
			bit = 0
			i++
		}
		b.timer.Drive(low)
	}
	b.timer.Capture()
}
