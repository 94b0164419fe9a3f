// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

// Link is a physical layer moving raw bytes over the shared wire.
//
// Implementations own their peripherals exclusively for the duration of a call
// and start every call from an idle line state. Both methods block.
type Link interface {
	// Recv fills buf completely or fails with ErrTimeout or ErrFraming.
	// Links over a host stream may also fail with their own error once the
	// stream is gone; such errors wrap neither sentinel.
	// Worst-case latency is one inactivity window per byte.
	Recv(buf []byte) error
	// Send transmits buf and returns once the last stop bit is on the wire
	// and the line has been turned around for receiving.
	Send(buf []byte)
}

// UARTStatus is the status register of a UART peripheral.
type UARTStatus uint8

// UART status flags
const (
	StatusRXNE UARTStatus = 1 << iota // receive data ready
	StatusTXE                         // transmit data register empty
	StatusTC                          // transmission complete
	StatusFE                          // framing error on the last received byte
)

// UART is a half-duplex hardware UART sharing one pin for TX and RX.
type UART interface {
	Configure(bitTicks uint32)
	// Enable switches the transmitter and receiver on or off.
	Enable(tx, rx bool)
	Status() UARTStatus
	ClearFraming()
	// Read returns the received byte and clears StatusRXNE.
	Read() byte
	// Write loads the transmit register and clears StatusTXE and StatusTC.
	Write(b byte)
}

// TimerEvent is the status register of the bit timer.
type TimerEvent uint8

// Bit timer events
const (
	EventHalfBit TimerEvent = 1 << iota // compare match half a bit after the last edge or period start
	EventEdge                           // falling edge captured on the line
	EventUpdate                         // bit period rollover
)

// BitTimer is a general-purpose timer with one compare output and one input
// capture channel on the line.
type BitTimer interface {
	Configure(bitTicks, halfBitTicks uint32)
	// Capture switches to receive mode: the counter resets on any line edge,
	// EventHalfBit fires half a bit later, falling edges raise EventEdge and the
	// output is released.
	Capture()
	// Output switches to transmit mode: the counter runs free, EventUpdate fires
	// every bit period and the compare output drives the line, preloaded high.
	Output()
	Events() TimerEvent
	Clear(ev TimerEvent)
	// Level samples the line.
	Level() bool
	// Drive preloads the line level for the next bit period.
	Drive(low bool)
}
