// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package bootio

// Direction of a frame relative to the device running the transport.
type Direction uint8

// Directions
const (
	DirRecv Direction = iota
	DirSend
)

// String returns "RX" or "TX".
func (d Direction) String() string {
	if d == DirSend {
		return "TX"
	}
	return "RX"
}

// FrameKind tells value frames from block frames.
type FrameKind uint8

// Frame kinds
const (
	KindValue FrameKind = iota
	KindBlock
)

// String returns the frame kind name.
func (k FrameKind) String() string {
	switch k {
	case KindValue:
		return "VALUE"
	case KindBlock:
		return "BLOCK"
	default:
		return "UNKNOWN"
	}
}

// Event describes one completed frame operation.
type Event struct {
	Dir  Direction
	Kind FrameKind
	// Value is the value frame content, or the length code of a block.
	Value byte
	// Payload aliases the caller's buffer and is only valid during Observe.
	Payload []byte
	Err     error
}

// Observer is notified after every frame operation. It runs on the caller's
// goroutine between frames and must not retain Payload.
type Observer interface {
	Observe(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans one event out to several observers.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(e Event) {
	for _, obs := range o {
		obs.Observe(e)
	}
}
