// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

// Sink receives accepted orientation updates. PushOrientation is called from
// the sensor or fusion goroutine and must not block.
type Sink interface {
	PushOrientation(Pose)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Pose)

func (f SinkFunc) PushOrientation(p Pose) { f(p) }

// MultiSink fans an update out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) PushOrientation(p Pose) {
	for _, s := range m {
		s.PushOrientation(p)
	}
}
