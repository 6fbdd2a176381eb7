// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sink holds the orientation consumers: MQTT, websocket, logging and
// rendering, plus an asynchronous adapter that keeps them off the sensor path.
package sink

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/relabs-tech/orientation_fusion/internal/orientation"
)

// Async decouples a possibly blocking sink from the estimator. Poses are
// queued; when the queue is full the oldest pending pose is dropped, since
// only the latest orientation matters to a renderer.
type Async struct {
	inner orientation.Sink
	ch    chan orientation.Pose
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	dropped   atomic.Uint64
	delivered atomic.Uint64
}

var _ orientation.Sink = (*Async)(nil)

// NewAsync starts a worker delivering to inner. depth < 1 is treated as 1.
func NewAsync(inner orientation.Sink, depth int) *Async {
	if depth < 1 {
		depth = 1
	}
	a := &Async{
		inner: inner,
		ch:    make(chan orientation.Pose, depth),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for p := range a.ch {
		a.inner.PushOrientation(p)
		a.delivered.Inc()
	}
}

// PushOrientation enqueues p without blocking. Poses pushed after Close are dropped.
func (a *Async) PushOrientation(p orientation.Pose) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Inc()
		return
	}
	for {
		select {
		case a.ch <- p:
			return
		default:
		}
		select {
		case <-a.ch:
			a.dropped.Inc()
		default:
		}
	}
}

// Dropped returns how many poses were discarded.
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Delivered returns how many poses reached the inner sink.
func (a *Async) Delivered() uint64 {
	return a.delivered.Load()
}

// Close stops accepting poses, delivers what is queued and waits for the worker.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return nil
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()
	<-a.done
	return nil
}
