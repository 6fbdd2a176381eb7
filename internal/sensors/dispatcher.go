// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"sync"
)

// Dispatcher keeps the listener table shared by the Service implementations.
// It implements Service; embedders add the sample producer.
type Dispatcher struct {
	mu        sync.RWMutex
	available map[Type]bool
	nextID    uint64
	listeners map[Type]map[uint64]subscriber

	// OnChange, when set, is called (without the lock held) after a
	// registration for t is added or removed.
	OnChange func(t Type)
}

type subscriber struct {
	delay    Delay
	listener Listener
}

type registration struct {
	d    *Dispatcher
	t    Type
	id   uint64
	once sync.Once
}

func (r *registration) Unregister() {
	r.once.Do(func() {
		r.d.remove(r.t, r.id)
	})
}

// NewDispatcher returns a Dispatcher offering the given sensor types.
func NewDispatcher(types ...Type) *Dispatcher {
	d := &Dispatcher{
		available: make(map[Type]bool, len(types)),
		listeners: make(map[Type]map[uint64]subscriber),
	}
	for _, t := range types {
		d.available[t] = true
	}
	return d
}

func (d *Dispatcher) Available(t Type) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.available[t]
}

func (d *Dispatcher) Register(t Type, delay Delay, l Listener) (Registration, error) {
	if l == nil {
		return nil, fmt.Errorf("register %s: nil listener", t)
	}
	d.mu.Lock()
	if !d.available[t] {
		d.mu.Unlock()
		return nil, fmt.Errorf("register %s: sensor not available", t)
	}
	d.nextID++
	id := d.nextID
	if d.listeners[t] == nil {
		d.listeners[t] = make(map[uint64]subscriber)
	}
	d.listeners[t][id] = subscriber{delay: delay, listener: l}
	onChange := d.OnChange
	d.mu.Unlock()

	if onChange != nil {
		onChange(t)
	}
	return &registration{d: d, t: t, id: id}, nil
}

func (d *Dispatcher) remove(t Type, id uint64) {
	d.mu.Lock()
	delete(d.listeners[t], id)
	onChange := d.OnChange
	d.mu.Unlock()

	if onChange != nil {
		onChange(t)
	}
}

// Fastest returns the most demanding delay requested for t, and whether anyone listens.
func (d *Dispatcher) Fastest(t Type) (Delay, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	subs := d.listeners[t]
	if len(subs) == 0 {
		return DelayNormal, false
	}
	best := DelayNormal
	for _, s := range subs {
		if s.delay > best {
			best = s.delay
		}
	}
	return best, true
}

// Dispatch delivers s to every listener registered for its type.
// Listeners are called outside the lock so they may unregister themselves.
func (d *Dispatcher) Dispatch(s Sample) {
	d.mu.RLock()
	subs := d.listeners[s.Type]
	targets := make([]Listener, 0, len(subs))
	for _, sub := range subs {
		targets = append(targets, sub.listener)
	}
	d.mu.RUnlock()

	for _, l := range targets {
		l.OnSample(s)
	}
}
