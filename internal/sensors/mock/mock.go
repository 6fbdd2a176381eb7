// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mock provides a sensors.Service that simulates a device slowly
// swaying in place, with physically consistent readings for every sensor type.
package mock

import (
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/orientation_fusion/internal/orientation"
	"github.com/relabs-tech/orientation_fusion/internal/sensors"
)

// Earth's field in world coordinates (east, north, up), in µT.
var worldField = orientation.Vec3{0, 22, -42}

// gyroStep is the finite-difference step used to derive angular rates.
const gyroStep = time.Millisecond

// Motion returns the simulated device orientation at elapsed time t.
type Motion func(t time.Duration) orientation.Pose

// DefaultMotion rolls ±20°, pitches ±15° and turns at 30°/s.
func DefaultMotion(t time.Duration) orientation.Pose {
	s := t.Seconds()
	return orientation.Pose{
		Yaw:   orientation.WrapAngle(s * 30 * math.Pi / 180),
		Pitch: 15 * math.Pi / 180 * math.Cos(s*0.7),
		Roll:  20 * math.Pi / 180 * math.Sin(s),
	}
}

// Service is a mock sensor service. One goroutine per registered sensor type
// produces samples at the fastest requested delay.
type Service struct {
	*sensors.Dispatcher

	motion Motion
	start  time.Time

	mu      sync.Mutex
	running map[sensors.Type]*producer
	closed  bool
	wg      sync.WaitGroup
}

type producer struct {
	period time.Duration
	stop   chan struct{}
}

// New creates a mock service offering the given types, or all of them when none are given.
func New(motion Motion, types ...sensors.Type) *Service {
	if motion == nil {
		motion = DefaultMotion
	}
	if len(types) == 0 {
		types = sensors.AllTypes
	}
	s := &Service{
		Dispatcher: sensors.NewDispatcher(types...),
		motion:     motion,
		start:      time.Now(),
		running:    make(map[sensors.Type]*producer),
	}
	s.Dispatcher.OnChange = s.reconcile
	return s
}

// Close stops every producer goroutine.
func (s *Service) Close() error {
	s.mu.Lock()
	s.closed = true
	running := s.running
	s.running = make(map[sensors.Type]*producer)
	s.mu.Unlock()

	for _, p := range running {
		close(p.stop)
	}
	s.wg.Wait()
	return nil
}

// reconcile starts, restarts or stops the producer for t to match its registrations.
func (s *Service) reconcile(t sensors.Type) {
	delay, listening := s.Fastest(t)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	cur := s.running[t]
	if cur != nil && listening && cur.period == delay.Period() {
		return
	}
	if cur != nil {
		close(cur.stop)
		delete(s.running, t)
	}
	if !listening {
		return
	}
	p := &producer{
		period: delay.Period(),
		stop:   make(chan struct{}),
	}
	s.running[t] = p
	s.wg.Add(1)
	go s.produce(t, p)
}

func (s *Service) produce(t sensors.Type, p *producer) {
	defer s.wg.Done()
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			s.Dispatch(s.SampleAt(t, time.Since(s.start)))
		}
	}
}

// SampleAt computes the reading a sensor of type t would report at elapsed time ts.
func (s *Service) SampleAt(t sensors.Type, ts time.Duration) sensors.Sample {
	r := orientation.MatrixFromOrientation(s.motion(ts))
	sample := sensors.Sample{Type: t, Timestamp: ts}

	switch t {
	case sensors.Accelerometer:
		// At rest the accelerometer reads the reaction to gravity, pointing up.
		sample.Values = [3]float64(r.Transpose().MulVec(orientation.Vec3{0, 0, sensors.StandardGravity}))
	case sensors.MagneticField:
		sample.Values = [3]float64(r.Transpose().MulVec(worldField))
	case sensors.Gyroscope:
		next := orientation.MatrixFromOrientation(s.motion(ts + gyroStep))
		d := r.Transpose().Mul(next)
		h := gyroStep.Seconds()
		sample.Values = [3]float64{
			(d[7] - d[5]) / (2 * h),
			(d[2] - d[6]) / (2 * h),
			(d[3] - d[1]) / (2 * h),
		}
	case sensors.RotationVector:
		x, y, z, w := orientation.QuaternionFromMatrix(r)
		sample.Values = [3]float64{x, y, z}
		sample.W = w
		sample.HasW = true
	}
	return sample
}
