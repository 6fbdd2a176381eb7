// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/sensors"
)

// Mode is the sensor combination an Estimator runs with. It is fixed at construction.
type Mode int

const (
	// ModeNone means the minimum sensor set is missing; the estimator never emits.
	ModeNone Mode = iota
	ModeAccelMag
	ModeAccelMagGyro
	ModeRotationVector
)

func (m Mode) String() string {
	switch m {
	case ModeAccelMag:
		return "accelerometer+magnetometer"
	case ModeAccelMagGyro:
		return "accelerometer+magnetometer+gyroscope"
	case ModeRotationVector:
		return "rotation_vector"
	}
	return "none"
}

// Stats counts what happened to incoming samples.
type Stats struct {
	Samples            uint64 `json:"samples"`
	DerivationFailures uint64 `json:"derivation_failures"`
	Suppressed         uint64 `json:"suppressed"`
	Emitted            uint64 `json:"emitted"`
	FusionTicks        uint64 `json:"fusion_ticks"`
}

// Estimator turns raw sensor samples into a smoothed device orientation and
// pushes every accepted update to its Sink.
type Estimator struct {
	svc  sensors.Service
	sink Sink
	p    Params
	mode Mode

	// emitMu serializes processing with sink delivery so the sink sees poses
	// in the order they were accepted. It is taken before mu.
	emitMu sync.Mutex

	// mu guards everything below; sensor callbacks and the fusion ticker
	// run on different goroutines.
	mu       sync.Mutex
	rotation ScreenRotation
	accel    Vec3
	mag      Vec3
	hasAccel bool
	hasMag   bool
	matrix   Mat3
	accMag   Pose
	hasEst   bool
	gyro     *GyroIntegrator
	smoother *Smoother
	last     Pose
	hasLast  bool
	stats    Stats
	started  bool
	closed   bool

	regs   []sensors.Registration
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEstimator picks the operating mode from what svc offers: the rotation
// vector when available and enabled, otherwise accelerometer and
// magnetometer, fused with the gyroscope when one is present.
func NewEstimator(svc sensors.Service, sink Sink, p Params) (*Estimator, error) {
	if svc == nil {
		return nil, fmt.Errorf("orientation: nil sensor service")
	}
	if sink == nil {
		return nil, fmt.Errorf("orientation: nil sink")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("orientation: %w", err)
	}

	e := &Estimator{
		svc:      svc,
		sink:     sink,
		p:        p,
		mode:     selectMode(svc, p),
		rotation: p.Rotation,
		matrix:   Identity(),
		gyro:     NewGyroIntegrator(),
		smoother: NewSmoother(p.Alpha, p.Threshold),
	}
	return e, nil
}

func selectMode(svc sensors.Service, p Params) Mode {
	if p.UseRotationVector && svc.Available(sensors.RotationVector) {
		return ModeRotationVector
	}
	if !svc.Available(sensors.Accelerometer) || !svc.Available(sensors.MagneticField) {
		return ModeNone
	}
	if p.UseGyro && svc.Available(sensors.Gyroscope) {
		return ModeAccelMagGyro
	}
	return ModeAccelMag
}

// Mode returns the operating mode chosen at construction.
func (e *Estimator) Mode() Mode {
	return e.mode
}

// Start registers with the sensor service and, in gyroscope mode, starts the
// fusion ticker. The ticker stops when ctx is done or Close is called.
func (e *Estimator) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("orientation: estimator already started")
	}
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("orientation: estimator closed")
	}
	e.started = true
	e.mu.Unlock()

	var types []sensors.Type
	switch e.mode {
	case ModeNone:
		log.Warnf("orientation: accelerometer+magnetometer not available, no orientation updates will be produced")
		return nil
	case ModeRotationVector:
		types = []sensors.Type{sensors.RotationVector}
	case ModeAccelMag:
		types = []sensors.Type{sensors.Accelerometer, sensors.MagneticField}
	case ModeAccelMagGyro:
		types = []sensors.Type{sensors.Accelerometer, sensors.MagneticField, sensors.Gyroscope}
	}

	listener := sensors.ListenerFunc(e.OnSample)
	regs := make([]sensors.Registration, 0, len(types))
	for _, t := range types {
		reg, err := e.svc.Register(t, e.p.Delay, listener)
		if err != nil {
			for _, r := range regs {
				r.Unregister()
			}
			return fmt.Errorf("orientation: %w", err)
		}
		regs = append(regs, reg)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		for _, r := range regs {
			r.Unregister()
		}
		return fmt.Errorf("orientation: estimator closed during start")
	}
	e.regs = regs
	if e.mode == ModeAccelMagGyro {
		ctx, e.cancel = context.WithCancel(ctx)
		e.wg.Add(1)
		go e.fusionLoop(ctx)
	}
	e.mu.Unlock()

	log.Infof("orientation: estimator started (mode=%s, delay=%s, rotation=%s)", e.mode, e.p.Delay, e.p.Rotation)
	return nil
}

// Close unregisters from the sensor service and stops the fusion ticker.
// Samples delivered after Close are dropped. It is safe to call more than once.
func (e *Estimator) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	regs := e.regs
	e.regs = nil
	cancel := e.cancel
	e.mu.Unlock()

	for _, r := range regs {
		r.Unregister()
	}
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	return nil
}

// SetScreenRotation changes the remapping applied from the next sample on.
// The current estimate is re-derived in the new frame from the stored
// accelerometer/magnetometer pair, or dropped when there is none, and the
// gyroscope integrator is re-seeded from it.
func (e *Estimator) SetScreenRotation(r ScreenRotation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r == e.rotation {
		return
	}
	e.rotation = r
	e.gyro = NewGyroIntegrator()
	e.hasEst = false
	if e.mode == ModeRotationVector || !e.hasAccel || !e.hasMag {
		return
	}
	if m, ok := RotationFromGravityMagnetic(e.accel, e.mag); ok {
		e.matrix = Remap(m, r)
		e.accMag = OrientationFromMatrix(e.matrix)
		e.hasEst = true
	}
}

// Last returns the most recently emitted pose.
func (e *Estimator) Last() (Pose, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last, e.hasLast
}

// Matrix returns the current remapped rotation matrix, derived from the most
// recent accelerometer/magnetometer pair or rotation-vector sample.
func (e *Estimator) Matrix() (Mat3, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matrix, e.hasEst
}

// Stats returns a snapshot of the sample counters.
func (e *Estimator) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// OnSample processes one sensor sample. It is the listener registered with the
// sensor service but may also be called directly, e.g. when replaying samples.
func (e *Estimator) OnSample(s sensors.Sample) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	pose, ok := e.process(s)
	if ok {
		e.sink.PushOrientation(pose)
	}
}

func (e *Estimator) process(s sensors.Sample) (Pose, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.mode == ModeNone {
		return Pose{}, false
	}
	e.stats.Samples++

	switch s.Type {
	case sensors.Accelerometer:
		e.accel = Vec3(s.Values)
		e.hasAccel = true
		return e.deriveAccelMag()
	case sensors.MagneticField:
		e.mag = Vec3(s.Values)
		e.hasMag = true
		return e.deriveAccelMag()
	case sensors.Gyroscope:
		e.integrateGyro(s)
		return Pose{}, false
	case sensors.RotationVector:
		v := s.Values
		m := Remap(RotationFromVector(v[0], v[1], v[2], s.W, s.HasW), e.rotation)
		e.matrix = m
		e.accMag = OrientationFromMatrix(m)
		e.hasEst = true
		return e.emitLocked(e.accMag)
	}
	return Pose{}, false
}

// deriveAccelMag recomputes the rotation from the latest accelerometer and magnetometer pair.
func (e *Estimator) deriveAccelMag() (Pose, bool) {
	if !e.hasAccel || !e.hasMag {
		return Pose{}, false
	}
	m, ok := RotationFromGravityMagnetic(e.accel, e.mag)
	if !ok {
		e.stats.DerivationFailures++
		return Pose{}, false
	}
	m = Remap(m, e.rotation)
	e.matrix = m
	e.accMag = OrientationFromMatrix(m)
	e.hasEst = true

	if e.mode != ModeAccelMagGyro {
		return e.emitLocked(e.accMag)
	}
	if !e.gyro.Seeded() {
		e.gyro.Reset(e.accMag)
	}
	return Pose{}, false
}

func (e *Estimator) integrateGyro(s sensors.Sample) {
	if !e.hasEst {
		// Nothing to integrate against yet.
		return
	}
	if !e.gyro.Seeded() {
		e.gyro.Reset(e.accMag)
	}
	rate := RemapVector(Vec3(s.Values), e.rotation)
	e.gyro.Update(rate, s.Timestamp)
}

// Fuse runs one complementary-filter step and emits the result when it passes
// the gate. The fusion ticker calls it every FusionInterval.
func (e *Estimator) Fuse() {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	pose, ok := e.fuse()
	if ok {
		e.sink.PushOrientation(pose)
	}
}

func (e *Estimator) fuse() (Pose, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.hasEst || !e.gyro.Seeded() {
		return Pose{}, false
	}
	e.stats.FusionTicks++
	fused := Complementary(e.gyro.Orientation(), e.accMag, e.p.Beta)
	e.gyro.Reset(fused)
	return e.emitLocked(fused)
}

func (e *Estimator) fusionLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.p.FusionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Fuse()
		}
	}
}

// emitLocked runs the gate and smoother and applies the sink's sign convention.
func (e *Estimator) emitLocked(candidate Pose) (Pose, bool) {
	filtered, ok := e.smoother.Update(candidate)
	if !ok {
		e.stats.Suppressed++
		return Pose{}, false
	}
	out := filtered
	if e.p.InvertYaw {
		out.Yaw = -out.Yaw
	}
	if e.p.InvertRoll {
		out.Roll = -out.Roll
	}
	e.last = out
	e.hasLast = true
	e.stats.Emitted++
	return out, true
}
