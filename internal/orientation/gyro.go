// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

// Rates below this magnitude (rad/s) are not normalised.
const gyroEpsilon = 1e-9

// GyroIntegrator accumulates gyroscope rates into an orientation estimate.
// It drifts; the fusion step periodically pulls it back with Reset.
type GyroIntegrator struct {
	matrix Mat3
	seeded bool

	lastTimestamp time.Duration
	hasTimestamp  bool
}

// NewGyroIntegrator returns an unseeded integrator.
func NewGyroIntegrator() *GyroIntegrator {
	return &GyroIntegrator{matrix: Identity()}
}

// Seeded reports whether the integrator has an initial reference.
func (g *GyroIntegrator) Seeded() bool {
	return g.seeded
}

// Reset replaces the integrated orientation with p. The time base is kept so
// the next rate sample still integrates over the real elapsed time.
func (g *GyroIntegrator) Reset(p Pose) {
	g.matrix = MatrixFromOrientation(p)
	g.seeded = true
}

// Update integrates one body-frame angular rate sample (rad/s) taken at ts.
// The first sample after construction only establishes the time base.
// Samples with non-increasing timestamps are ignored.
func (g *GyroIntegrator) Update(rate Vec3, ts time.Duration) {
	if !g.hasTimestamp {
		g.lastTimestamp = ts
		g.hasTimestamp = true
		return
	}
	dt := (ts - g.lastTimestamp).Seconds()
	if dt <= 0 {
		return
	}
	g.lastTimestamp = ts

	delta := DeltaRotation(rate, dt)
	g.matrix = g.matrix.Mul(delta)
}

// Orientation returns the current integrated orientation.
func (g *GyroIntegrator) Orientation() Pose {
	return OrientationFromMatrix(g.matrix)
}

// Matrix returns the current integrated rotation.
func (g *GyroIntegrator) Matrix() Mat3 {
	return g.matrix
}

// DeltaRotation returns the incremental rotation for rate (rad/s) held over dt
// seconds, built from the unit quaternion for that rotation.
func DeltaRotation(rate Vec3, dt float64) Mat3 {
	omega := rate.Norm()
	axis := rate
	if omega > gyroEpsilon {
		axis = rate.Scale(1 / omega)
	}
	halfTheta := omega * dt / 2
	sin, cos := math.Sincos(halfTheta)
	return RotationFromVector(sin*axis[0], sin*axis[1], sin*axis[2], cos, true)
}
