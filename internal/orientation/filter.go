// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "math"

// Smoother is a threshold-gated exponential filter over poses.
// It is not safe for concurrent use; the Estimator serialises access.
type Smoother struct {
	alpha     float64
	threshold [3]float64

	prev    [3]float64
	hasPrev bool
}

// NewSmoother returns a filter with smoothing constant alpha in (0, 1] and
// per-axis gate thresholds in radians.
func NewSmoother(alpha float64, threshold Pose) *Smoother {
	return &Smoother{
		alpha:     alpha,
		threshold: threshold.axes(),
	}
}

// Update feeds a raw pose. It returns the new filtered pose and true when the
// value should be emitted, or the retained pose and false when every axis
// moved less than its threshold. The first pose is accepted unchanged.
func (s *Smoother) Update(raw Pose) (Pose, bool) {
	r := raw.axes()
	if !s.hasPrev {
		for i := range r {
			s.prev[i] = WrapAngle(r[i])
		}
		s.hasPrev = true
		return poseFromAxes(s.prev), true
	}

	var delta [3]float64
	moved := false
	for i := range r {
		delta[i] = AngleDelta(r[i], s.prev[i])
		if math.Abs(delta[i]) >= s.threshold[i] {
			moved = true
		}
	}
	if !moved {
		return poseFromAxes(s.prev), false
	}

	for i := range s.prev {
		s.prev[i] = WrapAngle(s.prev[i] + s.alpha*delta[i])
	}
	return poseFromAxes(s.prev), true
}

// Last returns the retained pose, if any.
func (s *Smoother) Last() (Pose, bool) {
	return poseFromAxes(s.prev), s.hasPrev
}

// Reset forgets the retained pose so the next Update is accepted unconditionally.
func (s *Smoother) Reset() {
	s.prev = [3]float64{}
	s.hasPrev = false
}
