// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Pose is the canonical representation of orientation for the app, in radians.
// Yaw and Roll are in [-π, π], Pitch in [-π/2, π/2].
type Pose struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// Degrees returns the same pose in degrees, for display.
func (p Pose) Degrees() Pose {
	return Pose{
		Yaw:   p.Yaw * 180.0 / math.Pi,
		Pitch: p.Pitch * 180.0 / math.Pi,
		Roll:  p.Roll * 180.0 / math.Pi,
	}
}

// axes returns the pose as an indexable triple (yaw, pitch, roll).
func (p Pose) axes() [3]float64 {
	return [3]float64{p.Yaw, p.Pitch, p.Roll}
}

func poseFromAxes(a [3]float64) Pose {
	return Pose{Yaw: a[0], Pitch: a[1], Roll: a[2]}
}

// WrapAngle folds a into [-π, π].
func WrapAngle(a float64) float64 {
	if a >= -math.Pi && a <= math.Pi {
		return a
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// AngleDelta returns the signed difference to-from along the shorter way
// around the circle, in [-π, π].
func AngleDelta(to, from float64) float64 {
	d := to - from
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	// Inputs outside [-π, π] may still leave d out of range.
	return WrapAngle(d)
}

// ComputePoseFromAccel computes pitch and roll from accelerometer data only,
// using the same conventions as OrientationFromMatrix. Yaw is 0 since it is
// unobservable without a magnetometer.
//
//	pitch = asin(-ay / |a|)
//	roll  = atan2(-ax, az)
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	n := math.Sqrt(ax*ax + ay*ay + az*az)
	if n == 0 {
		return Pose{}
	}
	return Pose{
		Pitch: math.Asin(clamp(-ay/n, -1, 1)),
		Roll:  math.Atan2(-ax, az),
	}
}
