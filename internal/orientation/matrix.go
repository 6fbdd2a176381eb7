// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/orientation_fusion/internal/sensors"
)

// Mat3 is a row-major 3x3 matrix. As a rotation it maps device coordinates to
// world coordinates (X east, Y magnetic north, Z up).
type Mat3 [9]float64

// Vec3 is a 3-component vector.
type Vec3 [3]float64

const (
	// Below this squared norm the accelerometer is considered to be in free fall.
	freeFallGravitySquared = 0.01 * sensors.StandardGravity * sensors.StandardGravity
	// Below this norm the horizontal field vector is too weak or collinear with gravity.
	minHorizontalFieldNorm = 0.1
)

// Identity returns the identity matrix.
func Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Mul returns m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[r*3]*n[c] + m[r*3+1]*n[3+c] + m[r*3+2]*n[6+c]
		}
	}
	return out
}

// MulVec returns m·v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Transpose returns mᵀ, which is also the inverse of a rotation matrix.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Row returns row i.
func (m Mat3) Row(i int) Vec3 {
	return Vec3{m[i*3], m[i*3+1], m[i*3+2]}
}

// Col returns column i.
func (m Mat3) Col(i int) Vec3 {
	return Vec3{m[i], m[3+i], m[6+i]}
}

// Dot returns v·w.
func (v Vec3) Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Cross returns v×w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Norm returns |v|.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Scale returns k·v.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v[0] * k, v[1] * k, v[2] * k}
}

// RotationFromGravityMagnetic builds the device-to-world rotation from an
// accelerometer reading (m/s², pointing up when at rest) and a magnetometer
// reading (µT). It returns false when either input is degenerate: free fall,
// a zero vector, or a field collinear with gravity.
func RotationFromGravityMagnetic(accel, mag Vec3) (Mat3, bool) {
	normSqA := accel.Dot(accel)
	if normSqA < freeFallGravitySquared {
		return Mat3{}, false
	}

	h := mag.Cross(accel)
	normH := h.Norm()
	if normH < minHorizontalFieldNorm {
		return Mat3{}, false
	}

	h = h.Scale(1 / normH)
	a := accel.Scale(1 / math.Sqrt(normSqA))
	m := a.Cross(h)

	return Mat3{
		h[0], h[1], h[2],
		m[0], m[1], m[2],
		a[0], a[1], a[2],
	}, true
}

// RotationFromVector converts a rotation-vector reading (vector part x, y, z of
// a unit quaternion, scalar part w) into a rotation matrix. When hasW is false
// the scalar part is reconstructed from the vector part.
func RotationFromVector(x, y, z, w float64, hasW bool) Mat3 {
	if !hasW {
		w = 1 - x*x - y*y - z*z
		if w > 0 {
			w = math.Sqrt(w)
		} else {
			w = 0
		}
	}

	sqX := 2 * x * x
	sqY := 2 * y * y
	sqZ := 2 * z * z
	xy := 2 * x * y
	zw := 2 * z * w
	xz := 2 * x * z
	yw := 2 * y * w
	yz := 2 * y * z
	xw := 2 * x * w

	return Mat3{
		1 - sqY - sqZ, xy - zw, xz + yw,
		xy + zw, 1 - sqX - sqZ, yz - xw,
		xz - yw, yz + xw, 1 - sqX - sqY,
	}
}

// QuaternionFromMatrix returns the unit quaternion (x, y, z, w) of a rotation
// matrix, with w >= 0. It is the inverse of RotationFromVector.
func QuaternionFromMatrix(m Mat3) (x, y, z, w float64) {
	trace := m[0] + m[4] + m[8]
	switch {
	case trace > 0:
		s := 2 * math.Sqrt(trace+1)
		w = s / 4
		x = (m[7] - m[5]) / s
		y = (m[2] - m[6]) / s
		z = (m[3] - m[1]) / s
	case m[0] > m[4] && m[0] > m[8]:
		s := 2 * math.Sqrt(1+m[0]-m[4]-m[8])
		w = (m[7] - m[5]) / s
		x = s / 4
		y = (m[1] + m[3]) / s
		z = (m[2] + m[6]) / s
	case m[4] > m[8]:
		s := 2 * math.Sqrt(1+m[4]-m[0]-m[8])
		w = (m[2] - m[6]) / s
		x = (m[1] + m[3]) / s
		y = s / 4
		z = (m[5] + m[7]) / s
	default:
		s := 2 * math.Sqrt(1+m[8]-m[0]-m[4])
		w = (m[3] - m[1]) / s
		x = (m[2] + m[6]) / s
		y = (m[5] + m[7]) / s
		z = s / 4
	}
	if w < 0 {
		x, y, z, w = -x, -y, -z, -w
	}
	return x, y, z, w
}

// OrientationFromMatrix extracts yaw (azimuth about -Z), pitch (about X) and
// roll (about Y), in radians.
func OrientationFromMatrix(m Mat3) Pose {
	return Pose{
		Yaw:   math.Atan2(m[1], m[4]),
		Pitch: math.Asin(clamp(-m[7], -1, 1)),
		Roll:  math.Atan2(-m[6], m[8]),
	}
}

// MatrixFromOrientation is the inverse of OrientationFromMatrix for
// |pitch| < π/2. The rotations are applied roll first, then pitch, then yaw.
func MatrixFromOrientation(p Pose) Mat3 {
	sy, cy := math.Sincos(p.Yaw)
	sp, cp := math.Sincos(p.Pitch)
	sr, cr := math.Sincos(p.Roll)

	xM := Mat3{
		1, 0, 0,
		0, cp, sp,
		0, -sp, cp,
	}
	yM := Mat3{
		cr, 0, sr,
		0, 1, 0,
		-sr, 0, cr,
	}
	zM := Mat3{
		cy, sy, 0,
		-sy, cy, 0,
		0, 0, 1,
	}
	return zM.Mul(xM.Mul(yM))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
