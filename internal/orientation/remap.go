// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "fmt"

// Axis names a device axis, optionally negated, for RemapAxes.
type Axis int

const (
	AxisX      Axis = 0x01
	AxisY      Axis = 0x02
	AxisZ      Axis = 0x03
	AxisMinusX Axis = AxisX | 0x80
	AxisMinusY Axis = AxisY | 0x80
	AxisMinusZ Axis = AxisZ | 0x80
)

// ScreenRotation is the rotation of the display relative to the device's natural orientation.
type ScreenRotation int

const (
	Rotation0 ScreenRotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Degrees returns 0, 90, 180 or 270.
func (r ScreenRotation) Degrees() int {
	return int(r) * 90
}

func (r ScreenRotation) String() string {
	return fmt.Sprintf("%d°", r.Degrees())
}

// ParseScreenRotation accepts 0, 90, 180 or 270 (negative values and multiples of 360 are folded).
func ParseScreenRotation(degrees int) (ScreenRotation, error) {
	d := ((degrees % 360) + 360) % 360
	if d%90 != 0 {
		return 0, fmt.Errorf("screen rotation must be a multiple of 90°, got %d", degrees)
	}
	return ScreenRotation(d / 90), nil
}

// screenAxes maps each screen rotation to the device axes that become the new X and Y.
var screenAxes = [4][2]Axis{
	Rotation0:   {AxisX, AxisY},
	Rotation90:  {AxisY, AxisMinusX},
	Rotation180: {AxisMinusX, AxisMinusY},
	Rotation270: {AxisMinusY, AxisX},
}

// Remap re-expresses m in the coordinate system of a screen rotated by r.
// Unknown rotations return m unchanged.
func Remap(m Mat3, r ScreenRotation) Mat3 {
	if r < Rotation0 || r > Rotation270 {
		return m
	}
	out, _ := RemapAxes(m, screenAxes[r][0], screenAxes[r][1])
	return out
}

// RemapVector converts a body-frame vector (for example a gyroscope rate)
// into the coordinate system used by Remap for the same rotation.
func RemapVector(v Vec3, r ScreenRotation) Vec3 {
	p := Remap(Identity(), r)
	return p.Transpose().MulVec(v)
}

// RemapAxes rotates m so that the device axis x becomes the world-aligned X
// axis and y becomes Y. The Z axis is derived so the result stays right handed.
// x and y must name different axes.
func RemapAxes(m Mat3, x, y Axis) (Mat3, error) {
	if x&0x7c != 0 || y&0x7c != 0 || x&0x3 == 0 || y&0x3 == 0 {
		return m, fmt.Errorf("invalid axis %#x/%#x", int(x), int(y))
	}
	if x&0x3 == y&0x3 {
		return m, fmt.Errorf("axes %#x and %#x must differ", int(x), int(y))
	}

	z := x ^ y

	xi := int(x&0x3) - 1
	yi := int(y&0x3) - 1
	zi := int(z&0x3) - 1

	// The sign of Z follows from the cyclic ordering of X and Y.
	axisY := (zi + 1) % 3
	axisZ := (zi + 2) % 3
	if (xi^axisY)|(yi^axisZ) != 0 {
		z ^= 0x80
	}

	sx := x >= 0x80
	sy := y >= 0x80
	sz := z >= 0x80

	var out Mat3
	for j := 0; j < 3; j++ {
		offset := j * 3
		for i := 0; i < 3; i++ {
			switch i {
			case xi:
				out[offset+i] = signed(m[offset], sx)
			case yi:
				out[offset+i] = signed(m[offset+1], sy)
			case zi:
				out[offset+i] = signed(m[offset+2], sz)
			}
		}
	}
	return out, nil
}

func signed(v float64, negate bool) float64 {
	if negate {
		return -v
	}
	return v
}
