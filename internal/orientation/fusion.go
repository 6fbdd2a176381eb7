// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

// Complementary blends a gyro-integrated pose with an accelerometer/magnetometer
// pose, axis by axis: beta·gyro + (1-beta)·accMag. When the two values straddle
// the ±π seam the blend is taken along the shorter arc.
func Complementary(gyro, accMag Pose, beta float64) Pose {
	g := gyro.axes()
	a := accMag.axes()
	var out [3]float64
	for i := range out {
		out[i] = blendAngle(g[i], a[i], beta)
	}
	return poseFromAxes(out)
}

func blendAngle(gyro, accMag, beta float64) float64 {
	if gyro == accMag {
		return gyro
	}
	// Move accMag onto the same branch as gyro, then blend linearly.
	a := gyro + AngleDelta(accMag, gyro)
	return WrapAngle(beta*gyro + (1-beta)*a)
}
