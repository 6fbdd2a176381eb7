// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// IMURaw represents a single raw IMU+mag sample as published on the raw IMU topic.
// Values are sensor counts; conversion to physical units happens on the consumer side.
type IMURaw struct {
	Source string `json:"source"`  // producer name, e.g. "left"
	TimeNs int64  `json:"time_ns"` // monotonic capture time in nanoseconds
	HasMag bool   `json:"has_mag"` // false when the producer has no magnetometer

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Mx int16 `json:"mx"` // magnetometer
	My int16 `json:"my"`
	Mz int16 `json:"mz"`
}

// IMURawSource is anything that can provide raw IMU samples.
type IMURawSource interface {
	NextRaw() (IMURaw, error)
}
