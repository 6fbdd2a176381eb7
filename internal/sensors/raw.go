// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"math"
	"time"

	"github.com/relabs-tech/orientation_fusion/internal/imu"
)

// RawConverter turns raw IMU counts into physical-unit samples.
//
// Magnetometer hard/soft iron correction follows the calibration model
// CorrectedMagAxis = (raw - offset) / scale, applied in counts before the
// LSB/µT conversion.
type RawConverter struct {
	AccelLSBPerG    float64 // counts per g, 16384 for ±2g
	GyroLSBPerDPS   float64 // counts per °/s, 131 for ±250°/s
	MagLSBPerMicroT float64 // counts per µT

	MagOffset [3]float64 // counts
	MagScale  [3]float64 // dimensionless, 1 when uncalibrated
}

// DefaultRawConverter matches an MPU9250 at its power-on ranges and the
// producer's mag encoding (µT × 10).
func DefaultRawConverter() RawConverter {
	return RawConverter{
		AccelLSBPerG:    16384,
		GyroLSBPerDPS:   131,
		MagLSBPerMicroT: 10,
		MagScale:        [3]float64{1, 1, 1},
	}
}

// Validate checks the conversion factors.
func (c RawConverter) Validate() error {
	if c.AccelLSBPerG <= 0 || c.GyroLSBPerDPS <= 0 || c.MagLSBPerMicroT <= 0 {
		return fmt.Errorf("raw converter: LSB factors must be positive (accel=%v gyro=%v mag=%v)",
			c.AccelLSBPerG, c.GyroLSBPerDPS, c.MagLSBPerMicroT)
	}
	for i, s := range c.MagScale {
		if s == 0 {
			return fmt.Errorf("raw converter: mag scale axis %d must not be zero", i)
		}
	}
	return nil
}

// Convert splits one raw reading into accelerometer, gyroscope and (when
// present) magnetometer samples sharing the reading's timestamp.
func (c RawConverter) Convert(r imu.IMURaw) []Sample {
	ts := time.Duration(r.TimeNs)

	accelK := StandardGravity / c.AccelLSBPerG
	gyroK := (math.Pi / 180) / c.GyroLSBPerDPS

	out := make([]Sample, 0, 3)
	out = append(out, Sample{
		Type:      Accelerometer,
		Values:    [3]float64{float64(r.Ax) * accelK, float64(r.Ay) * accelK, float64(r.Az) * accelK},
		Timestamp: ts,
	})
	out = append(out, Sample{
		Type:      Gyroscope,
		Values:    [3]float64{float64(r.Gx) * gyroK, float64(r.Gy) * gyroK, float64(r.Gz) * gyroK},
		Timestamp: ts,
	})
	if r.HasMag {
		raw := [3]float64{float64(r.Mx), float64(r.My), float64(r.Mz)}
		var v [3]float64
		for i := range raw {
			v[i] = (raw[i] - c.MagOffset[i]) / c.MagScale[i] / c.MagLSBPerMicroT
		}
		out = append(out, Sample{Type: MagneticField, Values: v, Timestamp: ts})
	}
	return out
}
