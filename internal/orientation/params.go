// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"time"

	"github.com/relabs-tech/orientation_fusion/internal/sensors"
)

// Params tunes the estimator. The defaults are empirical: slow smoothing and
// gyro-dominant short-term fusion.
type Params struct {
	// Alpha is the exponential smoothing constant in (0, 1].
	Alpha float64
	// Threshold is the per-axis hysteresis gate in radians.
	Threshold Pose
	// Beta is the gyroscope weight of the complementary filter in [0, 1].
	Beta float64
	// FusionInterval is the period of the complementary filter when a gyroscope is used.
	FusionInterval time.Duration

	Rotation          ScreenRotation
	UseRotationVector bool
	UseGyro           bool
	Delay             sensors.Delay

	// The renderer expects yaw and roll with the opposite sign.
	InvertYaw  bool
	InvertRoll bool
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		Alpha:             0.04,
		Threshold:         Pose{Yaw: 0.02, Pitch: 0.02, Roll: 0.02},
		Beta:              0.98,
		FusionInterval:    30 * time.Millisecond,
		Rotation:          Rotation0,
		UseRotationVector: true,
		UseGyro:           true,
		Delay:             sensors.DelayGame,
		InvertYaw:         true,
		InvertRoll:        true,
	}
}

// Validate checks that the parameters are usable.
func (p Params) Validate() error {
	if !(p.Alpha > 0 && p.Alpha <= 1) {
		return fmt.Errorf("smoothing alpha must be in (0, 1], got %v", p.Alpha)
	}
	if p.Beta < 0 || p.Beta > 1 {
		return fmt.Errorf("fusion coefficient must be in [0, 1], got %v", p.Beta)
	}
	if p.Threshold.Yaw < 0 || p.Threshold.Pitch < 0 || p.Threshold.Roll < 0 {
		return fmt.Errorf("thresholds must not be negative, got %+v", p.Threshold)
	}
	if p.UseGyro && p.FusionInterval <= 0 {
		return fmt.Errorf("fusion interval must be positive, got %v", p.FusionInterval)
	}
	if p.Rotation < Rotation0 || p.Rotation > Rotation270 {
		return fmt.Errorf("invalid screen rotation %d", int(p.Rotation))
	}
	return nil
}
