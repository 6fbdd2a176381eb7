// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"strings"
	"time"
)

// StandardGravity in m/s².
const StandardGravity = 9.80665

// Type identifies the kind of sensor a Sample comes from.
type Type int

const (
	Accelerometer Type = iota + 1
	MagneticField
	Gyroscope
	RotationVector
)

// AllTypes lists every sensor type in a stable order.
var AllTypes = []Type{Accelerometer, MagneticField, Gyroscope, RotationVector}

func (t Type) String() string {
	switch t {
	case Accelerometer:
		return "accelerometer"
	case MagneticField:
		return "magnetic_field"
	case Gyroscope:
		return "gyroscope"
	case RotationVector:
		return "rotation_vector"
	}
	return fmt.Sprintf("sensor_type(%d)", int(t))
}

// ParseType parses the names returned by Type.String.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accelerometer", "accel":
		return Accelerometer, nil
	case "magnetic_field", "magnetometer", "mag":
		return MagneticField, nil
	case "gyroscope", "gyro":
		return Gyroscope, nil
	case "rotation_vector", "rotvec":
		return RotationVector, nil
	}
	return 0, fmt.Errorf("unknown sensor type %q", s)
}

// ParseTypes parses a comma separated list of sensor type names.
func ParseTypes(s string) ([]Type, error) {
	var out []Type
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseType(part)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Delay is a delivery rate hint. Services treat it as a request, not a guarantee.
type Delay int

const (
	DelayNormal Delay = iota
	DelayUI
	DelayGame
	DelayFastest
)

// minPeriod is the floor used for DelayFastest by polling services.
const minPeriod = 5 * time.Millisecond

// Period returns the nominal sampling period for the hint.
func (d Delay) Period() time.Duration {
	switch d {
	case DelayFastest:
		return minPeriod
	case DelayGame:
		return 20 * time.Millisecond
	case DelayUI:
		return 66 * time.Millisecond
	}
	return 200 * time.Millisecond
}

func (d Delay) String() string {
	switch d {
	case DelayFastest:
		return "fastest"
	case DelayGame:
		return "game"
	case DelayUI:
		return "ui"
	}
	return "normal"
}

// ParseDelay parses fastest/game/ui/normal.
func ParseDelay(s string) (Delay, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fastest":
		return DelayFastest, nil
	case "game":
		return DelayGame, nil
	case "ui":
		return DelayUI, nil
	case "normal", "":
		return DelayNormal, nil
	}
	return 0, fmt.Errorf("unknown sensor delay %q", s)
}

// Sample is a single reading. Values hold x, y, z in the sensor's unit:
// m/s² for the accelerometer, µT for the magnetometer, rad/s for the gyroscope,
// and the vector part of the unit quaternion for the rotation vector, whose scalar
// part is carried in W when HasW is set.
type Sample struct {
	Type      Type
	Values    [3]float64
	W         float64
	HasW      bool
	Timestamp time.Duration // monotonic, arbitrary origin
}

// Listener receives samples on whatever goroutine the service delivers them from.
type Listener interface {
	OnSample(Sample)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Sample)

func (f ListenerFunc) OnSample(s Sample) { f(s) }

// Registration is returned by Service.Register.
type Registration interface {
	// Unregister stops future callbacks. It is safe to call more than once.
	Unregister()
}

// Service is the handle to the platform sensor subsystem.
type Service interface {
	Available(t Type) bool
	Register(t Type, d Delay, l Listener) (Registration, error)
}
