// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/orientation_fusion/internal/imu"
)

// MPU9250Reader reads accelerometer and gyroscope counts from an MPU9250 over SPI.
// The upstream driver does not expose the AK8963 magnetometer, so readings
// carry HasMag=false.
type MPU9250Reader struct {
	name  string
	imu   *mpu9250.MPU9250
	start time.Time
}

var _ imu.IMURawSource = (*MPU9250Reader)(nil)

// NewMPU9250Reader initializes the MPU9250 on spiDev with chip select csPin.
// Calibration failures are logged and ignored.
func NewMPU9250Reader(name, spiDev, csPin string) (*MPU9250Reader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("%s IMU: CS pin %q not found", name, csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: SPI transport (%s): %w", name, spiDev, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: device creation: %w", name, err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: initialization: %w", name, err)
	}

	if err := dev.Calibrate(); err != nil {
		log.Printf("Warning: %s IMU calibration failed: %v", name, err)
	} else {
		log.Printf("%s IMU calibration complete", name)
	}

	return &MPU9250Reader{name: name, imu: dev, start: time.Now()}, nil
}

// NextRaw reads one accelerometer + gyroscope sample.
func (r *MPU9250Reader) NextRaw() (imu.IMURaw, error) {
	ts := time.Since(r.start)

	ax, err := r.imu.GetAccelerationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU accel X: %w", r.name, err)
	}
	ay, err := r.imu.GetAccelerationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU accel Y: %w", r.name, err)
	}
	az, err := r.imu.GetAccelerationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU accel Z: %w", r.name, err)
	}

	gx, err := r.imu.GetRotationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU gyro X: %w", r.name, err)
	}
	gy, err := r.imu.GetRotationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU gyro Y: %w", r.name, err)
	}
	gz, err := r.imu.GetRotationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU gyro Z: %w", r.name, err)
	}

	return imu.IMURaw{
		Source: r.name,
		TimeNs: ts.Nanoseconds(),
		Ax:     ax,
		Ay:     ay,
		Az:     az,
		Gx:     gx,
		Gy:     gy,
		Gz:     gz,
	}, nil
}
