package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/config"
	"github.com/relabs-tech/orientation_fusion/internal/imu"
	"github.com/relabs-tech/orientation_fusion/internal/orientation"
	"github.com/relabs-tech/orientation_fusion/internal/sensors"
	"github.com/relabs-tech/orientation_fusion/internal/sink"
)

// imuLogEvery controls how often the producer logs a tilt estimate.
const imuLogEvery = 50

// RunIMUProducer reads the MPU9250 every IMU_SAMPLE_INTERVAL and publishes
// the raw counts on TOPIC_IMU_RAW for the estimator's MQTT sensor service.
func RunIMUProducer(ctx context.Context, cfg *config.Config) error {
	log.Println("starting IMU producer (MPU9250 -> MQTT)")

	reader, err := sensors.NewMPU9250Reader("imu", cfg.IMUSPIDevice, cfg.IMUCSPin)
	if err != nil {
		return err
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDIMU)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqttDisconnectMs)

	pub := sink.NewMQTTPublisher(client, cfg.TopicIMURaw, false, mqttPublishWait)
	interval := time.Duration(cfg.IMUSampleInterval) * time.Millisecond
	log.Printf("publishing raw IMU on %s every %v", cfg.TopicIMURaw, interval)

	return publishRaw(ctx, reader, pub, cfg.RawConverter(), interval)
}

// publishRaw polls src until ctx is done. Read and publish errors are logged
// and the sample skipped.
func publishRaw(ctx context.Context, src imu.IMURawSource, pub jsonPublisher, conv sensors.RawConverter, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid IMU sample interval %v", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var count uint64
	for {
		select {
		case <-ctx.Done():
			log.Printf("IMU producer: stopped after %d samples", count)
			return nil
		case <-ticker.C:
		}

		raw, err := src.NextRaw()
		if err != nil {
			log.Printf("IMU read error: %v", err)
			continue
		}
		if err := pub.Publish(raw); err != nil {
			log.Printf("%v", err)
			continue
		}
		count++

		if count%imuLogEvery == 1 {
			logTilt(raw, conv)
		}
	}
}

func logTilt(raw imu.IMURaw, conv sensors.RawConverter) {
	for _, s := range conv.Convert(raw) {
		if s.Type != sensors.Accelerometer {
			continue
		}
		d := orientation.ComputePoseFromAccel(s.Values[0], s.Values[1], s.Values[2]).Degrees()
		log.Printf("IMU tilt: pitch=%.1f° roll=%.1f° (accel %d,%d,%d gyro %d,%d,%d)",
			d.Pitch, d.Roll, raw.Ax, raw.Ay, raw.Az, raw.Gx, raw.Gy, raw.Gz)
	}
}
