// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/config"
	"github.com/relabs-tech/orientation_fusion/internal/orientation"
	"github.com/relabs-tech/orientation_fusion/internal/sensors"
	"github.com/relabs-tech/orientation_fusion/internal/sensors/mock"
	"github.com/relabs-tech/orientation_fusion/internal/sink"
)

const statsInterval = 10 * time.Second

// sensorService is a sensors.Service that owns resources.
type sensorService interface {
	sensors.Service
	Close() error
}

// openSensorService builds the service selected by SENSOR_SOURCE. client may
// be nil for the mock source.
func openSensorService(cfg *config.Config, client mqtt.Client) (sensorService, error) {
	switch cfg.SensorSource {
	case config.SourceMock:
		log.Printf("estimator: using mock sensors %v", cfg.SensorTypes)
		return mock.New(nil, cfg.SensorTypes...), nil
	case config.SourceMQTT:
		if client == nil {
			return nil, fmt.Errorf("mqtt sensor source needs an MQTT client")
		}
		svc, err := sensors.NewMQTTService(client, cfg.TopicIMURaw, cfg.RawConverter(), cfg.SensorTypes...)
		if err != nil {
			return nil, err
		}
		if err := svc.Start(mqttSubscribeWait); err != nil {
			return nil, err
		}
		return svc, nil
	}
	return nil, fmt.Errorf("unknown sensor source %q", cfg.SensorSource)
}

// RunEstimator runs the orientation estimator until ctx is done, publishing
// every accepted orientation on TOPIC_ORIENTATION.
func RunEstimator(ctx context.Context, cfg *config.Config) (err error) {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDEstimator)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqttDisconnectMs)

	svc, err := openSensorService(cfg, client)
	if err != nil {
		return err
	}

	pub := sink.NewMQTTPublisher(client, cfg.TopicOrientation, true, mqttPublishWait)
	async := sink.NewAsync(pub, 8)
	out := orientation.MultiSink{async, sink.Logger{Prefix: "estimator: "}}

	est, err := orientation.NewEstimator(svc, out, cfg.OrientationParams())
	if err != nil {
		return multierror.Append(err, async.Close(), svc.Close()).ErrorOrNil()
	}

	defer func() {
		var result *multierror.Error
		if cerr := est.Close(); cerr != nil {
			result = multierror.Append(result, fmt.Errorf("estimator close: %w", cerr))
		}
		if cerr := svc.Close(); cerr != nil {
			result = multierror.Append(result, fmt.Errorf("sensor service close: %w", cerr))
		}
		if cerr := async.Close(); cerr != nil {
			result = multierror.Append(result, fmt.Errorf("publisher close: %w", cerr))
		}
		if result != nil && err == nil {
			err = result.ErrorOrNil()
		}
		log.Printf("estimator: stopped (%+v, dropped=%d)", est.Stats(), async.Dropped())
	}()

	if err := est.Start(ctx); err != nil {
		return err
	}
	log.Printf("estimator: publishing on %s (mode=%s)", cfg.TopicOrientation, est.Mode())

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st := est.Stats()
			log.Debugf("estimator: samples=%d emitted=%d suppressed=%d failures=%d fusion=%d",
				st.Samples, st.Emitted, st.Suppressed, st.DerivationFailures, st.FusionTicks)
		}
	}
}
