// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/imu"
)

// Subscriber is the part of mqtt.Client the MQTT service needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

// MQTTService delivers samples decoded from imu.IMURaw JSON messages on a topic.
// Which sensor types exist cannot be discovered from the stream, so the caller
// declares them.
type MQTTService struct {
	*Dispatcher

	client    Subscriber
	topic     string
	converter RawConverter
}

// NewMQTTService creates a service for topic. Call Start to subscribe.
func NewMQTTService(client Subscriber, topic string, conv RawConverter, types ...Type) (*MQTTService, error) {
	if client == nil {
		return nil, fmt.Errorf("mqtt sensors: nil client")
	}
	if topic == "" {
		return nil, fmt.Errorf("mqtt sensors: empty topic")
	}
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	var offered []Type
	for _, t := range types {
		switch t {
		case Accelerometer, MagneticField, Gyroscope:
			offered = append(offered, t)
		default:
			log.Printf("mqtt sensors: raw IMU payloads carry no %s, not offering it", t)
		}
	}
	return &MQTTService{
		Dispatcher: NewDispatcher(offered...),
		client:     client,
		topic:      topic,
		converter:  conv,
	}, nil
}

// Start subscribes to the raw IMU topic and waits up to timeout for the broker to confirm.
func (s *MQTTService) Start(timeout time.Duration) error {
	token := s.client.Subscribe(s.topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s.HandlePayload(msg.Payload())
	})
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt sensors: subscribe %s: timed out after %v", s.topic, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt sensors: subscribe %s: %w", s.topic, err)
	}
	log.Printf("mqtt sensors: subscribed to %s", s.topic)
	return nil
}

// Close unsubscribes from the topic.
func (s *MQTTService) Close() error {
	token := s.client.Unsubscribe(s.topic)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt sensors: unsubscribe %s: %w", s.topic, err)
	}
	return nil
}

// HandlePayload decodes one message and dispatches the samples for declared types.
// Malformed payloads are logged and dropped.
func (s *MQTTService) HandlePayload(payload []byte) {
	var raw imu.IMURaw
	if err := json.Unmarshal(payload, &raw); err != nil {
		log.Printf("mqtt sensors: raw IMU unmarshal error: %v", err)
		return
	}
	for _, sample := range s.converter.Convert(raw) {
		if !s.Available(sample.Type) {
			continue
		}
		s.Dispatch(sample)
	}
}
