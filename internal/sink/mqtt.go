// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/orientation"
)

// Publisher is the part of mqtt.Client used for publishing.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes JSON values to one topic. It waits for each publish
// to be handed to the broker, so put it behind Async when used as an
// orientation sink.
type MQTTPublisher struct {
	client   Publisher
	topic    string
	retained bool
	timeout  time.Duration
}

var _ orientation.Sink = (*MQTTPublisher)(nil)

// NewMQTTPublisher returns a QoS 0 publisher for topic.
func NewMQTTPublisher(client Publisher, topic string, retained bool, timeout time.Duration) *MQTTPublisher {
	return &MQTTPublisher{
		client:   client,
		topic:    topic,
		retained: retained,
		timeout:  timeout,
	}
}

// Topic returns the topic published to.
func (m *MQTTPublisher) Topic() string {
	return m.topic
}

// Publish marshals v and publishes it.
func (m *MQTTPublisher) Publish(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", m.topic, err)
	}
	token := m.client.Publish(m.topic, 0, m.retained, payload)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("MQTT publish (%s): timed out after %v", m.topic, m.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT publish (%s): %w", m.topic, err)
	}
	return nil
}

// PushOrientation publishes p; errors are logged.
func (m *MQTTPublisher) PushOrientation(p orientation.Pose) {
	if err := m.Publish(p); err != nil {
		log.Printf("%v", err)
	}
}
