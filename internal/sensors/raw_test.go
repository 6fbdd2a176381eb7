package sensors

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/orientation_fusion/internal/imu"
)

func TestRawConverter_Convert(t *testing.T) {
	c := DefaultRawConverter()
	require.NoError(t, c.Validate())

	samples := c.Convert(imu.IMURaw{
		TimeNs: 5e6,
		Az:     16384,
		Gx:     131,
		Gz:     -262,
	})
	require.Len(t, samples, 2, "no magnetometer sample without HasMag")

	accel := samples[0]
	assert.Equal(t, Accelerometer, accel.Type)
	assert.Equal(t, 5*time.Millisecond, accel.Timestamp)
	assert.InDelta(t, StandardGravity, accel.Values[2], 1e-12)
	assert.Zero(t, accel.Values[0])

	gyro := samples[1]
	assert.Equal(t, Gyroscope, gyro.Type)
	assert.InDelta(t, math.Pi/180, gyro.Values[0], 1e-12)
	assert.InDelta(t, -2*math.Pi/180, gyro.Values[2], 1e-12)
}

func TestRawConverter_MagCalibration(t *testing.T) {
	c := DefaultRawConverter()
	c.MagOffset = [3]float64{10, -20, 0}
	c.MagScale = [3]float64{1, 2, 0.5}

	samples := c.Convert(imu.IMURaw{HasMag: true, Mx: 110, My: 420, Mz: -210})
	require.Len(t, samples, 3)
	mag := samples[2]
	assert.Equal(t, MagneticField, mag.Type)
	assert.InDelta(t, 10, mag.Values[0], 1e-12)
	assert.InDelta(t, 22, mag.Values[1], 1e-12)
	assert.InDelta(t, -42, mag.Values[2], 1e-12)
}

func TestRawConverter_Validate(t *testing.T) {
	c := DefaultRawConverter()
	c.GyroLSBPerDPS = 0
	assert.Error(t, c.Validate())

	c = DefaultRawConverter()
	c.MagScale[1] = 0
	assert.Error(t, c.Validate())
}

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type fakeSubscriber struct {
	mu           sync.Mutex
	handlers     map[string]mqtt.MessageHandler
	err          error
	unsubscribed []string
}

func (f *fakeSubscriber) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return &fakeToken{err: f.err}
	}
	if f.handlers == nil {
		f.handlers = make(map[string]mqtt.MessageHandler)
	}
	f.handlers[topic] = cb
	return &fakeToken{}
}

func (f *fakeSubscriber) Unsubscribe(topics ...string) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topics...)
	for _, topic := range topics {
		delete(f.handlers, topic)
	}
	return &fakeToken{}
}

func (f *fakeSubscriber) deliver(topic string, payload []byte) {
	f.mu.Lock()
	cb := f.handlers[topic]
	f.mu.Unlock()
	if cb != nil {
		cb(nil, &fakeMessage{topic: topic, payload: payload})
	}
}

func TestMQTTService_Deliver(t *testing.T) {
	sub := &fakeSubscriber{}
	svc, err := NewMQTTService(sub, "imu/raw", DefaultRawConverter(), Accelerometer, MagneticField)
	require.NoError(t, err)
	require.NoError(t, svc.Start(time.Second))

	assert.False(t, svc.Available(Gyroscope))
	_, err = svc.Register(Gyroscope, DelayGame, &collector{})
	assert.Error(t, err)

	accel := &collector{}
	mag := &collector{}
	_, err = svc.Register(Accelerometer, DelayGame, accel)
	require.NoError(t, err)
	_, err = svc.Register(MagneticField, DelayGame, mag)
	require.NoError(t, err)

	payload, err := json.Marshal(imu.IMURaw{Source: "left", Az: 16384, HasMag: true, My: 220, Mz: -420})
	require.NoError(t, err)
	sub.deliver("imu/raw", payload)

	require.Equal(t, 1, accel.len())
	require.Equal(t, 1, mag.len())
	assert.InDelta(t, 22, mag.samples[0].Values[1], 1e-12)

	// Without magnetometer data only the accelerometer fires.
	payload, err = json.Marshal(imu.IMURaw{Az: 16384})
	require.NoError(t, err)
	sub.deliver("imu/raw", payload)
	assert.Equal(t, 2, accel.len())
	assert.Equal(t, 1, mag.len())

	svc.HandlePayload([]byte("{not json"))
	assert.Equal(t, 2, accel.len())

	require.NoError(t, svc.Close())
	assert.Equal(t, []string{"imu/raw"}, sub.unsubscribed)
}

func TestMQTTService_Errors(t *testing.T) {
	_, err := NewMQTTService(nil, "imu/raw", DefaultRawConverter())
	assert.Error(t, err)
	_, err = NewMQTTService(&fakeSubscriber{}, "", DefaultRawConverter())
	assert.Error(t, err)
	_, err = NewMQTTService(&fakeSubscriber{}, "imu/raw", RawConverter{})
	assert.Error(t, err)

	svc, err := NewMQTTService(&fakeSubscriber{err: errors.New("not authorized")}, "imu/raw", DefaultRawConverter(), Accelerometer)
	require.NoError(t, err)
	assert.Error(t, svc.Start(time.Second))
}

func TestMQTTService_OffersOnlyRawTypes(t *testing.T) {
	svc, err := NewMQTTService(&fakeSubscriber{}, "imu/raw", DefaultRawConverter(), AllTypes...)
	require.NoError(t, err)
	assert.True(t, svc.Available(Accelerometer))
	assert.True(t, svc.Available(MagneticField))
	assert.True(t, svc.Available(Gyroscope))
	assert.False(t, svc.Available(RotationVector))
}
