package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/orientation_fusion/internal/orientation"
	"github.com/relabs-tech/orientation_fusion/internal/sensors"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("# nothing but a comment\n\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, orientation.DefaultParams(), cfg.OrientationParams())
	assert.Equal(t, sensors.DefaultRawConverter(), cfg.RawConverter())
}

func TestParse_Values(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
MQTT_BROKER = tcp://broker:1883
SENSOR_SOURCE=MQTT
SENSOR_TYPES=accelerometer,magnetic_field
SENSOR_DELAY=fastest
SCREEN_ROTATION=270
USE_GYRO=false
SMOOTHING_ALPHA=0.1
THRESHOLD_YAW=0.05
FUSION_INTERVAL=50
FUSION_COEFFICIENT=0.9
INVERT_ROLL=false
MAG_OFFSET_Y=-12.5
MAG_SCALE_Z=1.2
WEB_SERVER_PORT=9090
LOG_LEVEL=debug
`))
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	assert.Equal(t, SourceMQTT, cfg.SensorSource)
	assert.Equal(t, []sensors.Type{sensors.Accelerometer, sensors.MagneticField}, cfg.SensorTypes)
	assert.Equal(t, 9090, cfg.WebServerPort)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)

	p := cfg.OrientationParams()
	assert.Equal(t, sensors.DelayFastest, p.Delay)
	assert.Equal(t, orientation.Rotation270, p.Rotation)
	assert.False(t, p.UseGyro)
	assert.True(t, p.UseRotationVector)
	assert.Equal(t, 0.1, p.Alpha)
	assert.Equal(t, 0.05, p.Threshold.Yaw)
	assert.Equal(t, 0.02, p.Threshold.Pitch)
	assert.Equal(t, 50*time.Millisecond, p.FusionInterval)
	assert.Equal(t, 0.9, p.Beta)
	assert.True(t, p.InvertYaw)
	assert.False(t, p.InvertRoll)

	raw := cfg.RawConverter()
	assert.Equal(t, [3]float64{0, -12.5, 0}, raw.MagOffset)
	assert.Equal(t, [3]float64{1, 1, 1.2}, raw.MagScale)
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{
		"NOT_A_KEY=1",
		"MQTT_BROKER",
		"MQTT_BROKER=",
		"SENSOR_SOURCE=usb",
		"SENSOR_TYPES=accelerometer,barometer",
		"SENSOR_DELAY=warp",
		"SCREEN_ROTATION=45",
		"SCREEN_ROTATION=left",
		"USE_GYRO=maybe",
		"SMOOTHING_ALPHA=0",
		"SMOOTHING_ALPHA=1.5",
		"FUSION_COEFFICIENT=2",
		"THRESHOLD_ROLL=-0.1",
		"FUSION_INTERVAL=0",
		"IMU_SAMPLE_INTERVAL=abc",
		"MAG_SCALE_X=0",
		"GYRO_LSB_PER_DPS=0",
		"WEB_SERVER_PORT=70000",
		"LOG_LEVEL=loud",
		"SENSOR_SOURCE=mqtt\nTOPIC_IMU_RAW=",
	} {
		_, err := Parse(strings.NewReader(input))
		assert.Error(t, err, input)
	}
}

func TestParse_ReportsLineNumber(t *testing.T) {
	_, err := Parse(strings.NewReader("# header\nMQTT_BROKER=tcp://x:1883\nBOGUS=1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestFusionIntervalIgnoredWithoutGyro(t *testing.T) {
	_, err := Parse(strings.NewReader("USE_GYRO=false\nFUSION_INTERVAL=0\n"))
	assert.NoError(t, err)
}

func TestLoadAndGlobal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "orientation_config.txt")
	require.NoError(t, os.WriteFile(path, []byte("TOPIC_ORIENTATION=test/orientation\n"), 0o644))

	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, "test/orientation", Get().TopicOrientation)

	// Later calls keep the first configuration.
	require.NoError(t, InitGlobal(filepath.Join(t.TempDir(), "other.txt")))
	assert.Equal(t, "test/orientation", Get().TopicOrientation)
}
