package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/orientation"
	"github.com/relabs-tech/orientation_fusion/internal/sensors"
)

// Sensor sources understood by SENSOR_SOURCE.
const (
	SourceMock = "mock"
	SourceMQTT = "mqtt"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDEstimator string
	MQTTClientIDIMU       string
	MQTTClientIDGPS       string
	MQTTClientIDWeb       string
	MQTTClientIDConsole   string

	// Topics
	TopicIMURaw      string
	TopicOrientation string
	TopicGPS         string

	// Sensor service
	SensorSource string         // "mock" or "mqtt"
	SensorTypes  []sensors.Type // sensors the service offers
	SensorDelay  sensors.Delay

	// Estimator
	ScreenRotation    orientation.ScreenRotation
	UseRotationVector bool
	UseGyro           bool
	SmoothingAlpha    float64
	ThresholdYaw      float64 // radians
	ThresholdPitch    float64 // radians
	ThresholdRoll     float64 // radians
	FusionInterval    int     // milliseconds
	FusionCoefficient float64
	InvertYaw         bool
	InvertRoll        bool

	// IMU Hardware
	IMUSPIDevice      string
	IMUCSPin          string
	IMUSampleInterval int // milliseconds

	// Raw count conversion
	AccelLSBPerG  float64
	GyroLSBPerDPS float64
	MagLSBPerUT   float64
	MagOffset     [3]float64 // counts
	MagScale      [3]float64

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Web Server
	WebServerPort int

	LogLevel log.Level
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration with every optional key at its default.
func Default() *Config {
	p := orientation.DefaultParams()
	raw := sensors.DefaultRawConverter()
	return &Config{
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientIDEstimator: "orientation-estimator",
		MQTTClientIDIMU:       "orientation-imu",
		MQTTClientIDGPS:       "orientation-gps",
		MQTTClientIDWeb:       "orientation-web",
		MQTTClientIDConsole:   "orientation-console",

		TopicIMURaw:      "inertial/imu/raw",
		TopicOrientation: "inertial/orientation",
		TopicGPS:         "inertial/gps",

		SensorSource: SourceMock,
		SensorTypes:  append([]sensors.Type(nil), sensors.AllTypes...),
		SensorDelay:  p.Delay,

		ScreenRotation:    p.Rotation,
		UseRotationVector: p.UseRotationVector,
		UseGyro:           p.UseGyro,
		SmoothingAlpha:    p.Alpha,
		ThresholdYaw:      p.Threshold.Yaw,
		ThresholdPitch:    p.Threshold.Pitch,
		ThresholdRoll:     p.Threshold.Roll,
		FusionInterval:    int(p.FusionInterval / time.Millisecond),
		FusionCoefficient: p.Beta,
		InvertYaw:         p.InvertYaw,
		InvertRoll:        p.InvertRoll,

		IMUSPIDevice:      "/dev/spidev0.0",
		IMUCSPin:          "8",
		IMUSampleInterval: 20,

		AccelLSBPerG:  raw.AccelLSBPerG,
		GyroLSBPerDPS: raw.GyroLSBPerDPS,
		MagLSBPerUT:   raw.MagLSBPerMicroT,
		MagScale:      raw.MagScale,

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,

		WebServerPort: 8080,

		LogLevel: log.InfoLevel,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Default. Empty lines and
// lines starting with # are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_ESTIMATOR":
		c.MQTTClientIDEstimator = value
	case "MQTT_CLIENT_ID_IMU":
		c.MQTTClientIDIMU = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_IMU_RAW":
		c.TopicIMURaw = value
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// Sensor service
	case "SENSOR_SOURCE":
		v := strings.ToLower(value)
		if v != SourceMock && v != SourceMQTT {
			return fmt.Errorf("SENSOR_SOURCE must be %q or %q, got %q", SourceMock, SourceMQTT, value)
		}
		c.SensorSource = v
	case "SENSOR_TYPES":
		c.SensorTypes, err = sensors.ParseTypes(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_TYPES %q: %w", value, err)
		}
	case "SENSOR_DELAY":
		c.SensorDelay, err = sensors.ParseDelay(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_DELAY %q: %w", value, err)
		}

	// Estimator
	case "SCREEN_ROTATION":
		deg, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SCREEN_ROTATION %q: %w", value, err)
		}
		c.ScreenRotation, err = orientation.ParseScreenRotation(deg)
		if err != nil {
			return fmt.Errorf("invalid SCREEN_ROTATION: %w", err)
		}
	case "USE_ROTATION_VECTOR":
		c.UseRotationVector, err = parseBool(key, value)
	case "USE_GYRO":
		c.UseGyro, err = parseBool(key, value)
	case "SMOOTHING_ALPHA":
		c.SmoothingAlpha, err = parseFloat(key, value)
	case "THRESHOLD_YAW":
		c.ThresholdYaw, err = parseFloat(key, value)
	case "THRESHOLD_PITCH":
		c.ThresholdPitch, err = parseFloat(key, value)
	case "THRESHOLD_ROLL":
		c.ThresholdRoll, err = parseFloat(key, value)
	case "FUSION_INTERVAL":
		c.FusionInterval, err = parseInt(key, value)
	case "FUSION_COEFFICIENT":
		c.FusionCoefficient, err = parseFloat(key, value)
	case "INVERT_YAW":
		c.InvertYaw, err = parseBool(key, value)
	case "INVERT_ROLL":
		c.InvertRoll, err = parseBool(key, value)

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = parseInt(key, value)

	// Raw count conversion
	case "ACCEL_LSB_PER_G":
		c.AccelLSBPerG, err = parseFloat(key, value)
	case "GYRO_LSB_PER_DPS":
		c.GyroLSBPerDPS, err = parseFloat(key, value)
	case "MAG_LSB_PER_UT":
		c.MagLSBPerUT, err = parseFloat(key, value)
	case "MAG_OFFSET_X":
		c.MagOffset[0], err = parseFloat(key, value)
	case "MAG_OFFSET_Y":
		c.MagOffset[1], err = parseFloat(key, value)
	case "MAG_OFFSET_Z":
		c.MagOffset[2], err = parseFloat(key, value)
	case "MAG_SCALE_X":
		c.MagScale[0], err = parseFloat(key, value)
	case "MAG_SCALE_Y":
		c.MagScale[1], err = parseFloat(key, value)
	case "MAG_SCALE_Z":
		c.MagScale[2], err = parseFloat(key, value)

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parseInt(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		port, perr := parseInt(key, value)
		if perr != nil {
			return perr
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port

	case "LOG_LEVEL":
		c.LogLevel, err = log.ParseLevel(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", value, err)
		}

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// validate checks that all required fields are set and the estimator
// parameters are consistent.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicOrientation == "" {
		return fmt.Errorf("TOPIC_ORIENTATION is required")
	}
	if c.SensorSource == SourceMQTT && c.TopicIMURaw == "" {
		return fmt.Errorf("TOPIC_IMU_RAW is required when SENSOR_SOURCE=mqtt")
	}
	if c.IMUSampleInterval <= 0 {
		return fmt.Errorf("IMU_SAMPLE_INTERVAL must be positive, got %d", c.IMUSampleInterval)
	}
	if c.GPSBaudRate <= 0 {
		return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", c.GPSBaudRate)
	}
	if err := c.OrientationParams().Validate(); err != nil {
		return err
	}
	return c.RawConverter().Validate()
}

// OrientationParams returns the estimator tuning described by the configuration.
func (c *Config) OrientationParams() orientation.Params {
	return orientation.Params{
		Alpha: c.SmoothingAlpha,
		Threshold: orientation.Pose{
			Yaw:   c.ThresholdYaw,
			Pitch: c.ThresholdPitch,
			Roll:  c.ThresholdRoll,
		},
		Beta:              c.FusionCoefficient,
		FusionInterval:    time.Duration(c.FusionInterval) * time.Millisecond,
		Rotation:          c.ScreenRotation,
		UseRotationVector: c.UseRotationVector,
		UseGyro:           c.UseGyro,
		Delay:             c.SensorDelay,
		InvertYaw:         c.InvertYaw,
		InvertRoll:        c.InvertRoll,
	}
}

// RawConverter returns the count conversion for IMU payloads.
func (c *Config) RawConverter() sensors.RawConverter {
	return sensors.RawConverter{
		AccelLSBPerG:    c.AccelLSBPerG,
		GyroLSBPerDPS:   c.GyroLSBPerDPS,
		MagLSBPerMicroT: c.MagLSBPerUT,
		MagOffset:       c.MagOffset,
		MagScale:        c.MagScale,
	}
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
