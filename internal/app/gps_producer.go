package app

import (
	"context"
	"fmt"

	serial "github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/config"
	"github.com/relabs-tech/orientation_fusion/internal/gps"
	"github.com/relabs-tech/orientation_fusion/internal/sink"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes combined GPS fixes as JSON on TOPIC_GPS.
func RunGPSProducer(ctx context.Context, cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqttDisconnectMs)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("open GPS serial port %s: %w", serialOpts.PortName, err)
	}
	log.Printf("GPS serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	// Closing the port unblocks the reader.
	stop := context.AfterFunc(ctx, func() {
		_ = port.Close()
	})
	defer func() {
		if stop() {
			_ = port.Close()
		}
	}()

	pub := sink.NewMQTTPublisher(client, cfg.TopicGPS, true, mqttPublishWait)
	err = gps.ReadFixes(port, publishFix(pub), func(err error) {
		// noisy GPS or partial sentences
		log.Debugf("NMEA parse error: %v", err)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func publishFix(pub jsonPublisher) func(gps.Fix) {
	return func(f gps.Fix) {
		if err := pub.Publish(f); err != nil {
			log.Printf("GPS publish error: %v", err)
			return
		}
		log.Debugf("published GPS fix: %+v", f)
	}
}
