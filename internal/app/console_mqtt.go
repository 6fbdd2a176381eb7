package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/config"
	"github.com/relabs-tech/orientation_fusion/internal/gps"
	"github.com/relabs-tech/orientation_fusion/internal/imu"
	"github.com/relabs-tech/orientation_fusion/internal/orientation"
)

func formatPose(p orientation.Pose) string {
	d := p.Degrees()
	return fmt.Sprintf("[POSE]  ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f", d.Roll, d.Pitch, d.Yaw)
}

func formatFix(f gps.Fix) string {
	return fmt.Sprintf(
		"[GPS ]  time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s sats=%d",
		f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity, f.Satellites,
	)
}

func formatRaw(s imu.IMURaw) string {
	return fmt.Sprintf(
		"[IMU ]  ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d  mx=%6d my=%6d mz=%6d",
		s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz, s.Mx, s.My, s.Mz,
	)
}

// printer decodes a payload into T and prints it with format.
func printer[T any](w io.Writer, name string, format func(T) string) func([]byte) {
	return func(payload []byte) {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			log.Printf("console: %s unmarshal error: %v", name, err)
			return
		}
		fmt.Fprintln(w, format(v))
	}
}

// RunConsoleMQTT prints orientation, GPS and raw IMU messages until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqttDisconnectMs)

	subs := []struct {
		topic   string
		handler func([]byte)
	}{
		{cfg.TopicOrientation, printer(os.Stdout, "pose", formatPose)},
		{cfg.TopicGPS, printer(os.Stdout, "gps", formatFix)},
		{cfg.TopicIMURaw, printer(os.Stdout, "imu", formatRaw)},
	}
	for _, s := range subs {
		if s.topic == "" {
			continue
		}
		if err := subscribe(client, s.topic, s.handler); err != nil {
			return err
		}
	}

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}
