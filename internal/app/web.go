package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/config"
	"github.com/relabs-tech/orientation_fusion/internal/gps"
	"github.com/relabs-tech/orientation_fusion/internal/orientation"
	"github.com/relabs-tech/orientation_fusion/internal/sink"
)

// webState holds the latest messages seen on the broker and forwards them to
// the websocket hub and the attitude renderer.
type webState struct {
	hub      *sink.Hub
	attitude *sink.AttitudeRenderer

	mu       sync.RWMutex
	lastPose orientation.Pose
	havePose bool
	lastFix  gps.Fix
	haveFix  bool
}

func newWebState() *webState {
	return &webState{
		hub:      sink.NewHub(),
		attitude: sink.NewAttitudeRenderer(240, 160),
	}
}

func (s *webState) handlePose(payload []byte) {
	var p orientation.Pose
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Printf("web: pose unmarshal error: %v", err)
		return
	}
	s.mu.Lock()
	s.lastPose = p
	s.havePose = true
	s.mu.Unlock()

	s.hub.PushOrientation(p)
	s.attitude.PushOrientation(p)
}

func (s *webState) handleFix(payload []byte) {
	var f gps.Fix
	if err := json.Unmarshal(payload, &f); err != nil {
		log.Printf("web: gps unmarshal error: %v", err)
		return
	}
	s.mu.Lock()
	s.lastFix = f
	s.haveFix = true
	s.mu.Unlock()

	s.hub.PushFix(f)
}

func (s *webState) handler(staticDir string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		p, ok := s.lastPose, s.havePose
		s.mu.RUnlock()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, struct {
			orientation.Pose
			Degrees orientation.Pose `json:"degrees"`
		}{p, p.Degrees()})
	})

	mux.HandleFunc("/api/gps", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		f, ok := s.lastFix, s.haveFix
		s.mu.RUnlock()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, f)
	})

	mux.Handle("/api/attitude.png", s.attitude)
	mux.Handle("/ws", s.hub)

	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// RunWeb subscribes to the orientation and GPS topics and serves them to
// browsers until ctx is done.
func RunWeb(ctx context.Context, cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqttDisconnectMs)

	state := newWebState()
	defer state.hub.Close()

	if err := subscribe(client, cfg.TopicOrientation, state.handlePose); err != nil {
		return err
	}
	if cfg.TopicGPS != "" {
		if err := subscribe(client, cfg.TopicGPS, state.handleFix); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           state.handler("web"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("web server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
