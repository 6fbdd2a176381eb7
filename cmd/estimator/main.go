// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/relabs-tech/orientation_fusion/internal/app"
	"github.com/relabs-tech/orientation_fusion/internal/config"
)

func main() {
	configPath := pflag.String("config", "./orientation_config.txt", "path to configuration file")
	source := pflag.String("source", "", "sensor source (mock|mqtt), overrides SENSOR_SOURCE")
	pflag.Parse()

	log.Println("starting orientation estimator (sensors -> MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	switch *source {
	case "":
	case config.SourceMock, config.SourceMQTT:
		cfg.SensorSource = *source
	default:
		log.Fatalf("invalid --source %q", *source)
	}
	app.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunEstimator(ctx, cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
