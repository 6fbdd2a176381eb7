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
	pflag.Parse()

	log.Println("starting IMU producer (MPU9250 -> MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	app.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunIMUProducer(ctx, cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
