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
	"github.com/relabs-tech/orientation_fusion/internal/orientation"
)

func main() {
	configPath := pflag.String("config", "", "path to configuration file (defaults are used when empty)")
	rotation := pflag.Int("rotation", -1, "screen rotation in degrees, overrides SCREEN_ROTATION")
	pflag.Parse()

	log.Println("starting orientation console (mock sensors, in-process)")

	cfg := config.Default()
	if *configPath != "" {
		if err := config.InitGlobal(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = config.Get()
	}
	if *rotation >= 0 {
		r, err := orientation.ParseScreenRotation(*rotation)
		if err != nil {
			log.Fatalf("invalid --rotation: %v", err)
		}
		cfg.ScreenRotation = r
	}
	app.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMockConsole(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
