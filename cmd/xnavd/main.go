// Command xnavd runs the reverse proxy: it loads configuration, starts
// one listening Server per configured entry, and shuts them all down
// cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/L3oNav/xnav/internal/config"
	"github.com/L3oNav/xnav/internal/logging"
	"github.com/L3oNav/xnav/internal/master"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the proxy's TOML config file")
	flag.Parse()

	logging.Init(logging.DefaultConfig())

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
		return 1
	}

	m, err := master.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build master")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Int("servers", len(cfg.Servers)).Msg("starting xnav")
	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("master exited with error")
		return 1
	}

	logging.Info().Msg("xnav stopped")
	return 0
}
