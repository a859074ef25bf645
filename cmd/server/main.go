// Package main - Entry point for the tokengraph server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"tokengraph/adapters/storage"
	"tokengraph/api"
	"tokengraph/core/engine"
	"tokengraph/internal/config"
	"tokengraph/internal/logging"
)

const version = "1.0.0"

func main() {
	addr := flag.String("addr", "", "Server address (overrides config)")
	cfgFile := flag.String("config", "", "Config file path")
	flag.Parse()

	cfg := config.Default()
	if *cfgFile != "" {
		loaded, err := config.Load(*cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
		config.Set(cfg)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	store, err := storage.Open(context.Background(), cfg.Storage.Backend, cfg.Storage.DSN)
	if err != nil {
		logging.Fatal("failed to open storage", zap.Error(err))
	}
	defer store.Close()

	eng, err := engine.New(store, cfg.Billing.SmoothingAlpha)
	if err != nil {
		logging.Fatal("failed to build engine", zap.Error(err))
	}

	server := api.NewServer(eng, version)

	logging.Info("tokengraph server listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("version", version))

	if err := server.ListenAndServe(cfg.Server.Addr); err != nil {
		logging.Fatal("server exited", zap.Error(err))
	}
}
