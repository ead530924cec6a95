// Package main runs the otairec recording service: the control API,
// rotation triggers, segment archiving and metrics around one recorder.
//
// Usage:
//
//	otairecd --config /etc/otairec/config.yaml [--simulate 5s]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/otairec/otairec/pkg/config"
	"github.com/otairec/otairec/pkg/otai/sim"
	"github.com/otairec/otairec/pkg/service"
)

func main() {
	configPath := flag.String("config", "/etc/otairec/config.yaml", "Path to config file")
	directory := flag.String("dir", "", "Recording directory (overrides config)")
	simulate := flag.Duration("simulate", 0, "Drive an in-memory linecard through the recorder at this poll interval (0 disables)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *directory != "" {
		cfg.Recording.Directory = *directory
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	svc, err := service.New(cfg)
	if err != nil {
		slog.Error("failed to start service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if *simulate > 0 {
		go simulateLinecard(ctx, svc.Client(sim.New()), *simulate)
		slog.Info("simulated linecard attached", "interval", *simulate)
	}

	slog.Info("otairecd running", "session", svc.Session(), "path", svc.Recorder().Path())
	if err := svc.Run(ctx); err != nil {
		slog.Error("service stopped", "error", err)
		svc.Close()
		os.Exit(1)
	}
	slog.Info("otairecd stopped cleanly")
}
