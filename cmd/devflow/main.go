package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Godatcode/DevFlow-sub004/internal/config"
	"github.com/Godatcode/DevFlow-sub004/internal/logging"
	"github.com/Godatcode/DevFlow-sub004/internal/service"
)

func main() {
	runRealtime := flag.Bool("realtime", false, "Run the realtime broadcast server")
	runNotifier := flag.Bool("notifier", false, "Run the notification router")
	runAll := flag.Bool("all", false, "Run all services")
	configDir := flag.String("config", "config", "Configuration directory")
	flag.Parse()

	if *runAll || (!*runRealtime && !*runNotifier) {
		*runRealtime = true
		*runNotifier = true
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Shutdown()

	slog.Info("Starting DevFlow core services",
		"realtime", *runRealtime,
		"notifier", *runNotifier,
		"bus_engine", cfg.Bus.Engine,
	)

	mgr := service.NewManager(cfg, service.Options{
		RunRealtime: *runRealtime,
		RunNotifier: *runNotifier,
	})

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelInit()

	if err := mgr.Init(initCtx); err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if err := mgr.Start(bgCtx); err != nil {
		slog.Error("Failed to start services", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	bgCancel()
	mgr.Shutdown(shutdownCtx)

	slog.Info("All services stopped")
}
