package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/saaga0h/lidar2d-consolidation/internal/orchestrator"
	"github.com/saaga0h/lidar2d-consolidation/pkg/bus"
	"github.com/saaga0h/lidar2d-consolidation/pkg/config"
	"github.com/saaga0h/lidar2d-consolidation/pkg/health"
	"github.com/saaga0h/lidar2d-consolidation/pkg/metrics"
	"github.com/saaga0h/lidar2d-consolidation/pkg/statecache"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Standard bootstrap: CLI options, then logger, then signal handling.
	opts := config.DefaultCLIOptions()
	opts.LoadFromEnv()
	opts.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	if err := opts.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("config file not found, starting with defaults", "path", opts.ConfigFile)
			cfg = config.NewDefault()
			cfg.FilePath = opts.ConfigFile
		} else {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
	}

	logger.Info("starting lidar2d consolidation agent",
		"broker", fmt.Sprintf("%s:%d", opts.BrokerHost, opts.BrokerPort),
		"devices", len(cfg.Devices))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	busClient := bus.NewMQTTClient(bus.Options{
		BrokerAddress: fmt.Sprintf("tcp://%s:%d", opts.BrokerHost, opts.BrokerPort),
		ClientID:      opts.AgentRole + "-" + opts.AgentGroupID,
		Username:      opts.BrokerUser,
		Password:      opts.BrokerPassword,
	}, logger)

	if err := busClient.Connect(ctx); err != nil {
		logger.Error("failed to connect to message bus", "error", err)
		os.Exit(1)
	}

	cache := statecache.Cache(statecache.NopCache{})

	orch := orchestrator.New(cfg, busClient, cache, opts.DefaultMinDistanceThreshold, logger)

	checker := health.NewChecker(busClient, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())
	mux.Handle("/metrics", promhttp.Handler())
	_ = metrics.Get()
	healthServer := &http.Server{Addr: ":8080", Handler: mux}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", "error", err)
		}
	}()

	agentErr := make(chan error, 1)
	go func() {
		if err := orch.Run(ctx); err != nil {
			agentErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-agentErr:
		logger.Error("orchestrator failed", "error", err)
	}

	cancel()
	busClient.Disconnect()
	_ = healthServer.Close()
	logger.Info("lidar2d consolidation agent stopped")
}
