package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"biocat_bridge/internal/api"
	"biocat_bridge/internal/bootstrap"
	"biocat_bridge/internal/collector"
	"biocat_bridge/internal/config"
	"biocat_bridge/internal/coordinator"
	"biocat_bridge/internal/device"
	"biocat_bridge/internal/mqtt"
	"biocat_bridge/internal/watercryst"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	// Optional .env for local development; a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting BIOCAT bridge", "device", cfg.DeviceName, "listen_addr", cfg.Server.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cloud API client
	clientOpts := []watercryst.Option{
		watercryst.WithRetryDelay(cfg.RetryDelay()),
		watercryst.WithMaxAttempts(cfg.Poll.RetryMaxAttempts),
		watercryst.WithLogger(logger),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, watercryst.WithBaseURL(cfg.BaseURL))
	}
	client := watercryst.NewClient(cfg.APIKey, clientOpts...)
	defer client.Close()

	// Coordinators with poll metrics
	stateCoord := coordinator.NewState(client, cfg.StateInterval(), logger)
	measCoord := coordinator.NewMeasurements(client, cfg.MeasurementsInterval(), logger)

	pollMetrics := collector.NewPollMetrics(prometheus.DefaultRegisterer)
	stateCoord.SetCycleHook(pollMetrics.Hook())
	measCoord.SetCycleHook(pollMetrics.Hook())

	// Initial fetch with backoff; a bad key is fatal immediately.
	setupOpts := bootstrap.Options{
		MaxAttempts: cfg.Setup.MaxAttempts,
		BaseDelay:   cfg.SetupBaseDelay(),
	}
	if err := bootstrap.FirstRefresh(ctx, stateCoord, measCoord, setupOpts, logger); err != nil {
		if errors.Is(err, watercryst.ErrAuthentication) {
			logger.Error("API key rejected, check credentials", "error", err)
		} else {
			logger.Error("Device not ready", "error", err)
		}
		os.Exit(1)
	}

	dev := &device.Device{
		Name:         cfg.DeviceName,
		Client:       client,
		State:        stateCoord,
		Measurements: measCoord,
	}

	prometheus.MustRegister(collector.NewBiocatCollector(dev, logger))

	go stateCoord.Run(ctx)
	go measCoord.Run(ctx)

	// Optional MQTT bridge with Home Assistant discovery
	if cfg.MQTT.Enabled {
		topics := mqtt.Topics{
			Prefix:          cfg.MQTT.TopicPrefix,
			DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix,
			NodeID:          cfg.MQTT.ClientID,
		}
		mqttClient, err := mqtt.Connect(cfg.MQTT, topics, logger)
		if err != nil {
			logger.Error("MQTT connection failed", "error", err)
			os.Exit(1)
		}
		defer mqttClient.Close()

		bridge := mqtt.NewBridge(mqttClient, dev, topics, logger)
		if err := bridge.Start(); err != nil {
			logger.Error("MQTT bridge start failed", "error", err)
			os.Exit(1)
		}
		logger.Info("MQTT bridge started", "broker", cfg.MQTT.Host, "prefix", cfg.MQTT.TopicPrefix)
	}

	// Local HTTP surface
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(dev, cfg.Server, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	logger.Info("Bridge stopped")
}

// setupLogger creates a structured logger based on configuration.
func setupLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
