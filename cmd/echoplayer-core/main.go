// Package main implements the entry point for the EchoPlayer core
// process. It hosts the background services behind the player UI:
// settings and vocabulary storage, dictionary lookups, and the IPC
// bridge the UI connects to. Services are registered in a lifecycle
// registry that initializes them in dependency order and disposes them
// in reverse on shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/mkdir700/EchoPlayer-sub001/bridge"
	"github.com/mkdir700/EchoPlayer-sub001/config"
	"github.com/mkdir700/EchoPlayer-sub001/dictionary"
	"github.com/mkdir700/EchoPlayer-sub001/metric"
	"github.com/mkdir700/EchoPlayer-sub001/service"
	"github.com/mkdir700/EchoPlayer-sub001/storage"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "echoplayer-core"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting EchoPlayer core",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	metricsRegistry := metric.NewMetricsRegistry()
	registry := service.NewRegistry(
		service.WithRegistryLogger(logger),
		service.WithRegistryMetrics(metricsRegistry),
	)

	if err := buildServices(cfg, registry, metricsRegistry); err != nil {
		return fmt.Errorf("build services: %w", err)
	}

	return runWithSignalHandling(registry, cliCfg.ShutdownTimeout)
}

// loadConfig assembles the layered configuration: defaults, then the
// optional config file, then ECHOPLAYER_* environment overrides
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	loader.EnableValidation(true)
	if path != "" {
		loader.AddLayer(path)
	}
	return loader.Load()
}

// buildServices constructs the core services and registers them with
// their dependency declarations. Construction order is fixed; the
// registry decides initialization order.
func buildServices(cfg *config.Config, registry *service.Registry, metrics *metric.MetricsRegistry) error {
	store := storage.New(service.WithMetrics(metrics))
	dict := dictionary.New(
		dictionary.WithRecorder(store),
		dictionary.WithBaseOptions(service.WithMetrics(metrics)),
	)
	ipc := bridge.New(
		bridge.WithMonitor(registry.Monitor()),
		bridge.WithBaseOptions(service.WithMetrics(metrics)),
	)

	services := []struct {
		name string
		svc  service.Service
	}{
		{storage.Name, store},
		{dictionary.Name, dict},
		{bridge.Name, ipc},
	}

	for _, entry := range services {
		svcCfg, configured := cfg.Services[entry.name]
		if configured && !svcCfg.Enabled {
			slog.Info("Service disabled in config", "name", entry.name)
			continue
		}

		opts := []service.RegisterOption{
			service.WithPriority(svcCfg.Priority),
			service.WithRequired(svcCfg.Dependencies...),
			service.WithInitOptions(serviceOptions(cfg, entry.name, svcCfg)),
		}
		if !svcCfg.AutoStartEnabled() {
			opts = append(opts, service.WithoutAutoStart())
		}

		if err := registry.Register(entry.name, entry.svc, opts...); err != nil {
			return err
		}
	}
	return nil
}

// serviceOptions derives each service's initialization options from
// the typed config sections, with the free-form per-service options
// applied on top
func serviceOptions(cfg *config.Config, name string, svcCfg config.ServiceConfig) service.InitOptions {
	opts := service.InitOptions{}
	switch name {
	case dictionary.Name:
		opts["base_url"] = cfg.Dictionary.BaseURL
		opts["request_timeout"] = cfg.Dictionary.RequestTimeout
		opts["rate_per_second"] = cfg.Dictionary.RatePerSecond
		opts["cache_ttl"] = cfg.Dictionary.CacheTTL
		opts["language"] = cfg.Player.Language
	case bridge.Name:
		opts["listen_addr"] = cfg.Bridge.ListenAddr
		opts["snapshot_period"] = cfg.Bridge.SnapshotPeriod
	}
	return opts.Merge(svcCfg.Options)
}

// runWithSignalHandling initializes all services and disposes them in
// reverse order once a shutdown signal arrives
func runWithSignalHandling(registry *service.Registry, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := registry.InitializeAll(signalCtx, nil); err != nil {
		// Leave nothing half-started behind a failed pass
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if disposeErr := registry.DisposeAll(shutdownCtx); disposeErr != nil {
			slog.Error("Cleanup after failed startup also failed", "error", disposeErr)
		}
		return fmt.Errorf("initialize services: %w", err)
	}
	slog.Info("EchoPlayer core started", "services", registry.ServiceNames())

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := registry.DisposeAll(shutdownCtx); err != nil {
		return fmt.Errorf("dispose services: %w", err)
	}

	slog.Info("EchoPlayer core stopped cleanly")
	return nil
}
