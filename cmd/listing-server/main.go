package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/listing-map/internal/core/config"
	"github.com/mohammed-shakir/listing-map/internal/core/observability"
	"github.com/mohammed-shakir/listing-map/internal/core/router"
	"github.com/mohammed-shakir/listing-map/internal/core/server"
	"github.com/mohammed-shakir/listing-map/internal/invalidation/kafkaconsumer"
	"github.com/mohammed-shakir/listing-map/internal/listing"
	"github.com/mohammed-shakir/listing-map/internal/listing/backends"
	"github.com/mohammed-shakir/listing-map/internal/listing/cached"
	"github.com/mohammed-shakir/listing-map/internal/logger"
	h3mapper "github.com/mohammed-shakir/listing-map/internal/mapper/h3"
	"github.com/mohammed-shakir/listing-map/internal/metrics"
	"github.com/mohammed-shakir/listing-map/internal/viewevents"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// overriding backend via flag
	backendFlag := flag.String("backend", "", "listing backend (memory|redis|postgres|remote)")
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	// a missing .env is fine
	_ = godotenv.Load(*envFile)

	cfg := config.FromEnv()
	if *backendFlag != "" {
		cfg.Backend = strings.ToLower(strings.TrimSpace(*backendFlag))
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Backend:   cfg.Backend,
		Component: "listing-server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := backends.Open(ctx, cfg.Backend, cfg, appLog)
	if err != nil {
		appLog.Error("backend setup failed", "err", err, "backend", cfg.Backend)
		return 1
	}
	defer func() { _ = backend.Close() }()

	observability.SetBackend(backend.Name)
	observability.ExposeBuildInfo(Version)
	appLog.Info("starting listing server",
		"addr", cfg.Addr,
		"version", Version,
		"backend", backend.Name,
		"cache", cfg.CacheEnabled,
		"cache_ttl", cfg.CacheTTL)

	if cfg.SeedOnStart && backend.Seeder != nil {
		if err := backend.Seeder.Seed(ctx, listing.Seed()); err != nil {
			appLog.Error("seeding failed", "err", err)
			return 1
		}
	}

	repo := listing.Instrument(backend.Repo, backend.Name)
	var cache *cached.Repo
	if cfg.CacheEnabled {
		cache = cached.New(repo, cfg.CacheSize, cfg.CacheTTL, backend.Name)
		repo = cache
	}

	routes := router.Deps{
		Repo:    repo,
		Spatial: h3mapper.New(cfg.H3Res),
		Logger:  appLog,
		Timeout: cfg.RepoTimeout,
	}

	if cfg.ViewEvents.Enabled {
		pub, err := viewevents.NewPublisher(cfg.Brokers(), cfg.ViewEvents.Topic, 1024, appLog)
		if err != nil {
			appLog.Error("view events setup failed", "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("view events close", "err", err)
			}
		}()
		routes.Views = pub
	}

	opts := server.Options{Routes: routes, Backend: backends.PingFunc(backend.Ping)}

	if cfg.Changes.Enabled {
		var inv kafkaconsumer.Invalidator
		if cache != nil {
			inv = cache
		}
		cons := kafkaconsumer.New(kafkaconsumer.FromConfig(cfg), appLog, backend.Writer, inv)
		opts.Consumer = cons
		go func() {
			if err := cons.Start(ctx); err != nil {
				appLog.Error("change consumer stopped", "err", err)
			}
		}()
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
		p := metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    cfg.Metrics.Addr,
			Path:    cfg.Metrics.Path,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		observability.Init(p.Registerer(), true)
		go func() {
			if err := p.Serve(ctx, appLog); err != nil {
				appLog.Warn("metrics server exited", "err", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, server.NewHandler(cfg, appLog, opts)); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
