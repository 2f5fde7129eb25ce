package backends

import (
	"context"
	"log/slog"

	"github.com/mohammed-shakir/listing-map/internal/cache/redisstore"
	"github.com/mohammed-shakir/listing-map/internal/core/config"
	"github.com/mohammed-shakir/listing-map/internal/listing"
	"github.com/mohammed-shakir/listing-map/internal/listing/memstore"
	"github.com/mohammed-shakir/listing-map/internal/listing/pgrepo"
	"github.com/mohammed-shakir/listing-map/internal/listing/redisrepo"
	"github.com/mohammed-shakir/listing-map/internal/listing/remote"
)

func init() {
	Register("memory", openMemory)
	Register("redis", openRedis)
	Register("postgres", openPostgres)
	Register("remote", openRemote)
}

func openMemory(_ context.Context, _ config.Config, _ *slog.Logger) (Backend, error) {
	s, err := memstore.New(listing.Seed())
	if err != nil {
		return Backend{}, err
	}
	return Backend{Repo: s, Writer: s, Ping: s.Ping}, nil
}

func openRedis(ctx context.Context, cfg config.Config, _ *slog.Logger) (Backend, error) {
	cli, err := redisstore.New(ctx, cfg.RedisAddr)
	if err != nil {
		return Backend{}, err
	}
	r := redisrepo.New(cli, "")
	return Backend{Repo: r, Writer: r, Seeder: r, Ping: r.Ping, Close: cli.Close}, nil
}

func openPostgres(ctx context.Context, cfg config.Config, _ *slog.Logger) (Backend, error) {
	r, pool, err := pgrepo.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return Backend{}, err
	}
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return Backend{}, err
	}
	return Backend{
		Repo:   r,
		Writer: r,
		Seeder: r,
		Ping:   r.Ping,
		Close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func openRemote(_ context.Context, cfg config.Config, logger *slog.Logger) (Backend, error) {
	c, err := remote.New(remote.Config{
		BaseURL:  cfg.RemoteURL,
		RetryMax: cfg.RemoteRetries,
		RPS:      cfg.RemoteRPS,
		Timeout:  cfg.RepoTimeout,
	}, logger)
	if err != nil {
		return Backend{}, err
	}
	return Backend{Repo: c, Ping: c.Ping}, nil
}
