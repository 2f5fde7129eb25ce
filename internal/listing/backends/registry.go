// Package backends selects and opens a listing store by name.
package backends

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mohammed-shakir/listing-map/internal/core/config"
	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/listing"
)

const Fallback = "memory"

// Backend is an opened store. Writer and Seeder are nil for read-only
// backends.
type Backend struct {
	Name   string
	Repo   listing.Repository
	Writer listing.Writer
	Seeder Seeder
	Ping   func(ctx context.Context) error
	Close  func() error
}

type Seeder interface {
	Seed(ctx context.Context, listings []model.Listing) error
}

type Factory func(ctx context.Context, cfg config.Config, logger *slog.Logger) (Backend, error)

var reg = map[string]Factory{}

func Register(name string, f Factory) {
	reg[name] = f
}

func Names() []string {
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Open builds the named backend, falling back to the in-memory store for
// unknown names.
func Open(ctx context.Context, name string, cfg config.Config, logger *slog.Logger) (Backend, error) {
	f, ok := reg[name]
	if !ok {
		f, ok = reg[Fallback]
		if !ok {
			return Backend{}, fmt.Errorf("no factory for backend %q and no %s registered", name, Fallback)
		}
		logger.Warn("unknown backend; falling back", "backend", name, "fallback", Fallback)
		name = Fallback
	}
	b, err := f(ctx, cfg, logger)
	if err != nil {
		return Backend{}, fmt.Errorf("open %s backend: %w", name, err)
	}
	b.Name = name
	if b.Ping == nil {
		b.Ping = func(context.Context) error { return nil }
	}
	if b.Close == nil {
		b.Close = func() error { return nil }
	}
	return b, nil
}

// PingFunc adapts a function to health.Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
