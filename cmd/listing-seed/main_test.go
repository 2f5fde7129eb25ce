package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/listing-map/internal/core/config"
	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/invalidation"
	"github.com/mohammed-shakir/listing-map/internal/listing"
)

func TestSeed_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.FromEnv()
	cfg.Backend = "redis"
	cfg.RedisAddr = mr.Addr()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	for range 2 {
		if err := seed(context.Background(), cfg, log); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if !mr.Exists("listing:item:3") {
		t.Fatal("listing 3 not written")
	}
}

func TestSeed_RejectsVolatileBackends(t *testing.T) {
	cfg := config.FromEnv()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, b := range []string{"memory", "remote", "bogus"} {
		cfg.Backend = b
		if err := seed(context.Background(), cfg, log); err == nil {
			t.Fatalf("backend %q: expected error", b)
		}
	}
}

func TestPublish_SendsDecodableUpserts(t *testing.T) {
	prod := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	defer func() { _ = prod.Close() }()

	var got []string
	for range listing.Seed() {
		prod.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			ev, err := invalidation.Decode(val)
			if err != nil {
				return err
			}
			if ev.Op != invalidation.OpUpsert || ev.Source != "listing-seed" {
				return errors.New("unexpected event " + ev.Op + "/" + ev.Source)
			}
			got = append(got, ev.ID)
			return nil
		})
	}

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := publish(context.Background(), prod, "listing-changes", listing.Seed(), now); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 5 || got[0] != "1" || got[4] != "5" {
		t.Fatalf("published ids %v", got)
	}
}

func TestPublish_RejectsInvalidListing(t *testing.T) {
	prod := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	defer func() { _ = prod.Close() }()

	bad := []model.Listing{{ID: "x", Area: 0}}
	err := publish(context.Background(), prod, "listing-changes", bad, time.Now())
	if !errors.Is(err, invalidation.ErrInvalidEvent) {
		t.Fatalf("want ErrInvalidEvent, got %v", err)
	}
}
