// Command listing-seed writes the built-in listing set into a persistent
// backend, or with -publish sends it as upsert events on the change topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/listing-map/internal/core/config"
	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/invalidation"
	"github.com/mohammed-shakir/listing-map/internal/listing"
	"github.com/mohammed-shakir/listing-map/internal/listing/backends"
	"github.com/mohammed-shakir/listing-map/internal/logger"
)

func main() {
	backendFlag := flag.String("backend", "", "target backend (redis|postgres)")
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	timeout := flag.Duration("timeout", 10*time.Second, "overall timeout")
	publishFlag := flag.Bool("publish", false, "publish upsert events to CHANGES_TOPIC instead of writing a backend")
	flag.Parse()

	_ = godotenv.Load(*envFile)
	cfg := config.FromEnv()
	if *backendFlag != "" {
		cfg.Backend = strings.ToLower(strings.TrimSpace(*backendFlag))
	}

	zl := logger.Build(logger.Config{Level: cfg.LogLevel, Console: true, Backend: cfg.Backend, Component: "listing-seed"}, os.Stderr)
	log := logger.NewSlog(&zl)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *publishFlag {
		if err := publishSeed(ctx, cfg); err != nil {
			log.Error("publish failed", "err", err, "topic", cfg.Changes.Topic)
			os.Exit(1)
		}
		log.Info("published listing upserts", "count", len(listing.Seed()), "topic", cfg.Changes.Topic)
		return
	}

	if err := seed(ctx, cfg, log); err != nil {
		log.Error("seed failed", "err", err)
		os.Exit(1)
	}
	log.Info("seeded listings", "count", len(listing.Seed()))
}

func seed(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if _, ok := map[string]bool{"redis": true, "postgres": true}[cfg.Backend]; !ok {
		return fmt.Errorf("backend %q cannot be seeded (want redis or postgres)", cfg.Backend)
	}
	b, err := backends.Open(ctx, cfg.Backend, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()
	if b.Seeder == nil {
		return fmt.Errorf("backend %q has no seeder", b.Name)
	}
	return b.Seeder.Seed(ctx, listing.Seed())
}

func publishSeed(ctx context.Context, cfg config.Config) error {
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_5_0_0
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll

	prod, err := sarama.NewSyncProducer(cfg.Brokers(), sc)
	if err != nil {
		return fmt.Errorf("create sync producer: %w", err)
	}
	defer func() { _ = prod.Close() }()
	return publish(ctx, prod, cfg.Changes.Topic, listing.Seed(), time.Now())
}

// publish sends one upsert event per listing, keyed by id so each listing
// stays on one partition.
func publish(ctx context.Context, prod sarama.SyncProducer, topic string, ls []model.Listing, now time.Time) error {
	msgs := make([]*sarama.ProducerMessage, 0, len(ls))
	for _, l := range ls {
		b, err := invalidation.Encode(invalidation.Event{
			Version: 1,
			Op:      invalidation.OpUpsert,
			ID:      l.ID,
			TS:      now.UTC(),
			Source:  "listing-seed",
			Listing: &l,
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: topic,
			Key:   sarama.StringEncoder(l.ID),
			Value: sarama.ByteEncoder(b),
		})
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prod.SendMessages(msgs); err != nil {
		return fmt.Errorf("send change events: %w", err)
	}
	return nil
}
