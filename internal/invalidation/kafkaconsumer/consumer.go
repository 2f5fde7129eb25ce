// Package kafkaconsumer applies listing change events from Kafka to a
// writable store and evicts the affected entries from the read cache.
package kafkaconsumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/IBM/sarama"

	obs "github.com/mohammed-shakir/listing-map/internal/core/observability"
	"github.com/mohammed-shakir/listing-map/internal/invalidation"
	"github.com/mohammed-shakir/listing-map/internal/listing"
	mylog "github.com/mohammed-shakir/listing-map/internal/logger"
)

type Invalidator interface {
	Invalidate(ids ...string)
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	store  listing.Writer
	cache  Invalidator
	dedupe *seqDedupe

	mu    sync.RWMutex
	parts []int32
}

// New builds a consumer. store may be nil when another process owns the
// data and only the cache has to be evicted; cache may be nil when reads
// are not cached.
func New(cfg Config, logger *slog.Logger, store listing.Writer, cache Invalidator) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		store:  store,
		cache:  cache,
		dedupe: newSeqDedupe(cfg.DedupeSize),
	}
}

// Readiness reports whether the consumer currently holds any partition.
func (c *Consumer) Readiness() (bool, []int32) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.parts) > 0, slices.Clone(c.parts)
}

func (c *Consumer) setClaims(claims map[string][]int32) {
	parts := slices.Clone(claims[c.cfg.Topic])
	slices.Sort(parts)
	c.mu.Lock()
	c.parts = parts
	c.mu.Unlock()
}

func (c *Consumer) clearClaims() {
	c.mu.Lock()
	c.parts = nil
	c.mu.Unlock()
}

func (c *Consumer) handler() *groupHandler {
	return &groupHandler{process: c.ProcessOne, onSetup: c.setClaims, onCleanup: c.clearClaims}
}

// Start joins the consumer group and blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.store == nil && c.cache == nil {
		return errors.New("kafkaconsumer: nothing to apply events to (store/cache)")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	ctx = mylog.WithComponent(ctx, "kafka_consumer")
	h := c.handler()

	c.logger.InfoContext(ctx, "listing change consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "listing change consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, h); err != nil {
				c.logger.ErrorContext(ctx, "kafka consumer error",
					"err", err, "brokers", c.cfg.Brokers, "topic", c.cfg.Topic)
				select {
				case <-ctx.Done():
				case <-time.After(2 * time.Second):
				}
			}
		}
	}
}

// ProcessOne applies a single change event. Malformed events and events
// older than one already applied are skipped without error so they do not
// block the partition; store failures are returned so the message is
// retried.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ev, err := invalidation.Decode(msg.Value)
	if err != nil {
		obs.IncChangeEvent("invalid", err)
		c.logger.WarnContext(ctx, "skipping invalid change event",
			"err", err, "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
		return nil
	}
	ctx = mylog.WithListingID(ctx, ev.ID)

	if ev.Seq > 0 && c.dedupe.stale(ev.ID, ev.Seq) {
		obs.IncChangeEvent("stale", nil)
		c.logger.DebugContext(ctx, "skipping stale change event", "op", ev.Op, "seq", ev.Seq)
		return nil
	}

	if err := c.apply(ctx, ev); err != nil {
		obs.IncChangeEvent(ev.Op, err)
		c.logger.ErrorContext(ctx, "apply change event failed",
			"err", err, "op", ev.Op, "partition", msg.Partition, "offset", msg.Offset)
		return fmt.Errorf("apply %s %q: %w", ev.Op, ev.ID, err)
	}
	if c.cache != nil {
		c.cache.Invalidate(ev.ID)
	}
	if ev.Seq > 0 {
		c.dedupe.applied(ev.ID, ev.Seq)
	}

	obs.IncChangeEvent(ev.Op, nil)
	c.logger.DebugContext(ctx, "applied change event", "op", ev.Op, "seq", ev.Seq)
	return nil
}

func (c *Consumer) apply(ctx context.Context, ev invalidation.Event) error {
	if c.store == nil {
		return nil
	}
	if c.cfg.OpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.OpTimeout)
		defer cancel()
	}
	switch ev.Op {
	case invalidation.OpUpsert:
		return c.store.Put(ctx, *ev.Listing)
	case invalidation.OpDelete:
		return c.store.Delete(ctx, ev.ID)
	default:
		return fmt.Errorf("unsupported op %q", ev.Op)
	}
}
