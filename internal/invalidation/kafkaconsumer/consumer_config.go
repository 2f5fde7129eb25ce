package kafkaconsumer

import (
	"time"

	"github.com/mohammed-shakir/listing-map/internal/core/config"
)

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
	DedupeSize          int
	OpTimeout           time.Duration
}

func FromConfig(c config.Config) Config {
	timeout := c.RepoTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return Config{
		Brokers:             c.Brokers(),
		Topic:               c.Changes.Topic,
		GroupID:             c.Changes.GroupID,
		SessionTimeout:      30 * time.Second,
		Heartbeat:           3 * time.Second,
		RebalanceTimeout:    30 * time.Second,
		InitialOffsetOldest: true,
		DedupeSize:          4096,
		OpTimeout:           timeout,
	}
}
