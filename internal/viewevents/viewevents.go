// Package viewevents publishes listing detail views to Kafka.
package viewevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	obs "github.com/mohammed-shakir/listing-map/internal/core/observability"
)

type Event struct {
	ListingID string    `json:"listing_id"`
	Type      string    `json:"type"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	TS        time.Time `json:"ts"`
}

type Publisher struct {
	topic   string
	logger  *slog.Logger
	events  chan Event
	prod    sarama.AsyncProducer
	now     func() time.Time
	stopped chan struct{}
	errDone chan struct{}
	once    sync.Once
}

func NewPublisher(brokers []string, topic string, queueSize int, logger *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("viewevents: create async producer: %w", err)
	}
	return newWithProducer(prod, topic, queueSize, logger), nil
}

func newWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		logger:  logger,
		events:  make(chan Event, queueSize),
		prod:    prod,
		now:     time.Now,
		stopped: make(chan struct{}),
		errDone: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Warn("viewevents: marshal error", "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.ListingID),
				Value: sarama.ByteEncoder(b),
			}
		}
	}()

	go func() {
		defer close(p.errDone)
		for err := range p.prod.Errors() {
			if err != nil {
				p.logger.Warn("viewevents: producer error", "err", err)
			}
		}
	}()

	return p
}

// Record enqueues a view of l. It never blocks: when the queue is full the
// event is dropped and counted.
func (p *Publisher) Record(_ context.Context, l model.Listing) {
	p.Publish(Event{
		ListingID: l.ID,
		Type:      model.CategoryOf(l.Type).String(),
		Lat:       l.Location.Latitude,
		Lon:       l.Location.Longitude,
		TS:        p.now().UTC(),
	})
}

func (p *Publisher) Publish(ev Event) {
	select {
	case p.events <- ev:
	default:
		obs.IncViewEventDropped()
	}
}

// Close drains queued events and closes the producer. Publishing after Close
// panics, so callers stop the HTTP server first.
func (p *Publisher) Close() error {
	var err error
	p.once.Do(func() {
		close(p.events)
		<-p.stopped
		if cerr := p.prod.Close(); cerr != nil {
			err = fmt.Errorf("viewevents: close producer: %w", cerr)
		}
		<-p.errDone
	})
	return err
}
