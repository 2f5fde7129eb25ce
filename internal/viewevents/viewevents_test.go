package viewevents

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/listing"
)

func TestRecord_PublishesEvent(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = false
	prod := mocks.NewAsyncProducer(t, cfg)

	var got Event
	prod.ExpectInputWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		if m.Topic != "listing-views" {
			t.Errorf("topic=%q", m.Topic)
		}
		k, _ := m.Key.Encode()
		if string(k) != "4" {
			t.Errorf("key=%q want 4", k)
		}
		b, err := m.Value.Encode()
		if err != nil {
			return err
		}
		return json.Unmarshal(b, &got)
	})

	p := newWithProducer(prod, "listing-views", 4, slog.New(slog.DiscardHandler))
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	p.Record(context.Background(), listing.Seed()[3])
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := Event{ListingID: "4", Type: "for_sale", Lat: 6.136, Lon: 1.223, TS: fixed}
	if got.ListingID != want.ListingID || got.Type != want.Type || got.Lat != want.Lat ||
		got.Lon != want.Lon || !got.TS.Equal(want.TS) {
		t.Fatalf("event got %+v want %+v", got, want)
	}
}

type blockedProducer struct {
	sarama.AsyncProducer
	in chan *sarama.ProducerMessage
}

func (b *blockedProducer) Input() chan<- *sarama.ProducerMessage { return b.in }
func (b *blockedProducer) Errors() <-chan *sarama.ProducerError  { return nil }

func TestPublish_DropsWhenFull(t *testing.T) {
	bp := &blockedProducer{in: make(chan *sarama.ProducerMessage)}
	p := newWithProducer(bp, "t", 1, slog.New(slog.DiscardHandler))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			p.Record(context.Background(), model.Listing{ID: "1"})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}
}
