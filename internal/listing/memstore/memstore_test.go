package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/listing"
	"github.com/mohammed-shakir/listing-map/internal/listing/listingtest"
)

func newStore(t *testing.T, seed []model.Listing) *Store {
	t.Helper()
	s, err := New(seed)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestContract(t *testing.T) {
	listingtest.Run(t, func(t *testing.T, seed []model.Listing) listing.Repository {
		return newStore(t, seed)
	})
}

func TestWriterContract(t *testing.T) {
	listingtest.RunWriter(t, func(t *testing.T, seed []model.Listing) listing.Store {
		return newStore(t, seed)
	})
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	seed := listing.Seed()
	seed = append(seed, seed[0])
	if _, err := New(seed); !errors.Is(err, model.ErrInvalidListing) {
		t.Fatalf("want ErrInvalidListing, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	s := newStore(t, listing.Seed())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FetchAll(ctx); err == nil {
		t.Fatal("expected error on FetchAll with canceled context")
	}
	if _, _, err := s.FetchByID(ctx, "1"); err == nil {
		t.Fatal("expected error on FetchByID with canceled context")
	}
}

func TestLen(t *testing.T) {
	s := newStore(t, listing.Seed())
	if s.Len() != 5 {
		t.Fatalf("Len=%d", s.Len())
	}
	_ = s.Delete(context.Background(), "1")
	if s.Len() != 4 {
		t.Fatalf("Len after delete=%d", s.Len())
	}
}
