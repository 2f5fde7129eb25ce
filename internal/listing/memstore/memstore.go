// Package memstore is the in-process listing store seeded at startup.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/listing"
)

type Store struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]model.Listing
}

var _ listing.Store = (*Store)(nil)

// New builds a store holding seed in the given order.
func New(seed []model.Listing) (*Store, error) {
	if err := model.ValidateSet(seed); err != nil {
		return nil, fmt.Errorf("memstore seed: %w", err)
	}
	s := &Store{
		order: make([]string, 0, len(seed)),
		byID:  make(map[string]model.Listing, len(seed)),
	}
	for _, l := range seed {
		s.order = append(s.order, l.ID)
		s.byID[l.ID] = l
	}
	return s, nil
}

func (s *Store) FetchAll(ctx context.Context) ([]model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Listing, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *Store) FetchByID(ctx context.Context, id string) (model.Listing, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Listing{}, false, err
	}
	s.mu.RLock()
	l, ok := s.byID[id]
	s.mu.RUnlock()
	return l, ok, nil
}

func (s *Store) SearchByText(ctx context.Context, query string) ([]model.Listing, error) {
	all, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Search(all, query), nil
}

// Put inserts l at the end, or replaces the record with the same id in place.
func (s *Store) Put(_ context.Context, l model.Listing) error {
	if err := l.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[l.ID]; !ok {
		s.order = append(s.order, l.ID)
	}
	s.byID[l.ID] = l
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return nil
	}
	delete(s.byID, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
