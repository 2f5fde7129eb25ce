package listing

import (
	"context"
	"time"

	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/core/observability"
)

type instrumented struct {
	next    Repository
	backend string
}

// Instrument records latency and errors of every call under the backend label.
func Instrument(next Repository, backend string) Repository {
	return &instrumented{next: next, backend: backend}
}

func (r *instrumented) FetchAll(ctx context.Context) ([]model.Listing, error) {
	start := time.Now()
	out, err := r.next.FetchAll(ctx)
	observability.ObserveRepoOp(r.backend, "fetch_all", err, time.Since(start).Seconds())
	return out, err
}

func (r *instrumented) FetchByID(ctx context.Context, id string) (model.Listing, bool, error) {
	start := time.Now()
	l, ok, err := r.next.FetchByID(ctx, id)
	observability.ObserveRepoOp(r.backend, "fetch_by_id", err, time.Since(start).Seconds())
	return l, ok, err
}

func (r *instrumented) SearchByText(ctx context.Context, query string) ([]model.Listing, error) {
	start := time.Now()
	out, err := r.next.SearchByText(ctx, query)
	observability.ObserveRepoOp(r.backend, "search", err, time.Since(start).Seconds())
	return out, err
}
