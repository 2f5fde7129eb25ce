// Package cached is a read-through LRU in front of a listing repository.
package cached

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammed-shakir/listing-map/internal/cache/keys"
	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/core/observability"
	"github.com/mohammed-shakir/listing-map/internal/listing"
)

type entry struct {
	list []model.Listing
	one  model.Listing
}

// Repo caches successful reads of next for at most ttl. Misses of FetchByID
// are not cached, so a listing added to the backing store shows up without
// invalidation.
type Repo struct {
	next    listing.Repository
	backend string
	lru     *expirable.LRU[string, entry]

	// mu orders fills against invalidation; gen changes on every Invalidate
	// or Purge so a load that overlapped one is not stored.
	mu  sync.Mutex
	gen uint64
}

var _ listing.Repository = (*Repo)(nil)

// New wraps next. A ttl of zero keeps entries until they are evicted or
// invalidated, which is only safe when every write reaches Invalidate.
func New(next listing.Repository, size int, ttl time.Duration, backend string) *Repo {
	if size <= 0 {
		size = 1024
	}
	return &Repo{
		next:    next,
		backend: backend,
		lru:     expirable.NewLRU[string, entry](size, nil, ttl),
	}
}

func (r *Repo) FetchAll(ctx context.Context) ([]model.Listing, error) {
	return r.list(ctx, keys.All(), func() ([]model.Listing, error) {
		return r.next.FetchAll(ctx)
	})
}

func (r *Repo) SearchByText(ctx context.Context, query string) ([]model.Listing, error) {
	return r.list(ctx, keys.Search(query), func() ([]model.Listing, error) {
		return r.next.SearchByText(ctx, query)
	})
}

func (r *Repo) FetchByID(ctx context.Context, id string) (model.Listing, bool, error) {
	k := keys.ByID(id)
	if e, ok := r.lru.Get(k); ok {
		observability.IncCacheHit(r.backend)
		return e.one, true, nil
	}
	observability.IncCacheMiss(r.backend)
	g := r.generation()
	l, ok, err := r.next.FetchByID(ctx, id)
	if err != nil || !ok {
		return l, ok, err
	}
	r.fill(g, k, entry{one: l})
	return l, true, nil
}

func (r *Repo) list(ctx context.Context, k string, load func() ([]model.Listing, error)) ([]model.Listing, error) {
	if e, ok := r.lru.Get(k); ok {
		observability.IncCacheHit(r.backend)
		return slices.Clone(e.list), nil
	}
	observability.IncCacheMiss(r.backend)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := r.generation()
	out, err := load()
	if err != nil {
		return nil, err
	}
	r.fill(g, k, entry{list: slices.Clone(out)})
	return out, nil
}

func (r *Repo) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// fill stores e unless an invalidation happened since generation g was read.
func (r *Repo) fill(g uint64, k string, e entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != g {
		return
	}
	r.lru.Add(k, e)
}

// Invalidate drops the given ids and every cached multi-listing result, since
// any of them may contain a changed record.
func (r *Repo) Invalidate(ids ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	for _, id := range ids {
		r.lru.Remove(keys.ByID(id))
	}
	for _, k := range r.lru.Keys() {
		if keys.IsList(k) {
			r.lru.Remove(k)
		}
	}
}

func (r *Repo) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.lru.Purge()
}

func (r *Repo) Len() int {
	return r.lru.Len()
}
