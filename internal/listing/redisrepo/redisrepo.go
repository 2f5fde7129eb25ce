// Package redisrepo stores listings in Redis.
//
// Each listing is a JSON string under "<prefix>listing:item:<id>"; insertion order
// is kept in the sorted set "<prefix>listing:order", scored by a counter.
// Reads and writes run as Lua scripts so a FetchAll never sees half a write.
package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mohammed-shakir/listing-map/internal/cache/redisstore"
	"github.com/mohammed-shakir/listing-map/internal/core/model"
	"github.com/mohammed-shakir/listing-map/internal/listing"
)

var snapshotScript = redis.NewScript(`
local ids = redis.call('ZRANGE', KEYS[1], 0, -1)
local out = {}
for _, id in ipairs(ids) do
  local v = redis.call('GET', ARGV[1] .. id)
  if v then
    table.insert(out, v)
  end
end
return out
`)

var putScript = redis.NewScript(`
if redis.call('ZSCORE', KEYS[1], ARGV[1]) == false then
  local seq = redis.call('INCR', KEYS[2])
  redis.call('ZADD', KEYS[1], seq, ARGV[1])
end
redis.call('SET', KEYS[3], ARGV[2])
return 1
`)

// seedScript inserts each (id, payload) pair of ARGV[2:] whose item key is
// absent and leaves existing records untouched.
var seedScript = redis.NewScript(`
local added = 0
for i = 2, #ARGV, 2 do
  local id = ARGV[i]
  if redis.call('SET', ARGV[1] .. id, ARGV[i + 1], 'NX') then
    if redis.call('ZSCORE', KEYS[1], id) == false then
      local seq = redis.call('INCR', KEYS[2])
      redis.call('ZADD', KEYS[1], seq, id)
    end
    added = added + 1
  end
end
return added
`)

type Repo struct {
	cli    *redisstore.Client
	prefix string
}

var _ listing.Store = (*Repo)(nil)

func New(cli *redisstore.Client, prefix string) *Repo {
	return &Repo{cli: cli, prefix: prefix}
}

func (r *Repo) orderKey() string         { return r.prefix + "listing:order" }
func (r *Repo) seqKey() string           { return r.prefix + "listing:seq" }
func (r *Repo) itemPrefix() string       { return r.prefix + "listing:item:" }
func (r *Repo) itemKey(id string) string { return r.itemPrefix() + id }

func (r *Repo) FetchAll(ctx context.Context) ([]model.Listing, error) {
	v, err := r.cli.RunScript(ctx, "snapshot", snapshotScript, []string{r.orderKey()}, r.itemPrefix())
	if err != nil {
		return nil, fmt.Errorf("redisrepo fetch all: %w", err)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("redisrepo fetch all: unexpected reply %T", v)
	}
	out := make([]model.Listing, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("redisrepo fetch all: unexpected element %T", item)
		}
		var l model.Listing
		if err := json.Unmarshal([]byte(s), &l); err != nil {
			return nil, fmt.Errorf("redisrepo decode listing: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *Repo) FetchByID(ctx context.Context, id string) (model.Listing, bool, error) {
	key := r.itemKey(id)
	rawMap, err := r.cli.MGet(ctx, []string{key})
	if err != nil {
		return model.Listing{}, false, fmt.Errorf("redisrepo fetch %q: %w", id, err)
	}
	raw, ok := rawMap[key]
	if !ok || len(raw) == 0 {
		return model.Listing{}, false, nil
	}
	var l model.Listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return model.Listing{}, false, fmt.Errorf("redisrepo decode %q: %w", id, err)
	}
	return l, true, nil
}

func (r *Repo) SearchByText(ctx context.Context, query string) ([]model.Listing, error) {
	all, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Search(all, query), nil
}

func (r *Repo) Put(ctx context.Context, l model.Listing) error {
	if err := l.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("redisrepo encode %q: %w", l.ID, err)
	}
	keys := []string{r.orderKey(), r.seqKey(), r.itemKey(l.ID)}
	if _, err := r.cli.RunScript(ctx, "put", putScript, keys, l.ID, payload); err != nil {
		return fmt.Errorf("redisrepo put %q: %w", l.ID, err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	err := r.cli.TxPipelined(ctx, "delete", func(p redis.Pipeliner) error {
		p.ZRem(ctx, r.orderKey(), id)
		p.Del(ctx, r.itemKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisrepo delete %q: %w", id, err)
	}
	return nil
}

// Seed inserts listings in order, skipping ids that already exist so records
// updated since the last seed keep their current values. It reports how many
// listings were added.
func (r *Repo) Seed(ctx context.Context, listings []model.Listing) error {
	_, err := r.seed(ctx, listings)
	return err
}

func (r *Repo) seed(ctx context.Context, listings []model.Listing) (int64, error) {
	if err := model.ValidateSet(listings); err != nil {
		return 0, err
	}
	if len(listings) == 0 {
		return 0, nil
	}
	args := make([]any, 0, 1+2*len(listings))
	args = append(args, r.itemPrefix())
	for _, l := range listings {
		payload, err := json.Marshal(l)
		if err != nil {
			return 0, fmt.Errorf("redisrepo encode %q: %w", l.ID, err)
		}
		args = append(args, l.ID, payload)
	}
	v, err := r.cli.RunScript(ctx, "seed", seedScript, []string{r.orderKey(), r.seqKey()}, args...)
	if err != nil {
		return 0, fmt.Errorf("redisrepo seed: %w", err)
	}
	n, _ := v.(int64)
	return n, nil
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.cli.Ping(ctx)
}
