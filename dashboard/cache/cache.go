// Package cache is the staleness-bounded record cache consulted before any
// agent request. Entries are JSON {data, timestamp} blobs in an opaque
// key-value store; expiry is judged by the reader, never enforced by the
// store, and stale entries are simply overwritten on the next fetch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Dataset keys. One entry per dataset, no schema versioning: a format change
// makes old entries fail to decode, which reads as a miss.
const (
	DashboardKey = "payman_dashboard_cache"
	PaymentsKey  = "payman_payments_cache"
	PayeesKey    = "payman_payees_cache"
)

// Per-dataset staleness bounds.
const (
	DashboardTTL = 2 * time.Minute
	PaymentsTTL  = 5 * time.Minute
	PayeesTTL    = 5 * time.Minute
)

// ErrCacheMiss covers every reason an entry cannot be used: absent key,
// undecodable value, or elapsed TTL. Callers treat them all as "refetch".
var ErrCacheMiss = errors.New("cache miss")

// Store is the opaque key-value blob store underneath the cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Entry is the stored wire format.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch millis
}

// Keeper applies the TTL policy on top of a Store. A nil Keeper (or one with
// a nil store) misses every load and drops every save, so callers need no
// store-present branch.
type Keeper struct {
	store Store
	now   func() time.Time
}

// KeeperOption customizes a Keeper.
type KeeperOption func(*Keeper)

// WithClock replaces the time source, for expiry tests.
func WithClock(now func() time.Time) KeeperOption {
	return func(k *Keeper) {
		if now != nil {
			k.now = now
		}
	}
}

func NewKeeper(store Store, opts ...KeeperOption) *Keeper {
	k := &Keeper{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(k)
		}
	}
	return k
}

// Load reads key and decodes its data into out when the entry is younger
// than ttl. Returns the time the entry was stored. Any failure is ErrCacheMiss.
func (k *Keeper) Load(ctx context.Context, key string, ttl time.Duration, out any) (time.Time, error) {
	if k == nil || k.store == nil {
		return time.Time{}, ErrCacheMiss
	}

	raw, err := k.store.Get(ctx, key)
	if err != nil {
		return time.Time{}, ErrCacheMiss
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return time.Time{}, ErrCacheMiss
	}

	storedAt := time.UnixMilli(entry.Timestamp)
	if k.now().Sub(storedAt) >= ttl {
		return time.Time{}, ErrCacheMiss
	}

	if out != nil {
		if err := json.Unmarshal(entry.Data, out); err != nil {
			return time.Time{}, ErrCacheMiss
		}
	}
	return storedAt, nil
}

// Save writes data under key with the current timestamp, unconditionally
// replacing whatever was there.
func (k *Keeper) Save(ctx context.Context, key string, data any) error {
	if k == nil || k.store == nil {
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal cache data: %w", err)
	}
	entry, err := json.Marshal(Entry{
		Data:      payload,
		Timestamp: k.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := k.store.Set(ctx, key, entry); err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}
