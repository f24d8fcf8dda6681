package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKeeperRoundTrip(t *testing.T) {
	t.Parallel()

	keeper := NewKeeper(NewMemoryStore())
	ctx := context.Background()

	in := []string{"alpha", "beta"}
	if err := keeper.Save(ctx, PayeesKey, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out []string
	storedAt, err := keeper.Load(ctx, PayeesKey, PayeesTTL, &out)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out) != 2 || out[0] != "alpha" || out[1] != "beta" {
		t.Fatalf("Load() data = %v, want %v", out, in)
	}
	if storedAt.IsZero() {
		t.Error("Load() storedAt is zero")
	}
}

func TestKeeperExpiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	keeper := NewKeeper(NewMemoryStore(), WithClock(clock))
	ctx := context.Background()

	if err := keeper.Save(ctx, DashboardKey, map[string]int{"n": 1}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out map[string]int
	if _, err := keeper.Load(ctx, DashboardKey, DashboardTTL, &out); err != nil {
		t.Fatalf("Load() before expiry error = %v", err)
	}

	// Exactly at the TTL boundary the entry is already stale.
	now = now.Add(DashboardTTL)
	if _, err := keeper.Load(ctx, DashboardKey, DashboardTTL, &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Load() at TTL = %v, want ErrCacheMiss", err)
	}
}

func TestKeeperMissingKey(t *testing.T) {
	t.Parallel()

	keeper := NewKeeper(NewMemoryStore())
	if _, err := keeper.Load(context.Background(), "absent", time.Minute, nil); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Load() = %v, want ErrCacheMiss", err)
	}
}

func TestKeeperMalformedEntry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, PaymentsKey, []byte("not json")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	keeper := NewKeeper(store)
	if _, err := keeper.Load(ctx, PaymentsKey, PaymentsTTL, nil); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Load() = %v, want ErrCacheMiss for malformed entry", err)
	}
}

func TestKeeperOverwrite(t *testing.T) {
	t.Parallel()

	keeper := NewKeeper(NewMemoryStore())
	ctx := context.Background()

	if err := keeper.Save(ctx, PayeesKey, "first"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := keeper.Save(ctx, PayeesKey, "second"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out string
	if _, err := keeper.Load(ctx, PayeesKey, PayeesTTL, &out); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out != "second" {
		t.Errorf("Load() = %q, want second", out)
	}
}

func TestNilKeeperDegrades(t *testing.T) {
	t.Parallel()

	var keeper *Keeper
	if _, err := keeper.Load(context.Background(), "k", time.Minute, nil); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("nil keeper Load() = %v, want ErrCacheMiss", err)
	}
	if err := keeper.Save(context.Background(), "k", "v"); err != nil {
		t.Fatalf("nil keeper Save() = %v, want nil", err)
	}
}
