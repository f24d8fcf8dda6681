package web

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	cachex "github.com/payflowhq/payflow/dashboard/cache"
	paymanx "github.com/payflowhq/payflow/pkg/payman"
)

// rateLimitNotice is the advisory shown when the agent rate-limits a fetch.
const rateLimitNotice = "Payment agent rate limit exceeded. Showing cached or placeholder data."

// fetchFunc fetches one dataset from the agent. The bool is the mock-data
// flag; the error is advisory only and the data is always usable.
type fetchFunc func(ctx context.Context) (any, bool, error)

// loader owns the load/cache cycle for one dataset: cache read first (unless
// forced), fetch on miss, unconditional cache write afterwards. A generation
// counter discards cache writes from fetches that another fetch of the same
// dataset has since superseded; the later-completing winner is still
// last-write-wins, which callers must tolerate.
type loader struct {
	key    string
	keeper *cachex.Keeper
	fetch  fetchFunc
	gen    atomic.Int64
}

// viewData is what a loader resolves and what GET handlers render.
type viewData struct {
	Data      any       `json:"data"`
	Mock      bool      `json:"mock"`
	Cached    bool      `json:"cached"`
	FetchedAt time.Time `json:"fetchedAt"`
	Notice    string    `json:"notice,omitempty"`
}

// load resolves the dataset. ttl is caller-specific: the dashboard judges the
// shared payments entry by its own tighter bound.
func (l *loader) load(ctx context.Context, ttl time.Duration, force bool, cachedMock bool) (viewData, error) {
	if !force {
		var cached json.RawMessage
		storedAt, err := l.keeper.Load(ctx, l.key, ttl, &cached)
		if err == nil {
			return viewData{
				Data:      cached,
				Mock:      cachedMock,
				Cached:    true,
				FetchedAt: storedAt,
			}, nil
		}
		if !errors.Is(err, cachex.ErrCacheMiss) {
			return viewData{}, err
		}
	}

	gen := l.gen.Add(1)

	data, mock, advisory := l.fetch(ctx)
	if advisory != nil && !paymanx.IsRateLimited(advisory) {
		return viewData{}, advisory
	}

	// Cached even when it is the placeholder fallback: the next reader gets
	// whatever was last resolved, mock or not, until the TTL runs out.
	if l.gen.Load() == gen {
		if err := l.keeper.Save(ctx, l.key, data); err != nil {
			log.Warn().Err(err).Str("key", l.key).Msg("cache write failed")
		}
	} else {
		log.Debug().Str("key", l.key).Msg("skipping cache write for superseded fetch")
	}

	out := viewData{
		Data:      data,
		Mock:      mock,
		FetchedAt: time.Now().UTC(),
	}
	if advisory != nil {
		out.Notice = rateLimitNotice
	}
	return out, nil
}
