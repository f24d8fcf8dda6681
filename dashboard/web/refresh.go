package web

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	cachex "github.com/payflowhq/payflow/dashboard/cache"
)

// Refresh intervals per view. The payments interval is deliberately long to
// stay under the agent's rate limits.
const (
	DashboardRefreshEvery = 30 * time.Second
	PaymentsRefreshEvery  = 120 * time.Second
)

// Refresher periodically re-resolves the view datasets the way the views
// themselves would, keeping the cache warm between page loads. All refresh
// goroutines stop when ctx is cancelled; Wait blocks until they have.
type Refresher struct {
	handler *Handler
	wg      sync.WaitGroup
}

func NewRefresher(h *Handler) *Refresher {
	return &Refresher{handler: h}
}

// Start launches one refresh loop per view. The dashboard loop forces a
// refetch each tick; the payments loop goes through the cache first, so it
// only hits the agent once the entry has actually gone stale.
func (r *Refresher) Start(ctx context.Context) {
	r.loop(ctx, "dashboard", DashboardRefreshEvery, func(ctx context.Context) error {
		if _, err := r.handler.stats.load(ctx, cachex.DashboardTTL, true, r.handler.cachedMock()); err != nil {
			return err
		}
		_, err := r.handler.payments.load(ctx, cachex.DashboardTTL, true, r.handler.cachedMock())
		return err
	})

	r.loop(ctx, "payments", PaymentsRefreshEvery, func(ctx context.Context) error {
		_, err := r.handler.payments.load(ctx, cachex.PaymentsTTL, false, r.handler.cachedMock())
		return err
	})
}

func (r *Refresher) loop(ctx context.Context, name string, every time.Duration, tick func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Debug().Str("view", name).Msg("refresh loop stopped")
				return
			case <-ticker.C:
				if err := tick(ctx); err != nil {
					log.Warn().Err(err).Str("view", name).Msg("background refresh failed")
				}
			}
		}
	}()
}

// Wait blocks until every refresh loop has exited.
func (r *Refresher) Wait() {
	r.wg.Wait()
}
