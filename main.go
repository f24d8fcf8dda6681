package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	cachex "github.com/payflowhq/payflow/dashboard/cache"
	contractx "github.com/payflowhq/payflow/dashboard/contract"
	"github.com/payflowhq/payflow/dashboard/service"
	"github.com/payflowhq/payflow/dashboard/web"
	configx "github.com/payflowhq/payflow/pkg/config"
	logx "github.com/payflowhq/payflow/pkg/logger"
	paymanx "github.com/payflowhq/payflow/pkg/payman"
)

type AppConfig struct {
	RedisURL string `envconfig:"REDIS_URL" split_words:"true"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("")

	// The gateway is optional: without credentials the whole dashboard runs on
	// placeholder data for the session, which is a feature, not a failure.
	var gateway contractx.Gateway
	paymanCfg := configx.MustNew[paymanx.Config]("PAYMAN")
	client, err := paymanx.NewClient(*paymanCfg)
	switch {
	case err == nil:
		gateway = client
		log.Info().Msg("payman gateway configured")
	case errors.Is(err, paymanx.ErrNotConfigured):
		log.Warn().Msg("payman credentials missing, running in placeholder mode")
	default:
		log.Warn().Err(err).Msg("payman gateway unavailable, running in placeholder mode")
	}

	store := buildStore(*appCfg)
	keeper := cachex.NewKeeper(store)

	svc := service.New(gateway)
	var handlerOpts []web.HandlerOption
	if pinger, ok := store.(web.Pinger); ok {
		handlerOpts = append(handlerOpts, web.WithPinger(pinger))
	}
	handler := web.NewHandler(svc, keeper, handlerOpts...)
	router := web.NewRouter(handler)

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	refresher := web.NewRefresher(handler)
	refresher.Start(refreshCtx)

	serverCfg := configx.MustNew[web.ServerConfig]("HTTP")
	srv := web.NewServer(router, *serverCfg)
	srv.OnShutdown(func(ctx context.Context) {
		stopRefresh()
		refresher.Wait()
		if closer, ok := store.(interface{ Close() error }); ok && closer != nil {
			if err := closer.Close(); err != nil {
				log.Warn().Err(err).Msg("cache store close failed")
			}
		}
	})

	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// buildStore picks the cache backend: Redis when a URL is configured, the
// Upstash REST backend when its credentials are present, otherwise an
// in-process map that lives and dies with the process.
func buildStore(cfg AppConfig) cachex.Store {
	if cfg.RedisURL != "" {
		store, err := cachex.NewRedisStore(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		log.Info().Msg("connected to redis cache")
		return store
	}

	upstashCfg := configx.MustNew[cachex.UpstashConfig]("UPSTASH_REDIS")
	if upstashCfg.Configured() {
		store, err := cachex.NewUpstashStore(*upstashCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build upstash store")
		}
		log.Info().Msg("using upstash rest cache")
		return store
	}

	log.Warn().Msg("no cache backend configured, using in-memory store")
	return cachex.NewMemoryStore()
}
