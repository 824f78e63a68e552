package bootstrap

import (
	"context"
	"fmt"

	"carbonprice-service/internal/application"
	"carbonprice-service/internal/config"
	"carbonprice-service/internal/infrastructure/fetch"
	"carbonprice-service/internal/infrastructure/histgen"
	httpserver "carbonprice-service/internal/infrastructure/http"
	"carbonprice-service/internal/infrastructure/logx"
	"carbonprice-service/internal/infrastructure/pg"
	redisstore "carbonprice-service/internal/infrastructure/redis"
	"carbonprice-service/internal/infrastructure/scheduler"

	"github.com/redis/go-redis/v9"
)

type Repos struct {
	History application.HistoryRepo
	DB      *pg.DB
}

// BuildRepos connects Postgres and runs migrations. With no DATABASE_URL the
// service runs without a durable history store; the per-fetch history
// endpoint then answers 503 while the rest of the API keeps working.
func BuildRepos(ctx context.Context, cfg config.Config) (Repos, func(), error) {
	log := logx.L()
	if cfg.DatabaseURL == "" {
		log.Warn("no DATABASE_URL, price history persistence disabled")
		return Repos{}, func() {}, nil
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return Repos{}, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return Repos{}, func() {}, fmt.Errorf("migrations: %w", err)
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return Repos{History: pg.NewHistoryRepo(db), DB: db}, cleanup, nil
}

// BuildFetchers assembles the fallback chain in priority order. Keyed
// sources join the chain only when their key is configured; the synthetic
// generator terminates the chain and never fails.
func BuildFetchers(cfg config.Config) []application.SourceFetcher {
	fetchers := []application.SourceFetcher{
		fetch.NewICE(cfg.RequestTimeout),
		fetch.NewCarbonCredits(cfg.RequestTimeout),
		fetch.NewInvesting(cfg.RequestTimeout),
	}
	if cfg.AlphaVantageKey != "" {
		fetchers = append(fetchers, fetch.NewAlphaVantage(cfg.AlphaVantageKey, cfg.RequestTimeout))
	}
	if cfg.OilPriceAPIKey != "" {
		fetchers = append(fetchers, fetch.NewOilPrice(cfg.OilPriceAPIKey))
	}
	return append(fetchers, fetch.NewSynthetic())
}

// BuildRefreshGuard builds the force-refresh stampede guard when Redis is
// enabled; otherwise refreshes are not coalesced.
func BuildRefreshGuard(cfg config.Config) (application.RefreshGuard, func()) {
	if cfg.RefreshGuardBackend != "redis" {
		return application.NoopRefreshGuard{}, func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return redisstore.New(rdb, cfg.RefreshGuardTTL), func() { _ = rdb.Close() }
}

// BuildService wires the price pipeline end to end.
func BuildService(cfg config.Config, repos Repos, guard application.RefreshGuard) *application.PriceService {
	log := logx.L()
	cache := application.NewQuoteCache()
	chain := application.NewChain(BuildFetchers(cfg), cache, nil, log)
	return application.NewPriceService(
		chain,
		cache,
		repos.History,
		fetch.NewSynthetic(),
		guard,
		log,
		application.WithCacheDuration(cfg.CacheDuration),
		application.WithUpdateInterval(cfg.UpdateInterval),
	)
}

// BuildScheduler returns the periodic refresh loop for the service.
func BuildScheduler(cfg config.Config, svc *application.PriceService) application.Worker {
	return &scheduler.Scheduler{
		Service: svc,
		Every:   cfg.UpdateInterval,
		Log:     logx.L(),
	}
}

// BuildServer assembles the HTTP surface.
func BuildServer(cfg config.Config, svc *application.PriceService, repos Repos) *httpserver.Server {
	srv := httpserver.NewServer(svc, histgen.New(cfg.HistoricalDataDir, logx.L()), cfg.AdminToken)
	if repos.DB != nil {
		srv.SetReadyCheck(repos.DB.Ping)
	}
	return srv
}
