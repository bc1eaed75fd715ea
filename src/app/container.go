// Package app builds the object graph shared by the API server, the worker and the CLI.
package app

import (
	"context"
	"fmt"

	"portfolio/src/clients/marketdata"
	"portfolio/src/config"
	"portfolio/src/database"
	"portfolio/src/repositories"
	"portfolio/src/services"
	"portfolio/src/utils"
	redis_utils "portfolio/src/utils/redis"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type Container struct {
	DB    *pgxpool.Pool
	Redis *redis_utils.RedisHandler

	PriceCache         *services.PriceCache
	PortfolioService   *services.PortfolioService
	TransactionService *services.TransactionService
	PriceRefresh       *services.PriceRefreshService
	Performance        *services.PerformanceService
}

// NewContainer connects to the stores and wires every service.
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	db, err := database.SetupDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := &Container{DB: db}

	portfolioRepo := repositories.NewPortfolioRepository(db)
	lotRepo := repositories.NewLotRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	performanceRepo := repositories.NewMonthlyPerformanceRepository(db)

	var store services.QuoteStore = repositories.NewPriceQuoteRepository(db)
	if cfg.Cache.Backend == config.CacheBackendRedis {
		if !cfg.Databases.Redis.Enabled {
			db.Close()
			return nil, fmt.Errorf("cache backend %q requires databases.redis.enabled", cfg.Cache.Backend)
		}
		c.Redis, err = redis_utils.NewRedisHandler(ctx, cfg)
		if err != nil {
			db.Close()
			return nil, err
		}
		store = services.NewRedisQuoteStore(c.Redis)
	}
	logger.WithField("backend", cfg.Cache.Backend).Info("Quote store ready")

	fetcher := marketdata.NewClient(cfg)
	locks := utils.NewKeyedMutex()

	c.PriceCache = services.NewPriceCache(store, fetcher)
	ledger := services.NewLedger(lotRepo, c.PriceCache, cfg.Ledger.PriceFetchTimeout)
	aggregator := services.NewAggregator(portfolioRepo, lotRepo)

	c.PortfolioService = services.NewPortfolioService(db, portfolioRepo, lotRepo, performanceRepo)
	c.TransactionService = services.NewTransactionService(db, portfolioRepo, transactionRepo, ledger, aggregator, locks)
	c.PriceRefresh = services.NewPriceRefreshService(db, lotRepo, c.PriceCache, ledger, aggregator, locks,
		cfg.Scheduler.RefreshWorkers, cfg.Ledger.PriceFetchTimeout)
	c.Performance = services.NewPerformanceService(portfolioRepo, performanceRepo)
	return c, nil
}

func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	c.DB.Close()
}
