package app

import (
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/isv-promotor/stockreview/internal/stock"
	"github.com/isv-promotor/stockreview/internal/suppliers"
)

// StockSources is the configured record source. Cached is set only for the
// postgres source, which is the one the refresh job can warm.
type StockSources struct {
	Records stock.Source
	Cached  *stock.CachedSource
}

// NewStockSources builds the record source selected by STOCK_SOURCE.
func NewStockSources(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger) (StockSources, error) {
	switch cfg.StockSource {
	case SourceHTTP:
		return StockSources{Records: stock.NewHTTPSource(cfg.StockAPIURL, cfg.StockFetchTimeout)}, nil
	case SourcePostgres:
		if pool == nil {
			return StockSources{}, errors.New("app: postgres stock source needs a pool")
		}
		cache := stock.NewSnapshotCache(redisClient, cfg.StockSnapshotTTL)
		cached := stock.NewCachedSource(stock.NewPostgresSource(pool), cache, logger)
		return StockSources{Records: cached, Cached: cached}, nil
	default:
		return StockSources{}, errors.New("app: unknown stock source " + cfg.StockSource)
	}
}

// NewSupplierSource prefers SUPPLIER_URL over the local SUPPLIER_FILE.
func NewSupplierSource(cfg *Config) suppliers.Source {
	if cfg.SupplierURL != "" {
		return suppliers.NewHTTPSource(cfg.SupplierURL, cfg.StockFetchTimeout)
	}
	return suppliers.FileSource{Path: cfg.SupplierFile}
}
