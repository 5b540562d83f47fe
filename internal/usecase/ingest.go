package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "marketminds/internal/domain/repository"
	applogger "marketminds/pkg/logger"
)

// Ingestor pulls history from the external providers into the market store.
// Pulls are idempotent: bars and headlines already stored are not rewritten.
type Ingestor struct {
	market  domrepo.MarketDataProvider
	news    domrepo.NewsProvider
	store   domrepo.MarketStore
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

func NewIngestor(market domrepo.MarketDataProvider, news domrepo.NewsProvider, store domrepo.MarketStore, metrics domrepo.Metrics, logger *applogger.Logger) *Ingestor {
	return &Ingestor{market: market, news: news, store: store, metrics: metrics, logger: logger}
}

// PullBars fetches the last `days` of daily bars for the symbol.
func (in *Ingestor) PullBars(ctx context.Context, symbol string, days int) (int, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	start := time.Now()
	bars, err := in.market.GetPriceBars(ctx, symbol, from, to)
	in.metrics.RecordLatency("provider_bars", time.Since(start).Seconds())
	if err != nil {
		in.metrics.RecordError("provider_bars")
		return 0, err
	}
	if err := in.store.StoreBars(ctx, bars); err != nil {
		return 0, fmt.Errorf("store bars %s: %w", symbol, err)
	}
	return len(bars), nil
}

// PullHeadlines fetches the last `days` of headlines for the symbol. The
// new headlines land unscored; the sentiment pipeline picks them up.
func (in *Ingestor) PullHeadlines(ctx context.Context, symbol string, days int) (int, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	start := time.Now()
	hs, err := in.news.GetHeadlines(ctx, symbol, from, to)
	in.metrics.RecordLatency("provider_news", time.Since(start).Seconds())
	if err != nil {
		in.metrics.RecordError("provider_news")
		return 0, err
	}
	if err := in.store.StoreHeadlines(ctx, hs); err != nil {
		return 0, fmt.Errorf("store headlines %s: %w", symbol, err)
	}
	return len(hs), nil
}

// Backfill pulls bars and headlines for every symbol. Provider failures
// for one symbol are logged and do not abort the rest.
func (in *Ingestor) Backfill(ctx context.Context, symbols []string, days int) {
	for _, sym := range symbols {
		if n, err := in.PullBars(ctx, sym, days); err != nil {
			in.logger.Warn("backfill bars", applogger.String("symbol", sym), applogger.Error(err))
		} else {
			in.logger.Info("backfill bars", applogger.String("symbol", sym), applogger.Int("rows", n))
		}
		if n, err := in.PullHeadlines(ctx, sym, days); err != nil {
			in.logger.Warn("backfill headlines", applogger.String("symbol", sym), applogger.Error(err))
		} else {
			in.logger.Info("backfill headlines", applogger.String("symbol", sym), applogger.Int("rows", n))
		}
	}
}
