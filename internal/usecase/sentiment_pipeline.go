package usecase

import (
	"context"
	"time"

	domrepo "marketminds/internal/domain/repository"
	"marketminds/internal/services/sentiment"
	applogger "marketminds/pkg/logger"
	"marketminds/pkg/util"
)

const unscoredFetchLimit = 500

// SentimentPipeline scores stored headlines that have no score yet and
// keeps the per-day sentiment aggregates current. It runs periodically;
// each pass is idempotent because a headline is scored exactly once and
// the daily aggregate is a pure function of its day's scored headlines.
type SentimentPipeline struct {
	store   domrepo.MarketStore
	engine  *sentiment.Engine
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

func NewSentimentPipeline(store domrepo.MarketStore, engine *sentiment.Engine, metrics domrepo.Metrics, logger *applogger.Logger) *SentimentPipeline {
	return &SentimentPipeline{store: store, engine: engine, metrics: metrics, logger: logger}
}

// Start runs the pipeline every `every` until the context is cancelled.
func (p *SentimentPipeline) Start(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Run(ctx); err != nil {
					p.metrics.RecordError("sentiment_pipeline")
					p.logger.Error("sentiment pipeline run", applogger.Error(err))
				}
			}
		}
	}()
}

// Run executes one pass: score pending headlines, then refresh the daily
// aggregates of every (symbol, day) a new score landed on.
func (p *SentimentPipeline) Run(ctx context.Context) error {
	pending, err := p.store.UnscoredHeadlines(ctx, unscoredFetchLimit)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	texts := make([]string, len(pending))
	for i, h := range pending {
		texts[i] = h.Title
	}
	scores, err := p.engine.Score(ctx, texts)
	if err != nil {
		return err
	}

	type dayKey struct {
		symbol string
		date   time.Time
	}
	touched := make(map[dayKey]struct{})
	scored := 0
	for i, h := range pending {
		if err := p.store.SetHeadlineScore(ctx, h.ID, scores[i].Score, scores[i].Label); err != nil {
			p.metrics.RecordError("set_headline_score")
			p.logger.Warn("set headline score",
				applogger.Int64("id", h.ID),
				applogger.Error(err))
			continue
		}
		scored++
		touched[dayKey{h.Symbol, util.Day(h.Date)}] = struct{}{}
	}
	p.metrics.RecordHeadlinesScored(scored)

	for k := range touched {
		if err := p.refreshDay(ctx, k.symbol, k.date); err != nil {
			p.metrics.RecordError("refresh_daily_sentiment")
			p.logger.Warn("refresh daily sentiment",
				applogger.String("symbol", k.symbol),
				applogger.Error(err))
		}
	}

	p.logger.Info("sentiment pipeline pass",
		applogger.Int("scored", scored),
		applogger.Int("days_refreshed", len(touched)))
	return nil
}

// refreshDay recomputes one (symbol, day) aggregate from all of its scored
// headlines. Days that end up with no scored headlines keep no row.
func (p *SentimentPipeline) refreshDay(ctx context.Context, symbol string, day time.Time) error {
	hs, err := p.store.GetHeadlines(ctx, symbol, day, day)
	if err != nil {
		return err
	}
	agg := sentiment.Aggregate(symbol, hs)
	if agg == nil {
		return nil
	}
	return p.store.UpsertDailySentiment(ctx, *agg)
}

// RecomputeRange rebuilds aggregates for [from, to], one day at a time.
// Used by backfills after a bulk headline ingest.
func (p *SentimentPipeline) RecomputeRange(ctx context.Context, symbol string, from, to time.Time) error {
	from, to = util.Day(from), util.Day(to)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := p.refreshDay(ctx, symbol, d); err != nil {
			return err
		}
	}
	return nil
}
