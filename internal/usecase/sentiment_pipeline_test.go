package usecase

import (
	"context"
	"testing"
	"time"

	"marketminds/internal/domain/models"
	"marketminds/internal/repository"
	"marketminds/internal/services/sentiment"
)

func newSentimentPipeline(store *repository.MemoryStore, t *testing.T) *SentimentPipeline {
	engine := sentiment.NewEngine(nil, sentiment.NewLexiconScorer(), nil)
	return NewSentimentPipeline(store, engine, nopMetrics{}, testLogger(t))
}

func TestPipelineRunEmptyStore(t *testing.T) {
	p := newSentimentPipeline(repository.NewMemoryStore(), t)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run on empty store: %v", err)
	}
}

func TestPipelineScoresAndAggregates(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	at := d.Add(13 * time.Hour)

	err := store.StoreHeadlines(ctx, []models.Headline{
		{Symbol: "AAPL", Date: d, PublishedAt: at, Title: "shares surge after record profit"},
		{Symbol: "AAPL", Date: d, PublishedAt: at.Add(time.Hour), Title: "analysts warn of weak outlook"},
		{Symbol: "MSFT", Date: d, PublishedAt: at, Title: "quarterly revenue beats estimates"},
	})
	if err != nil {
		t.Fatalf("store headlines: %v", err)
	}

	p := newSentimentPipeline(store, t)
	if err := p.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	left, err := store.UnscoredHeadlines(ctx, 10)
	if err != nil {
		t.Fatalf("unscored: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("%d headlines left unscored", len(left))
	}

	for _, sym := range []string{"AAPL", "MSFT"} {
		aggs, err := store.GetDailySentiment(ctx, sym, d, d)
		if err != nil {
			t.Fatalf("daily sentiment %s: %v", sym, err)
		}
		if len(aggs) != 1 {
			t.Fatalf("%s: got %d aggregates want 1", sym, len(aggs))
		}
		if aggs[0].TopHeadline == "" {
			t.Fatalf("%s: aggregate missing top headline", sym)
		}
	}

	aapl, _ := store.GetDailySentiment(ctx, "AAPL", d, d)
	if aapl[0].HeadlineCount != 2 {
		t.Fatalf("AAPL headline count %d want 2", aapl[0].HeadlineCount)
	}
	if aapl[0].AvgSentiment < -1 || aapl[0].AvgSentiment > 1 {
		t.Fatalf("average %v out of range", aapl[0].AvgSentiment)
	}
}

func TestPipelineRunIdempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	err := store.StoreHeadlines(ctx, []models.Headline{
		{Symbol: "AAPL", Date: d, PublishedAt: d.Add(9 * time.Hour), Title: "stock rallies on strong growth"},
	})
	if err != nil {
		t.Fatalf("store headlines: %v", err)
	}

	p := newSentimentPipeline(store, t)
	if err := p.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := store.GetDailySentiment(ctx, "AAPL", d, d)

	if err := p.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := store.GetDailySentiment(ctx, "AAPL", d, d)

	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("repeat run changed the aggregate: %+v vs %+v", first, second)
	}
}

func TestRecomputeRange(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	err := store.StoreHeadlines(ctx, []models.Headline{
		{Symbol: "AAPL", Date: d1, PublishedAt: d1.Add(time.Hour), Title: "profit jumps"},
		{Symbol: "AAPL", Date: d2, PublishedAt: d2.Add(time.Hour), Title: "shares plunge on lawsuit"},
	})
	if err != nil {
		t.Fatalf("store headlines: %v", err)
	}

	p := newSentimentPipeline(store, t)
	if err := p.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := p.RecomputeRange(ctx, "AAPL", d1, d2); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	aggs, err := store.GetDailySentiment(ctx, "AAPL", d1, d2)
	if err != nil {
		t.Fatalf("daily sentiment: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("got %d aggregates want 2", len(aggs))
	}
	if !(aggs[0].AvgSentiment > 0) || !(aggs[1].AvgSentiment < 0) {
		t.Fatalf("aggregate signs wrong: %+v", aggs)
	}
}
