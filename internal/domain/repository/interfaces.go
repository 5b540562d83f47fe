package repository

import (
	"context"
	"time"

	"marketminds/internal/domain/models"
)

// MarketStore durably keeps price bars, headlines and daily sentiment.
// Bars and headlines are append-only; daily sentiment is last-write-wins
// per (symbol, date).
type MarketStore interface {
	Init(ctx context.Context) error // ensure tables, health checks

	StoreBars(ctx context.Context, bars []models.PriceBar) error
	GetBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
	LatestBar(ctx context.Context, symbol string) (*models.PriceBar, error)

	StoreHeadlines(ctx context.Context, hs []models.Headline) error
	GetHeadlines(ctx context.Context, symbol string, from, to time.Time) ([]models.Headline, error)
	UnscoredHeadlines(ctx context.Context, limit int) ([]models.Headline, error)
	SetHeadlineScore(ctx context.Context, id int64, score float64, label string) error

	UpsertDailySentiment(ctx context.Context, s models.DailySentiment) error
	GetDailySentiment(ctx context.Context, symbol string, from, to time.Time) ([]models.DailySentiment, error)

	Health(ctx context.Context) error
	Close() error
}

// ArtifactStore persists model artifacts and the per-symbol current pointer.
// SetCurrent must be atomic with respect to concurrent Current readers.
type ArtifactStore interface {
	Put(ctx context.Context, a *models.ModelArtifact) error
	Get(ctx context.Context, symbol, version string) (*models.ModelArtifact, error)
	Current(ctx context.Context, symbol string) (*models.ModelArtifact, error) // nil when untrained
	SetCurrent(ctx context.Context, symbol, version string) error
	Close() error
}

// JobStore persists training job records keyed by symbol.
type JobStore interface {
	SaveJob(ctx context.Context, j *models.TrainingJob) error
	LatestJob(ctx context.Context, symbol string) (*models.TrainingJob, error)
}

// EventPublisher emits training lifecycle events for downstream consumers.
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, j *models.TrainingJob) error
	Close() error
}

// Metrics records operational measurements of the prediction core.
type Metrics interface {
	RecordPrediction(symbol, outcome string)
	RecordTrainingJob(symbol, outcome string)
	RecordHeadlinesScored(n int)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}
