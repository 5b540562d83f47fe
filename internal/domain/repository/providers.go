package repository

import (
	"context"
	"time"

	"marketminds/internal/domain/models"
)

// MarketDataProvider serves historical daily bars for a symbol.
// Implementations return models.ErrDataUnavailable for unknown symbols
// or provider outages.
type MarketDataProvider interface {
	GetPriceBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
}

// NewsProvider serves raw, unscored headlines for a symbol.
type NewsProvider interface {
	GetHeadlines(ctx context.Context, symbol string, from, to time.Time) ([]models.Headline, error)
}

// QuoteStream is a live price feed used for the last-price gauge.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}
