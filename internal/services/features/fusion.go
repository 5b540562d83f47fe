package features

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
)

// MinWindow is the minimum number of trading days a fusion window must hold
// before a model can be trained or queried on it.
const MinWindow = 20

// Pipeline builds ordered price+sentiment feature sequences from the store.
//
// Gap policy: the sequence is calendar-sparse, indexed by actual trading
// days, so a date without a bar is simply absent. A date without sentiment
// degrades to the neutral default (0), never to a failure.
type Pipeline struct {
	store domrepo.MarketStore
}

// NewPipeline creates a fusion pipeline over the market store.
func NewPipeline(store domrepo.MarketStore) *Pipeline {
	return &Pipeline{store: store}
}

// Fuse produces the feature window of up to `days` calendar days ending at
// `end` (inclusive). Bars and sentiment dated after `end` are never read,
// which is what makes predictions free of look-ahead.
func (p *Pipeline) Fuse(ctx context.Context, symbol string, end time.Time, days int) (*models.FusionWindow, error) {
	end = end.UTC().Truncate(24 * time.Hour)
	from := end.AddDate(0, 0, -days)

	bars, err := p.store.GetBars(ctx, symbol, from, end)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	bars = dedupeBars(bars)
	if len(bars) < MinWindow {
		return nil, fmt.Errorf("%w: %s has %d trading days, need %d",
			models.ErrInsufficientData, symbol, len(bars), MinWindow)
	}

	sents, err := p.store.GetDailySentiment(ctx, symbol, from, end)
	if err != nil {
		return nil, fmt.Errorf("fetch sentiment: %w", err)
	}
	sentByDay := make(map[time.Time]float64, len(sents))
	for _, s := range sents {
		sentByDay[s.Date.UTC().Truncate(24*time.Hour)] = s.AvgSentiment
	}

	return buildWindow(symbol, bars, sentByDay), nil
}

// buildWindow normalizes the bars and attaches sentiment. Scaling parameters
// are derived from this window alone so the same window definition always
// reproduces the same features, at training time and inference time alike.
func buildWindow(symbol string, bars []models.PriceBar, sentByDay map[time.Time]float64) *models.FusionWindow {
	closeScaler := fitScaler(bars, func(b models.PriceBar) float64 { return b.Close })
	volScaler := fitScaler(bars, func(b models.PriceBar) float64 { return math.Log1p(b.Volume) })

	rows := make([]models.FeatureRow, 0, len(bars))
	for _, b := range bars {
		day := b.Date.UTC().Truncate(24 * time.Hour)
		rows = append(rows, models.FeatureRow{
			Date:      day,
			Close:     closeScaler.Scale(b.Close),
			Volume:    volScaler.Scale(math.Log1p(b.Volume)),
			Sentiment: sentByDay[day], // zero value is the neutral default
		})
	}

	return &models.FusionWindow{
		Symbol:      symbol,
		Rows:        rows,
		CloseScaler: closeScaler,
		VolScaler:   volScaler,
		LastClose:   bars[len(bars)-1].Close,
		EndDate:     rows[len(rows)-1].Date,
	}
}

func fitScaler(bars []models.PriceBar, f func(models.PriceBar) float64) models.Scaler {
	lo, hi := f(bars[0]), f(bars[0])
	for _, b := range bars[1:] {
		v := f(b)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return models.Scaler{Min: lo, Max: hi}
}

// dedupeBars drops repeated dates, keeping the first occurrence. Input must
// already be sorted ascending.
func dedupeBars(bars []models.PriceBar) []models.PriceBar {
	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && out[len(out)-1].Date.Equal(b.Date) {
			continue
		}
		out = append(out, b)
	}
	return out
}
