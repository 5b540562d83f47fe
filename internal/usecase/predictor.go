package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
	"marketminds/internal/services/features"
	"marketminds/internal/services/forecast"
	applogger "marketminds/pkg/logger"
	"marketminds/pkg/util"
)

// PredictorConfig bounds one prediction request.
type PredictorConfig struct {
	WindowDays int           // calendar days of the inference window
	Timeout    time.Duration // hard cap per request
}

// PredictionOrchestrator serves next-day price predictions. Every request
// re-fuses the latest window and re-runs inference; nothing is cached
// across price or sentiment updates.
type PredictionOrchestrator struct {
	store     domrepo.MarketStore
	fusion    *features.Pipeline
	artifacts *ArtifactManager
	metrics   domrepo.Metrics
	logger    *applogger.Logger
	cfg       PredictorConfig
}

func NewPredictionOrchestrator(
	store domrepo.MarketStore,
	fusion *features.Pipeline,
	artifacts *ArtifactManager,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	cfg PredictorConfig,
) *PredictionOrchestrator {
	return &PredictionOrchestrator{
		store:     store,
		fusion:    fusion,
		artifacts: artifacts,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Predict returns the next-day prediction for the symbol. An untrained
// symbol yields Trained=false with nil predicted fields, not an error.
func (p *PredictionOrchestrator) Predict(ctx context.Context, symbol string) (*models.PredictionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	res, err := p.predict(ctx, symbol)
	p.metrics.RecordLatency("predict", time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordPrediction(symbol, "error")
		return nil, err
	}
	if !res.Trained {
		p.metrics.RecordPrediction(symbol, "untrained")
	} else {
		p.metrics.RecordPrediction(symbol, string(*res.Direction))
	}
	return res, nil
}

func (p *PredictionOrchestrator) predict(ctx context.Context, symbol string) (*models.PredictionResult, error) {
	latest, err := p.store.LatestBar(ctx, symbol)
	if err != nil {
		return nil, err
	}

	model, artifact, err := p.artifacts.CurrentModel(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return &models.PredictionResult{
			Symbol:         symbol,
			Trained:        false,
			CurrentPrice:   latest.Close,
			PredictionDate: nextDay(latest.Date),
		}, nil
	}

	window, err := p.fusion.Fuse(ctx, symbol, latest.Date, p.cfg.WindowDays)
	if err != nil {
		return nil, err
	}
	seq := features.LatestSequence(window)
	if seq == nil {
		return nil, fmt.Errorf("%w: %s window shorter than lookback",
			models.ErrInsufficientData, symbol)
	}

	predicted, err := p.infer(model, seq, window)
	if err != nil {
		return nil, err
	}
	neutral, err := p.infer(model, features.ZeroSentiment(seq), window)
	if err != nil {
		return nil, err
	}

	current := window.LastClose
	change := round2((predicted - current) / current * 100)
	contribution := round2(predicted - neutral)
	dir := direction(predicted, current)

	p.logger.Debug("prediction served",
		applogger.String("symbol", symbol),
		applogger.String("version", artifact.Version))

	return &models.PredictionResult{
		Symbol:                symbol,
		Trained:               true,
		CurrentPrice:          current,
		PredictedPrice:        &predicted,
		Direction:             &dir,
		ChangePercent:         &change,
		SentimentContribution: &contribution,
		PredictionDate:        nextDay(window.EndDate),
		ModelVersion:          artifact.Version,
	}, nil
}

func (p *PredictionOrchestrator) infer(model *forecast.Model, rows []models.FeatureRow, window *models.FusionWindow) (float64, error) {
	seq := make([][]float64, len(rows))
	for i, r := range rows {
		seq[i] = r.Features()
	}
	scaled, err := model.Infer(seq)
	if err != nil {
		return 0, err
	}
	return round2(window.CloseScaler.Unscale(scaled)), nil
}

// direction classifies the forecast move. A flat forecast is not a rise,
// so a tie counts as down.
func direction(predicted, current float64) models.Direction {
	if predicted > current {
		return models.DirectionUp
	}
	return models.DirectionDown
}

func nextDay(d time.Time) time.Time { return util.NextDay(d) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
