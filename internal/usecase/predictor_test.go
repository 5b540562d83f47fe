package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"marketminds/internal/domain/models"
	"marketminds/internal/repository"
	"marketminds/internal/services/features"
)

func newPredictor(store *repository.MemoryStore, artifacts *ArtifactManager, t *testing.T) *PredictionOrchestrator {
	return NewPredictionOrchestrator(
		store,
		features.NewPipeline(store),
		artifacts,
		nopMetrics{},
		testLogger(t),
		PredictorConfig{WindowDays: 60, Timeout: 30 * time.Second},
	)
}

func TestPredictNoData(t *testing.T) {
	store := repository.NewMemoryStore()
	pred := newPredictor(store, NewArtifactManager(store), t)

	_, err := pred.Predict(context.Background(), "AAPL")
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable, got %v", err)
	}
}

func TestPredictUntrainedSymbol(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRecentBars(t, store, "AAPL", 60)
	pred := newPredictor(store, NewArtifactManager(store), t)

	res, err := pred.Predict(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.Trained {
		t.Fatal("symbol without a model must report Trained=false")
	}
	if res.PredictedPrice != nil || res.Direction != nil || res.ChangePercent != nil || res.SentimentContribution != nil {
		t.Fatalf("untrained result must not carry predicted fields: %+v", res)
	}
	if res.ModelVersion != "" {
		t.Fatalf("untrained result has model version %q", res.ModelVersion)
	}

	latest, err := store.LatestBar(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("latest bar: %v", err)
	}
	if res.CurrentPrice != latest.Close {
		t.Fatalf("current price %.2f want %.2f", res.CurrentPrice, latest.Close)
	}
	wantDate := latest.Date.UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	if !res.PredictionDate.Equal(wantDate) {
		t.Fatalf("prediction date %v want %v", res.PredictionDate, wantDate)
	}
}

func TestPredictTrainedSymbol(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRecentBars(t, store, "AAPL", 60)
	artifacts := NewArtifactManager(store)
	trainer := newTrainer(store, artifacts, store, t)
	if _, err := trainer.Train(context.Background(), "AAPL", 365); err != nil {
		t.Fatalf("train: %v", err)
	}

	pred := newPredictor(store, artifacts, t)
	res, err := pred.Predict(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !res.Trained {
		t.Fatal("expected a trained prediction")
	}
	if res.PredictedPrice == nil || res.Direction == nil || res.ChangePercent == nil || res.SentimentContribution == nil {
		t.Fatalf("trained result missing fields: %+v", res)
	}
	if res.ModelVersion == "" {
		t.Fatal("trained result missing model version")
	}
	if math.IsNaN(*res.PredictedPrice) || math.IsInf(*res.PredictedPrice, 0) {
		t.Fatalf("predicted price is not finite: %v", *res.PredictedPrice)
	}

	// change percent and direction must be consistent with the prices
	wantChange := math.Round((*res.PredictedPrice-res.CurrentPrice)/res.CurrentPrice*100*100) / 100
	if *res.ChangePercent != wantChange {
		t.Fatalf("change %.4f want %.4f", *res.ChangePercent, wantChange)
	}
	wantDir := models.DirectionDown
	if *res.PredictedPrice > res.CurrentPrice {
		wantDir = models.DirectionUp
	}
	if *res.Direction != wantDir {
		t.Fatalf("direction %q want %q", *res.Direction, wantDir)
	}

	latest, err := store.LatestBar(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("latest bar: %v", err)
	}
	wantDate := latest.Date.UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	if !res.PredictionDate.Equal(wantDate) {
		t.Fatalf("prediction date %v want %v", res.PredictionDate, wantDate)
	}
}

func TestDirectionTieIsDown(t *testing.T) {
	// rounding to cents makes an exact tie plausible; flat is not a rise
	cases := []struct {
		predicted, current float64
		want               models.Direction
	}{
		{101.00, 100.00, models.DirectionUp},
		{100.00, 100.00, models.DirectionDown},
		{99.99, 100.00, models.DirectionDown},
	}
	for _, c := range cases {
		if got := direction(c.predicted, c.current); got != c.want {
			t.Errorf("direction(%.2f, %.2f)=%q want %q", c.predicted, c.current, got, c.want)
		}
	}
}

func TestPredictNeutralSentimentContributesNothing(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRecentBars(t, store, "AAPL", 60)
	artifacts := NewArtifactManager(store)
	trainer := newTrainer(store, artifacts, store, t)
	if _, err := trainer.Train(context.Background(), "AAPL", 365); err != nil {
		t.Fatalf("train: %v", err)
	}

	// no sentiment rows in the store: every feature row already carries a
	// neutral score, so the zero-sentiment counterfactual is identical
	pred := newPredictor(store, artifacts, t)
	res, err := pred.Predict(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if *res.SentimentContribution != 0 {
		t.Fatalf("contribution %.4f want 0 with no sentiment data", *res.SentimentContribution)
	}
}

func TestPredictReflectsSentiment(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRecentBars(t, store, "AAPL", 60)
	artifacts := NewArtifactManager(store)
	trainer := newTrainer(store, artifacts, store, t)
	if _, err := trainer.Train(context.Background(), "AAPL", 365); err != nil {
		t.Fatalf("train: %v", err)
	}

	latest, err := store.LatestBar(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("latest bar: %v", err)
	}
	for i := 0; i < features.Lookback; i++ {
		d := latest.Date.AddDate(0, 0, -i)
		err := store.UpsertDailySentiment(context.Background(), models.DailySentiment{
			Symbol: "AAPL", Date: d, AvgSentiment: 0.9, HeadlineCount: 3,
		})
		if err != nil {
			t.Fatalf("upsert sentiment: %v", err)
		}
	}

	pred := newPredictor(store, artifacts, t)
	res, err := pred.Predict(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	// contribution is the delta against the zero-sentiment counterfactual;
	// with strongly non-neutral inputs it must be reflected exactly
	want := math.Round((*res.PredictedPrice-zeroSentimentPrice(t, store, artifacts, "AAPL"))*100) / 100
	if *res.SentimentContribution != want {
		t.Fatalf("contribution %.4f want %.4f", *res.SentimentContribution, want)
	}
}

// zeroSentimentPrice re-runs inference with sentiment zeroed out, mirroring
// the counterfactual the orchestrator computes internally.
func zeroSentimentPrice(t *testing.T, store *repository.MemoryStore, artifacts *ArtifactManager, symbol string) float64 {
	t.Helper()
	ctx := context.Background()
	latest, err := store.LatestBar(ctx, symbol)
	if err != nil {
		t.Fatalf("latest bar: %v", err)
	}
	window, err := features.NewPipeline(store).Fuse(ctx, symbol, latest.Date, 60)
	if err != nil {
		t.Fatalf("fuse: %v", err)
	}
	model, _, err := artifacts.CurrentModel(ctx, symbol)
	if err != nil || model == nil {
		t.Fatalf("current model: %v", err)
	}
	rows := features.ZeroSentiment(features.LatestSequence(window))
	seq := make([][]float64, len(rows))
	for i, r := range rows {
		seq[i] = r.Features()
	}
	scaled, err := model.Infer(seq)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	return math.Round(window.CloseScaler.Unscale(scaled)*100) / 100
}
