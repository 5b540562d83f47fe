package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
	"marketminds/internal/repository"
	"marketminds/internal/services/features"
	applogger "marketminds/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordPrediction(string, string)  {}
func (nopMetrics) RecordTrainingJob(string, string) {}
func (nopMetrics) RecordHeadlinesScored(int)        {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}
func (nopMetrics) RecordError(string)               {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func seedRecentBars(t *testing.T, store *repository.MemoryStore, symbol string, n int) {
	t.Helper()
	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]models.PriceBar, 0, n)
	for i := n - 1; i >= 0; i-- {
		d := end.AddDate(0, 0, -i)
		price := 100 + float64(n-1-i)*0.5
		bars = append(bars, models.PriceBar{
			Symbol: symbol, Date: d,
			Open: price, High: price + 1, Low: price - 1, Close: price,
			Volume: 1_000_000,
		})
	}
	if err := store.StoreBars(context.Background(), bars); err != nil {
		t.Fatalf("seed bars: %v", err)
	}
}

func newTrainer(store domrepo.MarketStore, artifacts *ArtifactManager, jobs domrepo.JobStore, t *testing.T) *TrainingOrchestrator {
	return NewTrainingOrchestrator(
		features.NewPipeline(store),
		artifacts,
		jobs,
		repository.NoopEventPublisher{},
		nopMetrics{},
		testLogger(t),
		TrainerConfig{
			DaysData: 365,
			MinRows:  20,
			Timeout:  time.Minute,
			Epochs:   2,
			Hidden:   8,
			Seed:     42,
		},
	)
}

func TestTrainPromotesArtifact(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRecentBars(t, store, "AAPL", 60)
	artifacts := NewArtifactManager(store)
	trainer := newTrainer(store, artifacts, store, t)

	summary, err := trainer.Train(context.Background(), "AAPL", 365)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if summary.Status != string(models.JobSucceeded) {
		t.Fatalf("status=%q want succeeded", summary.Status)
	}
	if summary.FinalLoss == nil || summary.DataPoints == 0 {
		t.Fatalf("summary missing loss/data points: %+v", summary)
	}

	model, artifact, err := artifacts.CurrentModel(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("current model: %v", err)
	}
	if model == nil || artifact == nil {
		t.Fatal("expected promoted artifact after training")
	}
	if artifact.Symbol != "AAPL" || artifact.Version == "" {
		t.Fatalf("bad artifact: %+v", artifact)
	}
	if artifact.DataPoints != summary.DataPoints {
		t.Fatalf("artifact data points %d != summary %d", artifact.DataPoints, summary.DataPoints)
	}

	job, err := trainer.LatestJob(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("latest job: %v", err)
	}
	if job == nil || job.Status != models.JobSucceeded {
		t.Fatalf("job=%+v want succeeded", job)
	}
	if job.FinishedAt == nil {
		t.Fatal("succeeded job missing FinishedAt")
	}
}

func TestTrainFailureLeavesNoArtifact(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRecentBars(t, store, "MSFT", 10) // below MinWindow
	artifacts := NewArtifactManager(store)
	trainer := newTrainer(store, artifacts, store, t)

	_, err := trainer.Train(context.Background(), "MSFT", 365)
	if err == nil {
		t.Fatal("expected training failure")
	}
	var tf *models.TrainingFailedError
	if !errors.As(err, &tf) {
		t.Fatalf("want TrainingFailedError, got %v", err)
	}
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("want wrapped ErrInsufficientData, got %v", err)
	}

	model, artifact, err := artifacts.CurrentModel(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("current model: %v", err)
	}
	if model != nil || artifact != nil {
		t.Fatal("failed training must not promote an artifact")
	}

	job, err := trainer.LatestJob(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("latest job: %v", err)
	}
	if job == nil || job.Status != models.JobFailed || job.Error == "" {
		t.Fatalf("job=%+v want failed with error", job)
	}
}

func TestTrainFailureKeepsCurrentModel(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRecentBars(t, store, "GOOG", 60)
	artifacts := NewArtifactManager(store)
	trainer := newTrainer(store, artifacts, store, t)

	if _, err := trainer.Train(context.Background(), "GOOG", 365); err != nil {
		t.Fatalf("first train: %v", err)
	}
	_, before, err := artifacts.CurrentModel(context.Background(), "GOOG")
	if err != nil || before == nil {
		t.Fatalf("current: %v %v", before, err)
	}

	// second run fails: restrict the window to too few days
	if _, err := trainer.Train(context.Background(), "GOOG", 5); err == nil {
		t.Fatal("expected second training to fail")
	}

	_, after, err := artifacts.CurrentModel(context.Background(), "GOOG")
	if err != nil {
		t.Fatalf("current after failure: %v", err)
	}
	if after == nil || after.Version != before.Version {
		t.Fatalf("failed run disturbed the current artifact: before=%+v after=%+v", before, after)
	}
}

// blockingStore stalls GetBars until released, to hold a training job open.
type blockingStore struct {
	*repository.MemoryStore
	release chan struct{}
}

func (b *blockingStore) GetBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.MemoryStore.GetBars(ctx, symbol, from, to)
}

// ctxJobStore refuses writes on an expired context, like the Redis-backed
// job store does.
type ctxJobStore struct {
	*repository.MemoryStore
}

func (s ctxJobStore) SaveJob(ctx context.Context, job *models.TrainingJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.SaveJob(ctx, job)
}

func TestTrainTimeoutPersistsFailedJob(t *testing.T) {
	mem := repository.NewMemoryStore()
	seedRecentBars(t, mem, "AAPL", 60)
	// never released, so the run can only end by hitting its deadline
	store := &blockingStore{MemoryStore: mem, release: make(chan struct{})}
	trainer := NewTrainingOrchestrator(
		features.NewPipeline(store),
		NewArtifactManager(mem),
		ctxJobStore{MemoryStore: mem},
		repository.NoopEventPublisher{},
		nopMetrics{},
		testLogger(t),
		TrainerConfig{
			DaysData: 365,
			MinRows:  20,
			Timeout:  50 * time.Millisecond,
			Epochs:   2,
			Hidden:   8,
			Seed:     42,
		},
	)

	if _, err := trainer.Train(context.Background(), "AAPL", 365); err == nil {
		t.Fatal("expected training to fail on timeout")
	}

	job, err := trainer.LatestJob(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("latest job: %v", err)
	}
	if job == nil || job.Status != models.JobFailed {
		t.Fatalf("job=%+v want failed status persisted after timeout", job)
	}
	if job.FinishedAt == nil || job.Error == "" {
		t.Fatalf("terminal job missing finish metadata: %+v", job)
	}
}

func TestTrainRejectsConcurrentRuns(t *testing.T) {
	mem := repository.NewMemoryStore()
	seedRecentBars(t, mem, "AAPL", 60)
	store := &blockingStore{MemoryStore: mem, release: make(chan struct{})}
	artifacts := NewArtifactManager(mem)
	trainer := newTrainer(store, artifacts, mem, t)

	job, err := trainer.TrainAsync(context.Background(), "AAPL", 365)
	if err != nil {
		t.Fatalf("first train: %v", err)
	}
	if job.Status != models.JobPending {
		t.Fatalf("initial job status=%q want pending", job.Status)
	}
	if !trainer.InProgress("AAPL") {
		t.Fatal("expected training in progress")
	}

	// a second request for the same symbol fails fast, it is not queued
	if _, err := trainer.TrainAsync(context.Background(), "AAPL", 365); !errors.Is(err, models.ErrTrainingInProgress) {
		t.Fatalf("want ErrTrainingInProgress, got %v", err)
	}

	// a different symbol is unaffected
	seedRecentBars(t, mem, "MSFT", 60)
	if !trainer.InProgress("AAPL") {
		t.Fatal("first job should still be running")
	}

	close(store.release)

	deadline := time.After(30 * time.Second)
	for {
		j, err := trainer.LatestJob(context.Background(), "AAPL")
		if err != nil {
			t.Fatalf("latest job: %v", err)
		}
		if j != nil && j.Status.Terminal() {
			if j.Status != models.JobSucceeded {
				t.Fatalf("job finished %q: %s", j.Status, j.Error)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("training did not finish in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if trainer.InProgress("AAPL") {
		t.Fatal("lock not released after completion")
	}
}
