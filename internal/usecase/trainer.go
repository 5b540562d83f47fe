package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
	"marketminds/internal/services/features"
	"marketminds/internal/services/forecast"
	applogger "marketminds/pkg/logger"
)

// TrainerConfig bounds one training run.
type TrainerConfig struct {
	DaysData int           // calendar days of history to train on
	MinRows  int           // minimum trading days required
	Timeout  time.Duration // hard cap per run
	Epochs   int
	Hidden   int
	Seed     int64
}

// TrainingOrchestrator runs per-symbol training jobs. At most one job per
// symbol runs at a time; a second request while one is running fails fast
// with ErrTrainingInProgress instead of queuing.
type TrainingOrchestrator struct {
	fusion    *features.Pipeline
	artifacts *ArtifactManager
	jobs      domrepo.JobStore
	events    domrepo.EventPublisher
	metrics   domrepo.Metrics
	logger    *applogger.Logger
	cfg       TrainerConfig

	mu      sync.Mutex
	running map[string]bool // keyed by symbol
}

func NewTrainingOrchestrator(
	fusion *features.Pipeline,
	artifacts *ArtifactManager,
	jobs domrepo.JobStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	cfg TrainerConfig,
) *TrainingOrchestrator {
	return &TrainingOrchestrator{
		fusion:    fusion,
		artifacts: artifacts,
		jobs:      jobs,
		events:    events,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		running:   make(map[string]bool),
	}
}

// InProgress reports whether a job for the symbol is currently running.
func (t *TrainingOrchestrator) InProgress(symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running[symbol]
}

// Train runs one training job synchronously and returns its summary.
func (t *TrainingOrchestrator) Train(ctx context.Context, symbol string, days int) (*models.TrainingSummary, error) {
	if err := t.acquire(symbol); err != nil {
		return nil, err
	}
	defer t.release(symbol)
	return t.run(ctx, symbol, days)
}

// TrainAsync starts a training job in the background and returns its
// pending record immediately. The job outcome is observable via LatestJob
// and the published lifecycle events.
func (t *TrainingOrchestrator) TrainAsync(ctx context.Context, symbol string, days int) (*models.TrainingJob, error) {
	if err := t.acquire(symbol); err != nil {
		return nil, err
	}

	job := t.newJob(symbol)
	if err := t.saveJob(ctx, job); err != nil {
		t.release(symbol)
		return nil, err
	}

	go func() {
		defer t.release(symbol)
		// detach from the request context; the run carries its own deadline
		_, _ = t.runJob(context.Background(), job, days)
	}()
	return job, nil
}

// LatestJob returns the most recent job record for the symbol, nil when
// the symbol has never been trained.
func (t *TrainingOrchestrator) LatestJob(ctx context.Context, symbol string) (*models.TrainingJob, error) {
	return t.jobs.LatestJob(ctx, symbol)
}

func (t *TrainingOrchestrator) acquire(symbol string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running[symbol] {
		return fmt.Errorf("%w: %s", models.ErrTrainingInProgress, symbol)
	}
	t.running[symbol] = true
	return nil
}

func (t *TrainingOrchestrator) release(symbol string) {
	t.mu.Lock()
	delete(t.running, symbol)
	t.mu.Unlock()
}

func (t *TrainingOrchestrator) newJob(symbol string) *models.TrainingJob {
	now := time.Now().UTC()
	return &models.TrainingJob{
		ID:        fmt.Sprintf("%s-%d", symbol, now.UnixNano()),
		Symbol:    symbol,
		Status:    models.JobPending,
		StartedAt: now,
	}
}

// run executes training under a fresh job record.
func (t *TrainingOrchestrator) run(ctx context.Context, symbol string, days int) (*models.TrainingSummary, error) {
	job := t.newJob(symbol)
	if err := t.saveJob(ctx, job); err != nil {
		return nil, err
	}
	return t.runJob(ctx, job, days)
}

func (t *TrainingOrchestrator) runJob(ctx context.Context, job *models.TrainingJob, days int) (*models.TrainingSummary, error) {
	if days <= 0 {
		days = t.cfg.DaysData
	}
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	job.Status = models.JobRunning
	_ = t.saveJob(ctx, job)

	start := time.Now()
	artifact, err := t.train(ctx, job.Symbol, days)
	t.metrics.RecordLatency("train", time.Since(start).Seconds())

	now := time.Now().UTC()
	job.FinishedAt = &now
	if err != nil {
		job.Status = models.JobFailed
		job.Error = err.Error()
		t.saveTerminal(ctx, job)
		t.metrics.RecordTrainingJob(job.Symbol, "failed")
		t.logger.Error("training failed",
			applogger.String("symbol", job.Symbol),
			applogger.Error(err))
		return nil, models.NewTrainingFailed(job.Symbol, "training run failed", err)
	}

	job.Status = models.JobSucceeded
	job.FinalLoss = &artifact.FinalLoss
	job.DataPoints = artifact.DataPoints
	t.saveTerminal(ctx, job)
	t.metrics.RecordTrainingJob(job.Symbol, "succeeded")
	t.logger.Info("training succeeded",
		applogger.String("symbol", job.Symbol),
		applogger.String("version", artifact.Version),
		applogger.Int("data_points", artifact.DataPoints),
		applogger.Duration("took", time.Since(start)))

	return &models.TrainingSummary{
		Symbol:     job.Symbol,
		Status:     string(job.Status),
		Message:    fmt.Sprintf("model %s promoted", artifact.Version),
		FinalLoss:  job.FinalLoss,
		DataPoints: job.DataPoints,
	}, nil
}

// train builds the feature window, fits a fresh model and promotes the
// resulting artifact. Nothing is promoted on any error path.
func (t *TrainingOrchestrator) train(ctx context.Context, symbol string, days int) (*models.ModelArtifact, error) {
	end := time.Now().UTC()
	window, err := t.fusion.Fuse(ctx, symbol, end, days)
	if err != nil {
		return nil, err
	}
	if len(window.Rows) < t.cfg.MinRows {
		return nil, fmt.Errorf("%w: %s has %d trading days, need %d to train",
			models.ErrInsufficientData, symbol, len(window.Rows), t.cfg.MinRows)
	}

	rowSeqs, labels := features.Sequences(window)
	seqs := make([][][]float64, len(rowSeqs))
	for i, rs := range rowSeqs {
		seq := make([][]float64, len(rs))
		for j, r := range rs {
			seq[j] = r.Features()
		}
		seqs[i] = seq
	}

	model := forecast.New(
		forecast.WithHidden(t.cfg.Hidden),
		forecast.WithEpochs(t.cfg.Epochs),
		forecast.WithSeed(t.cfg.Seed),
	)
	finalLoss, samples, err := model.Train(ctx, seqs, labels)
	if err != nil {
		return nil, err
	}

	weights, err := model.Weights()
	if err != nil {
		return nil, fmt.Errorf("serialize weights: %w", err)
	}

	artifact := &models.ModelArtifact{
		Symbol:     symbol,
		Version:    fmt.Sprintf("v%d", time.Now().UnixNano()),
		Weights:    weights,
		FinalLoss:  finalLoss,
		DataPoints: samples,
		WindowFrom: window.Rows[0].Date,
		WindowTo:   window.EndDate,
		TrainedAt:  time.Now().UTC(),
	}
	if err := t.artifacts.Promote(ctx, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}

// terminalSaveTimeout bounds the write of a finished job's record. The write
// runs detached from the run context so a timed-out training still gets its
// Failed status persisted.
const terminalSaveTimeout = 5 * time.Second

// saveTerminal persists a finished job on a context that outlives the run's
// deadline. Losing the terminal write would leave the durable record stuck
// in "running", so a failure here is logged and counted, never swallowed.
func (t *TrainingOrchestrator) saveTerminal(ctx context.Context, job *models.TrainingJob) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalSaveTimeout)
	defer cancel()
	if err := t.saveJob(saveCtx, job); err != nil {
		t.metrics.RecordError("save_terminal_job")
		t.logger.Error("persist terminal job status",
			applogger.String("symbol", job.Symbol),
			applogger.String("status", string(job.Status)),
			applogger.Error(err))
	}
}

func (t *TrainingOrchestrator) saveJob(ctx context.Context, job *models.TrainingJob) error {
	if err := t.jobs.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	if err := t.events.PublishJobEvent(ctx, job); err != nil {
		// event delivery is best effort; the job record is authoritative
		t.metrics.RecordError("publish_job_event")
		t.logger.Warn("publish job event",
			applogger.String("symbol", job.Symbol),
			applogger.Error(err))
	}
	return nil
}
