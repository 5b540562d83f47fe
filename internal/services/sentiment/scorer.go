package sentiment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"marketminds/internal/domain/models"
	domsvc "marketminds/internal/domain/service"
	"marketminds/internal/service/ratelimit"
	applogger "marketminds/pkg/logger"
)

var errUnavailable = models.ErrScoringUnavailable

const (
	// defaultBatchSize matches the classifier's tokenizer batch.
	defaultBatchSize = 16
	// defaultWorkers bounds concurrent classifier calls across symbols.
	defaultWorkers = 4
)

// Engine is the sentiment scoring engine: remote classifier first, lexicon
// fallback, batch fan-out with a fixed worker budget and a token-bucket rate
// limit against the classifier.
type Engine struct {
	remote   domsvc.SentimentScorer // may be nil when no classifier configured
	fallback domsvc.SentimentScorer
	limiter  *ratelimit.Limiter
	logger   *applogger.Logger

	batchSize int
	workers   int
	rateCap   float64 // limiter bucket capacity
	ratePer   float64 // refill per second
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithBatchSize overrides the classifier batch size.
func WithBatchSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithWorkers overrides the concurrent batch budget.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithRateLimit sets the classifier token bucket (capacity, refill/sec).
func WithRateLimit(capacity, perSec float64) EngineOption {
	return func(e *Engine) {
		if capacity > 0 && perSec > 0 {
			e.rateCap = capacity
			e.ratePer = perSec
		}
	}
}

// NewEngine builds the engine. remote may be nil; fallback must not be.
func NewEngine(remote domsvc.SentimentScorer, fallback domsvc.SentimentScorer, logger *applogger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		remote:    remote,
		fallback:  fallback,
		limiter:   ratelimit.New(),
		logger:    logger,
		batchSize: defaultBatchSize,
		workers:   defaultWorkers,
		rateCap:   8,
		ratePer:   4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score classifies texts in batches. Per-item results are position-stable:
// batch boundaries never change an individual score. Returns
// ErrScoringUnavailable only when every available scorer failed.
func (e *Engine) Score(ctx context.Context, texts []string) ([]domsvc.HeadlineScore, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type batch struct {
		start int
		texts []string
	}
	batches := make([]batch, 0, (len(texts)+e.batchSize-1)/e.batchSize)
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, batch{start: i, texts: texts[i:end]})
	}

	out := make([]domsvc.HeadlineScore, len(texts))
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, b := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(b batch) {
			defer wg.Done()
			defer func() { <-sem }()
			scores, err := e.scoreBatch(ctx, b.texts)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(out[b.start:], scores)
		}(b)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (e *Engine) scoreBatch(ctx context.Context, texts []string) ([]domsvc.HeadlineScore, error) {
	if e.remote != nil && e.limiter.Allow("classifier", e.rateCap, e.ratePer) {
		scores, err := e.remote.Score(ctx, texts)
		if err == nil {
			return scores, nil
		}
		if e.logger != nil {
			e.logger.Warn("remote scorer failed, using lexicon fallback", applogger.Error(err))
		}
	}
	scores, err := e.fallback.Score(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("lexicon fallback: %v: %w", err, models.ErrScoringUnavailable)
	}
	return scores, nil
}

// IsUnavailable reports whether err is a scoring-unavailable failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, models.ErrScoringUnavailable)
}

var _ domsvc.SentimentScorer = (*Engine)(nil)
