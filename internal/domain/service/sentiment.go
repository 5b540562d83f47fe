package service

import "context"

// HeadlineScore is one scored text: a bounded sentiment value and its
// directional label.
type HeadlineScore struct {
	Score float64 // [-1, 1]
	Label string  // "bearish" | "neutral" | "bullish"
}

// SentimentScorer classifies financial text into bounded sentiment scores.
// Score must be a pure function of the text for a fixed model version, and
// batching must not change per-item results. Implementations return
// models.ErrScoringUnavailable when the underlying classifier cannot be
// invoked; callers degrade to neutral sentiment rather than failing.
type SentimentScorer interface {
	Score(ctx context.Context, texts []string) ([]HeadlineScore, error)
}
