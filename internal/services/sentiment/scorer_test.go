package sentiment

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	domsvc "marketminds/internal/domain/service"
)

type stubScorer struct {
	calls int32
	fail  bool
	score float64
}

func (s *stubScorer) Score(_ context.Context, texts []string) ([]domsvc.HeadlineScore, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.fail {
		return nil, fmt.Errorf("stub down: %w", errUnavailable)
	}
	out := make([]domsvc.HeadlineScore, len(texts))
	for i := range texts {
		out[i] = domsvc.HeadlineScore{Score: s.score, Label: LabelFor(s.score)}
	}
	return out, nil
}

func TestEngineEmptyInput(t *testing.T) {
	e := NewEngine(nil, NewLexiconScorer(), nil)
	scores, err := e.Score(context.Background(), nil)
	if err != nil || scores != nil {
		t.Fatalf("expected nil,nil got %v,%v", scores, err)
	}
}

func TestEngineUsesRemote(t *testing.T) {
	remote := &stubScorer{score: 0.9}
	e := NewEngine(remote, NewLexiconScorer(), nil, WithBatchSize(2))
	texts := []string{"a", "b", "c", "d", "e"}
	scores, err := e.Score(context.Background(), texts)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(scores) != len(texts) {
		t.Fatalf("got %d scores want %d", len(scores), len(texts))
	}
	for i, sc := range scores {
		if sc.Score != 0.9 {
			t.Fatalf("score[%d]=%v want 0.9", i, sc.Score)
		}
	}
	if got := atomic.LoadInt32(&remote.calls); got != 3 {
		t.Fatalf("remote called %d times want 3 batches", got)
	}
}

func TestEngineFallsBackToLexicon(t *testing.T) {
	remote := &stubScorer{fail: true}
	e := NewEngine(remote, NewLexiconScorer(), nil)
	texts := []string{"shares surge on record profit", "stock plunges after scandal"}
	scores, err := e.Score(context.Background(), texts)
	if err != nil {
		t.Fatalf("expected fallback to absorb remote failure, got %v", err)
	}
	if scores[0].Score <= 0 || scores[1].Score >= 0 {
		t.Fatalf("fallback scores wrong sign: %v, %v", scores[0].Score, scores[1].Score)
	}
}

func TestEnginePositionStableAcrossBatchSizes(t *testing.T) {
	texts := []string{
		"shares surge on record profit",
		"quarterly report published",
		"stock plunges after scandal",
		"strong growth beats expectations",
		"regulator opens investigation",
	}
	small := NewEngine(nil, NewLexiconScorer(), nil, WithBatchSize(1))
	big := NewEngine(nil, NewLexiconScorer(), nil, WithBatchSize(16))

	a, err := small.Score(context.Background(), texts)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	b, err := big.Score(context.Background(), texts)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	for i := range texts {
		if a[i] != b[i] {
			t.Fatalf("batch size changed score[%d]: %+v vs %+v", i, a[i], b[i])
		}
	}
}
