package sentiment

import (
	"context"
	"testing"
)

func TestLexiconScoreRange(t *testing.T) {
	s := NewLexiconScorer()
	texts := []string{
		"Company beats earnings expectations, shares surge",
		"Regulator opens probe into accounting scandal",
		"Quarterly report published on schedule",
		"",
	}
	scores, err := s.Score(context.Background(), texts)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(scores) != len(texts) {
		t.Fatalf("got %d scores for %d texts", len(scores), len(texts))
	}
	for i, sc := range scores {
		if sc.Score < -1 || sc.Score > 1 {
			t.Fatalf("score[%d]=%v out of [-1,1]", i, sc.Score)
		}
	}
	if scores[0].Score <= 0 {
		t.Fatalf("expected positive score for bullish text, got %v", scores[0].Score)
	}
	if scores[1].Score >= 0 {
		t.Fatalf("expected negative score for bearish text, got %v", scores[1].Score)
	}
	if scores[3].Score != 0 {
		t.Fatalf("expected zero score for empty text, got %v", scores[3].Score)
	}
}

func TestLexiconDeterministic(t *testing.T) {
	s := NewLexiconScorer()
	text := []string{"Shares rally after strong profit growth despite layoff fears"}
	a, err := s.Score(context.Background(), text)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	b, err := s.Score(context.Background(), text)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if a[0].Score != b[0].Score {
		t.Fatalf("same text scored differently: %v vs %v", a[0].Score, b[0].Score)
	}
}

func TestLexiconNegationFlips(t *testing.T) {
	s := NewLexiconScorer()
	plain := s.scoreOne("profits surge")
	negated := s.scoreOne("profits did not surge")
	if plain <= 0 {
		t.Fatalf("expected positive base score, got %v", plain)
	}
	if negated >= plain {
		t.Fatalf("negation should reduce score: plain=%v negated=%v", plain, negated)
	}
}

func TestLabelThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{-1, LabelBearish},
		{-0.1501, LabelBearish},
		{-0.15, LabelNeutral},
		{0, LabelNeutral},
		{0.15, LabelNeutral},
		{0.1501, LabelBullish},
		{1, LabelBullish},
	}
	for _, tt := range tests {
		if got := LabelFor(tt.score); got != tt.want {
			t.Fatalf("LabelFor(%v)=%q want %q", tt.score, got, tt.want)
		}
	}
}
