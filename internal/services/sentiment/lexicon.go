package sentiment

import (
	"context"
	"math"
	"strings"

	domsvc "marketminds/internal/domain/service"
)

// LexiconScorer is a rule-based analyzer over a financial valence lexicon.
// It runs in-process, needs no external classifier, and is fully
// deterministic, which makes it the fallback when the remote model is down.
type LexiconScorer struct {
	valence map[string]float64
}

// financialLexicon maps lowercase terms to valence in [-4, 4].
// Weights follow the usual valence-lexicon convention: strong directional
// market words near +/-3, milder terms near +/-1.5.
var financialLexicon = map[string]float64{
	// bullish
	"beat": 2.5, "beats": 2.5, "surge": 3.0, "surges": 3.0, "soar": 3.2,
	"soars": 3.2, "rally": 2.6, "rallies": 2.6, "gain": 2.0, "gains": 2.0,
	"jump": 2.4, "jumps": 2.4, "record": 1.8, "strong": 2.0, "growth": 2.1,
	"profit": 2.2, "profits": 2.2, "upgrade": 2.4, "upgraded": 2.4,
	"outperform": 2.5, "bullish": 3.0, "buy": 1.6, "rise": 1.8, "rises": 1.8,
	"up": 1.2, "high": 1.3, "boom": 2.8, "recovery": 1.9, "optimism": 2.2,
	"exceed": 2.3, "exceeds": 2.3, "expand": 1.7, "expands": 1.7,
	"breakthrough": 2.6, "dividend": 1.4, "buyback": 1.8, "upside": 2.0,
	// bearish
	"miss": -2.5, "misses": -2.5, "plunge": -3.2, "plunges": -3.2,
	"crash": -3.5, "crashes": -3.5, "fall": -2.0, "falls": -2.0,
	"drop": -2.2, "drops": -2.2, "loss": -2.3, "losses": -2.3,
	"downgrade": -2.4, "downgraded": -2.4, "underperform": -2.5,
	"bearish": -3.0, "sell": -1.6, "selloff": -2.8, "decline": -2.1,
	"declines": -2.1, "down": -1.2, "low": -1.3, "slump": -2.7,
	"slumps": -2.7, "weak": -2.0, "warning": -2.2, "lawsuit": -2.4,
	"recall": -2.1, "fraud": -3.3, "bankruptcy": -3.6, "default": -3.0,
	"layoff": -2.5, "layoffs": -2.5, "cut": -1.5, "cuts": -1.5,
	"fear": -2.3, "fears": -2.3, "risk": -1.4, "tumble": -2.9,
	"tumbles": -2.9, "sink": -2.6, "sinks": -2.6, "slide": -2.0,
	"slides": -2.0, "scandal": -2.9, "probe": -1.9, "investigation": -1.8,
}

// negators flip the valence of the following sentiment-bearing term.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true,
	"fails": true, "fail": true, "despite": true,
}

// NewLexiconScorer builds the analyzer with the built-in lexicon.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{valence: financialLexicon}
}

// Score analyzes each text independently; batching cannot leak state across
// items because scoring is a pure function of the single text.
func (s *LexiconScorer) Score(_ context.Context, texts []string) ([]domsvc.HeadlineScore, error) {
	out := make([]domsvc.HeadlineScore, 0, len(texts))
	for _, t := range texts {
		sc := s.scoreOne(t)
		out = append(out, domsvc.HeadlineScore{Score: sc, Label: LabelFor(sc)})
	}
	return out, nil
}

func (s *LexiconScorer) scoreOne(text string) float64 {
	tokens := tokenize(text)
	var sum float64
	for i, tok := range tokens {
		v, ok := s.valence[tok]
		if !ok {
			continue
		}
		// a negator within the three preceding tokens flips the term
		for j := max(0, i-3); j < i; j++ {
			if negators[tokens[j]] {
				v = -v
				break
			}
		}
		sum += v
	}
	if sum == 0 {
		return 0
	}
	// squash the raw valence sum into [-1, 1]
	norm := sum / math.Sqrt(sum*sum+15)
	return round4(norm)
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]%$")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var _ domsvc.SentimentScorer = (*LexiconScorer)(nil)
