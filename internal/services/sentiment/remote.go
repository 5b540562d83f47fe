package sentiment

import (
	"context"
	"fmt"

	domsvc "marketminds/internal/domain/service"
	"marketminds/pkg/config"
	xhttp "marketminds/pkg/http"
)

// RemoteScorer calls the external transformer classifier service over HTTP.
// The service owns the model weights; this client only posts batches of text
// and maps the probabilities to bounded scores.
type RemoteScorer struct {
	baseURL string
	client  *xhttp.Client
}

// NewRemoteScorer builds an HTTP client with timeout and base URL from config.
func NewRemoteScorer(cfg *config.Config) *RemoteScorer {
	timeout := cfg.Sentiment.Timeout
	return &RemoteScorer{
		baseURL: cfg.Sentiment.ClassifierURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type scoreReq struct {
	Texts []string `json:"texts"`
}

type scoreResp struct {
	Scores []float64 `json:"scores"` // [-1, 1], positive minus negative probability
}

// Score posts one batch to the classifier. A transport or contract failure
// surfaces as ErrScoringUnavailable so callers can fall back.
func (r *RemoteScorer) Score(ctx context.Context, texts []string) ([]domsvc.HeadlineScore, error) {
	if r.client == nil || r.baseURL == "" {
		return nil, fmt.Errorf("classifier not configured: %w", errUnavailable)
	}
	var resp scoreResp
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    r.baseURL + "/sentiment/score",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: scoreReq{Texts: texts},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("post sentiment batch: %v: %w", err, errUnavailable)
	}
	if len(resp.Scores) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d scores for %d texts: %w",
			len(resp.Scores), len(texts), errUnavailable)
	}
	out := make([]domsvc.HeadlineScore, 0, len(texts))
	for _, sc := range resp.Scores {
		sc = clamp1(round4(sc))
		out = append(out, domsvc.HeadlineScore{Score: sc, Label: LabelFor(sc)})
	}
	return out, nil
}

func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

var _ domsvc.SentimentScorer = (*RemoteScorer)(nil)
