package news

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"marketminds/internal/domain/models"
	drepo "marketminds/internal/domain/repository"
	"marketminds/pkg/cache"
	xhttp "marketminds/pkg/http"
)

// Client fetches raw headlines over the provider's REST API. Responses
// are cached so repeated pipeline runs within the TTL don't re-hit the
// provider's rate limits.
type Client struct {
	http     *xhttp.Client
	baseURL  string
	apiKey   string
	cache    cache.Service
	cacheTTL time.Duration
}

func NewClient(baseURL, apiKey string, timeout time.Duration, c cache.Service, cacheTTL time.Duration) *Client {
	return &Client{
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL:  baseURL,
		apiKey:   apiKey,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

type newsResp struct {
	Articles []struct {
		PublishedAt time.Time `json:"published_at"`
		Title       string    `json:"title"`
		Source      string    `json:"source"`
		URL         string    `json:"url"`
	} `json:"articles"`
}

// GetHeadlines returns unscored headlines published in [from, to].
func (c *Client) GetHeadlines(ctx context.Context, symbol string, from, to time.Time) ([]models.Headline, error) {
	key := fmt.Sprintf("news:%s:%s:%s", symbol, from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	if c.cache != nil {
		var cached []models.Headline
		if err := c.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	var resp newsResp
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + "/v1/news",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"from":   {from.UTC().Format("2006-01-02")},
			"to":     {to.UTC().Format("2006-01-02")},
			"apikey": {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: news %s: %v", models.ErrDataUnavailable, symbol, err)
	}

	out := make([]models.Headline, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.Title == "" {
			continue
		}
		pub := a.PublishedAt.UTC()
		out = append(out, models.Headline{
			ID:          models.HeadlineID(symbol, pub, a.Title, a.URL),
			Symbol:      symbol,
			Date:        pub.Truncate(24 * time.Hour),
			PublishedAt: pub,
			Title:       a.Title,
			Source:      a.Source,
			URL:         a.URL,
		})
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, key, out, c.cacheTTL)
	}
	return out, nil
}

var _ drepo.NewsProvider = (*Client)(nil)
