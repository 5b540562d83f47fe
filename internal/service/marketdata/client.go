package marketdata

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"marketminds/internal/domain/models"
	drepo "marketminds/internal/domain/repository"
	xhttp "marketminds/pkg/http"
	"marketminds/pkg/util"
)

// Client fetches historical daily bars over the provider's REST API.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type barsResp struct {
	Symbol string `json:"symbol"`
	Bars   []struct {
		Date   string  `json:"date"` // YYYY-MM-DD
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"bars"`
}

// GetPriceBars returns daily bars in [from, to], prices rounded to cents.
// Unknown symbols and provider outages map to models.ErrDataUnavailable.
func (c *Client) GetPriceBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	var resp barsResp
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + "/v1/bars/daily",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"from":   {util.FormatDay(from)},
			"to":     {util.FormatDay(to)},
			"apikey": {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: bars %s: %v", models.ErrDataUnavailable, symbol, err)
	}
	if len(resp.Bars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", models.ErrDataUnavailable, symbol)
	}

	out := make([]models.PriceBar, 0, len(resp.Bars))
	for _, b := range resp.Bars {
		d, err := util.ParseDay(b.Date)
		if err != nil {
			continue
		}
		out = append(out, models.PriceBar{
			Symbol: symbol,
			Date:   d,
			Open:   round2(b.Open),
			High:   round2(b.High),
			Low:    round2(b.Low),
			Close:  round2(b.Close),
			Volume: b.Volume,
		})
	}
	return out, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

var _ drepo.MarketDataProvider = (*Client)(nil)
