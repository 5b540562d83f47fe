package models

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"
)

// PriceBar is one daily OHLCV record for a symbol.
// Unique per (symbol, date); immutable once recorded.
type PriceBar struct {
	Symbol string
	Date   time.Time // trading date, truncated to day, UTC
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Headline is one news headline for a symbol. Score is set exactly once
// by the scoring engine and never changes afterwards.
type Headline struct {
	ID          int64
	Symbol      string
	Date        time.Time // publish date, truncated to day, UTC
	PublishedAt time.Time
	Title       string
	Source      string
	URL         string
	Score       *float64 // nil until scored; [-1, 1] after
	Label       string   // "bearish" | "neutral" | "bullish", set with Score
}

// Scored reports whether the headline already carries a sentiment score.
func (h *Headline) Scored() bool { return h.Score != nil }

// HeadlineID derives a headline's stable identity from the fields that make
// it a distinct article. Providers and brokers may deliver the same article
// more than once; hashing here keeps ingest idempotent because a re-delivered
// headline always maps to the same ID.
func HeadlineID(symbol string, publishedAt time.Time, title, url string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%s|%s", symbol, publishedAt.UTC().UnixNano(), title, url)
	return int64(h.Sum64() & math.MaxInt64)
}

// DailySentiment is the per-(symbol, date) aggregate over scored headlines.
// Derived entity: recomputed whenever new headlines arrive, last write wins.
type DailySentiment struct {
	Symbol        string
	Date          time.Time
	AvgSentiment  float64 // mean of headline scores, [-1, 1], 4 decimals
	HeadlineCount int
	TopHeadline   string // headline with the largest |score|
}

// Quote is a live price observation from the streaming provider.
// Quotes feed the last-price gauge only; model inputs come from daily bars.
type Quote struct {
	Symbol string
	Price  float64
	Volume float64
	At     time.Time
}
