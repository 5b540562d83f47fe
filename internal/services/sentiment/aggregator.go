package sentiment

import (
	"math"

	"marketminds/internal/domain/models"
)

// Aggregate reduces one day's scored headlines for a symbol into a
// DailySentiment row. Unscored headlines are ignored. When no scored
// headline exists the function returns nil: "no news" is a distinct signal
// from "neutral news" and must never be materialized as a zero row.
//
// The representative headline is the one with the largest |score|; ties
// break to the earliest publish time, then to input order. Aggregation is
// idempotent: identical input always yields the identical row.
func Aggregate(symbol string, day []models.Headline) *models.DailySentiment {
	var (
		sum    float64
		count  int
		topIdx = -1
	)
	for i, h := range day {
		if !h.Scored() {
			continue
		}
		sum += *h.Score
		count++
		if topIdx < 0 {
			topIdx = i
			continue
		}
		cur, best := math.Abs(*h.Score), math.Abs(*day[topIdx].Score)
		switch {
		case cur > best:
			topIdx = i
		case cur == best && h.PublishedAt.Before(day[topIdx].PublishedAt):
			topIdx = i
		}
	}
	if count == 0 {
		return nil
	}
	return &models.DailySentiment{
		Symbol:        symbol,
		Date:          day[topIdx].Date,
		AvgSentiment:  round4(sum / float64(count)),
		HeadlineCount: count,
		TopHeadline:   day[topIdx].Title,
	}
}
