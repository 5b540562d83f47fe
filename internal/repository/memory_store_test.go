package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketminds/internal/domain/models"
)

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStoreBarsImmutable(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	d := utcDay(2024, 3, 1)

	if err := s.StoreBars(ctx, []models.PriceBar{{Symbol: "AAPL", Date: d, Close: 100}}); err != nil {
		t.Fatalf("store: %v", err)
	}
	// a second write for the same day is ignored
	if err := s.StoreBars(ctx, []models.PriceBar{{Symbol: "AAPL", Date: d, Close: 999}}); err != nil {
		t.Fatalf("re-store: %v", err)
	}

	bars, err := s.GetBars(ctx, "AAPL", d, d)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(bars) != 1 || bars[0].Close != 100 {
		t.Fatalf("bars=%+v want single bar close=100", bars)
	}
}

func TestStoreBarsNormalizesToDay(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

	if err := s.StoreBars(ctx, []models.PriceBar{{Symbol: "AAPL", Date: at, Close: 100}}); err != nil {
		t.Fatalf("store: %v", err)
	}
	bars, err := s.GetBars(ctx, "AAPL", utcDay(2024, 3, 1), utcDay(2024, 3, 1))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(bars) != 1 || !bars[0].Date.Equal(utcDay(2024, 3, 1)) {
		t.Fatalf("bars=%+v want date truncated to day", bars)
	}
}

func TestGetBarsOrderedWindow(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	// insert out of order
	days := []int{5, 1, 3, 2, 4}
	for _, d := range days {
		err := s.StoreBars(ctx, []models.PriceBar{{Symbol: "AAPL", Date: utcDay(2024, 3, d), Close: float64(d)}})
		if err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	bars, err := s.GetBars(ctx, "AAPL", utcDay(2024, 3, 2), utcDay(2024, 3, 4))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("got %d bars want 3", len(bars))
	}
	for i, want := range []float64{2, 3, 4} {
		if bars[i].Close != want {
			t.Fatalf("bars[%d].Close=%.0f want %.0f", i, bars[i].Close, want)
		}
	}
}

func TestLatestBar(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.LatestBar(ctx, "AAPL"); !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable, got %v", err)
	}

	err := s.StoreBars(ctx, []models.PriceBar{
		{Symbol: "AAPL", Date: utcDay(2024, 3, 2), Close: 102},
		{Symbol: "AAPL", Date: utcDay(2024, 3, 1), Close: 101},
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	latest, err := s.LatestBar(ctx, "AAPL")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Close != 102 {
		t.Fatalf("latest close %.0f want 102", latest.Close)
	}
}

func TestStoreHeadlinesDedupesByID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	at := utcDay(2024, 3, 1).Add(13 * time.Hour)
	h := models.Headline{Symbol: "AAPL", Date: utcDay(2024, 3, 1), PublishedAt: at, Title: "earnings beat", URL: "https://example.com/a"}

	for i := 0; i < 2; i++ {
		if err := s.StoreHeadlines(ctx, []models.Headline{h}); err != nil {
			t.Fatalf("store #%d: %v", i+1, err)
		}
	}
	// a genuinely different article on the same day still lands
	other := h
	other.Title = "guidance cut"
	if err := s.StoreHeadlines(ctx, []models.Headline{other}); err != nil {
		t.Fatalf("store other: %v", err)
	}

	got, err := s.GetHeadlines(ctx, "AAPL", utcDay(2024, 3, 1), utcDay(2024, 3, 1))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d headlines want 2", len(got))
	}
	if got[0].ID == got[1].ID {
		t.Fatalf("distinct articles share id %d", got[0].ID)
	}
}

func TestSetHeadlineScoreOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	err := s.StoreHeadlines(ctx, []models.Headline{
		{Symbol: "AAPL", Title: "earnings beat", Date: utcDay(2024, 3, 1), PublishedAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	hs, err := s.UnscoredHeadlines(ctx, 10)
	if err != nil || len(hs) != 1 {
		t.Fatalf("unscored: %v %v", hs, err)
	}
	id := hs[0].ID

	if err := s.SetHeadlineScore(ctx, id, 0.8, "bullish"); err != nil {
		t.Fatalf("score: %v", err)
	}
	// a repeat write is silently ignored
	if err := s.SetHeadlineScore(ctx, id, -0.9, "bearish"); err != nil {
		t.Fatalf("re-score: %v", err)
	}

	got, err := s.GetHeadlines(ctx, "AAPL", utcDay(2024, 3, 1), utcDay(2024, 3, 1))
	if err != nil || len(got) != 1 {
		t.Fatalf("get: %v %v", got, err)
	}
	if got[0].Score == nil || *got[0].Score != 0.8 || got[0].Label != "bullish" {
		t.Fatalf("headline=%+v want original score kept", got[0])
	}

	left, err := s.UnscoredHeadlines(ctx, 10)
	if err != nil {
		t.Fatalf("unscored: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("scored headline still reported unscored: %+v", left)
	}
}

func TestSetHeadlineScoreUnknownID(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SetHeadlineScore(context.Background(), 42, 0.5, "neutral"); err == nil {
		t.Fatal("expected error for unknown headline id")
	}
}

func TestUpsertDailySentimentLastWriteWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	d := utcDay(2024, 3, 1)

	for _, avg := range []float64{0.1, 0.4} {
		err := s.UpsertDailySentiment(ctx, models.DailySentiment{Symbol: "AAPL", Date: d, AvgSentiment: avg, HeadlineCount: 2})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, err := s.GetDailySentiment(ctx, "AAPL", d, d)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0].AvgSentiment != 0.4 {
		t.Fatalf("sentiment=%+v want last write 0.4", got)
	}
}

func TestArtifactCurrentPointer(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	cur, err := s.Current(ctx, "AAPL")
	if err != nil || cur != nil {
		t.Fatalf("current before training = %v, %v; want nil, nil", cur, err)
	}

	if err := s.SetCurrent(ctx, "AAPL", "v1"); err == nil {
		t.Fatal("pointing at an unstored version must fail")
	}

	if err := s.Put(ctx, &models.ModelArtifact{Symbol: "AAPL", Version: "v1", Weights: []byte("w1")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.SetCurrent(ctx, "AAPL", "v1"); err != nil {
		t.Fatalf("set current: %v", err)
	}

	cur, err = s.Current(ctx, "AAPL")
	if err != nil || cur == nil || cur.Version != "v1" {
		t.Fatalf("current=%+v, %v; want v1", cur, err)
	}

	// mutating the returned copy must not touch the stored artifact
	cur.Version = "hacked"
	again, err := s.Current(ctx, "AAPL")
	if err != nil || again.Version != "v1" {
		t.Fatalf("stored artifact mutated: %+v, %v", again, err)
	}
}

func TestJobRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	j, err := s.LatestJob(ctx, "AAPL")
	if err != nil || j != nil {
		t.Fatalf("latest before save = %v, %v; want nil, nil", j, err)
	}

	job := &models.TrainingJob{ID: "AAPL-1", Symbol: "AAPL", Status: models.JobPending, StartedAt: time.Now().UTC()}
	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatalf("save: %v", err)
	}
	job.Status = models.JobRunning
	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatalf("save running: %v", err)
	}

	got, err := s.LatestJob(ctx, "AAPL")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Status != models.JobRunning {
		t.Fatalf("status=%q want running", got.Status)
	}
	// the store holds its own copy
	got.Status = models.JobFailed
	again, _ := s.LatestJob(ctx, "AAPL")
	if again.Status != models.JobRunning {
		t.Fatal("caller mutation leaked into the store")
	}
}
