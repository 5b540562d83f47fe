package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"marketminds/internal/domain/models"
	"marketminds/internal/repository"
	"marketminds/internal/services/features"
	"marketminds/internal/usecase"
	applogger "marketminds/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordPrediction(string, string)  {}
func (nopMetrics) RecordTrainingJob(string, string) {}
func (nopMetrics) RecordHeadlinesScored(int)        {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}
func (nopMetrics) RecordError(string)               {}

func newHandler(t *testing.T, store *repository.MemoryStore) *PredictionsHandler {
	t.Helper()
	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	fusion := features.NewPipeline(store)
	artifacts := usecase.NewArtifactManager(store)
	trainer := usecase.NewTrainingOrchestrator(fusion, artifacts, store, repository.NoopEventPublisher{}, nopMetrics{}, logger,
		usecase.TrainerConfig{DaysData: 365, MinRows: 20, Timeout: time.Minute, Epochs: 2, Hidden: 8, Seed: 42})
	predictor := usecase.NewPredictionOrchestrator(store, fusion, artifacts, nopMetrics{}, logger,
		usecase.PredictorConfig{WindowDays: 60, Timeout: 30 * time.Second})
	return NewPredictionsHandler(logger, predictor, trainer, store)
}

func doRequest(t *testing.T, h func(echo.Context) error, method, path, routePath, symbol string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(routePath)
	c.SetParamNames("symbol")
	c.SetParamValues(symbol)
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func seedBars(t *testing.T, store *repository.MemoryStore, symbol string, n int) {
	t.Helper()
	end := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]models.PriceBar, 0, n)
	for i := n - 1; i >= 0; i-- {
		price := 100 + float64(n-1-i)
		bars = append(bars, models.PriceBar{
			Symbol: symbol, Date: end.AddDate(0, 0, -i),
			Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1e6,
		})
	}
	if err := store.StoreBars(context.Background(), bars); err != nil {
		t.Fatalf("seed bars: %v", err)
	}
}

func TestPredictUnknownSymbol(t *testing.T) {
	h := newHandler(t, repository.NewMemoryStore())

	_, body := doRequest(t, h.Predict, http.MethodGet, "/api/predict/ZZZ", "/api/predict/:symbol", "ZZZ")
	if body["status"].(float64) != http.StatusNotFound {
		t.Fatalf("status=%v want 404, body=%v", body["status"], body)
	}
}

func TestPredictUntrained(t *testing.T) {
	store := repository.NewMemoryStore()
	seedBars(t, store, "AAPL", 30)
	h := newHandler(t, store)

	_, body := doRequest(t, h.Predict, http.MethodGet, "/api/predict/AAPL", "/api/predict/:symbol", "AAPL")
	if body["status"].(float64) != http.StatusOK {
		t.Fatalf("status=%v want 200, body=%v", body["status"], body)
	}
	data := body["data"].(map[string]any)
	if data["trained"] != false {
		t.Fatalf("trained=%v want false", data["trained"])
	}
	if data["symbol"] != "AAPL" {
		t.Fatalf("symbol=%v", data["symbol"])
	}
}

func TestPredictValidation(t *testing.T) {
	h := newHandler(t, repository.NewMemoryStore())

	_, body := doRequest(t, h.Predict, http.MethodGet, "/api/predict/", "/api/predict/:symbol", "")
	if body["status"].(float64) != http.StatusBadRequest {
		t.Fatalf("status=%v want 400, body=%v", body["status"], body)
	}
}

func TestTrainAccepted(t *testing.T) {
	store := repository.NewMemoryStore()
	seedBars(t, store, "AAPL", 30)
	h := newHandler(t, store)

	_, body := doRequest(t, h.Train, http.MethodPost, "/api/train/AAPL", "/api/train/:symbol", "AAPL")
	if body["status"].(float64) != http.StatusAccepted {
		t.Fatalf("status=%v want 202, body=%v", body["status"], body)
	}
	data := body["data"].(map[string]any)
	if data["symbol"] != "AAPL" || data["status"] != string(models.JobPending) {
		t.Fatalf("job=%v want pending for AAPL", data)
	}
}

func TestTrainDaysOutOfRange(t *testing.T) {
	h := newHandler(t, repository.NewMemoryStore())

	_, body := doRequest(t, h.Train, http.MethodPost, "/api/train/AAPL?days=10", "/api/train/:symbol", "AAPL")
	if body["status"].(float64) != http.StatusBadRequest {
		t.Fatalf("status=%v want 400, body=%v", body["status"], body)
	}
}

func TestTrainStatusNoJob(t *testing.T) {
	h := newHandler(t, repository.NewMemoryStore())

	_, body := doRequest(t, h.TrainStatus, http.MethodGet, "/api/train/AAPL/status", "/api/train/:symbol/status", "AAPL")
	if body["status"].(float64) != http.StatusNotFound {
		t.Fatalf("status=%v want 404, body=%v", body["status"], body)
	}
}

func TestSentimentList(t *testing.T) {
	store := repository.NewMemoryStore()
	d := time.Now().UTC().Truncate(24 * time.Hour)
	err := store.UpsertDailySentiment(context.Background(), models.DailySentiment{
		Symbol: "AAPL", Date: d, AvgSentiment: 0.25, HeadlineCount: 4, TopHeadline: "profits surge",
	})
	if err != nil {
		t.Fatalf("seed sentiment: %v", err)
	}
	h := newHandler(t, store)

	_, body := doRequest(t, h.Sentiment, http.MethodGet, "/api/sentiment/AAPL", "/api/sentiment/:symbol", "AAPL")
	if body["status"].(float64) != http.StatusOK {
		t.Fatalf("status=%v want 200, body=%v", body["status"], body)
	}
	data := body["data"].(map[string]any)
	if data["total"].(float64) != 1 {
		t.Fatalf("total=%v want 1", data["total"])
	}
}
