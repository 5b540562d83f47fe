package usecase

import (
	"context"
	"encoding/json"
	"time"

	"marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
	pkgkafka "marketminds/pkg/kafka"
	"marketminds/pkg/util"
)

// KafkaHeadlinesHandler consumes headline messages and stores them
// unscored. The sentiment pipeline scores them on its next pass.
type KafkaHeadlinesHandler struct {
	topic   string
	store   domrepo.MarketStore
	metrics domrepo.Metrics
}

func NewKafkaHeadlinesHandler(topic string, store domrepo.MarketStore, metrics domrepo.Metrics) *KafkaHeadlinesHandler {
	return &KafkaHeadlinesHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaHeadlinesHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, published_at, title, source, url}
func (h *KafkaHeadlinesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol      string    `json:"symbol"`
		PublishedAt time.Time `json:"published_at"`
		Title       string    `json:"title"`
		Source      string    `json:"source"`
		URL         string    `json:"url"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Symbol == "" || m.Title == "" {
		h.metrics.RecordError("consumer_invalid")
		return nil // malformed but not retryable
	}
	// E2E latency from publish time to now (approx)
	h.metrics.RecordLatency("headline_e2e", time.Since(m.PublishedAt).Seconds())

	pub := m.PublishedAt.UTC()
	start := time.Now()
	err := h.store.StoreHeadlines(ctx, []models.Headline{{
		ID:          models.HeadlineID(m.Symbol, pub, m.Title, m.URL),
		Symbol:      m.Symbol,
		Date:        util.Day(pub),
		PublishedAt: pub,
		Title:       m.Title,
		Source:      m.Source,
		URL:         m.URL,
	}})
	h.metrics.RecordLatency("headline_store", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaHeadlinesHandler)(nil)
