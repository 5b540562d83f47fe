package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
	pkgch "marketminds/pkg/clickhouse"
	applogger "marketminds/pkg/logger"
)

// CHMarketStore implements MarketStore backed by ClickHouse.
//
// Bars, headlines and daily sentiment live in ReplacingMergeTree tables keyed
// the way the domain requires uniqueness, so re-ingesting a range is
// idempotent and daily sentiment recomputation is last-write-wins.
type CHMarketStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHMarketStore(ch *pkgch.Client) *CHMarketStore {
	return &CHMarketStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHMarketStore) SetLogger(l *applogger.Logger) { s.l = l }

const (
	barsTable      = "marketminds.price_bars"
	headlinesTable = "marketminds.headlines"
	sentimentTable = "marketminds.daily_sentiment"
)

// Schema returns the DDL the store expects; executed at startup.
func Schema() []string {
	return []string{
		"CREATE DATABASE IF NOT EXISTS marketminds",
		`CREATE TABLE IF NOT EXISTS ` + barsTable + ` (
            symbol String, date Date,
            open Float64, high Float64, low Float64, close Float64, volume Float64,
            inserted_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(inserted_at) ORDER BY (symbol, date)`,
		`CREATE TABLE IF NOT EXISTS ` + headlinesTable + ` (
            id Int64, symbol String, date Date, published_at DateTime,
            title String, source String, url String,
            score Nullable(Float64), label String,
            inserted_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(inserted_at) ORDER BY (symbol, id)`,
		`CREATE TABLE IF NOT EXISTS ` + sentimentTable + ` (
            symbol String, date Date,
            avg_sentiment Float64, headline_count Int32, top_headline String,
            inserted_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(inserted_at) ORDER BY (symbol, date)`,
	}
}

func (s *CHMarketStore) Init(ctx context.Context) error {
	for _, stmt := range Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *CHMarketStore) StoreBars(ctx context.Context, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	values := make([]string, 0, len(bars))
	args := make([]interface{}, 0, len(bars)*7)
	for _, b := range bars {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, date, open, high, low, close, volume) VALUES %s",
		barsTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.logErr("store_bars", err, applogger.Int("rows", len(bars)))
		return fmt.Errorf("store bars: %w", err)
	}
	return nil
}

func (s *CHMarketStore) GetBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	start := time.Now()
	const q = `
        SELECT symbol, date, open, high, low, close, volume
        FROM ` + barsTable + ` FINAL
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		s.logErr("get_bars", err, applogger.String("symbol", symbol))
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, 512)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHMarketStore) LatestBar(ctx context.Context, symbol string) (*models.PriceBar, error) {
	const q = `
        SELECT symbol, date, open, high, low, close, volume
        FROM ` + barsTable + ` FINAL
        WHERE symbol = ?
        ORDER BY date DESC
        LIMIT 1
    `
	var b models.PriceBar
	err := s.db.QueryRowContext(ctx, q, symbol).
		Scan(&b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no bars for %s", models.ErrDataUnavailable, symbol)
	}
	if err != nil {
		s.logErr("latest_bar", err, applogger.String("symbol", symbol))
		return nil, fmt.Errorf("latest bar: %w", err)
	}
	return &b, nil
}

func (s *CHMarketStore) StoreHeadlines(ctx context.Context, hs []models.Headline) error {
	if len(hs) == 0 {
		return nil
	}
	values := make([]string, 0, len(hs))
	args := make([]interface{}, 0, len(hs)*9)
	for _, h := range hs {
		if h.ID == 0 {
			h.ID = models.HeadlineID(h.Symbol, h.PublishedAt, h.Title, h.URL)
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, h.ID, h.Symbol, h.Date, h.PublishedAt, h.Title, h.Source, h.URL, h.Score, h.Label)
	}
	q := fmt.Sprintf("INSERT INTO %s (id, symbol, date, published_at, title, source, url, score, label) VALUES %s",
		headlinesTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.logErr("store_headlines", err, applogger.Int("rows", len(hs)))
		return fmt.Errorf("store headlines: %w", err)
	}
	return nil
}

func (s *CHMarketStore) GetHeadlines(ctx context.Context, symbol string, from, to time.Time) ([]models.Headline, error) {
	const q = `
        SELECT id, symbol, date, published_at, title, source, url, score, label
        FROM ` + headlinesTable + ` FINAL
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY published_at ASC, id ASC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		s.logErr("get_headlines", err, applogger.String("symbol", symbol))
		return nil, fmt.Errorf("get headlines: %w", err)
	}
	defer rows.Close()
	return scanHeadlines(rows)
}

func (s *CHMarketStore) UnscoredHeadlines(ctx context.Context, limit int) ([]models.Headline, error) {
	const q = `
        SELECT id, symbol, date, published_at, title, source, url, score, label
        FROM ` + headlinesTable + ` FINAL
        WHERE score IS NULL
        ORDER BY published_at ASC, id ASC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		s.logErr("unscored_headlines", err)
		return nil, fmt.Errorf("unscored headlines: %w", err)
	}
	defer rows.Close()
	return scanHeadlines(rows)
}

// SetHeadlineScore rewrites the headline row with its score; the replacing
// merge keeps the newest version per (symbol, id).
func (s *CHMarketStore) SetHeadlineScore(ctx context.Context, id int64, score float64, label string) error {
	const q = `
        INSERT INTO ` + headlinesTable + ` (id, symbol, date, published_at, title, source, url, score, label)
        SELECT id, symbol, date, published_at, title, source, url, ?, ?
        FROM ` + headlinesTable + ` FINAL
        WHERE id = ?
    `
	if _, err := s.db.ExecContext(ctx, q, score, label, id); err != nil {
		s.logErr("set_headline_score", err, applogger.Int64("id", id))
		return fmt.Errorf("set headline score: %w", err)
	}
	return nil
}

func (s *CHMarketStore) UpsertDailySentiment(ctx context.Context, d models.DailySentiment) error {
	const q = `
        INSERT INTO ` + sentimentTable + ` (symbol, date, avg_sentiment, headline_count, top_headline)
        VALUES (?, ?, ?, ?, ?)
    `
	if _, err := s.db.ExecContext(ctx, q, d.Symbol, d.Date, d.AvgSentiment, int32(d.HeadlineCount), d.TopHeadline); err != nil {
		s.logErr("upsert_sentiment", err, applogger.String("symbol", d.Symbol))
		return fmt.Errorf("upsert daily sentiment: %w", err)
	}
	return nil
}

func (s *CHMarketStore) GetDailySentiment(ctx context.Context, symbol string, from, to time.Time) ([]models.DailySentiment, error) {
	const q = `
        SELECT symbol, date, avg_sentiment, headline_count, top_headline
        FROM ` + sentimentTable + ` FINAL
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		s.logErr("get_sentiment", err, applogger.String("symbol", symbol))
		return nil, fmt.Errorf("get daily sentiment: %w", err)
	}
	defer rows.Close()

	var out []models.DailySentiment
	for rows.Next() {
		var d models.DailySentiment
		var count int32
		if err := rows.Scan(&d.Symbol, &d.Date, &d.AvgSentiment, &count, &d.TopHeadline); err != nil {
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		d.HeadlineCount = int(count)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *CHMarketStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHMarketStore) Close() error {
	return nil // connection pool is owned by pkg/clickhouse
}

func scanHeadlines(rows *sql.Rows) ([]models.Headline, error) {
	var out []models.Headline
	for rows.Next() {
		var h models.Headline
		if err := rows.Scan(&h.ID, &h.Symbol, &h.Date, &h.PublishedAt, &h.Title, &h.Source, &h.URL, &h.Score, &h.Label); err != nil {
			return nil, fmt.Errorf("scan headline: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *CHMarketStore) logErr(op string, err error, fields ...applogger.Field) {
	if s.l == nil {
		return
	}
	fields = append(fields, applogger.String("op", op), applogger.Error(err))
	s.l.Error("clickhouse market store error", fields...)
}

var _ domrepo.MarketStore = (*CHMarketStore)(nil)
