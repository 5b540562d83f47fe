package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
	"marketminds/pkg/util"
)

// MemoryStore is an in-memory MarketStore/ArtifactStore/JobStore used for
// the "memory" backend and in tests. Safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	bars      map[string]map[time.Time]models.PriceBar
	headlines map[string][]models.Headline
	sentiment map[string]map[time.Time]models.DailySentiment
	artifacts map[string]map[string]*models.ModelArtifact
	current   map[string]string
	jobs      map[string]*models.TrainingJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bars:      make(map[string]map[time.Time]models.PriceBar),
		headlines: make(map[string][]models.Headline),
		sentiment: make(map[string]map[time.Time]models.DailySentiment),
		artifacts: make(map[string]map[string]*models.ModelArtifact),
		current:   make(map[string]string),
		jobs:      make(map[string]*models.TrainingJob),
	}
}

func (s *MemoryStore) Init(context.Context) error { return nil }

func day(t time.Time) time.Time { return util.Day(t) }

func (s *MemoryStore) StoreBars(_ context.Context, bars []models.PriceBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bars {
		m, ok := s.bars[b.Symbol]
		if !ok {
			m = make(map[time.Time]models.PriceBar)
			s.bars[b.Symbol] = m
		}
		d := day(b.Date)
		if _, exists := m[d]; exists {
			continue // bars are immutable once recorded
		}
		b.Date = d
		m[d] = b
	}
	return nil
}

func (s *MemoryStore) GetBars(_ context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to = day(from), day(to)
	var out []models.PriceBar
	for d, b := range s.bars[symbol] {
		if !d.Before(from) && !d.After(to) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) LatestBar(_ context.Context, symbol string) (*models.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.PriceBar
	for _, b := range s.bars[symbol] {
		b := b
		if latest == nil || b.Date.After(latest.Date) {
			latest = &b
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: no bars for %s", models.ErrDataUnavailable, symbol)
	}
	return latest, nil
}

func (s *MemoryStore) StoreHeadlines(_ context.Context, hs []models.Headline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hs {
		if h.ID == 0 {
			h.ID = models.HeadlineID(h.Symbol, h.PublishedAt, h.Title, h.URL)
		}
		if s.hasHeadline(h.Symbol, h.ID) {
			// re-delivered article, first write wins
			continue
		}
		h.Date = day(h.Date)
		s.headlines[h.Symbol] = append(s.headlines[h.Symbol], h)
	}
	return nil
}

func (s *MemoryStore) hasHeadline(symbol string, id int64) bool {
	for _, h := range s.headlines[symbol] {
		if h.ID == id {
			return true
		}
	}
	return false
}

func (s *MemoryStore) GetHeadlines(_ context.Context, symbol string, from, to time.Time) ([]models.Headline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to = day(from), day(to)
	var out []models.Headline
	for _, h := range s.headlines[symbol] {
		if !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.Before(out[j].PublishedAt) })
	return out, nil
}

func (s *MemoryStore) UnscoredHeadlines(_ context.Context, limit int) ([]models.Headline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Headline
	for _, hs := range s.headlines {
		for _, h := range hs {
			if !h.Scored() {
				out = append(out, h)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.Before(out[j].PublishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SetHeadlineScore(_ context.Context, id int64, score float64, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sym, hs := range s.headlines {
		for i := range hs {
			if hs[i].ID == id {
				if hs[i].Scored() {
					return nil // scored exactly once, never rewritten
				}
				sc := score
				s.headlines[sym][i].Score = &sc
				s.headlines[sym][i].Label = label
				return nil
			}
		}
	}
	return fmt.Errorf("headline %d not found", id)
}

func (s *MemoryStore) UpsertDailySentiment(_ context.Context, d models.DailySentiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sentiment[d.Symbol]
	if !ok {
		m = make(map[time.Time]models.DailySentiment)
		s.sentiment[d.Symbol] = m
	}
	d.Date = day(d.Date)
	m[d.Date] = d // last write wins
	return nil
}

func (s *MemoryStore) GetDailySentiment(_ context.Context, symbol string, from, to time.Time) ([]models.DailySentiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from, to = day(from), day(to)
	var out []models.DailySentiment
	for d, v := range s.sentiment[symbol] {
		if !d.Before(from) && !d.After(to) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, a *models.ModelArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.artifacts[a.Symbol]
	if !ok {
		m = make(map[string]*models.ModelArtifact)
		s.artifacts[a.Symbol] = m
	}
	cp := *a
	m[a.Version] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, symbol, version string) (*models.ModelArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.artifacts[symbol][version]
	if a == nil {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) Current(_ context.Context, symbol string) (*models.ModelArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.current[symbol]
	if !ok {
		return nil, nil
	}
	a := s.artifacts[symbol][v]
	if a == nil {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) SetCurrent(_ context.Context, symbol, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifacts[symbol][version] == nil {
		return fmt.Errorf("set current: artifact %s/%s not stored", symbol, version)
	}
	s.current[symbol] = version
	return nil
}

func (s *MemoryStore) SaveJob(_ context.Context, j *models.TrainingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *j
	s.jobs[j.Symbol] = &cp
	return nil
}

func (s *MemoryStore) LatestJob(_ context.Context, symbol string) (*models.TrainingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[symbol]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (s *MemoryStore) Health(context.Context) error { return nil }
func (s *MemoryStore) Close() error                 { return nil }

var (
	_ domrepo.MarketStore   = (*MemoryStore)(nil)
	_ domrepo.ArtifactStore = (*MemoryStore)(nil)
	_ domrepo.JobStore      = (*MemoryStore)(nil)
)
