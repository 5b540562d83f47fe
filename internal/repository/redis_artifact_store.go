package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
)

// RedisArtifactStore keeps model artifacts and training job records in Redis.
//
// The current-version pointer is a single key written with SET, which Redis
// executes atomically: a concurrent reader sees either the old version or the
// new one, never a half-written artifact. Superseded versions stay under
// their versioned keys for audit and are never read for inference.
type RedisArtifactStore struct {
	client *redis.Client
	prefix string
}

// NewRedisArtifactStore creates the store over an existing Redis client.
func NewRedisArtifactStore(client *redis.Client) *RedisArtifactStore {
	return &RedisArtifactStore{client: client, prefix: "marketminds"}
}

func (s *RedisArtifactStore) artifactKey(symbol, version string) string {
	return fmt.Sprintf("%s:artifact:%s:%s", s.prefix, symbol, version)
}

func (s *RedisArtifactStore) currentKey(symbol string) string {
	return fmt.Sprintf("%s:artifact:%s:current", s.prefix, symbol)
}

func (s *RedisArtifactStore) jobKey(symbol string) string {
	return fmt.Sprintf("%s:job:%s", s.prefix, symbol)
}

func (s *RedisArtifactStore) Put(ctx context.Context, a *models.ModelArtifact) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := s.client.Set(ctx, s.artifactKey(a.Symbol, a.Version), b, 0).Err(); err != nil {
		return fmt.Errorf("put artifact: %w", err)
	}
	return nil
}

func (s *RedisArtifactStore) Get(ctx context.Context, symbol, version string) (*models.ModelArtifact, error) {
	b, err := s.client.Get(ctx, s.artifactKey(symbol, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	var a models.ModelArtifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	return &a, nil
}

// Current resolves the current pointer and loads that version. A missing
// pointer means the symbol has never been trained; that is reported as
// (nil, nil), not an error.
func (s *RedisArtifactStore) Current(ctx context.Context, symbol string) (*models.ModelArtifact, error) {
	version, err := s.client.Get(ctx, s.currentKey(symbol)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current pointer: %w", err)
	}
	return s.Get(ctx, symbol, version)
}

func (s *RedisArtifactStore) SetCurrent(ctx context.Context, symbol, version string) error {
	// refuse to point at a version that was never stored
	exists, err := s.client.Exists(ctx, s.artifactKey(symbol, version)).Result()
	if err != nil {
		return fmt.Errorf("check artifact: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("set current: artifact %s/%s not stored", symbol, version)
	}
	if err := s.client.Set(ctx, s.currentKey(symbol), version, 0).Err(); err != nil {
		return fmt.Errorf("set current: %w", err)
	}
	return nil
}

func (s *RedisArtifactStore) SaveJob(ctx context.Context, j *models.TrainingJob) error {
	b, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.client.Set(ctx, s.jobKey(j.Symbol), b, 0).Err(); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

func (s *RedisArtifactStore) LatestJob(ctx context.Context, symbol string) (*models.TrainingJob, error) {
	b, err := s.client.Get(ctx, s.jobKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest job: %w", err)
	}
	var j models.TrainingJob
	if err := json.Unmarshal(b, &j); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &j, nil
}

func (s *RedisArtifactStore) Close() error {
	return s.client.Close()
}

var (
	_ domrepo.ArtifactStore = (*RedisArtifactStore)(nil)
	_ domrepo.JobStore      = (*RedisArtifactStore)(nil)
)
