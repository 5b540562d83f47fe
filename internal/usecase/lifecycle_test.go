package usecase

import (
	"context"
	"testing"
	"time"

	"marketminds/internal/domain/models"
	"marketminds/internal/repository"
	"marketminds/internal/services/forecast"
)

func trainedWeights(t *testing.T) []byte {
	t.Helper()
	seqs := make([][][]float64, 5)
	labels := make([]float64, 5)
	for i := range seqs {
		seq := make([][]float64, 7)
		for j := range seq {
			seq[j] = []float64{float64(i+j) / 12, 0.5, 0}
		}
		seqs[i] = seq
		labels[i] = float64(i) / 5
	}
	model := forecast.New(forecast.WithHidden(4), forecast.WithEpochs(1), forecast.WithSeed(1))
	if _, _, err := model.Train(context.Background(), seqs, labels); err != nil {
		t.Fatalf("train: %v", err)
	}
	w, err := model.Weights()
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	return w
}

func artifactFor(t *testing.T, symbol, version string) *models.ModelArtifact {
	t.Helper()
	return &models.ModelArtifact{
		Symbol:     symbol,
		Version:    version,
		Weights:    trainedWeights(t),
		FinalLoss:  0.01,
		DataPoints: 5,
		TrainedAt:  time.Now().UTC(),
	}
}

func TestCurrentModelUntrained(t *testing.T) {
	m := NewArtifactManager(repository.NewMemoryStore())

	model, artifact, err := m.CurrentModel(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("current model: %v", err)
	}
	if model != nil || artifact != nil {
		t.Fatal("untrained symbol must yield nil model without error")
	}
}

func TestPromoteServesNewVersion(t *testing.T) {
	m := NewArtifactManager(repository.NewMemoryStore())
	ctx := context.Background()

	if err := m.Promote(ctx, artifactFor(t, "AAPL", "v1")); err != nil {
		t.Fatalf("promote v1: %v", err)
	}
	model, artifact, err := m.CurrentModel(ctx, "AAPL")
	if err != nil || model == nil {
		t.Fatalf("current after v1: %v %v", model, err)
	}
	if artifact.Version != "v1" {
		t.Fatalf("version %q want v1", artifact.Version)
	}

	if err := m.Promote(ctx, artifactFor(t, "AAPL", "v2")); err != nil {
		t.Fatalf("promote v2: %v", err)
	}
	model2, artifact2, err := m.CurrentModel(ctx, "AAPL")
	if err != nil || model2 == nil {
		t.Fatalf("current after v2: %v %v", model2, err)
	}
	if artifact2.Version != "v2" {
		t.Fatalf("version %q want v2, promotion did not flip the pointer", artifact2.Version)
	}
	if model2 == model {
		t.Fatal("cache served the stale model after promotion")
	}
}

func TestCurrentModelCachesByVersion(t *testing.T) {
	m := NewArtifactManager(repository.NewMemoryStore())
	ctx := context.Background()
	if err := m.Promote(ctx, artifactFor(t, "AAPL", "v1")); err != nil {
		t.Fatalf("promote: %v", err)
	}

	first, _, err := m.CurrentModel(ctx, "AAPL")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	second, _, err := m.CurrentModel(ctx, "AAPL")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if first != second {
		t.Fatal("expected the restored model to be cached")
	}
}

func TestArtifactAuditLookup(t *testing.T) {
	m := NewArtifactManager(repository.NewMemoryStore())
	ctx := context.Background()
	if err := m.Promote(ctx, artifactFor(t, "AAPL", "v1")); err != nil {
		t.Fatalf("promote v1: %v", err)
	}
	if err := m.Promote(ctx, artifactFor(t, "AAPL", "v2")); err != nil {
		t.Fatalf("promote v2: %v", err)
	}

	old, err := m.Artifact(ctx, "AAPL", "v1")
	if err != nil {
		t.Fatalf("get v1: %v", err)
	}
	if old == nil || old.Version != "v1" {
		t.Fatalf("superseded version must stay retrievable, got %+v", old)
	}
}
