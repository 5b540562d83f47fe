package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: development
backend:
  type: memory
symbols:
  - AAPL
  - MSFT
`

func TestLoadMinimal(t *testing.T) {
	c, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "development" || c.Backend.Type != "memory" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if len(c.Symbols) != 2 || c.Symbols[0] != "AAPL" {
		t.Fatalf("symbols=%v", c.Symbols)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("port=%d want 8080", c.Server.Port)
	}
	if c.Sentiment.BatchSize != 16 || c.Sentiment.Workers != 4 {
		t.Fatalf("sentiment defaults: %+v", c.Sentiment)
	}
	if c.Sentiment.PipelineEvery != 5*time.Minute {
		t.Fatalf("pipeline_every=%v", c.Sentiment.PipelineEvery)
	}
	if c.Training.Epochs != 20 || c.Training.Hidden != 16 || c.Training.Seed != 42 {
		t.Fatalf("training defaults: %+v", c.Training)
	}
	if c.Training.DaysData != 365 || c.Training.MinRows != 50 {
		t.Fatalf("training window defaults: %+v", c.Training)
	}
	if c.Prediction.WindowDays != 60 || c.Prediction.Timeout != 2*time.Second {
		t.Fatalf("prediction defaults: %+v", c.Prediction)
	}
}

func TestLoadExplicitValuesWin(t *testing.T) {
	c, err := Load(writeConfig(t, minimalConfig+`
server:
  port: 9090
training:
  epochs: 5
  seed: 7
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("port=%d want 9090", c.Server.Port)
	}
	if c.Training.Epochs != 5 || c.Training.Seed != 7 {
		t.Fatalf("training=%+v", c.Training)
	}
	// untouched defaults still apply
	if c.Training.Hidden != 16 {
		t.Fatalf("hidden=%d want 16", c.Training.Hidden)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing environment", "backend:\n  type: memory\nsymbols: [AAPL]\n"},
		{"missing backend", "environment: development\nsymbols: [AAPL]\n"},
		{"bad backend type", "environment: development\nbackend:\n  type: postgres\nsymbols: [AAPL]\n"},
		{"no symbols", "environment: development\nbackend:\n  type: memory\n"},
		{"clickhouse without host", "environment: development\nbackend:\n  type: clickhouse\nsymbols: [AAPL]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("MARKET_DATA_API_KEY", "md-key")
	t.Setenv("SYMBOLS", "TSLA,NVDA")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	c, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.MarketData.APIKey != "md-key" {
		t.Fatalf("api key %q", c.MarketData.APIKey)
	}
	if len(c.Symbols) != 2 || c.Symbols[0] != "TSLA" || c.Symbols[1] != "NVDA" {
		t.Fatalf("symbols=%v", c.Symbols)
	}
	if c.Redis.Addr != "localhost:6379" {
		t.Fatalf("redis addr %q", c.Redis.Addr)
	}
}
