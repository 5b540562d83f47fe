package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type string `yaml:"type"` // "clickhouse" or "memory"
	} `yaml:"backend"`
	Symbols []string `yaml:"symbols"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled        bool          `yaml:"enabled"`
		Brokers        []string      `yaml:"brokers"`
		HeadlinesTopic string        `yaml:"headlines_topic"`
		EventsTopic    string        `yaml:"events_topic"`
		LogsTopic      string        `yaml:"logs_topic"`
		RequiredAcks   int           `yaml:"required_acks"`
		Compression    string        `yaml:"compression"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	MarketData struct {
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout"`
		Throttle time.Duration `yaml:"throttle"`
	} `yaml:"market_data"`
	News struct {
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"news"`
	Quotes struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"quotes"`
	Sentiment struct {
		ClassifierURL string        `yaml:"classifier_url"`
		Timeout       time.Duration `yaml:"timeout"`
		BatchSize     int           `yaml:"batch_size"`
		Workers       int           `yaml:"workers"`
		RateCapacity  float64       `yaml:"rate_capacity"`
		RatePerSec    float64       `yaml:"rate_per_sec"`
		PipelineEvery time.Duration `yaml:"pipeline_every"`
		DaysBack      int           `yaml:"days_back"`
	} `yaml:"sentiment"`
	Training struct {
		DaysData int           `yaml:"days_data"`
		Timeout  time.Duration `yaml:"timeout"`
		Epochs   int           `yaml:"epochs"`
		Hidden   int           `yaml:"hidden"`
		Seed     int64         `yaml:"seed"`
		MinRows  int           `yaml:"min_rows"`
	} `yaml:"training"`
	Prediction struct {
		WindowDays int           `yaml:"window_days"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"prediction"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKET_DATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("QUOTES_API_KEY"); v != "" {
		c.Quotes.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Sentiment.BatchSize == 0 {
		c.Sentiment.BatchSize = 16
	}
	if c.Sentiment.Workers == 0 {
		c.Sentiment.Workers = 4
	}
	if c.Sentiment.PipelineEvery == 0 {
		c.Sentiment.PipelineEvery = 5 * time.Minute
	}
	if c.Training.Epochs == 0 {
		c.Training.Epochs = 20
	}
	if c.Training.Hidden == 0 {
		c.Training.Hidden = 16
	}
	if c.Training.DaysData == 0 {
		c.Training.DaysData = 365
	}
	if c.Training.Timeout == 0 {
		c.Training.Timeout = 5 * time.Minute
	}
	if c.Training.MinRows == 0 {
		c.Training.MinRows = 50
	}
	if c.Training.Seed == 0 {
		c.Training.Seed = 42
	}
	if c.Prediction.WindowDays == 0 {
		c.Prediction.WindowDays = 60
	}
	if c.Prediction.Timeout == 0 {
		c.Prediction.Timeout = 2 * time.Second
	}
	if c.Sentiment.DaysBack == 0 {
		c.Sentiment.DaysBack = 30
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "clickhouse" && c.Backend.Type != "memory" {
		return fmt.Errorf("backend.type must be 'clickhouse' or 'memory', got '%s'", c.Backend.Type)
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols cannot be empty")
	}
	if c.Backend.Type == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required for the clickhouse backend")
	}
	return nil
}
