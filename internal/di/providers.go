package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"marketminds/internal/domain/repository"
	"marketminds/internal/handler/api"
	internalrepo "marketminds/internal/repository"
	"marketminds/internal/service/marketdata"
	"marketminds/internal/service/news"
	"marketminds/internal/services/features"
	"marketminds/internal/services/sentiment"
	"marketminds/internal/usecase"
	pkgcache "marketminds/pkg/cache"
	pkgch "marketminds/pkg/clickhouse"
	"marketminds/pkg/config"
	xhttp "marketminds/pkg/http"
	pkgkafka "marketminds/pkg/kafka"
	applogger "marketminds/pkg/logger"
	"marketminds/pkg/metrics"
	"marketminds/pkg/server"
)

// Stores bundles the persistence interfaces so backend selection happens
// in one place.
type Stores struct {
	Market    repository.MarketStore
	Artifacts repository.ArtifactStore
	Jobs      repository.JobStore
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client with the schema
// initialized. Returns nil for the memory backend.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideRedisCache connects to Redis. Returns nil when no address is
// configured; artifact storage then falls back to the memory backend.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", cfg.Redis.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
}

// ProvideStores selects the persistence backends. ClickHouse keeps the
// market time series, Redis keeps artifacts and jobs; a single in-memory
// store covers everything for the memory backend.
func ProvideStores(cfg *config.Config, ch *pkgch.Client, rc *pkgcache.RedisCache, logger *applogger.Logger) *Stores {
	mem := internalrepo.NewMemoryStore()
	s := &Stores{Market: mem, Artifacts: mem, Jobs: mem}

	if ch != nil {
		chStore := internalrepo.NewCHMarketStore(ch)
		chStore.SetLogger(logger)
		s.Market = chStore
	}
	if rc != nil {
		ra := internalrepo.NewRedisArtifactStore(rc.Client())
		s.Artifacts = ra
		s.Jobs = ra
	}
	return s
}

// ProvideKafkaProducer creates a Kafka producer, nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes training lifecycle events, or a noop
// when Kafka is disabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer, nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, m repository.Metrics) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TracingHook{},
		pkgkafka.LatencyHook{Observe: func(topic string, seconds float64) {
			m.RecordLatency("consume_"+topic, seconds)
		}},
	))
	return consumer, nil
}

// ProvideHeadlinesHandler registers the handler for the headlines topic.
func ProvideHeadlinesHandler(stores *Stores, m repository.Metrics, cfg *config.Config) *usecase.KafkaHeadlinesHandler {
	return usecase.NewKafkaHeadlinesHandler(cfg.Kafka.HeadlinesTopic, stores.Market, m)
}

// ProvideMarketDataProvider creates the daily bars REST client.
func ProvideMarketDataProvider(cfg *config.Config) repository.MarketDataProvider {
	return marketdata.NewClient(cfg.MarketData.BaseURL, cfg.MarketData.APIKey, cfg.MarketData.Timeout)
}

// ProvideNewsProvider creates the headlines REST client with its response
// cache: layered memory+Redis when Redis is available, memory-only
// otherwise.
func ProvideNewsProvider(cfg *config.Config, rc *pkgcache.RedisCache) repository.NewsProvider {
	var c pkgcache.Service
	if rc != nil {
		c = pkgcache.NewLayeredCache(rc)
	} else {
		c = pkgcache.NewMemoryCache()
	}
	return news.NewClient(cfg.News.BaseURL, cfg.News.APIKey, cfg.News.Timeout, c, cfg.News.CacheTTL)
}

// ProvideQuoteStream creates the live quote stream, nil when disabled.
func ProvideQuoteStream(cfg *config.Config) repository.QuoteStream {
	if !cfg.Quotes.Enabled {
		return nil
	}
	return marketdata.NewStream(
		cfg.Quotes.APIKey,
		cfg.Quotes.WebSocketURL,
		cfg.Symbols,
		cfg.Quotes.ReconnectDelay,
		cfg.Quotes.PingInterval,
	)
}

// ProvideQuoteCollector creates the quote collector, nil when the stream
// is disabled.
func ProvideQuoteCollector(stream repository.QuoteStream, m repository.Metrics) *usecase.QuoteCollector {
	if stream == nil {
		return nil
	}
	return usecase.NewQuoteCollector(stream, m)
}

// ProvideSentimentEngine builds the scoring engine: remote classifier
// first, lexicon fallback.
func ProvideSentimentEngine(cfg *config.Config, logger *applogger.Logger) *sentiment.Engine {
	return sentiment.NewEngine(
		sentiment.NewRemoteScorer(cfg),
		sentiment.NewLexiconScorer(),
		logger,
		sentiment.WithBatchSize(cfg.Sentiment.BatchSize),
		sentiment.WithWorkers(cfg.Sentiment.Workers),
		sentiment.WithRateLimit(cfg.Sentiment.RateCapacity, cfg.Sentiment.RatePerSec),
	)
}

// ProvideSentimentPipeline creates the periodic scoring pipeline.
func ProvideSentimentPipeline(stores *Stores, engine *sentiment.Engine, m repository.Metrics, logger *applogger.Logger) *usecase.SentimentPipeline {
	return usecase.NewSentimentPipeline(stores.Market, engine, m, logger)
}

// ProvideFusionPipeline creates the feature fusion pipeline.
func ProvideFusionPipeline(stores *Stores) *features.Pipeline {
	return features.NewPipeline(stores.Market)
}

// ProvideArtifactManager creates the model lifecycle manager.
func ProvideArtifactManager(stores *Stores) *usecase.ArtifactManager {
	return usecase.NewArtifactManager(stores.Artifacts)
}

// ProvideTrainer creates the training orchestrator.
func ProvideTrainer(
	fusion *features.Pipeline,
	artifacts *usecase.ArtifactManager,
	stores *Stores,
	events repository.EventPublisher,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.TrainingOrchestrator {
	return usecase.NewTrainingOrchestrator(fusion, artifacts, stores.Jobs, events, m, logger, usecase.TrainerConfig{
		DaysData: cfg.Training.DaysData,
		MinRows:  cfg.Training.MinRows,
		Timeout:  cfg.Training.Timeout,
		Epochs:   cfg.Training.Epochs,
		Hidden:   cfg.Training.Hidden,
		Seed:     cfg.Training.Seed,
	})
}

// ProvidePredictor creates the prediction orchestrator.
func ProvidePredictor(
	stores *Stores,
	fusion *features.Pipeline,
	artifacts *usecase.ArtifactManager,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.PredictionOrchestrator {
	return usecase.NewPredictionOrchestrator(stores.Market, fusion, artifacts, m, logger, usecase.PredictorConfig{
		WindowDays: cfg.Prediction.WindowDays,
		Timeout:    cfg.Prediction.Timeout,
	})
}

// ProvideIngestor creates the provider-to-store ingestor.
func ProvideIngestor(
	market repository.MarketDataProvider,
	newsProvider repository.NewsProvider,
	stores *Stores,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.Ingestor {
	return usecase.NewIngestor(market, newsProvider, stores.Market, m, logger)
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(
	logger *applogger.Logger,
	predictor *usecase.PredictionOrchestrator,
	trainer *usecase.TrainingOrchestrator,
	stores *Stores,
) xhttp.Handler {
	return api.NewPredictionsHandler(logger, predictor, trainer, stores.Market)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	stores *Stores,
	events repository.EventPublisher,
	ingestor *usecase.Ingestor,
	pipeline *usecase.SentimentPipeline,
	collector *usecase.QuoteCollector,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaHeadlinesHandler,
	httpHandler xhttp.Handler,
) *server.App {
	var mh pkgkafka.MessageHandler
	if consumer != nil {
		mh = kh
	}
	// aggregate repeated error logs onto the logs topic when configured
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
	}
	return server.New(cfg, logger, stores.Market, events, ingestor, pipeline, collector, consumer, mh, httpHandler)
}
