//go:build wireinject
// +build wireinject

package di

import (
	"marketminds/pkg/config"
	"marketminds/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Persistence and providers
		ProvideStores,
		ProvideEventPublisher,
		ProvideMarketDataProvider,
		ProvideNewsProvider,
		ProvideQuoteStream,

		// Domain services
		ProvideSentimentEngine,
		ProvideFusionPipeline,

		// Use cases
		ProvideSentimentPipeline,
		ProvideArtifactManager,
		ProvideTrainer,
		ProvidePredictor,
		ProvideIngestor,
		ProvideQuoteCollector,
		ProvideHeadlinesHandler,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
