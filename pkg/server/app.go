package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "marketminds/internal/domain/repository"
	"marketminds/internal/usecase"
	"marketminds/pkg/config"
	xhttp "marketminds/pkg/http"
	pkgkafka "marketminds/pkg/kafka"
	applogger "marketminds/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg    *config.Config
	logger *applogger.Logger

	store     domrepo.MarketStore
	events    domrepo.EventPublisher
	ingestor  *usecase.Ingestor
	sentiment *usecase.SentimentPipeline
	collector *usecase.QuoteCollector // nil when quotes disabled
	consumer  *pkgkafka.Consumer      // nil when kafka disabled
	kh        pkgkafka.MessageHandler

	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	store domrepo.MarketStore,
	events domrepo.EventPublisher,
	ingestor *usecase.Ingestor,
	sentiment *usecase.SentimentPipeline,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		events:      events,
		ingestor:    ingestor,
		sentiment:   sentiment,
		collector:   collector,
		consumer:    consumer,
		kh:          kh,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	defer initCancel()
	if err := a.store.Init(initCtx); err != nil {
		return err
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)

	// initial history pull; prediction endpoints come up while it runs
	go a.ingestor.Backfill(ctx, a.cfg.Symbols, a.cfg.Training.DaysData)

	a.sentiment.Start(ctx, a.cfg.Sentiment.PipelineEvery)
	a.logger.Info("sentiment pipeline started",
		applogger.Duration("every", a.cfg.Sentiment.PipelineEvery))

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.logger.Error("quote collector error", applogger.Error(err))
			}
		}()
		a.logger.Info("quote collector started", applogger.Strings("symbols", a.cfg.Symbols))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.logger.Warn("quote collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("event publisher close error", applogger.Error(err))
		}
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close error", applogger.Error(err))
	}

	a.logger.RemoveCollector()
	a.logger.Info("shutdown complete")
	return nil
}
