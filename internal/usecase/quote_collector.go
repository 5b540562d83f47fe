package usecase

import (
	"context"

	"marketminds/internal/domain/models"
	drepo "marketminds/internal/domain/repository"
	mid "marketminds/internal/middleware"
)

// QuoteCollector reads the live quote stream and keeps the last-price
// gauge current. Quotes do not feed the daily bars; they are telemetry.
type QuoteCollector struct {
	stream  drepo.QuoteStream
	metrics drepo.Metrics
	pipe    *mid.QuotePipeline
}

func NewQuoteCollector(stream drepo.QuoteStream, metrics drepo.Metrics) *QuoteCollector {
	c := &QuoteCollector{stream: stream, metrics: metrics}
	c.pipe = mid.NewQuotePipeline(c, metrics)
	return c
}

// IsConnected returns true if the quote stream is connected.
func (c *QuoteCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *QuoteCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	qCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, qCh, errCh)
	return nil
}

func (c *QuoteCollector) consume(ctx context.Context, qCh <-chan *models.Quote, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("quote_stream")
				_ = c.stream.Reconnect(ctx)
			}
		case q := <-qCh:
			if q == nil {
				continue
			}
			_ = c.pipe.Process(ctx, q)
		}
	}
}

// Accept records an accepted quote. Called by the pipeline after
// validation and throttling.
func (c *QuoteCollector) Accept(_ context.Context, q *models.Quote) error {
	c.metrics.RecordLastPrice(q.Symbol, q.Price)
	return nil
}

// Shutdown stops the pipeline and closes the stream.
func (c *QuoteCollector) Shutdown(context.Context) error {
	c.pipe.Stop()
	return c.stream.Close()
}

var _ mid.Sink = (*QuoteCollector)(nil)
