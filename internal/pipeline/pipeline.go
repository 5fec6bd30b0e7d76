// Package pipeline runs the batch extract-transform-load loop that turns
// CSS event bundles from the source topic into QuakeML documents on the
// sink topic.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/quakecat/css2quakeml/internal/observability"
)

// BatchExtractor reads up to batchSize raw bundle messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]RawMessage, error)
}

// Transformer converts a raw bundle message into an output document.
type Transformer interface {
	Transform(ctx context.Context, raw RawMessage) (OutputMessage, error)
}

// BatchLoader writes multiple output documents to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, msgs []OutputMessage) error
}

// Backoff bounds for extract and load retries. Doubling from the floor keeps
// tight loops out of Kafka outages without stalling recovery.
const (
	backoffFloor = 200 * time.Millisecond
	backoffCeil  = 5 * time.Second
)

// retryBackoff tracks the current retry delay between failed cycles.
type retryBackoff struct {
	current time.Duration
}

func (b *retryBackoff) reset() {
	b.current = backoffFloor
}

// wait sleeps for the current delay, doubling it for next time. Returns false
// when the context is cancelled before or during the sleep.
func (b *retryBackoff) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if b.current <= 0 {
		b.current = backoffFloor
	}

	timer := time.NewTimer(b.current)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}

	if b.current *= 2; b.current > backoffCeil {
		b.current = backoffCeil
	}
	return true
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has processed at least one
// message, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := &retryBackoff{current: backoffFloor}

	for ctx.Err() == nil {
		if !p.runCycle(ctx, backoff) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// runCycle performs one extract-convert-publish pass. Returns false when the
// pipeline should stop.
func (p *Pipeline) runCycle(ctx context.Context, backoff *retryBackoff) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return backoff.wait(ctx)
	}
	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))
	backoff.reset()

	docs, converted := p.convertBatch(ctx, batch)
	if len(docs) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, docs); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(docs))
		return backoff.wait(ctx)
	}
	p.metrics.MessagesProduced.Add(float64(len(docs)))

	for _, raw := range converted {
		p.commitOffset(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// convertBatch converts each bundle in the batch and returns the resulting
// documents alongside the raw messages they came from. A bundle that fails
// conversion is logged and committed past so one poison message cannot wedge
// the partition.
func (p *Pipeline) convertBatch(ctx context.Context, batch []RawMessage) ([]OutputMessage, []RawMessage) {
	docs := make([]OutputMessage, 0, len(batch))
	converted := make([]RawMessage, 0, len(batch))

	for _, raw := range batch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("convert failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.ConvertErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		docs = append(docs, out)
		converted = append(converted, raw)
	}
	return docs, converted
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
