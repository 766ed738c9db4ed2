package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/thermoclima/heatwave-detect/internal/domain"
	"github.com/thermoclima/heatwave-detect/internal/observability"
)

// BatchExtractor reads up to batchSize raw observation bundles from the
// source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Analyzer turns one raw observation bundle into detected heatwave events
// and their timeline projections.
type Analyzer interface {
	Analyze(ctx context.Context, raw domain.RawEvent) (domain.AnalysisResult, error)
}

// BatchLoader writes analysis results to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, results []domain.AnalysisResult) error
}

// Pipeline orchestrates the extract-analyze-load loop.
type Pipeline struct {
	extractor BatchExtractor
	analyzer  Analyzer
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, a Analyzer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		analyzer:  a,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has processed at least one
// bundle, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any observation bundles yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-analyze-load cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	loaded, ok := p.analyzeAndLoad(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// analyzeAndLoad analyzes each bundle in the batch, loads the successes, and
// commits offsets. Returns the number of successfully loaded bundles and
// false if the pipeline should stop.
func (p *Pipeline) analyzeAndLoad(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	results := make([]domain.AnalysisResult, 0, len(rawBatch))
	successfulRaws := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		result, err := p.analyzer.Analyze(ctx, raw)
		if err != nil {
			p.logger.Warn("analysis failed, skipping bundle",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.AnalysisErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		p.observeResult(result)
		results = append(results, result)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(results) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, results); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(results))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	for _, result := range results {
		p.metrics.EventsPublished.Add(float64(len(result.Events)))
	}
	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}

	return len(results), true
}

// observeResult records per-method detection metrics for one bundle.
func (p *Pipeline) observeResult(result domain.AnalysisResult) {
	for _, ev := range result.Events {
		p.metrics.EventsDetected.WithLabelValues(ev.Method).Inc()
		p.metrics.EventDuration.WithLabelValues(ev.Method).Observe(float64(ev.DurationDays))
		p.metrics.EventSeverity.WithLabelValues(ev.Method).Observe(ev.SeverityCDay)
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should
// stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
