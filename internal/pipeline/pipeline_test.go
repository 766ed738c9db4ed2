package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thermoclima/heatwave-detect/internal/domain"
	"github.com/thermoclima/heatwave-detect/internal/observability"
	"github.com/thermoclima/heatwave-detect/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockAnalyzer struct {
	err    error
	result domain.AnalysisResult
}

func (m *mockAnalyzer) Analyze(_ context.Context, raw domain.RawEvent) (domain.AnalysisResult, error) {
	if m.err != nil {
		return domain.AnalysisResult{}, m.err
	}
	result := m.result
	if result.SiteID == "" {
		result.SiteID = string(raw.Key)
	}
	return result, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.AnalysisResult
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, results []domain.AnalysisResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, results...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawBundle(t, "SBSP")

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ana := &mockAnalyzer{result: domain.AnalysisResult{
		SiteID: "SBSP",
		Events: []domain.Event{{ID: "SBSP-INMET-20230105-001", Method: domain.MethodINMET, DurationDays: 3}},
	}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, ana, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, ldr.count())
	assert.Equal(t, "SBSP", ldr.loaded[0].SiteID)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	ana := &mockAnalyzer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, ana, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, ldr.count())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_AnalysisErrorSkipsAndCommits(t *testing.T) {
	var commits atomic.Int64

	raw := makeRawBundle(t, "SBSP")
	raw.Topic = "raw-site-observations"
	raw.Commit = func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ana := &mockAnalyzer{err: errors.New("bad bundle")}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, ana, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, ldr.count())
	// Failed bundles are committed so they are not re-delivered forever.
	assert.Equal(t, int64(1), commits.Load())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var commits atomic.Int64

	raw := makeRawBundle(t, "SBSP")
	raw.Commit = func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ana := &mockAnalyzer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, ana, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), commits.Load())
}

func TestPipeline_Run_LoadErrorRetriesWithBackoff(t *testing.T) {
	raw := makeRawBundle(t, "SBSP")

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}, {raw}}}
	ana := &mockAnalyzer{}
	ldr := &mockLoader{err: errors.New("broker unavailable")}
	metrics := newTestMetrics()

	p := pipeline.New(ext, ana, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, ldr.count())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("fetch failed")}
	ana := &mockAnalyzer{}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, ana, ldr, slog.Default(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, ldr.count())
}

// --- helpers ---

func makeRawBundle(t *testing.T, siteID string) domain.RawEvent {
	t.Helper()
	base := time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)
	set := domain.ObservationSet{
		SiteID: siteID,
		Records: []domain.ObservationRecord{
			{Timeset: base, TaC: 24.0},
			{Timeset: base.Add(12 * time.Hour), TaC: 31.5},
		},
	}
	data, err := json.Marshal(set)
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(siteID),
		Value: data,
	}
}
