package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"MarketScout/internal/domain/models"
	"MarketScout/internal/services/forecast"
	"MarketScout/internal/services/indicator"
	"MarketScout/internal/services/ranking"
	"MarketScout/pkg/logger"
	"MarketScout/pkg/util"
)

type fakeProvider struct {
	mu     sync.Mutex
	series map[string]*models.RawSeries
	errs   map[string]error
	calls  []string
}

func (f *fakeProvider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*models.RawSeries, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()

	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	if s, ok := f.series[symbol]; ok {
		return s, nil
	}
	return nil, models.ErrNotFound
}

type fakeStore struct {
	mu        sync.Mutex
	published *models.Artifact
	previous  *models.Artifact
}

func (f *fakeStore) Publish(ctx context.Context, a *models.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = a
	return nil
}

func (f *fakeStore) Previous(ctx context.Context) (*models.Artifact, error) {
	return f.previous, nil
}

func (f *fakeStore) Latest(ctx context.Context) (*models.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published, nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	tickers  map[string]int
	errors   map[string]int
	complete float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{tickers: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordTicker(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers[status]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLastClose(string, float64)    {}
func (m *fakeMetrics) RecordStageLatency(string, float64) {}

func (m *fakeMetrics) RecordCompleteness(ratio float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complete = ratio
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// seriesFor builds n trading days of slightly trending history ending at asOf.
func seriesFor(symbol string, asOf time.Time, n int, base float64) *models.RawSeries {
	raw := &models.RawSeries{Symbol: symbol}
	d := util.Day(asOf)
	if !util.IsTradingDay(d) {
		d = util.PrevTradingDay(d)
	}
	days := make([]time.Time, n)
	for i := n - 1; i >= 0; i-- {
		days[i] = d
		d = util.PrevTradingDay(d)
	}
	for i, day := range days {
		c := base + 0.3*float64(i)
		raw.Candles = append(raw.Candles, models.Candle{
			Date: day, Open: c, High: c, Low: c, Close: c, Volume: 10_000,
		})
	}
	return raw
}

func testPipeline(provider *fakeProvider, store *fakeStore, metrics *fakeMetrics, log *logger.Logger, threshold float64) *Pipeline {
	registry := indicator.NewRegistry()
	return NewPipeline(
		provider,
		registry,
		forecast.NewEngine(forecast.Options{}),
		ranking.New(ranking.Options{
			Weights:         ranking.Weights{MarketCap: 1, GrowthRate: 1, Momentum: 1, ForecastConfidence: 0.5},
			LowCapThreshold: 2e9,
		}),
		NewArtifactBuilder(registry.Names()),
		store,
		metrics,
		log,
		PipelineConfig{
			LookbackDays:          180,
			MinHistory:            60,
			MaxFillGap:            3,
			HorizonDays:           7,
			Workers:               2,
			TickerTimeout:         10 * time.Second,
			RunDeadline:           time.Minute,
			CompletenessThreshold: threshold,
		},
	)
}

var testUniverse = []models.StaticMeta{
	{Symbol: "AAPL", MarketCap: 3e12, Sector: "Technology"},
	{Symbol: "MSFT", MarketCap: 2.8e12, Sector: "Technology"},
	{Symbol: "ZZZZ", MarketCap: 1e8, Sector: "Unknown"},
}

func TestRunPublishesWithNotFoundTicker(t *testing.T) {
	asOf := time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		series: map[string]*models.RawSeries{
			"AAPL": seriesFor("AAPL", asOf, 120, 180),
			"MSFT": seriesFor("MSFT", asOf, 120, 400),
		},
		errs: map[string]error{"ZZZZ": models.ErrNotFound},
	}
	store := &fakeStore{}
	metrics := newFakeMetrics()

	artifact, err := testPipeline(provider, store, metrics, testLogger(t), 0.66).Run(context.Background(), testUniverse, asOf)
	if err != nil {
		t.Fatalf("run should publish: %v", err)
	}
	if store.published == nil {
		t.Fatalf("artifact was not published")
	}

	if len(artifact.Tickers) != 3 {
		t.Fatalf("every universe ticker must be reported, got %d", len(artifact.Tickers))
	}
	zzzz := artifact.Tickers["ZZZZ"]
	if zzzz == nil || zzzz.Status != models.StatusInsufficientHistory {
		t.Fatalf("NotFound ticker must be flagged insufficient_history, got %+v", zzzz)
	}
	if artifact.RankOf("ZZZZ") != 0 {
		t.Fatalf("flagged ticker must not rank")
	}
	if len(artifact.Rankings) != 2 {
		t.Fatalf("expected 2 ranked tickers, got %d", len(artifact.Rankings))
	}
	if artifact.SchemaVersion != models.SchemaVersion {
		t.Fatalf("schema version = %d", artifact.SchemaVersion)
	}
	if metrics.complete != 1.0 {
		t.Fatalf("NotFound is a definitive answer; completeness = %v, want 1.0", metrics.complete)
	}
}

func TestRunCompletenessGateBlocksPublish(t *testing.T) {
	asOf := time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		series: map[string]*models.RawSeries{
			"AAPL": seriesFor("AAPL", asOf, 120, 180),
			"MSFT": seriesFor("MSFT", asOf, 120, 400),
		},
		errs: map[string]error{"ZZZZ": models.ErrTimeout},
	}
	store := &fakeStore{}
	metrics := newFakeMetrics()

	_, err := testPipeline(provider, store, metrics, testLogger(t), 0.95).Run(context.Background(), testUniverse, asOf)
	if err == nil || !strings.Contains(err.Error(), "completeness") {
		t.Fatalf("expected completeness gate error, got %v", err)
	}
	if store.published != nil {
		t.Fatalf("gate failure must not publish")
	}
	if metrics.errors["timeout"] == 0 {
		t.Fatalf("timeout failure must be recorded")
	}
}

func TestRunShortHistoryFlaggedNotRanked(t *testing.T) {
	asOf := time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		series: map[string]*models.RawSeries{
			"AAPL": seriesFor("AAPL", asOf, 120, 180),
			"MSFT": seriesFor("MSFT", asOf, 120, 400),
			"ZZZZ": seriesFor("ZZZZ", asOf, 10, 5), // below MinHistory
		},
	}
	store := &fakeStore{}
	metrics := newFakeMetrics()

	artifact, err := testPipeline(provider, store, metrics, testLogger(t), 0.95).Run(context.Background(), testUniverse, asOf)
	if err != nil {
		t.Fatalf("short history must not block the run: %v", err)
	}

	zzzz := artifact.Tickers["ZZZZ"]
	if zzzz.Status != models.StatusInsufficientHistory {
		t.Fatalf("expected insufficient_history, got %s", zzzz.Status)
	}
	if zzzz.Summary == nil || zzzz.Summary.Points != 10 {
		t.Fatalf("flagged ticker keeps its series summary, got %+v", zzzz.Summary)
	}
	if v := zzzz.Indicators[indicator.NameSMA50]; v != nil {
		t.Fatalf("sma_50 must be null for 10 points")
	}
	if v := zzzz.Indicators[indicator.NameLastClose]; v == nil {
		t.Fatalf("last_close fits any non-empty series")
	}
}

func TestRunForecastShortfallFlagsInsufficient(t *testing.T) {
	asOf := time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		series: map[string]*models.RawSeries{
			"AAPL": seriesFor("AAPL", asOf, 120, 180),
			"MSFT": seriesFor("MSFT", asOf, 120, 400),
			// Clears the normalize threshold below but not the forecaster's.
			"ZZZZ": seriesFor("ZZZZ", asOf, 6, 5),
		},
	}
	store := &fakeStore{}
	metrics := newFakeMetrics()

	registry := indicator.NewRegistry()
	p := NewPipeline(
		provider,
		registry,
		forecast.NewEngine(forecast.Options{}),
		ranking.New(ranking.Options{
			Weights:         ranking.Weights{MarketCap: 1, GrowthRate: 1, Momentum: 1, ForecastConfidence: 0.5},
			LowCapThreshold: 2e9,
		}),
		NewArtifactBuilder(registry.Names()),
		store,
		metrics,
		testLogger(t),
		PipelineConfig{
			LookbackDays:          180,
			MinHistory:            5,
			MaxFillGap:            3,
			HorizonDays:           7,
			Workers:               2,
			TickerTimeout:         10 * time.Second,
			RunDeadline:           time.Minute,
			CompletenessThreshold: 0.95,
		},
	)

	artifact, err := p.Run(context.Background(), testUniverse, asOf)
	if err != nil {
		t.Fatalf("forecast shortfall must not block the run: %v", err)
	}
	zzzz := artifact.Tickers["ZZZZ"]
	if zzzz.Status != models.StatusInsufficientHistory {
		t.Fatalf("too little history for a fit is insufficient_history, got %s", zzzz.Status)
	}
	if artifact.RankOf("ZZZZ") != 0 {
		t.Fatalf("flagged ticker must not rank")
	}
	if metrics.tickers[string(models.StatusForecastFailed)] != 0 {
		t.Fatalf("shortfall must not count as forecast_failed")
	}
}

func TestRunRecordsTickerStatuses(t *testing.T) {
	asOf := time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		series: map[string]*models.RawSeries{
			"AAPL": seriesFor("AAPL", asOf, 120, 180),
			"MSFT": seriesFor("MSFT", asOf, 120, 400),
		},
		errs: map[string]error{"ZZZZ": models.ErrNotFound},
	}
	metrics := newFakeMetrics()

	_, err := testPipeline(provider, &fakeStore{}, metrics, testLogger(t), 0.5).Run(context.Background(), testUniverse, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.tickers[string(models.StatusOK)] != 2 {
		t.Fatalf("expected 2 ok tickers, got %d", metrics.tickers[string(models.StatusOK)])
	}
	if metrics.tickers[string(models.StatusInsufficientHistory)] != 1 {
		t.Fatalf("expected 1 flagged ticker, got %d", metrics.tickers[string(models.StatusInsufficientHistory)])
	}
}

func TestRunEmptyUniverse(t *testing.T) {
	p := testPipeline(&fakeProvider{}, &fakeStore{}, newFakeMetrics(), testLogger(t), 0.95)
	if _, err := p.Run(context.Background(), nil, time.Now()); err == nil {
		t.Fatalf("empty universe must error")
	}
}

func TestRunAnnotatesRankDeltas(t *testing.T) {
	asOf := time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		series: map[string]*models.RawSeries{
			"AAPL": seriesFor("AAPL", asOf, 120, 180),
			"MSFT": seriesFor("MSFT", asOf, 120, 400),
			"ZZZZ": seriesFor("ZZZZ", asOf, 120, 5),
		},
	}
	store := &fakeStore{
		previous: &models.Artifact{
			Rankings: []models.RankedEntry{
				{Symbol: "MSFT", Rank: 1},
				{Symbol: "AAPL", Rank: 2},
				{Symbol: "ZZZZ", Rank: 3},
			},
		},
	}

	artifact, err := testPipeline(provider, store, newFakeMetrics(), testLogger(t), 0.95).Run(context.Background(), testUniverse, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range artifact.Rankings {
		if e.RankDelta == nil {
			t.Fatalf("every previously ranked symbol gets a delta, %s has none", e.Symbol)
		}
	}
}
