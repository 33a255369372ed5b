package usecase

import (
	"errors"
	"testing"
	"time"

	"MarketScout/internal/domain/models"
)

var testNames = []string{"last_close", "sma_20", "momentum_90d"}

func okResult(symbol string, closes int) *TickerResult {
	series := &models.NormalizedSeries{Symbol: symbol}
	d := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; i < closes; i++ {
		series.Points = append(series.Points, models.Point{Date: d, Close: 100 + float64(i)})
		d = d.AddDate(0, 0, 1)
	}
	return &TickerResult{
		Symbol: symbol,
		Status: models.StatusOK,
		Series: series,
		Indicators: &models.IndicatorSet{
			Symbol:  symbol,
			Values:  map[string]float64{"last_close": 100, "sma_20": 99},
			Missing: []string{"momentum_90d"},
		},
		Forecast: &models.Forecast{
			Symbol: symbol,
			Points: []models.ForecastPoint{{Day: 1, Point: 101, Low: 100, High: 102}},
		},
	}
}

func TestBuildReportsEveryTicker(t *testing.T) {
	b := NewArtifactBuilder(testNames)
	failed := &TickerResult{Symbol: "BAD", Status: models.StatusInsufficientHistory, HardFailure: true}

	a, err := b.Build(time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC),
		[]*TickerResult{okResult("AAPL", 80), failed}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.Tickers) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(a.Tickers))
	}
	bad := a.Tickers["BAD"]
	if bad == nil || bad.Status != models.StatusInsufficientHistory {
		t.Fatalf("failed ticker must keep a flagged report: %+v", bad)
	}
	if len(bad.Indicators) != len(testNames) {
		t.Fatalf("report must carry every indicator key, got %d", len(bad.Indicators))
	}
	for name, v := range bad.Indicators {
		if v != nil {
			t.Fatalf("indicator %s must be null without data", name)
		}
	}
	if a.AsOf != "2025-08-22" {
		t.Fatalf("as_of = %q", a.AsOf)
	}
}

func TestBuildNullsMissingIndicators(t *testing.T) {
	a, err := NewArtifactBuilder(testNames).Build(time.Now(), []*TickerResult{okResult("AAPL", 80)}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ind := a.Tickers["AAPL"].Indicators
	if ind["momentum_90d"] != nil {
		t.Fatalf("missing indicator must serialize as null")
	}
	if ind["last_close"] == nil || *ind["last_close"] != 100 {
		t.Fatalf("present indicator lost: %v", ind["last_close"])
	}
}

func TestBuildHistoryTailCapped(t *testing.T) {
	a, err := NewArtifactBuilder(testNames).Build(time.Now(), []*TickerResult{okResult("AAPL", 150)}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := a.Tickers["AAPL"].Summary
	if sum == nil {
		t.Fatalf("summary missing")
	}
	if sum.Points != 150 {
		t.Fatalf("points = %d, want full series length", sum.Points)
	}
	if len(sum.History) != historyTail {
		t.Fatalf("history tail = %d, want %d", len(sum.History), historyTail)
	}
	if sum.History[len(sum.History)-1].Close != sum.LastClose {
		t.Fatalf("history must end at the last close")
	}
}

func TestBuildRejectsMalformedResults(t *testing.T) {
	b := NewArtifactBuilder(testNames)
	now := time.Now()

	var schemaErr *models.SchemaError
	if _, err := b.Build(now, []*TickerResult{nil}, nil, nil); !errors.As(err, &schemaErr) {
		t.Fatalf("nil result must be a SchemaError, got %v", err)
	}
	if _, err := b.Build(now, []*TickerResult{{Symbol: "A"}}, nil, nil); !errors.As(err, &schemaErr) {
		t.Fatalf("statusless result must be a SchemaError, got %v", err)
	}
	if _, err := b.Build(now, []*TickerResult{okResult("A", 10), okResult("A", 10)}, nil, nil); !errors.As(err, &schemaErr) {
		t.Fatalf("duplicate symbol must be a SchemaError, got %v", err)
	}
	if _, err := b.Build(now, []*TickerResult{okResult("A", 10)},
		[]models.RankedEntry{{Symbol: "GHOST", Rank: 1}}, nil); !errors.As(err, &schemaErr) {
		t.Fatalf("ranking a symbol without a report must be a SchemaError, got %v", err)
	}
}

func TestBuildRankDeltas(t *testing.T) {
	previous := &models.Artifact{Rankings: []models.RankedEntry{
		{Symbol: "A", Rank: 3},
		{Symbol: "B", Rank: 1},
	}}
	rankings := []models.RankedEntry{
		{Symbol: "A", Rank: 1},
		{Symbol: "B", Rank: 2},
		{Symbol: "C", Rank: 3},
	}
	results := []*TickerResult{okResult("A", 10), okResult("B", 10), okResult("C", 10)}

	a, err := NewArtifactBuilder(testNames).Build(time.Now(), results, rankings, previous)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d := a.Rankings[0].RankDelta; d == nil || *d != 2 {
		t.Fatalf("A moved 3 -> 1, delta = %v", a.Rankings[0].RankDelta)
	}
	if d := a.Rankings[1].RankDelta; d == nil || *d != -1 {
		t.Fatalf("B moved 1 -> 2, delta = %v", a.Rankings[1].RankDelta)
	}
	if a.Rankings[2].RankDelta != nil {
		t.Fatalf("newcomer C must have no delta")
	}
}

func TestCompletenessRatio(t *testing.T) {
	b := NewArtifactBuilder(testNames)
	results := []*TickerResult{
		okResult("A", 10),
		{Symbol: "B", Status: models.StatusInsufficientHistory},
		{Symbol: "C", Status: models.StatusInsufficientHistory, HardFailure: true},
	}
	if got := b.CompletenessRatio(results); got != 2.0/3.0 {
		t.Fatalf("completeness = %v, want 2/3", got)
	}
	if got := b.CompletenessRatio(nil); got != 0 {
		t.Fatalf("empty run completeness = %v, want 0", got)
	}
}
