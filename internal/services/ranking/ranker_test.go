package ranking

import (
	"testing"
	"time"

	"MarketScout/internal/domain/models"
	"MarketScout/internal/services/indicator"
)

var testWeights = Weights{MarketCap: 1, GrowthRate: 1, Momentum: 1, ForecastConfidence: 0.5}

// mkInput builds a StatusOK ranking input with a forecast that returns the
// given horizon growth off a last close of 100.
func mkInput(symbol string, marketCap, growth, momentum float64) Input {
	final := 100 * (1 + growth)
	return Input{
		Symbol:    symbol,
		Meta:      models.StaticMeta{Symbol: symbol, MarketCap: marketCap},
		LastClose: 100,
		Status:    models.StatusOK,
		Indicators: &models.IndicatorSet{
			Symbol: symbol,
			Values: map[string]float64{
				indicator.NameMomentum90d:  momentum,
				indicator.NameMomentum5d:   momentum,
				indicator.NameVolatility30: 0.2,
			},
		},
		Forecast: &models.Forecast{
			Symbol: symbol,
			AsOf:   time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC),
			Model:  "trend",
			Points: []models.ForecastPoint{
				{Day: 7, Point: final, Low: final - 2, High: final + 2},
			},
		},
	}
}

func TestRankOrdersByScore(t *testing.T) {
	entries := New(Options{Weights: testWeights, LowCapThreshold: 2e9}).Rank([]Input{
		mkInput("WEAK", 5e11, -0.02, -0.03),
		mkInput("STRONG", 1e9, 0.10, 0.08),
		mkInput("MID", 1e11, 0.03, 0.01),
	})

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Symbol != "STRONG" || entries[2].Symbol != "WEAK" {
		t.Fatalf("unexpected order: %s, %s, %s", entries[0].Symbol, entries[1].Symbol, entries[2].Symbol)
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Fatalf("ranks must be contiguous from 1, entry %d has rank %d", i, e.Rank)
		}
	}
}

func TestRankTieBreaksOnLowerMarketCap(t *testing.T) {
	// Market cap weight zero keeps the composite scores identical; only the
	// tie-break separates the two.
	w := Weights{GrowthRate: 1, Momentum: 1}
	entries := New(Options{Weights: w}).Rank([]Input{
		mkInput("BIG", 5e9, 0.04, 0.02),
		mkInput("SMALL", 1e8, 0.04, 0.02),
	})

	if entries[0].Score != entries[1].Score {
		t.Fatalf("scores should tie: %v vs %v", entries[0].Score, entries[1].Score)
	}
	if entries[0].Symbol != "SMALL" {
		t.Fatalf("tie must break toward the lower market cap, got %s first", entries[0].Symbol)
	}
}

func TestRankNormalizesFactors(t *testing.T) {
	entries := New(Options{Weights: testWeights}).Rank([]Input{
		mkInput("A", 1e9, 0.10, 0.05),
		mkInput("B", 1e10, 0.02, 0.01),
	})

	var a models.RankedEntry
	for _, e := range entries {
		if e.Symbol == "A" {
			a = e
		}
	}
	if a.Factors[models.FactorGrowthRate] != 1 {
		t.Fatalf("best growth must normalize to 1, got %v", a.Factors[models.FactorGrowthRate])
	}
	if a.Factors[models.FactorMarketCap] != 1 {
		t.Fatalf("smallest cap must invert to 1, got %v", a.Factors[models.FactorMarketCap])
	}
}

func TestRankDegenerateSpread(t *testing.T) {
	entries := New(Options{Weights: testWeights}).Rank([]Input{mkInput("ONLY", 1e9, 0.02, 0.01)})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry")
	}
	for name, v := range entries[0].Factors {
		if v != 0.5 {
			t.Fatalf("single-entry factor %s should sit at 0.5, got %v", name, v)
		}
	}
}

func TestRankSkipsNonOKInputs(t *testing.T) {
	failed := mkInput("FAIL", 1e9, 0.5, 0.5)
	failed.Status = models.StatusForecastFailed
	short := mkInput("SHORT", 1e9, 0.5, 0.5)
	short.Status = models.StatusInsufficientHistory

	entries := New(Options{Weights: testWeights}).Rank([]Input{
		failed, short, mkInput("OK", 1e9, 0.01, 0.01),
	})
	if len(entries) != 1 || entries[0].Symbol != "OK" {
		t.Fatalf("only StatusOK inputs may rank, got %+v", entries)
	}
}

func TestRankTopNCut(t *testing.T) {
	inputs := []Input{
		mkInput("A", 1e9, 0.05, 0.05),
		mkInput("B", 2e9, 0.04, 0.04),
		mkInput("C", 3e9, 0.03, 0.03),
		mkInput("D", 4e9, 0.02, 0.02),
	}
	entries := New(Options{Weights: testWeights, TopN: 2}).Rank(inputs)
	if len(entries) != 2 {
		t.Fatalf("expected TopN=2 entries, got %d", len(entries))
	}
	if entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Fatalf("ranks after cut must stay 1..N")
	}
}

func TestRankTags(t *testing.T) {
	bullish := mkInput("BULL", 1e8, 0.10, 0.06)
	bearish := mkInput("BEAR", 5e10, -0.10, -0.02)
	watch := mkInput("WATCH", 5e10, 0.10, 0.02)
	watch.Indicators.Values[indicator.NameMomentum5d] = -0.01

	entries := New(Options{
		Weights:         testWeights,
		LowCapThreshold: 2e9,
		SignalThreshold: 0.05,
	}).Rank([]Input{bullish, bearish, watch})

	bySymbol := map[string][]string{}
	for _, e := range entries {
		bySymbol[e.Symbol] = e.Tags
	}

	if !hasTag(bySymbol["BULL"], models.TagBullish) || !hasTag(bySymbol["BULL"], models.TagLowMarketCap) {
		t.Fatalf("BULL tags = %v", bySymbol["BULL"])
	}
	if !hasTag(bySymbol["BULL"], models.TagHighGrowth) || !hasTag(bySymbol["BULL"], models.TagHighMomentum) {
		t.Fatalf("BULL tags = %v", bySymbol["BULL"])
	}
	if !hasTag(bySymbol["BEAR"], models.TagBearish) {
		t.Fatalf("BEAR tags = %v", bySymbol["BEAR"])
	}
	if !hasTag(bySymbol["WATCH"], models.TagWatch) || hasTag(bySymbol["WATCH"], models.TagBullish) {
		t.Fatalf("momentum disagreement must downgrade to watch, got %v", bySymbol["WATCH"])
	}
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
