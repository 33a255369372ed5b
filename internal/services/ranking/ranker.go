package ranking

import (
	"sort"

	"MarketScout/internal/domain/models"
	"MarketScout/internal/services/indicator"
)

// Weights scale the normalized sub-scores. A zero weight removes the factor
// from the composite without removing it from the published factor map.
type Weights struct {
	MarketCap          float64
	GrowthRate         float64
	Momentum           float64
	ForecastConfidence float64
}

// Options tunes ranking and tagging behavior.
type Options struct {
	Weights Weights
	// TopN caps the published ranking length. Zero means no cap.
	TopN int
	// LowCapThreshold tags entries below this market cap.
	LowCapThreshold float64
	// SignalThreshold is the forecast return magnitude that flips a ticker
	// bullish, bearish, or watch, and the bar for the high-growth and
	// high-momentum tags.
	SignalThreshold float64
	// HighVolThreshold tags entries above this annualized volatility.
	HighVolThreshold float64
}

func (o Options) withDefaults() Options {
	if o.SignalThreshold <= 0 {
		o.SignalThreshold = 0.05
	}
	if o.HighVolThreshold <= 0 {
		o.HighVolThreshold = 0.5
	}
	return o
}

// Input is one ticker's material for ranking. Only StatusOK inputs score;
// the rest are ignored here and surface in the artifact with their status.
type Input struct {
	Symbol     string
	Meta       models.StaticMeta
	Indicators *models.IndicatorSet
	Forecast   *models.Forecast
	LastClose  float64
	Status     models.TickerStatus
}

// Ranker scores the eligible universe on min-max normalized factors and
// produces a deterministic ordering.
type Ranker struct {
	opts Options
}

func New(opts Options) *Ranker {
	return &Ranker{opts: opts.withDefaults()}
}

// raw factor values before normalization.
type rawFactors struct {
	input      Input
	marketCap  float64
	growth     float64
	momentum   float64
	bandWidth  float64 // relative forecast interval width at the horizon
	shortTerm  float64 // momentum_5d, for signal tags
	volatility float64
	hasVol     bool
}

// Rank scores every StatusOK input, sorts by composite score descending, and
// returns at most TopN entries with ranks assigned from 1. Ties break toward
// the lower market cap, then the lexically smaller symbol.
func (r *Ranker) Rank(inputs []Input) []models.RankedEntry {
	raws := make([]rawFactors, 0, len(inputs))
	for _, in := range inputs {
		if in.Status != models.StatusOK || in.Forecast == nil || in.Indicators == nil {
			continue
		}
		raws = append(raws, r.collect(in))
	}
	if len(raws) == 0 {
		return []models.RankedEntry{}
	}

	caps := normalize(values(raws, func(f rawFactors) float64 { return f.marketCap }))
	growth := normalize(values(raws, func(f rawFactors) float64 { return f.growth }))
	momentum := normalize(values(raws, func(f rawFactors) float64 { return f.momentum }))
	widths := normalize(values(raws, func(f rawFactors) float64 { return f.bandWidth }))

	w := r.opts.Weights
	totalWeight := w.MarketCap + w.GrowthRate + w.Momentum + w.ForecastConfidence

	entries := make([]models.RankedEntry, len(raws))
	for i, f := range raws {
		// Smaller caps and tighter intervals score higher.
		factors := map[string]float64{
			models.FactorMarketCap:          1 - caps[i],
			models.FactorGrowthRate:         growth[i],
			models.FactorMomentum:           momentum[i],
			models.FactorForecastConfidence: 1 - widths[i],
		}

		score := 0.0
		if totalWeight > 0 {
			score = (w.MarketCap*factors[models.FactorMarketCap] +
				w.GrowthRate*factors[models.FactorGrowthRate] +
				w.Momentum*factors[models.FactorMomentum] +
				w.ForecastConfidence*factors[models.FactorForecastConfidence]) / totalWeight
		}

		entries[i] = models.RankedEntry{
			Symbol:  f.input.Symbol,
			Score:   score,
			Factors: factors,
			Tags:    r.tags(f),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		ci, cj := capOf(raws, entries[i].Symbol), capOf(raws, entries[j].Symbol)
		if ci != cj {
			return ci < cj
		}
		return entries[i].Symbol < entries[j].Symbol
	})

	if r.opts.TopN > 0 && len(entries) > r.opts.TopN {
		entries = entries[:r.opts.TopN]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func (r *Ranker) collect(in Input) rawFactors {
	f := rawFactors{
		input:     in,
		marketCap: in.Meta.MarketCap,
		growth:    in.Forecast.HorizonReturn(in.LastClose),
	}
	if v, ok := in.Indicators.Value(indicator.NameMomentum90d); ok {
		f.momentum = v
	} else if v, ok := in.Indicators.Value(indicator.NameMomentum20d); ok {
		f.momentum = v
	}
	if v, ok := in.Indicators.Value(indicator.NameMomentum5d); ok {
		f.shortTerm = v
	}
	if v, ok := in.Indicators.Value(indicator.NameVolatility30); ok {
		f.volatility = v
		f.hasVol = true
	}
	if n := len(in.Forecast.Points); n > 0 && in.LastClose > 0 {
		last := in.Forecast.Points[n-1]
		f.bandWidth = (last.High - last.Low) / in.LastClose
	}
	return f
}

func (r *Ranker) tags(f rawFactors) []string {
	tags := make([]string, 0, 4)
	if f.input.Meta.MarketCap > 0 && f.input.Meta.MarketCap < r.opts.LowCapThreshold {
		tags = append(tags, models.TagLowMarketCap)
	}
	if f.growth >= r.opts.SignalThreshold {
		tags = append(tags, models.TagHighGrowth)
	}
	if f.momentum >= r.opts.SignalThreshold {
		tags = append(tags, models.TagHighMomentum)
	}
	if f.hasVol && f.volatility >= r.opts.HighVolThreshold {
		tags = append(tags, models.TagHighVolatility)
	}

	// Directional signal: the forecast move must clear the threshold and
	// recent momentum must agree, otherwise the ticker only goes on watch.
	switch {
	case f.growth >= r.opts.SignalThreshold && f.shortTerm > 0:
		tags = append(tags, models.TagBullish)
	case f.growth <= -r.opts.SignalThreshold && f.shortTerm < 0:
		tags = append(tags, models.TagBearish)
	case f.growth >= r.opts.SignalThreshold || f.growth <= -r.opts.SignalThreshold:
		tags = append(tags, models.TagWatch)
	}
	return tags
}

func values(raws []rawFactors, pick func(rawFactors) float64) []float64 {
	out := make([]float64, len(raws))
	for i, f := range raws {
		out[i] = pick(f)
	}
	return out
}

// normalize min-max scales to [0,1]. A degenerate spread maps everything to
// 0.5 so the factor neither rewards nor penalizes anyone.
func normalize(vals []float64) []float64 {
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(vals))
	if max == min {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range vals {
		out[i] = (v - min) / (max - min)
	}
	return out
}

func capOf(raws []rawFactors, symbol string) float64 {
	for _, f := range raws {
		if f.input.Symbol == symbol {
			return f.marketCap
		}
	}
	return 0
}
