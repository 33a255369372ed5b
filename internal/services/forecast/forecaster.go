package forecast

import (
	"fmt"
	"math"

	"MarketScout/internal/domain/models"
)

// Model names recorded on the forecast artifact.
const (
	ModelHoltWinters = "holt_winters"
	ModelTrend       = "trend"
)

// Options tunes the smoothing engine. Zero values fall back to defaults.
type Options struct {
	// SeasonLength is the additive seasonal cycle in trading days.
	SeasonLength int
	// MinPoints is the minimum series length the engine will fit at all.
	MinPoints int
	// MaxFitSteps bounds the total smoothing iterations per fit.
	MaxFitSteps int
	// ConfidenceZ widens the interval; 1.96 approximates a 95% band.
	ConfidenceZ float64
}

func (o Options) withDefaults() Options {
	if o.SeasonLength <= 0 {
		o.SeasonLength = 5
	}
	if o.MinPoints <= 0 {
		o.MinPoints = 10
	}
	if o.MaxFitSteps <= 0 {
		o.MaxFitSteps = 200_000
	}
	if o.ConfidenceZ <= 0 {
		o.ConfidenceZ = 1.96
	}
	return o
}

// Engine fits an additive trend + seasonality model over a normalized close
// series and projects it a fixed number of trading days ahead. Fits are
// fully deterministic for identical input.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Forecast projects the series horizon trading days forward. Input shorter
// than MinPoints is refused with ErrInsufficientHistory. When the seasonal
// fit diverges it retries once with the trend-only model before giving up
// with ErrModelDivergence.
func (e *Engine) Forecast(s *models.NormalizedSeries, horizon int) (*models.Forecast, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("forecast %s: horizon must be positive, got %d", s.Symbol, horizon)
	}
	closes := s.Closes()
	if len(closes) < e.opts.MinPoints {
		return nil, fmt.Errorf("forecast %s: %d points below minimum %d: %w",
			s.Symbol, len(closes), e.opts.MinPoints, models.ErrInsufficientHistory)
	}
	for _, c := range closes {
		if !finite(c) {
			return nil, fmt.Errorf("forecast %s: non-finite close: %w", s.Symbol, models.ErrModelDivergence)
		}
	}

	model := ModelHoltWinters
	f, err := fitHoltWinters(closes, e.opts.SeasonLength, e.opts.MaxFitSteps)
	if err != nil {
		// Single retry with the simpler model; a second failure is terminal.
		model = ModelTrend
		f, err = fitHolt(closes, e.opts.MaxFitSteps)
		if err != nil {
			return nil, fmt.Errorf("forecast %s: %w", s.Symbol, models.ErrModelDivergence)
		}
	}

	points, err := e.projectPoints(f, horizon)
	if err != nil {
		if model == ModelHoltWinters {
			model = ModelTrend
			if f, err = fitHolt(closes, e.opts.MaxFitSteps); err == nil {
				points, err = e.projectPoints(f, horizon)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("forecast %s: %w", s.Symbol, models.ErrModelDivergence)
		}
	}

	return &models.Forecast{
		Symbol: s.Symbol,
		AsOf:   s.AsOf,
		Model:  model,
		Points: points,
	}, nil
}

// projectPoints turns a fit into per-day estimates with a widening interval.
func (e *Engine) projectPoints(f *fit, horizon int) ([]models.ForecastPoint, error) {
	sigma := f.sigma
	// A perfectly regular series fits with zero residual; keep the interval
	// strictly widening with a floor proportional to the level.
	if floor := 1e-8 * math.Max(1, math.Abs(f.level)); sigma < floor {
		sigma = floor
	}

	points := make([]models.ForecastPoint, 0, horizon)
	for h := 1; h <= horizon; h++ {
		p := f.project(h)
		if !finite(p) {
			return nil, errNoFit
		}
		band := e.opts.ConfidenceZ * sigma * math.Sqrt(float64(h))
		points = append(points, models.ForecastPoint{
			Day:   h,
			Point: p,
			Low:   p - band,
			High:  p + band,
		})
	}
	return points, nil
}
