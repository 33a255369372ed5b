package forecast

import (
	"errors"
	"math"
)

var errNoFit = errors.New("no finite fit within iteration budget")

// fit is a converged smoothing state ready to project forward.
type fit struct {
	level    float64
	trend    float64
	seasonal []float64 // nil for trend-only fits
	sigma    float64   // one-step residual standard deviation
	n        int       // observations consumed
}

// project returns the additive point estimate h steps ahead.
func (f *fit) project(h int) float64 {
	p := f.level + float64(h)*f.trend
	if len(f.seasonal) > 0 {
		p += f.seasonal[(f.n+h-1)%len(f.seasonal)]
	}
	return p
}

// smoothing coefficient grids; coarse on purpose, the fit only has to be
// stable and deterministic, not statistically optimal.
var (
	holtGrid   = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	winterGrid = []float64{0.1, 0.3, 0.5, 0.7, 0.9}
)

// fitHolt fits a double-exponential (level + trend) model by grid search,
// spending at most budget smoothing steps.
func fitHolt(y []float64, budget int) (*fit, error) {
	if len(y) < 3 {
		return nil, errNoFit
	}

	best := (*fit)(nil)
	bestSSE := math.Inf(1)
	steps := 0

	for _, alpha := range holtGrid {
		for _, beta := range holtGrid {
			if steps += len(y); budget > 0 && steps > budget && best != nil {
				return best, nil
			}
			f, sse := runHolt(y, alpha, beta)
			if f != nil && sse < bestSSE {
				best, bestSSE = f, sse
			}
		}
	}

	if best == nil {
		return nil, errNoFit
	}
	return best, nil
}

func runHolt(y []float64, alpha, beta float64) (*fit, float64) {
	level := y[0]
	trend := y[1] - y[0]
	sse := 0.0

	for i := 1; i < len(y); i++ {
		pred := level + trend
		resid := y[i] - pred
		sse += resid * resid

		newLevel := alpha*y[i] + (1-alpha)*(level+trend)
		trend = beta*(newLevel-level) + (1-beta)*trend
		level = newLevel
	}

	if !finite(level) || !finite(trend) || !finite(sse) {
		return nil, math.Inf(1)
	}

	return &fit{
		level: level,
		trend: trend,
		sigma: math.Sqrt(sse / float64(len(y)-1)),
		n:     len(y),
	}, sse
}

// fitHoltWinters fits an additive level + trend + seasonality model with the
// given season length. Requires at least two full cycles.
func fitHoltWinters(y []float64, season, budget int) (*fit, error) {
	if season < 2 || len(y) < 2*season {
		return nil, errNoFit
	}

	best := (*fit)(nil)
	bestSSE := math.Inf(1)
	steps := 0

	for _, alpha := range winterGrid {
		for _, beta := range winterGrid {
			for _, gamma := range winterGrid {
				if steps += len(y); budget > 0 && steps > budget && best != nil {
					return best, nil
				}
				f, sse := runHoltWinters(y, season, alpha, beta, gamma)
				if f != nil && sse < bestSSE {
					best, bestSSE = f, sse
				}
			}
		}
	}

	if best == nil {
		return nil, errNoFit
	}
	return best, nil
}

func runHoltWinters(y []float64, m int, alpha, beta, gamma float64) (*fit, float64) {
	// Initialize from the first two cycles.
	first, second := mean(y[:m]), mean(y[m:2*m])
	level := first
	trend := (second - first) / float64(m)

	seasonal := make([]float64, m)
	cycles := len(y) / m
	for i := 0; i < m; i++ {
		sum := 0.0
		for k := 0; k < cycles; k++ {
			sum += y[k*m+i] - mean(y[k*m:(k+1)*m])
		}
		seasonal[i] = sum / float64(cycles)
	}

	sse := 0.0
	count := 0
	for i := m; i < len(y); i++ {
		si := seasonal[i%m]
		pred := level + trend + si
		resid := y[i] - pred
		sse += resid * resid
		count++

		prevLevel := level
		level = alpha*(y[i]-si) + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
		seasonal[i%m] = gamma*(y[i]-level) + (1-gamma)*si
	}

	if !finite(level) || !finite(trend) || !finite(sse) {
		return nil, math.Inf(1)
	}
	for _, s := range seasonal {
		if !finite(s) {
			return nil, math.Inf(1)
		}
	}

	return &fit{
		level:    level,
		trend:    trend,
		seasonal: seasonal,
		sigma:    math.Sqrt(sse / float64(count)),
		n:        len(y),
	}, sse
}

func mean(y []float64) float64 {
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	return sum / float64(len(y))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
