package indicator

import "MarketScout/internal/domain/models"

// Well-known indicator names.
const (
	NameLastClose    = "last_close"
	NameSMA20        = "sma_20"
	NameSMA50        = "sma_50"
	NameMomentum5d   = "momentum_5d"
	NameMomentum20d  = "momentum_20d"
	NameMomentum90d  = "momentum_90d"
	NameVolatility30 = "volatility_30d"
	NameRSI14        = "rsi_14"
)

// entry binds a named pure function to the minimum series length it needs.
type entry struct {
	name    string
	window  int
	compute func([]float64) float64
}

// Registry composes indicators by name. New indicators plug in via Register
// without touching the engine.
type Registry struct {
	entries []entry
}

// NewRegistry returns a registry with the default indicator set.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NameLastClose, 1, LastClose)
	r.Register(NameSMA20, 20, SMA(20))
	r.Register(NameSMA50, 50, SMA(50))
	r.Register(NameMomentum5d, 6, Momentum(5))
	r.Register(NameMomentum20d, 21, Momentum(20))
	r.Register(NameMomentum90d, 91, Momentum(90))
	r.Register(NameVolatility30, 31, Volatility(30))
	r.Register(NameRSI14, 15, RSI(14))
	return r
}

// Register adds a named indicator requiring at least window observations.
func (r *Registry) Register(name string, window int, compute func([]float64) float64) {
	r.entries = append(r.entries, entry{name: name, window: window, compute: compute})
}

// Names returns all registered indicator names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

// Compute evaluates every registered indicator over the series tail. An
// indicator whose window exceeds the series length is recorded as missing
// rather than failing the ticker.
func (r *Registry) Compute(s *models.NormalizedSeries) *models.IndicatorSet {
	set := &models.IndicatorSet{
		Symbol: s.Symbol,
		Values: make(map[string]float64, len(r.entries)),
	}

	closes := s.Closes()
	for _, e := range r.entries {
		if len(closes) < e.window {
			set.Missing = append(set.Missing, e.name)
			continue
		}
		set.Values[e.name] = e.compute(closes)
	}
	return set
}
