package models

import "time"

// Candle is one raw daily bar as delivered by the provider.
// Dates may be unsorted or duplicated; volume may be zero.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// RawSeries is the provider output for one symbol. Immutable once fetched.
type RawSeries struct {
	Symbol  string   `json:"symbol"`
	Candles []Candle `json:"candles"`
}

// Point is one normalized observation. Filled marks a forward-filled gap.
type Point struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Filled bool      `json:"filled,omitempty"`
}

// NormalizedSeries is a strictly ascending, deduplicated daily series
// clipped to the lookback window ending at the as-of date.
type NormalizedSeries struct {
	Symbol       string    `json:"symbol"`
	Points       []Point   `json:"points"`
	AsOf         time.Time `json:"as_of"`
	Insufficient bool      `json:"insufficient,omitempty"`
}

// Len returns the number of observations.
func (s *NormalizedSeries) Len() int { return len(s.Points) }

// Closes returns the close prices in date order.
func (s *NormalizedSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// LastClose returns the most recent close, or 0 for an empty series.
func (s *NormalizedSeries) LastClose() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Close
}

// StaticMeta is per-ticker metadata supplied with the universe, never fetched.
type StaticMeta struct {
	Symbol    string  `yaml:"symbol" json:"symbol"`
	MarketCap float64 `yaml:"market_cap" json:"market_cap"`
	Sector    string  `yaml:"sector" json:"sector"`
}
