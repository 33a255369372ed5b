package models

import "time"

// ForecastPoint is the projection for one horizon day.
type ForecastPoint struct {
	Day   int     `json:"day"`
	Point float64 `json:"point"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// Forecast is the fitted short-horizon projection for one symbol.
type Forecast struct {
	Symbol string          `json:"symbol"`
	AsOf   time.Time       `json:"as_of"`
	Model  string          `json:"model"`
	Points []ForecastPoint `json:"points"`
}

// HorizonReturn is the relative move from lastClose to the final point
// estimate. Used as the growth-rate ranking factor.
func (f *Forecast) HorizonReturn(lastClose float64) float64 {
	if len(f.Points) == 0 || lastClose == 0 {
		return 0
	}
	return (f.Points[len(f.Points)-1].Point - lastClose) / lastClose
}
