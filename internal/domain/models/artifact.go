package models

import "time"

// SchemaVersion identifies the artifact shape. Bump only when the JSON
// structure changes, never per run.
const SchemaVersion = 2

// TickerStatus flags how far a ticker made it through the pipeline.
type TickerStatus string

const (
	StatusOK                  TickerStatus = "ok"
	StatusInsufficientHistory TickerStatus = "insufficient_history"
	StatusForecastFailed      TickerStatus = "forecast_failed"
)

// HistoryPoint is one close in the per-ticker chart tail.
type HistoryPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// SeriesSummary is the compact per-ticker view the dashboard charts from.
type SeriesSummary struct {
	LastClose float64        `json:"last_close"`
	Start     string         `json:"start"`
	End       string         `json:"end"`
	Points    int            `json:"points"`
	History   []HistoryPoint `json:"history"`
}

// TickerReport is the per-ticker section of the artifact. Indicators map to
// null when missing; Forecast is null when the model failed or the history
// was too short. Every universe ticker gets a report, whatever its status.
type TickerReport struct {
	Status     TickerStatus        `json:"status"`
	Indicators map[string]*float64 `json:"indicators"`
	Forecast   []ForecastPoint     `json:"forecast"`
	Summary    *SeriesSummary      `json:"summary,omitempty"`
}

// Artifact is the sole unit of publication, rebuilt from scratch each run.
type Artifact struct {
	AsOf          string                   `json:"as_of"`
	GeneratedAt   time.Time                `json:"generated_at"`
	SchemaVersion int                      `json:"schema_version"`
	Tickers       map[string]*TickerReport `json:"tickers"`
	Rankings      []RankedEntry            `json:"rankings"`
}

// RankOf returns the published rank of a symbol, or 0 when unranked.
func (a *Artifact) RankOf(symbol string) int {
	for _, e := range a.Rankings {
		if e.Symbol == symbol {
			return e.Rank
		}
	}
	return 0
}
