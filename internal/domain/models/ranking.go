package models

// RankedEntry is one row of the published ranking, rank 1 = most interesting.
type RankedEntry struct {
	Symbol    string             `json:"ticker"`
	Rank      int                `json:"rank"`
	Score     float64            `json:"score"`
	Factors   map[string]float64 `json:"factors"`
	Tags      []string           `json:"tags"`
	RankDelta *int               `json:"rank_delta,omitempty"`
}

// Well-known qualitative tags.
const (
	TagLowMarketCap   = "low-market-cap"
	TagHighGrowth     = "high-growth"
	TagHighMomentum   = "high-momentum"
	TagHighVolatility = "high-volatility"
	TagBullish        = "bullish"
	TagBearish        = "bearish"
	TagWatch          = "watch"
)

// Ranking factor names.
const (
	FactorMarketCap          = "market_cap"
	FactorGrowthRate         = "growth_rate"
	FactorMomentum           = "momentum"
	FactorForecastConfidence = "forecast_confidence"
)
