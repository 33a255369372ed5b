package usecase

import (
	"fmt"
	"time"

	"MarketScout/internal/domain/models"
	"MarketScout/pkg/util"
)

// historyTail bounds the per-ticker chart history embedded in the artifact.
const historyTail = 60

// ArtifactBuilder assembles the publication artifact from per-ticker results.
// It validates shape, never publication: the completeness gate belongs to the
// pipeline.
type ArtifactBuilder struct {
	indicatorNames []string
}

// NewArtifactBuilder takes the full indicator name set so every report carries
// every key, null when unavailable.
func NewArtifactBuilder(indicatorNames []string) *ArtifactBuilder {
	return &ArtifactBuilder{indicatorNames: indicatorNames}
}

// CompletenessRatio is the share of the universe that reached a definitive
// status. NotFound and short-history tickers count as complete; only transient
// failures (provider outage, timeout, cancellation) count against the run.
func (b *ArtifactBuilder) CompletenessRatio(results []*TickerResult) float64 {
	if len(results) == 0 {
		return 0
	}
	failed := 0
	for _, r := range results {
		if r == nil || r.HardFailure {
			failed++
		}
	}
	return float64(len(results)-failed) / float64(len(results))
}

// Build assembles the artifact, requiring one report per universe ticker with
// all required keys. A missing or malformed entry is a SchemaError and blocks
// the run. Rank deltas are annotated from the previous artifact when present.
func (b *ArtifactBuilder) Build(
	asOf time.Time,
	results []*TickerResult,
	rankings []models.RankedEntry,
	previous *models.Artifact,
) (*models.Artifact, error) {
	tickers := make(map[string]*models.TickerReport, len(results))
	for _, r := range results {
		if r == nil {
			return nil, &models.SchemaError{Reason: "nil ticker result"}
		}
		if r.Symbol == "" {
			return nil, &models.SchemaError{Reason: "ticker result without symbol"}
		}
		if _, dup := tickers[r.Symbol]; dup {
			return nil, &models.SchemaError{Reason: fmt.Sprintf("duplicate report for %s", r.Symbol)}
		}
		if r.Status == "" {
			return nil, &models.SchemaError{Reason: fmt.Sprintf("%s: report without status", r.Symbol)}
		}
		tickers[r.Symbol] = b.report(r)
	}

	for _, e := range rankings {
		if _, ok := tickers[e.Symbol]; !ok {
			return nil, &models.SchemaError{Reason: fmt.Sprintf("ranked symbol %s has no report", e.Symbol)}
		}
		if tickers[e.Symbol].Status != models.StatusOK {
			return nil, &models.SchemaError{Reason: fmt.Sprintf("ranked symbol %s has status %s", e.Symbol, tickers[e.Symbol].Status)}
		}
	}

	ranked := make([]models.RankedEntry, len(rankings))
	copy(ranked, rankings)
	if previous != nil {
		for i := range ranked {
			if prev := previous.RankOf(ranked[i].Symbol); prev > 0 {
				delta := prev - ranked[i].Rank
				ranked[i].RankDelta = &delta
			}
		}
	}

	return &models.Artifact{
		AsOf:          asOf.Format(util.DateLayout),
		GeneratedAt:   time.Now().UTC(),
		SchemaVersion: models.SchemaVersion,
		Tickers:       tickers,
		Rankings:      ranked,
	}, nil
}

func (b *ArtifactBuilder) report(r *TickerResult) *models.TickerReport {
	indicators := make(map[string]*float64, len(b.indicatorNames))
	for _, name := range b.indicatorNames {
		indicators[name] = nil
		if r.Indicators != nil {
			if v, ok := r.Indicators.Value(name); ok {
				val := v
				indicators[name] = &val
			}
		}
	}

	report := &models.TickerReport{
		Status:     r.Status,
		Indicators: indicators,
	}
	if r.Forecast != nil {
		report.Forecast = r.Forecast.Points
	}
	if r.Series != nil && r.Series.Len() > 0 {
		report.Summary = summarize(r.Series)
	}
	return report
}

func summarize(s *models.NormalizedSeries) *models.SeriesSummary {
	points := s.Points
	tail := points
	if len(tail) > historyTail {
		tail = tail[len(tail)-historyTail:]
	}

	history := make([]models.HistoryPoint, len(tail))
	for i, p := range tail {
		history[i] = models.HistoryPoint{
			Date:  p.Date.Format(util.DateLayout),
			Close: p.Close,
		}
	}

	return &models.SeriesSummary{
		LastClose: s.LastClose(),
		Start:     points[0].Date.Format(util.DateLayout),
		End:       points[len(points)-1].Date.Format(util.DateLayout),
		Points:    len(points),
		History:   history,
	}
}
