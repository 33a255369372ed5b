package repository

import (
	"context"
	"time"

	"MarketScout/internal/domain/models"
)

// HistoryProvider supplies raw OHLCV history for one symbol. Implementations
// are treated as unreliable and rate limited; errors are classified with the
// models provider sentinels so the retry policy can tell them apart.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*models.RawSeries, error)
}

// ArtifactStore persists the published artifact and exposes the previous one
// read-only. Publish must be atomic: a failed write never clobbers the prior
// valid artifact.
type ArtifactStore interface {
	Publish(ctx context.Context, a *models.Artifact) error
	Previous(ctx context.Context) (*models.Artifact, error)
	Latest(ctx context.Context) (*models.Artifact, error)
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordTicker(status string)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordStageLatency(stage string, seconds float64)
	RecordCompleteness(ratio float64)
}
