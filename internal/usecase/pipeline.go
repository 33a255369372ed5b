package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"MarketScout/internal/domain/models"
	drepo "MarketScout/internal/domain/repository"
	"MarketScout/internal/services/forecast"
	"MarketScout/internal/services/indicator"
	"MarketScout/internal/services/normalize"
	"MarketScout/internal/services/ranking"
	"MarketScout/pkg/logger"
)

// Pipeline stage names, used in errors and latency metrics.
const (
	StageFetch     = "fetch"
	StageNormalize = "normalize"
	StageIndicator = "indicators"
	StageForecast  = "forecast"
)

// PipelineConfig carries the run-level tunables.
type PipelineConfig struct {
	LookbackDays          int
	MinHistory            int
	MaxFillGap            int
	HorizonDays           int
	Workers               int
	TickerTimeout         time.Duration
	RunDeadline           time.Duration
	CompletenessThreshold float64
}

// TickerResult is everything one ticker produced on its way through the run.
// Every universe ticker yields exactly one result, whatever happened to it.
type TickerResult struct {
	Symbol     string
	Meta       models.StaticMeta
	Series     *models.NormalizedSeries
	Indicators *models.IndicatorSet
	Forecast   *models.Forecast
	Status     models.TickerStatus
	Err        error
	// HardFailure marks transient provider or data faults that count against
	// run completeness. Definitive answers (NotFound, short history) do not.
	HardFailure bool
}

// Pipeline orchestrates one batch run: fetch, normalize, indicators, forecast,
// rank, build, publish. Per-ticker failures degrade to a flagged status; only
// run-level conditions abort publication.
type Pipeline struct {
	provider drepo.HistoryProvider
	registry *indicator.Registry
	engine   *forecast.Engine
	ranker   *ranking.Ranker
	builder  *ArtifactBuilder
	store    drepo.ArtifactStore
	metrics  drepo.Metrics
	log      *logger.Logger
	cfg      PipelineConfig
}

func NewPipeline(
	provider drepo.HistoryProvider,
	registry *indicator.Registry,
	engine *forecast.Engine,
	ranker *ranking.Ranker,
	builder *ArtifactBuilder,
	store drepo.ArtifactStore,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Pipeline{
		provider: provider,
		registry: registry,
		engine:   engine,
		ranker:   ranker,
		builder:  builder,
		store:    store,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
	}
}

// Run executes one full pipeline pass over the universe and publishes the
// artifact when the completeness gate passes. The returned artifact is the
// published one; a gate failure returns an error and leaves the previous
// artifact in place.
func (p *Pipeline) Run(ctx context.Context, universe []models.StaticMeta, asOf time.Time) (*models.Artifact, error) {
	if len(universe) == 0 {
		return nil, fmt.Errorf("run: empty universe")
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if p.cfg.RunDeadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.cfg.RunDeadline)
		defer cancel()
	}

	symbols := make([]string, 0, len(universe))
	for _, m := range universe {
		symbols = append(symbols, m.Symbol)
	}
	p.log.Info("pipeline run started",
		logger.String("as_of", asOf.Format("2006-01-02")),
		logger.Strings("symbols", symbols),
		logger.Int("workers", p.cfg.Workers))

	results := p.processAll(runCtx, universe, asOf)

	if err := runCtx.Err(); err != nil {
		p.metrics.RecordError("run_deadline")
		return nil, fmt.Errorf("run aborted: %w", err)
	}

	completeness := p.builder.CompletenessRatio(results)
	p.metrics.RecordCompleteness(completeness)
	if completeness < p.cfg.CompletenessThreshold {
		p.metrics.RecordError("completeness_gate")
		return nil, fmt.Errorf("run: completeness %.3f below threshold %.3f, not publishing",
			completeness, p.cfg.CompletenessThreshold)
	}

	rankings := p.ranker.Rank(rankInputs(results))
	if len(rankings) > 0 {
		p.log.Debug("ranking computed",
			logger.Int("ranked", len(rankings)),
			logger.Any("leader", rankings[0]))
	}

	previous, err := p.store.Previous(runCtx)
	if err != nil {
		// Deltas are an annotation, not a requirement.
		p.log.Warn("previous artifact unavailable", logger.Error(err))
		previous = nil
	}

	artifact, err := p.builder.Build(asOf, results, rankings, previous)
	if err != nil {
		p.metrics.RecordError("schema")
		return nil, fmt.Errorf("build artifact: %w", err)
	}

	if err := p.store.Publish(runCtx, artifact); err != nil {
		p.metrics.RecordError("publish")
		return nil, fmt.Errorf("publish artifact: %w", err)
	}

	p.log.Info("pipeline run published",
		logger.String("as_of", artifact.AsOf),
		logger.Float64("completeness", completeness),
		logger.Int("ranked", len(artifact.Rankings)))
	return artifact, nil
}

// processAll fans the universe out over a fixed worker pool. Each worker owns
// result slots by index, so no synchronization beyond the job channel is
// needed.
func (p *Pipeline) processAll(ctx context.Context, universe []models.StaticMeta, asOf time.Time) []*TickerResult {
	results := make([]*TickerResult, len(universe))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = p.processTicker(ctx, universe[idx], asOf)
			}
		}()
	}

	for idx := range universe {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}

// processTicker runs one ticker through fetch, normalize, indicators, and
// forecast under its own timeout. It always returns a result; errors are
// folded into the status and the HardFailure flag.
func (p *Pipeline) processTicker(ctx context.Context, meta models.StaticMeta, asOf time.Time) *TickerResult {
	res := &TickerResult{Symbol: meta.Symbol, Meta: meta}

	tctx := ctx
	var cancel context.CancelFunc
	if p.cfg.TickerTimeout > 0 {
		tctx, cancel = context.WithTimeout(ctx, p.cfg.TickerTimeout)
		defer cancel()
	}

	from := asOf.AddDate(0, 0, -p.cfg.LookbackDays)

	start := time.Now()
	raw, err := p.provider.FetchHistory(tctx, meta.Symbol, from, asOf)
	p.metrics.RecordStageLatency(StageFetch, time.Since(start).Seconds())
	if err != nil {
		p.failTicker(res, StageFetch, err)
		return res
	}

	start = time.Now()
	series, err := normalize.Normalize(raw, asOf, normalize.Options{
		LookbackDays: p.cfg.LookbackDays,
		MinHistory:   p.cfg.MinHistory,
		MaxFillGap:   p.cfg.MaxFillGap,
	})
	p.metrics.RecordStageLatency(StageNormalize, time.Since(start).Seconds())
	if err != nil {
		p.failTicker(res, StageNormalize, err)
		return res
	}
	res.Series = series
	p.metrics.RecordLastClose(meta.Symbol, series.LastClose())

	start = time.Now()
	res.Indicators = p.registry.Compute(series)
	p.metrics.RecordStageLatency(StageIndicator, time.Since(start).Seconds())

	if series.Insufficient {
		res.Status = models.StatusInsufficientHistory
		p.metrics.RecordTicker(string(res.Status))
		p.log.Debug("ticker below history threshold",
			logger.String("symbol", meta.Symbol),
			logger.Int("points", series.Len()))
		return res
	}

	start = time.Now()
	fc, err := p.engine.Forecast(series, p.cfg.HorizonDays)
	p.metrics.RecordStageLatency(StageForecast, time.Since(start).Seconds())
	if err != nil {
		res.Status = models.StatusForecastFailed
		if errors.Is(err, models.ErrInsufficientHistory) {
			res.Status = models.StatusInsufficientHistory
		}
		res.Err = models.NewStageError(meta.Symbol, StageForecast, err)
		p.metrics.RecordTicker(string(res.Status))
		p.metrics.RecordError("forecast")
		p.log.Warn("forecast failed", logger.String("symbol", meta.Symbol), logger.Error(res.Err))
		return res
	}
	res.Forecast = fc

	res.Status = models.StatusOK
	p.metrics.RecordTicker(string(res.Status))
	return res
}

// failTicker classifies a fetch or normalize error into a status and the
// completeness accounting. NotFound and empty history are definitive answers;
// everything else is a transient hard failure.
func (p *Pipeline) failTicker(res *TickerResult, stage string, err error) {
	res.Status = models.StatusInsufficientHistory
	res.Err = models.NewStageError(res.Symbol, stage, err)

	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrEmptySeries):
		p.metrics.RecordError("not_found")
	case errors.Is(err, models.ErrUnsortable):
		res.HardFailure = true
		p.metrics.RecordError("bad_data")
	case errors.Is(err, models.ErrRateLimited):
		res.HardFailure = true
		p.metrics.RecordError("rate_limited")
	case errors.Is(err, models.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		res.HardFailure = true
		p.metrics.RecordError("timeout")
	default:
		res.HardFailure = true
		p.metrics.RecordError(stage)
	}

	p.metrics.RecordTicker(string(res.Status))
	p.log.Warn("ticker failed",
		logger.String("symbol", res.Symbol),
		logger.String("stage", stage),
		logger.Bool("hard_failure", res.HardFailure),
		logger.Error(err))
}

// rankInputs lifts StatusOK results into ranking material. The ranker ignores
// the rest, and the builder keeps them in the artifact.
func rankInputs(results []*TickerResult) []ranking.Input {
	inputs := make([]ranking.Input, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		in := ranking.Input{
			Symbol:     r.Symbol,
			Meta:       r.Meta,
			Indicators: r.Indicators,
			Forecast:   r.Forecast,
			Status:     r.Status,
		}
		if r.Series != nil {
			in.LastClose = r.Series.LastClose()
		}
		inputs = append(inputs, in)
	}
	return inputs
}
