package finnhub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"MarketScout/internal/domain/models"
	drepo "MarketScout/internal/domain/repository"
	"MarketScout/internal/service/retry"
	"MarketScout/pkg/cache"
	xhttp "MarketScout/pkg/http"

	"golang.org/x/time/rate"
)

// Client implements a HistoryProvider backed by the Finnhub candle REST API.
// All requests pass through a shared token-bucket limiter so a parallel
// worker pool cannot exceed the provider's rate budget.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
	limiter *rate.Limiter
	policy  *retry.Policy
	cache   cache.Service // optional; nil disables caching
	ttl     time.Duration
}

// Config holds provider client settings.
type Config struct {
	BaseURL    string
	APIKey     string
	RatePerSec float64
	Burst      int
	Timeout    time.Duration
	CacheTTL   time.Duration
}

// New creates a Finnhub history provider. cacheSvc may be nil.
func New(cfg *Config, policy *retry.Policy, cacheSvc cache.Service) drepo.HistoryProvider {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		policy:  policy,
		cache:   cacheSvc,
		ttl:     cfg.CacheTTL,
	}
}

// candleResponse mirrors Finnhub's /stock/candle payload: parallel arrays
// plus a status field that is "no_data" for unknown or delisted symbols.
type candleResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

// FetchHistory fetches daily candles for [from, to]. Errors are classified
// with the provider sentinels; RateLimited and Timeout are retried per the
// policy, NotFound is surfaced immediately.
func (c *Client) FetchHistory(ctx context.Context, symbol string, from, to time.Time) (*models.RawSeries, error) {
	key := fmt.Sprintf("candles:%s:%s:%s", symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if c.cache != nil {
		var cached models.RawSeries
		if err := c.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	var cr candleResponse
	fetch := func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: http.MethodGet,
			URL:    c.baseURL + "/stock/candle",
			QueryParams: url.Values{
				"symbol":     {symbol},
				"resolution": {"D"},
				"from":       {fmt.Sprintf("%d", from.Unix())},
				"to":         {fmt.Sprintf("%d", to.Unix())},
				"token":      {c.apiKey},
			},
		}, &cr)
		if err != nil {
			return classify(err)
		}
		return nil
	}

	if err := c.policy.Do(ctx, fetch); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	if cr.Status == "no_data" {
		return nil, fmt.Errorf("fetch %s: %w", symbol, models.ErrNotFound)
	}

	series := &models.RawSeries{Symbol: symbol, Candles: toCandles(&cr)}
	if len(series.Candles) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", symbol, models.ErrNotFound)
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, key, series, c.ttl)
	}
	return series, nil
}

func toCandles(cr *candleResponse) []models.Candle {
	n := len(cr.Times)
	for _, arr := range [][]float64{cr.Opens, cr.Highs, cr.Lows, cr.Closes, cr.Volumes} {
		if len(arr) < n {
			n = len(arr)
		}
	}

	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Candle{
			Date:   time.Unix(cr.Times[i], 0).UTC(),
			Open:   cr.Opens[i],
			High:   cr.Highs[i],
			Low:    cr.Lows[i],
			Close:  cr.Closes[i],
			Volume: cr.Volumes[i],
		})
	}
	return out
}

// classify maps transport and status errors onto the provider taxonomy.
func classify(err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", models.ErrRateLimited, err)
		case se.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %v", models.ErrNotFound, err)
		case se.StatusCode >= 500:
			return fmt.Errorf("%w: %v", models.ErrTimeout, err)
		default:
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}
	return err
}

// Retryable is the retry predicate for provider errors: rate limits and
// timeouts back off and retry, NotFound never does.
func Retryable(err error) bool {
	return errors.Is(err, models.ErrRateLimited) || errors.Is(err, models.ErrTimeout)
}
