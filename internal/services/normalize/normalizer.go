package normalize

import (
	"fmt"
	"sort"
	"time"

	"MarketScout/internal/domain/models"
	"MarketScout/pkg/util"
)

// Options controls normalization. Zero values fall back to conservative
// defaults so a partially configured caller still gets a sane series.
type Options struct {
	LookbackDays int // calendar days of history to keep before asOf
	MinHistory   int // minimum trading days required downstream
	MaxFillGap   int // longest run of missing trading days to forward-fill
}

func (o Options) withDefaults() Options {
	if o.LookbackDays <= 0 {
		o.LookbackDays = 180
	}
	if o.MinHistory <= 0 {
		o.MinHistory = 60
	}
	if o.MaxFillGap < 0 {
		o.MaxFillGap = 0
	}
	return o
}

// Normalize converts a raw provider series into the canonical form: dates
// deduplicated keep-last, sorted ascending, clipped to the lookback window,
// and interior gaps of at most MaxFillGap trading days forward-filled with
// flagged points. A longer gap or a too-short result marks the series
// Insufficient instead of fabricating data. Pure function of its input.
func Normalize(raw *models.RawSeries, asOf time.Time, opts Options) (*models.NormalizedSeries, error) {
	opts = opts.withDefaults()

	if raw == nil || len(raw.Candles) == 0 {
		return nil, fmt.Errorf("normalize %s: %w", symbolOf(raw), models.ErrEmptySeries)
	}

	asOf = util.Day(asOf)
	from := asOf.AddDate(0, 0, -opts.LookbackDays)

	// Dedupe by trading date, keeping the last observation in input order.
	byDate := make(map[time.Time]models.Candle, len(raw.Candles))
	for _, c := range raw.Candles {
		if c.Date.IsZero() {
			return nil, fmt.Errorf("normalize %s: zero timestamp: %w", raw.Symbol, models.ErrUnsortable)
		}
		if ambiguousDay(c.Date) {
			return nil, fmt.Errorf("normalize %s: timezone-ambiguous timestamp %s: %w",
				raw.Symbol, c.Date, models.ErrUnsortable)
		}
		day := util.Day(c.Date)
		if day.Before(from) || day.After(asOf) {
			continue
		}
		byDate[day] = c
	}

	if len(byDate) == 0 {
		return nil, fmt.Errorf("normalize %s: no observations in window: %w", raw.Symbol, models.ErrEmptySeries)
	}

	days := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := &models.NormalizedSeries{Symbol: raw.Symbol, AsOf: asOf}
	for i, day := range days {
		c := byDate[day]
		if i > 0 {
			prev := out.Points[len(out.Points)-1]
			gap := util.TradingDaysBetween(prev.Date, day)
			if gap > opts.MaxFillGap {
				out.Insufficient = true
			} else {
				for d := util.NextTradingDay(prev.Date); d.Before(day); d = util.NextTradingDay(d) {
					out.Points = append(out.Points, models.Point{
						Date:   d,
						Close:  prev.Close,
						Filled: true,
					})
				}
			}
		}
		out.Points = append(out.Points, models.Point{Date: day, Close: c.Close, Volume: c.Volume})
	}

	// Staleness: data ending long before the as-of date is as unusable as a
	// short series.
	if last := out.Points[len(out.Points)-1]; util.TradingDaysBetween(last.Date, asOf) > opts.MaxFillGap {
		out.Insufficient = true
	}

	if len(out.Points) < opts.MinHistory {
		out.Insufficient = true
	}

	return out, nil
}

// ToRaw converts a normalized series back to raw form. Used by the
// idempotence tests and the cache round trip.
func ToRaw(s *models.NormalizedSeries) *models.RawSeries {
	raw := &models.RawSeries{Symbol: s.Symbol, Candles: make([]models.Candle, 0, len(s.Points))}
	for _, p := range s.Points {
		raw.Candles = append(raw.Candles, models.Candle{
			Date:   p.Date,
			Open:   p.Close,
			High:   p.Close,
			Low:    p.Close,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	return raw
}

// ambiguousDay reports timestamps whose calendar date depends on the zone
// they are read in. Midnight instants in non-UTC zones cannot be assigned a
// trading date without guessing.
func ambiguousDay(t time.Time) bool {
	if t.Location() == time.UTC {
		return false
	}
	y1, m1, d1 := t.Date()
	y2, m2, d2 := t.UTC().Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

func symbolOf(raw *models.RawSeries) string {
	if raw == nil {
		return "<nil>"
	}
	return raw.Symbol
}
