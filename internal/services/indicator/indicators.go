package indicator

import "math"

// TradingDaysPerYear annualizes daily return volatility.
const TradingDaysPerYear = 252

// SMA computes the simple moving average of the last period closes.
func SMA(period int) func([]float64) float64 {
	return func(closes []float64) float64 {
		sum := 0.0
		for i := len(closes) - period; i < len(closes); i++ {
			sum += closes[i]
		}
		return sum / float64(period)
	}
}

// Momentum computes the relative change over the last period trading days.
func Momentum(period int) func([]float64) float64 {
	return func(closes []float64) float64 {
		first := closes[len(closes)-1-period]
		if first == 0 {
			return 0
		}
		return (closes[len(closes)-1] - first) / first
	}
}

// Volatility computes the annualized standard deviation of daily returns
// over the last period days.
func Volatility(period int) func([]float64) float64 {
	return func(closes []float64) float64 {
		tail := closes[len(closes)-1-period:]
		returns := make([]float64, 0, period)
		for i := 1; i < len(tail); i++ {
			if tail[i-1] == 0 {
				returns = append(returns, 0)
				continue
			}
			returns = append(returns, (tail[i]-tail[i-1])/tail[i-1])
		}

		mean := 0.0
		for _, r := range returns {
			mean += r
		}
		mean /= float64(len(returns))

		variance := 0.0
		for _, r := range returns {
			variance += (r - mean) * (r - mean)
		}
		variance /= float64(len(returns))

		return math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear)
	}
}

// RSI computes the relative strength index over the last period changes.
func RSI(period int) func([]float64) float64 {
	return func(closes []float64) float64 {
		tail := closes[len(closes)-1-period:]
		gains, losses := 0.0, 0.0
		for i := 1; i < len(tail); i++ {
			change := tail[i] - tail[i-1]
			if change > 0 {
				gains += change
			} else {
				losses += math.Abs(change)
			}
		}

		avgGain := gains / float64(period)
		avgLoss := losses / float64(period)
		if avgLoss == 0 {
			return 100
		}

		rs := avgGain / avgLoss
		return 100 - (100 / (1 + rs))
	}
}

// LastClose returns the most recent close.
func LastClose(closes []float64) float64 {
	return closes[len(closes)-1]
}
