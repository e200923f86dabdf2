// Package technical computes rolling indicators over daily candle series.
// Every indicator slice is aligned 1:1 with the input series; positions
// before the rolling window is satisfied stay undefined rather than zero.
package technical

import (
	"fmt"
	"math"

	"github.com/bkaradeniz/marketscan/pkg/models"
)

// Rolling window sizes. TradingDaysPerYear scales daily volatility to an
// annualized figure.
const (
	SMAShortPeriod     = 50
	SMALongPeriod      = 200
	OscillatorPeriod   = 14
	VolatilityPeriod   = 30
	TradingDaysPerYear = 252
)

// Compute derives the full indicator set from a chronologically ordered
// candle series in one pass per indicator. A series that is out of order or
// carries duplicate timestamps is a contract breach by the caller and fails
// loudly instead of producing silently wrong windows.
func Compute(series []models.OHLCV) (*models.IndicatorSet, error) {
	if err := validate(series); err != nil {
		return nil, err
	}

	closes := make([]float64, len(series))
	for i, bar := range series {
		closes[i] = bar.Close
	}

	return &models.IndicatorSet{
		SMA50:        SMA(closes, SMAShortPeriod),
		SMA200:       SMA(closes, SMALongPeriod),
		Oscillator14: Oscillator(closes, OscillatorPeriod),
		Volatility30: Volatility(closes, VolatilityPeriod),
		Drawdown:     Drawdown(closes),
	}, nil
}

func validate(series []models.OHLCV) error {
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1].Timestamp, series[i].Timestamp
		if cur.Equal(prev) {
			return fmt.Errorf("technical: duplicate timestamp %s at index %d", cur.Format("2006-01-02"), i)
		}
		if cur.Before(prev) {
			return fmt.Errorf("technical: series not chronological at index %d (%s after %s)",
				i, prev.Format("2006-01-02"), cur.Format("2006-01-02"))
		}
	}
	return nil
}

// SMA calculates the simple moving average over a trailing window. Values are
// defined from index period-1 onward.
func SMA(data []float64, period int) []models.Float {
	n := len(data)
	out := undefinedSlice(n)
	if period <= 0 || n < period {
		return out
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	out[period-1] = models.F(sum / float64(period))

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		out[i] = models.F(sum / float64(period))
	}
	return out
}

// Oscillator calculates an RSI-style momentum oscillator from the simple
// average of gains and losses over the trailing window, mapped to 0-100 via
// 100 - 100/(1+rs). A window with no losses saturates at 100; the division
// is guarded, never a fault. Values are defined from index period onward
// (the first close has no delta).
func Oscillator(data []float64, period int) []models.Float {
	n := len(data)
	out := undefinedSlice(n)
	if period <= 0 || n < period+1 {
		return out
	}

	for i := period; i < n; i++ {
		var gains, losses float64
		for j := i - period + 1; j <= i; j++ {
			change := data[j] - data[j-1]
			if change > 0 {
				gains += change
			} else {
				losses += -change
			}
		}
		if losses == 0 {
			out[i] = models.F(100)
			continue
		}
		rs := gains / losses
		out[i] = models.F(100 - 100/(1+rs))
	}
	return out
}

// Volatility calculates the rolling sample standard deviation of log returns,
// annualized by sqrt(252) and expressed as a percentage. Values are defined
// once the window holds period returns, i.e. from index period onward.
func Volatility(data []float64, period int) []models.Float {
	n := len(data)
	out := undefinedSlice(n)
	if period <= 1 || n < period+1 {
		return out
	}

	returns := make([]float64, n)
	for i := 1; i < n; i++ {
		if data[i-1] <= 0 || data[i] <= 0 {
			returns[i] = 0
			continue
		}
		returns[i] = math.Log(data[i] / data[i-1])
	}

	for i := period; i < n; i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += returns[j]
		}
		mean := sum / float64(period)

		var sq float64
		for j := i - period + 1; j <= i; j++ {
			d := returns[j] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(period-1))
		out[i] = models.F(std * math.Sqrt(TradingDaysPerYear) * 100)
	}
	return out
}

// Drawdown calculates the percentage distance of each close from the running
// peak. Values are <= 0 by construction and defined at every position.
func Drawdown(data []float64) []models.Float {
	out := undefinedSlice(len(data))
	if len(data) == 0 {
		return out
	}

	peak := data[0]
	for i, v := range data {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		out[i] = models.F((v - peak) / peak * 100)
	}
	return out
}

func undefinedSlice(n int) []models.Float {
	out := make([]models.Float, n)
	for i := range out {
		out[i] = models.Undefined()
	}
	return out
}
