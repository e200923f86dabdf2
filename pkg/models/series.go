package models

import "time"

// OHLCV represents a single candlestick bar of price data.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// IndicatorSet holds technical indicators aligned 1:1 with the price series
// they were computed from. Positions before an indicator's rolling window is
// satisfied are undefined, never zero.
type IndicatorSet struct {
	SMA50        []Float `json:"sma_50"`        // 50-period simple moving average
	SMA200       []Float `json:"sma_200"`       // 200-period simple moving average
	Oscillator14 []Float `json:"oscillator_14"` // RSI-style momentum oscillator, 0-100
	Volatility30 []Float `json:"volatility_30"` // annualized volatility of log returns, percent
	Drawdown     []Float `json:"drawdown"`      // percent below running peak, <= 0
}

// Len returns the series length the set is aligned to.
func (s *IndicatorSet) Len() int {
	return len(s.Drawdown)
}

// Latest returns the last value of each indicator, undefined where the series
// never satisfied the window.
func (s *IndicatorSet) Latest() (sma50, sma200, osc, vol, dd Float) {
	last := func(v []Float) Float {
		if len(v) == 0 {
			return Undefined()
		}
		return v[len(v)-1]
	}
	return last(s.SMA50), last(s.SMA200), last(s.Oscillator14), last(s.Volatility30), last(s.Drawdown)
}
