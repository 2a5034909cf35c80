package ta

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/montanaflynn/stats"

	"signal-trader/internal/types"
)

const RSIPeriod = 14

// SMA returns the latest simple moving average over n closes, NaN when there is not enough data.
func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	out := talib.Sma(closes, n)
	return out[len(out)-1]
}

// RSI returns the latest Wilder RSI, NaN when there is not enough data.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 1 {
		return math.NaN()
	}
	out := talib.Rsi(closes, period)
	return out[len(out)-1]
}

// PercentChange is (last - last_n) / last_n * 100 over the trailing n samples.
// ok is false when fewer than n samples exist or the base is zero.
func PercentChange(closes []float64, n int) (float64, bool) {
	if n <= 0 || len(closes) < n {
		return 0, false
	}
	base := closes[len(closes)-n]
	if base == 0 {
		return 0, false
	}
	last := closes[len(closes)-1]
	return (last - base) / base * 100, true
}

// Describe summarises the trailing window of closes.
func Describe(closes []float64, window int) *types.TrendStats {
	if window > 0 && len(closes) > window {
		closes = closes[len(closes)-window:]
	}
	if len(closes) == 0 {
		return nil
	}
	data := stats.Float64Data(closes)
	ts := &types.TrendStats{Count: len(closes)}
	ts.Mean, _ = stats.Mean(data)
	ts.Min, _ = stats.Min(data)
	ts.Max, _ = stats.Max(data)
	ts.Median, _ = stats.Median(data)
	if len(closes) > 1 {
		ts.Std, _ = stats.StandardDeviationSample(data)
	}
	if q, err := stats.Quartile(data); err == nil && len(closes) >= 4 {
		ts.Q25, ts.Q75 = q.Q1, q.Q3
	} else {
		ts.Q25, ts.Q75 = ts.Median, ts.Median
	}
	// NaN does not survive JSON encoding in the journal; zero means not computed.
	ts.SMA = finiteOrZero(SMA(closes, len(closes)))
	ts.RSI = finiteOrZero(RSI(closes, RSIPeriod))
	return ts
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func Closes(cs []types.Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}
