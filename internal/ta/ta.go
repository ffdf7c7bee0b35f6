package ta

import "math"

// SMA is the mean of the last n closes, NaN when there are fewer than n.
func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

// RSI uses simple averages of gains and losses over the last period moves.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 || period <= 0 {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100.0
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100.0 - (100.0 / (1.0 + rs))
}

// EMASeries returns the exponential moving average at every index from n-1
// onward, seeded with the SMA of the first n values. Nil when too short.
func EMASeries(vals []float64, n int) []float64 {
	if len(vals) < n || n <= 0 {
		return nil
	}
	k := 2.0 / float64(n+1)
	out := make([]float64, 0, len(vals)-n+1)
	prev := SMA(vals[:n], n)
	out = append(out, prev)
	for i := n; i < len(vals); i++ {
		prev = vals[i]*k + prev*(1-k)
		out = append(out, prev)
	}
	return out
}

// EMA is the last value of EMASeries, NaN when too short.
func EMA(vals []float64, n int) float64 {
	s := EMASeries(vals, n)
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// MACD returns the fast-slow EMA spread and its signal-period EMA. Either
// value is NaN when the series cannot support it.
func MACD(closes []float64, fast, slow, signal int) (macd, sig float64) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return math.NaN(), math.NaN()
	}
	fastS := EMASeries(closes, fast)
	slowS := EMASeries(closes, slow)
	if slowS == nil {
		return math.NaN(), math.NaN()
	}

	// align: slowS[i] and fastS[i+slow-fast] refer to the same close
	offset := slow - fast
	line := make([]float64, len(slowS))
	for i := range slowS {
		line[i] = fastS[i+offset] - slowS[i]
	}
	return line[len(line)-1], EMA(line, signal)
}
