package ta

import "math"

func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// SMA returns the arithmetic mean of the last window closes. ok is false
// until the window is full; callers must not read the value then.
func SMA(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window {
		return 0, false
	}
	var sum float64
	for _, v := range closes[len(closes)-window:] {
		sum += v
	}
	return sum / float64(window), true
}

// RSI computes an RSI-style oscillator over the last window deltas:
// average gains vs average losses mapped to [0,100]. A window with no
// losses maps to 100 and one with no gains maps to 0. With fewer than two
// closes there are no deltas and the neutral 50 is returned.
func RSI(closes []float64, window int) float64 {
	if window <= 0 || len(closes) < 2 {
		return 50
	}
	start := len(closes) - window - 1
	if start < 0 {
		start = 0
	}
	var gainSum, lossSum float64
	var n float64
	for i := start + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
		n++
	}
	if n == 0 {
		return 50
	}
	return rsiFromAvg(gainSum/n, lossSum/n)
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return clamp(100-(100/(1+rs)), 0, 100)
}

// Volatility is the standard deviation of simple returns over the trailing
// window, expressed as a percentage. Fewer than two closes yields 0.
func Volatility(closes []float64, window int) float64 {
	returns := trailingReturns(closes, window)
	if len(returns) == 0 {
		return 0
	}
	_, std := MeanStd(returns)
	return std * 100
}

// Returns exposes the trailing simple-return series used by the volatility
// and anomaly calculations.
func Returns(closes []float64, window int) []float64 {
	return trailingReturns(closes, window)
}

func trailingReturns(closes []float64, window int) []float64 {
	if window <= 0 || len(closes) < 2 {
		return nil
	}
	start := len(closes) - window - 1
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, len(closes)-start-1)
	for i := start + 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, closes[i]/prev-1)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
