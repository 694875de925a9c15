package forecast

import (
	"math"

	"paperdesk/internal/domain"
)

// Config fixes the fit parameters for one run.
type Config struct {
	Window     int
	MinSamples int
	Degree     int
}

func DefaultConfig() Config {
	return Config{Window: 30, MinSamples: 10, Degree: 2}
}

// Predictor fits a low-degree polynomial to the trailing window of
// (index, price) pairs and extrapolates a short horizon. It keeps no state
// between calls: given the same history, two calls yield bit-identical
// output.
type Predictor struct {
	cfg Config
}

func NewPredictor(cfg Config) *Predictor {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MinSamples <= 2 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.Degree <= 0 || cfg.Degree > 3 {
		cfg.Degree = def.Degree
	}
	if cfg.Window < cfg.MinSamples {
		cfg.Window = cfg.MinSamples
	}
	return &Predictor{cfg: cfg}
}

// Forecast predicts the next horizon prices for a symbol's history.
// Below MinSamples the result is a flat continuation of the last observed
// price with confidence 0. Horizon indices continue from the last observed
// sequence index with no gaps and no overlap.
func (p *Predictor) Forecast(history []domain.PricePoint, horizon int) domain.ForecastResult {
	if horizon <= 0 {
		horizon = 1
	}
	result := domain.ForecastResult{}
	if len(history) == 0 {
		result.Horizon = make([]float64, 0)
		return result
	}

	last := history[len(history)-1]
	result.Symbol = last.Symbol
	result.StartSeq = last.Seq + 1

	if len(history) < p.cfg.MinSamples {
		result.Horizon = flatHorizon(last.Price, horizon)
		return result
	}

	window := history
	if len(window) > p.cfg.Window {
		window = window[len(window)-p.cfg.Window:]
	}

	// Fit against window-relative x to keep the normal equations well
	// conditioned regardless of how large the absolute sequence grows.
	ys := make([]float64, len(window))
	for i, pt := range window {
		ys[i] = pt.Price
	}

	coeffs, ok := polyfit(ys, p.cfg.Degree)
	if !ok {
		result.Horizon = flatHorizon(last.Price, horizon)
		return result
	}

	result.Horizon = make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		x := float64(len(window) + h)
		v := polyval(coeffs, x)
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			v = last.Price
		}
		result.Horizon[h] = v
	}

	result.Confidence = fitConfidence(ys, coeffs)
	return result
}

func flatHorizon(price float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

// polyfit solves the least-squares normal equations for a polynomial of
// the given degree over x = 0..len(ys)-1.
func polyfit(ys []float64, degree int) ([]float64, bool) {
	n := degree + 1
	if len(ys) < n {
		return nil, false
	}

	// Power sums S_k = sum(x^k) and moment vector T_k = sum(y * x^k).
	sums := make([]float64, 2*degree+1)
	rhs := make([]float64, n)
	for i, y := range ys {
		x := float64(i)
		pow := 1.0
		for k := 0; k <= 2*degree; k++ {
			sums[k] += pow
			if k < n {
				rhs[k] += y * pow
			}
			pow *= x
		}
	}

	m := make([][]float64, n)
	for r := 0; r < n; r++ {
		m[r] = make([]float64, n+1)
		for c := 0; c < n; c++ {
			m[r][c] = sums[r+c]
		}
		m[r][n] = rhs[r]
	}
	return gaussianSolve(m)
}

func gaussianSolve(m [][]float64) ([]float64, bool) {
	n := len(m)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}
	out := make([]float64, n)
	for r := 0; r < n; r++ {
		out[r] = m[r][n] / m[r][r]
	}
	return out, true
}

func polyval(coeffs []float64, x float64) float64 {
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}

// fitConfidence is 1 - normalized residual variance, clamped to [0,1].
// A perfectly flat window fits exactly and scores 1; residuals as large as
// the price variance score 0.
func fitConfidence(ys, coeffs []float64) float64 {
	var mean float64
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))

	var ssRes, ssTot float64
	for i, y := range ys {
		r := y - polyval(coeffs, float64(i))
		ssRes += r * r
		d := y - mean
		ssTot += d * d
	}
	if ssTot < 1e-12 {
		if ssRes < 1e-12 {
			return 1
		}
		return 0
	}
	c := 1 - ssRes/ssTot
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
