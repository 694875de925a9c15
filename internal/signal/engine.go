package signal

import (
	"math"

	"paperdesk/internal/domain"
)

// Config holds the decision thresholds. These are tuning values, not
// contracts; defaults follow the run configuration.
type Config struct {
	MinForecastConfidence float64
	Oversold              float64
	Overbought            float64
}

func DefaultConfig() Config {
	return Config{MinForecastConfidence: 0.30, Oversold: 40, Overbought: 60}
}

// Engine fuses an indicator snapshot and a forecast into one BUY/SELL/HOLD
// signal. The policy is an ordered list evaluated top-down, first match
// wins, so each cycle yields exactly one deterministic outcome.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MinForecastConfidence <= 0 || cfg.MinForecastConfidence > 1 {
		cfg.MinForecastConfidence = def.MinForecastConfidence
	}
	if cfg.Oversold <= 0 || cfg.Oversold >= 100 {
		cfg.Oversold = def.Oversold
	}
	if cfg.Overbought <= 0 || cfg.Overbought >= 100 {
		cfg.Overbought = def.Overbought
	}
	if cfg.Oversold >= cfg.Overbought {
		cfg.Oversold = def.Oversold
		cfg.Overbought = def.Overbought
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Decide(ind domain.IndicatorSnapshot, fc domain.ForecastResult, current float64) domain.Signal {
	hold := domain.Signal{Action: domain.ActionHold, Confidence: 0}

	// Insufficient evidence never produces a trade.
	if fc.Confidence < e.cfg.MinForecastConfidence || len(fc.Horizon) == 0 || current <= 0 {
		return hold
	}

	delta := fc.Horizon[len(fc.Horizon)-1] - current

	if delta > 0 && ind.RSI < e.cfg.Oversold && ind.SMA20 != nil && current < *ind.SMA20 {
		scale := (e.cfg.Oversold - ind.RSI) / e.cfg.Oversold
		return domain.Signal{
			Action:     domain.ActionBuy,
			Confidence: scaleConfidence(fc.Confidence, scale),
		}
	}

	if delta < 0 && ind.RSI > e.cfg.Overbought {
		scale := (ind.RSI - e.cfg.Overbought) / (100 - e.cfg.Overbought)
		return domain.Signal{
			Action:     domain.ActionSell,
			Confidence: scaleConfidence(fc.Confidence, scale),
		}
	}

	return hold
}

func scaleConfidence(forecastConfidence, scale float64) int {
	if scale < 0 {
		scale = 0
	}
	if scale > 1 {
		scale = 1
	}
	c := int(math.Round(forecastConfidence * scale * 100))
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
