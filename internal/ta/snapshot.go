package ta

import "paperdesk/internal/domain"

// Windows fixes the lookback lengths used for one run.
type Windows struct {
	SMAShort   int
	SMALong    int
	RSI        int
	Volatility int
}

func DefaultWindows() Windows {
	return Windows{SMAShort: 5, SMALong: 20, RSI: 14, Volatility: 20}
}

// Snapshot recomputes all rolling statistics for one symbol from its close
// history. Pure function of the trailing window; no state is carried
// between calls.
func Snapshot(closes []float64, w Windows) domain.IndicatorSnapshot {
	snap := domain.IndicatorSnapshot{
		RSI:        RSI(closes, w.RSI),
		Volatility: Volatility(closes, w.Volatility),
	}
	if v, ok := SMA(closes, w.SMAShort); ok {
		snap.SMA5 = &v
	}
	if v, ok := SMA(closes, w.SMALong); ok {
		snap.SMA20 = &v
	}
	return snap
}
