package signal

import (
	"testing"

	"paperdesk/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func TestDecideHoldsBelowMinForecastConfidence(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	ind := domain.IndicatorSnapshot{RSI: 10, SMA20: fptr(110)}
	fc := domain.ForecastResult{Horizon: []float64{120}, Confidence: 0.1}

	got := e.Decide(ind, fc, 100)
	if got.Action != domain.ActionHold || got.Confidence != 0 {
		t.Fatalf("expected HOLD with confidence 0, got %+v", got)
	}
}

func TestDecideBuy(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	ind := domain.IndicatorSnapshot{RSI: 20, SMA20: fptr(105)}
	fc := domain.ForecastResult{Horizon: []float64{101, 102, 103}, Confidence: 0.8}

	got := e.Decide(ind, fc, 100)
	if got.Action != domain.ActionBuy {
		t.Fatalf("expected BUY, got %+v", got)
	}
	// scale = (40-20)/40 = 0.5, confidence = round(0.8*0.5*100) = 40
	if got.Confidence != 40 {
		t.Fatalf("expected confidence 40, got %d", got.Confidence)
	}
}

func TestDecideBuyRequiresPriceBelowSMA(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	ind := domain.IndicatorSnapshot{RSI: 20, SMA20: fptr(95)}
	fc := domain.ForecastResult{Horizon: []float64{103}, Confidence: 0.8}

	got := e.Decide(ind, fc, 100)
	if got.Action != domain.ActionHold {
		t.Fatalf("expected HOLD when price above moving average, got %+v", got)
	}
}

func TestDecideBuyRequiresSMAAvailable(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	ind := domain.IndicatorSnapshot{RSI: 20, SMA20: nil}
	fc := domain.ForecastResult{Horizon: []float64{103}, Confidence: 0.8}

	if got := e.Decide(ind, fc, 100); got.Action != domain.ActionHold {
		t.Fatalf("expected HOLD when indicator unavailable, got %+v", got)
	}
}

func TestDecideSell(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	ind := domain.IndicatorSnapshot{RSI: 80, SMA20: fptr(95)}
	fc := domain.ForecastResult{Horizon: []float64{97}, Confidence: 0.5}

	got := e.Decide(ind, fc, 100)
	if got.Action != domain.ActionSell {
		t.Fatalf("expected SELL, got %+v", got)
	}
	// scale = (80-60)/(100-60) = 0.5, confidence = round(0.5*0.5*100) = 25
	if got.Confidence != 25 {
		t.Fatalf("expected confidence 25, got %d", got.Confidence)
	}
}

func TestDecideHoldWhenNothingMatches(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	ind := domain.IndicatorSnapshot{RSI: 50, SMA20: fptr(100)}
	fc := domain.ForecastResult{Horizon: []float64{101}, Confidence: 0.9}

	if got := e.Decide(ind, fc, 100); got.Action != domain.ActionHold {
		t.Fatalf("expected HOLD, got %+v", got)
	}
}

func TestDecideConfidenceAlwaysInBounds(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	cases := []struct {
		rsi   float64
		conf  float64
		delta float64
	}{
		{0, 1.0, 5},
		{39.9, 0.31, 5},
		{100, 1.0, -5},
		{60.1, 0.31, -5},
	}
	for _, c := range cases {
		ind := domain.IndicatorSnapshot{RSI: c.rsi, SMA20: fptr(200)}
		fc := domain.ForecastResult{Horizon: []float64{100 + c.delta}, Confidence: c.conf}
		got := e.Decide(ind, fc, 100)
		if got.Confidence < 0 || got.Confidence > 100 {
			t.Fatalf("confidence out of bounds: %+v for %+v", got, c)
		}
		if !got.Action.IsValid() {
			t.Fatalf("invalid action %q", got.Action)
		}
	}
}

func TestDecideEmptyHorizonHolds(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultConfig())
	ind := domain.IndicatorSnapshot{RSI: 20, SMA20: fptr(105)}
	fc := domain.ForecastResult{Horizon: nil, Confidence: 0.9}

	if got := e.Decide(ind, fc, 100); got.Action != domain.ActionHold {
		t.Fatalf("expected HOLD for empty horizon, got %+v", got)
	}
}
