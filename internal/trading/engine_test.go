package trading

import (
	"errors"
	"math"
	"testing"

	"paperdesk/internal/domain"
)

func testConfig() Config {
	return Config{
		StartingCash:       100000,
		TradeQty:           10,
		MaxOpenPositions:   5,
		MinTradeConfidence: 30,
		StopLossPct:        0.02,
		TakeProfitPct:      0.04,
	}
}

func buy(conf int) domain.Signal  { return domain.Signal{Action: domain.ActionBuy, Confidence: conf} }
func sell(conf int) domain.Signal { return domain.Signal{Action: domain.ActionSell, Confidence: conf} }

func mustExecute(t *testing.T, e *Engine, symbol string, sig domain.Signal, price float64) *domain.Trade {
	t.Helper()
	trade, err := e.ExecuteSignal(symbol, sig, price)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trade == nil {
		t.Fatal("expected a trade, got none")
	}
	return trade
}

func mustExit(t *testing.T, e *Engine, symbol string, price float64) *domain.Trade {
	t.Helper()
	trade, err := e.CheckExits(symbol, price)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trade == nil {
		t.Fatal("expected an exit trade, got none")
	}
	return trade
}

func TestBuyDebitsCashExactly(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.TradeQty = 5
	e := NewEngine(cfg)

	trade := mustExecute(t, e, "AAPL", buy(60), 150.00)

	if got := e.Cash(); math.Abs(got-99250.00) > 1e-9 {
		t.Fatalf("cash = %v, want 99250.00", got)
	}
	pos, held := e.Position("AAPL")
	if !held || pos.Quantity != 5 || pos.EntryPrice != 150.00 {
		t.Fatalf("unexpected position %+v held=%v", pos, held)
	}
	if trade.Action != domain.ActionBuy || trade.RealizedPnL != nil {
		t.Fatalf("opening trade should have no realized pnl: %+v", trade)
	}
}

func TestBuySetsExitLevelsFromEntry(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "MSFT", buy(50), 100.00)

	pos, _ := e.Position("MSFT")
	if math.Abs(pos.StopLoss-98.00) > 1e-9 {
		t.Fatalf("stop loss = %v, want 98.00", pos.StopLoss)
	}
	if math.Abs(pos.TakeProfit-104.00) > 1e-9 {
		t.Fatalf("take profit = %v, want 104.00", pos.TakeProfit)
	}
}

func TestBuyRejectedBelowConfidenceFloor(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	trade, err := e.ExecuteSignal("AAPL", buy(29), 150.00)
	if err != nil || trade != nil {
		t.Fatalf("expected silent rejection, got trade=%v err=%v", trade, err)
	}
	if e.Cash() != 100000 {
		t.Fatalf("cash mutated on rejected trade: %v", e.Cash())
	}
}

func TestBuyRejectedWhenAlreadyHeld(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "AAPL", buy(50), 100)

	trade, err := e.ExecuteSignal("AAPL", buy(90), 100)
	if err != nil || trade != nil {
		t.Fatalf("expected rejection while LONG, got trade=%v err=%v", trade, err)
	}
	if len(e.OpenPositions()) != 1 {
		t.Fatalf("expected one open position, got %d", len(e.OpenPositions()))
	}
}

func TestBuyRejectedAtPositionCap(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxOpenPositions = 2
	e := NewEngine(cfg)

	mustExecute(t, e, "AAPL", buy(50), 100)
	mustExecute(t, e, "MSFT", buy(50), 100)

	trade, err := e.ExecuteSignal("TSLA", buy(99), 100)
	if err != nil || trade != nil {
		t.Fatalf("expected rejection at cap, got trade=%v err=%v", trade, err)
	}
}

func TestBuyRejectedOnInsufficientCash(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.StartingCash = 900
	e := NewEngine(cfg)

	trade, err := e.ExecuteSignal("AAPL", buy(50), 100)
	if err != nil || trade != nil {
		t.Fatalf("expected rejection on cash, got trade=%v err=%v", trade, err)
	}
	if e.Cash() != 900 {
		t.Fatalf("cash mutated: %v", e.Cash())
	}
}

func TestSellSignalClosesOpenLong(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "AAPL", buy(50), 100)

	trade := mustExecute(t, e, "AAPL", sell(50), 110)
	if trade.RealizedPnL == nil || math.Abs(*trade.RealizedPnL-100) > 1e-9 {
		t.Fatalf("pnl = %v, want 100", trade.RealizedPnL)
	}
	if trade.Reason != ReasonSignal {
		t.Fatalf("reason = %q, want %q", trade.Reason, ReasonSignal)
	}
	if _, held := e.Position("AAPL"); held {
		t.Fatal("position should be closed")
	}
	if math.Abs(e.Cash()-100100) > 1e-9 {
		t.Fatalf("cash = %v, want 100100", e.Cash())
	}
}

func TestSellSignalIgnoredWhenFlat(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	trade, err := e.ExecuteSignal("AAPL", sell(90), 100)
	if err != nil || trade != nil {
		t.Fatalf("expected no-op while FLAT, got trade=%v err=%v", trade, err)
	}
}

func TestStopLossExit(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "AAPL", buy(50), 100)

	// Stop level is 98.00; a print at 97 crosses it.
	trade := mustExit(t, e, "AAPL", 97)
	if trade.Reason != ReasonStopLoss {
		t.Fatalf("reason = %q, want %q", trade.Reason, ReasonStopLoss)
	}
	want := (97.0 - 100.0) * 10
	if trade.RealizedPnL == nil || math.Abs(*trade.RealizedPnL-want) > 1e-9 {
		t.Fatalf("pnl = %v, want %v", trade.RealizedPnL, want)
	}
	if _, held := e.Position("AAPL"); held {
		t.Fatal("position should be closed")
	}
}

func TestTakeProfitExit(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "AAPL", buy(50), 100)

	trade := mustExit(t, e, "AAPL", 104.5)
	if trade.Reason != ReasonTakeProfit {
		t.Fatalf("reason = %q, want %q", trade.Reason, ReasonTakeProfit)
	}
	if trade.RealizedPnL == nil || *trade.RealizedPnL <= 0 {
		t.Fatalf("expected positive pnl, got %v", trade.RealizedPnL)
	}
}

func TestStopLossHasPriorityOverTakeProfit(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	// Degenerate thresholds so one price crosses both levels.
	cfg.StopLossPct = 0.5
	cfg.TakeProfitPct = 0.4
	e := NewEngine(cfg)

	mustExecute(t, e, "AAPL", buy(50), 100)
	trade := mustExit(t, e, "AAPL", 50)
	if trade.Reason != ReasonStopLoss {
		t.Fatalf("reason = %q, want stop loss first", trade.Reason)
	}
}

func TestCheckExitsNoopBetweenLevels(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "AAPL", buy(50), 100)

	trade, err := e.CheckExits("AAPL", 101)
	if err != nil || trade != nil {
		t.Fatalf("expected no exit, got trade=%v err=%v", trade, err)
	}
	if trade, err = e.CheckExits("MSFT", 1); err != nil || trade != nil {
		t.Fatalf("expected no-op for flat symbol, got trade=%v err=%v", trade, err)
	}
}

func TestTradeIDsMonotonicAcrossSymbols(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "AAPL", buy(50), 100)
	mustExecute(t, e, "MSFT", buy(50), 200)
	mustExecute(t, e, "AAPL", sell(50), 105)
	mustExecute(t, e, "TSLA", buy(50), 50)

	trades := e.RecentTrades(0)
	if len(trades) != 4 {
		t.Fatalf("expected 4 trades, got %d", len(trades))
	}
	// Newest first: ids must strictly descend.
	for i := 1; i < len(trades); i++ {
		if trades[i].ID >= trades[i-1].ID {
			t.Fatalf("ids not strictly ordered: %d then %d", trades[i-1].ID, trades[i].ID)
		}
	}
	if trades[len(trades)-1].ID != 1 {
		t.Fatalf("first trade id = %d, want 1", trades[len(trades)-1].ID)
	}
}

func TestRecentTradesLimit(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "AAPL", buy(50), 100)
	mustExecute(t, e, "MSFT", buy(50), 100)
	mustExecute(t, e, "TSLA", buy(50), 100)

	got := e.RecentTrades(2)
	if len(got) != 2 || got[0].Symbol != "TSLA" || got[1].Symbol != "MSFT" {
		t.Fatalf("unexpected recent trades: %+v", got)
	}
}

func TestCloseAllRealizesEverything(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "AAPL", buy(50), 100)
	mustExecute(t, e, "MSFT", buy(50), 200)

	closed, err := e.CloseAll(map[string]float64{"AAPL": 110, "MSFT": 190})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(closed) != 2 {
		t.Fatalf("expected 2 closes, got %d", len(closed))
	}
	for _, c := range closed {
		if c.Reason != ReasonSessionEnd || c.RealizedPnL == nil {
			t.Fatalf("unexpected close %+v", c)
		}
	}
	if len(e.OpenPositions()) != 0 {
		t.Fatal("positions remain after close all")
	}
	// +100 on AAPL, -100 on MSFT: back to starting cash.
	if math.Abs(e.Cash()-100000) > 1e-9 {
		t.Fatalf("cash = %v, want 100000", e.Cash())
	}
}

func TestCloseAllOnEmptyPortfolio(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	closed, err := e.CloseAll(nil)
	if err != nil || len(closed) != 0 {
		t.Fatalf("expected no-op, got %v err=%v", closed, err)
	}
}

func TestViewValuesAtCurrentPrices(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "AAPL", buy(50), 100)

	v := e.View(map[string]float64{"AAPL": 120})
	if math.Abs(v.Cash-99000) > 1e-9 {
		t.Fatalf("cash = %v, want 99000", v.Cash)
	}
	if math.Abs(v.PositionsValue-1200) > 1e-9 {
		t.Fatalf("positions value = %v, want 1200", v.PositionsValue)
	}
	if math.Abs(v.TotalValue-(v.Cash+v.PositionsValue)) > 1e-9 {
		t.Fatalf("total %v != cash %v + positions %v", v.TotalValue, v.Cash, v.PositionsValue)
	}
	if math.Abs(v.PnL-200) > 1e-9 || math.Abs(v.PnLPct-0.2) > 1e-9 {
		t.Fatalf("pnl = %v (%v%%), want 200 (0.2%%)", v.PnL, v.PnLPct)
	}
}

func TestInvalidActionIsInvariantViolation(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	_, err := e.ExecuteSignal("AAPL", domain.Signal{Action: "SHORT", Confidence: 99}, 100)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

func TestNonPositivePriceIsInvariantViolation(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	if _, err := e.ExecuteSignal("AAPL", buy(50), 0); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

func TestPerformanceSummary(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig())
	mustExecute(t, e, "AAPL", buy(50), 100)
	mustExecute(t, e, "AAPL", sell(50), 110) // +100
	mustExecute(t, e, "MSFT", buy(50), 100)
	mustExecute(t, e, "MSFT", sell(50), 95) // -50

	sum := e.Performance()
	if sum.TotalTrades != 4 || sum.ClosedTrades != 2 {
		t.Fatalf("counts: %+v", sum)
	}
	if sum.Wins != 1 || sum.Losses != 1 || sum.WinRate != 0.5 {
		t.Fatalf("win stats: %+v", sum)
	}
	if math.Abs(sum.TotalPnL-50) > 1e-9 || math.Abs(sum.AvgTradePnL-25) > 1e-9 {
		t.Fatalf("pnl stats: %+v", sum)
	}
}

func TestPnLTrackerSeries(t *testing.T) {
	t.Parallel()

	tr := NewPnLTracker()
	for i := 0; i < 5; i++ {
		tr.Sample(100000 + float64(i))
	}

	series := tr.Series()
	if len(series) != 5 || tr.Len() != 5 {
		t.Fatalf("expected 5 samples, got %d", len(series))
	}
	for i, s := range series {
		if s.Seq != int64(i) {
			t.Fatalf("sample %d has seq %d", i, s.Seq)
		}
	}

	recent := tr.Recent(2)
	if len(recent) != 2 || recent[0].Seq != 3 || recent[1].Seq != 4 {
		t.Fatalf("unexpected recent window: %+v", recent)
	}
	if got := tr.Recent(100); len(got) != 5 {
		t.Fatalf("oversized window should return all, got %d", len(got))
	}
}
