package trading

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"paperdesk/internal/domain"
)

// ErrInvariantViolation marks state corruption (negative cash or quantity).
// It is the one non-recoverable error class: callers must abort the cycle.
var ErrInvariantViolation = errors.New("portfolio invariant violation")

const (
	ReasonSignal     = "signal"
	ReasonStopLoss   = "stop loss"
	ReasonTakeProfit = "take profit"
	ReasonSessionEnd = "session close"
)

// Config holds the admission and risk parameters for one run.
type Config struct {
	StartingCash       float64
	TradeQty           int64
	MaxOpenPositions   int
	MinTradeConfidence int
	StopLossPct        float64
	TakeProfitPct      float64
}

func DefaultConfig() Config {
	return Config{
		StartingCash:       100000,
		TradeQty:           10,
		MaxOpenPositions:   5,
		MinTradeConfidence: 30,
		StopLossPct:        0.02,
		TakeProfitPct:      0.04,
	}
}

// Engine owns the portfolio: cash, open positions, and the append-only
// trade ledger. Per symbol it is a two-state machine, FLAT or LONG; fills
// are instantaneous at the triggering cycle's price. Trade ids come from a
// single counter shared across symbols, so id order is execution order.
//
// Engine is not safe for concurrent use; the owning service serializes
// access behind its cycle lock.
type Engine struct {
	cfg Config

	cash      float64
	positions map[string]domain.Position
	trades    []domain.Trade
	lastID    int64
	now       func() time.Time
}

func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.StartingCash <= 0 {
		cfg.StartingCash = def.StartingCash
	}
	if cfg.TradeQty <= 0 {
		cfg.TradeQty = def.TradeQty
	}
	if cfg.MaxOpenPositions <= 0 {
		cfg.MaxOpenPositions = def.MaxOpenPositions
	}
	if cfg.MinTradeConfidence < 0 || cfg.MinTradeConfidence > 100 {
		cfg.MinTradeConfidence = def.MinTradeConfidence
	}
	if cfg.StopLossPct <= 0 || cfg.StopLossPct >= 1 {
		cfg.StopLossPct = def.StopLossPct
	}
	if cfg.TakeProfitPct <= 0 || cfg.TakeProfitPct >= 1 {
		cfg.TakeProfitPct = def.TakeProfitPct
	}
	return &Engine{
		cfg:       cfg,
		cash:      cfg.StartingCash,
		positions: make(map[string]domain.Position),
		now:       time.Now,
	}
}

// ExecuteSignal applies one cycle's signal for a symbol at the current
// price. Rejected admissions are logged and return (nil, nil): they are
// expected steady-state behavior, not faults. Only invariant violations
// return an error.
func (e *Engine) ExecuteSignal(symbol string, sig domain.Signal, price float64) (*domain.Trade, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: non-positive fill price %.4f for %s", ErrInvariantViolation, price, symbol)
	}

	switch sig.Action {
	case domain.ActionBuy:
		return e.executeBuy(symbol, sig, price)
	case domain.ActionSell:
		return e.executeSell(symbol, sig, price)
	case domain.ActionHold:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown signal action %q", ErrInvariantViolation, sig.Action)
	}
}

func (e *Engine) executeBuy(symbol string, sig domain.Signal, price float64) (*domain.Trade, error) {
	if sig.Confidence < e.cfg.MinTradeConfidence {
		return nil, nil
	}
	if _, held := e.positions[symbol]; held {
		log.Printf("trade rejected: %s already held", symbol)
		return nil, nil
	}
	if len(e.positions) >= e.cfg.MaxOpenPositions {
		log.Printf("trade rejected: %s, max open positions (%d) reached", symbol, e.cfg.MaxOpenPositions)
		return nil, nil
	}
	cost := float64(e.cfg.TradeQty) * price
	if e.cash < cost {
		log.Printf("trade rejected: %s, insufficient cash (%.2f < %.2f)", symbol, e.cash, cost)
		return nil, nil
	}

	now := e.now()
	e.cash -= cost
	e.positions[symbol] = domain.Position{
		Symbol:     symbol,
		Quantity:   e.cfg.TradeQty,
		EntryPrice: price,
		EntryTime:  now,
		StopLoss:   price * (1 - e.cfg.StopLossPct),
		TakeProfit: price * (1 + e.cfg.TakeProfitPct),
	}

	trade := e.appendTrade(domain.Trade{
		Symbol:    symbol,
		Action:    domain.ActionBuy,
		Quantity:  e.cfg.TradeQty,
		Price:     price,
		Reason:    ReasonSignal,
		Timestamp: now,
	})
	if err := e.checkInvariants(); err != nil {
		return nil, err
	}
	return trade, nil
}

func (e *Engine) executeSell(symbol string, sig domain.Signal, price float64) (*domain.Trade, error) {
	if sig.Confidence < e.cfg.MinTradeConfidence {
		return nil, nil
	}
	if _, held := e.positions[symbol]; !held {
		return nil, nil
	}
	return e.closePosition(symbol, price, ReasonSignal)
}

// CheckExits evaluates the per-cycle exit rules for a symbol in priority
// order: stop loss first, then take profit. Returns the closing trade, or
// nil when the position stays open or the symbol is flat.
func (e *Engine) CheckExits(symbol string, price float64) (*domain.Trade, error) {
	pos, held := e.positions[symbol]
	if !held {
		return nil, nil
	}
	if price <= pos.StopLoss {
		return e.closePosition(symbol, price, ReasonStopLoss)
	}
	if price >= pos.TakeProfit {
		return e.closePosition(symbol, price, ReasonTakeProfit)
	}
	return nil, nil
}

// CloseAll force-closes every open position at the supplied prices. Used
// for the external session-close signal. Positions with no current price
// are closed at their entry price.
func (e *Engine) CloseAll(prices map[string]float64) ([]domain.Trade, error) {
	symbols := make([]string, 0, len(e.positions))
	for s := range e.positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var closed []domain.Trade
	for _, s := range symbols {
		price, ok := prices[s]
		if !ok {
			price = e.positions[s].EntryPrice
		}
		trade, err := e.closePosition(s, price, ReasonSessionEnd)
		if err != nil {
			return closed, err
		}
		closed = append(closed, *trade)
	}
	return closed, nil
}

func (e *Engine) closePosition(symbol string, price float64, reason string) (*domain.Trade, error) {
	pos := e.positions[symbol]
	now := e.now()

	e.cash += float64(pos.Quantity) * price
	delete(e.positions, symbol)

	pnl := (price - pos.EntryPrice) * float64(pos.Quantity)
	trade := e.appendTrade(domain.Trade{
		Symbol:      symbol,
		Action:      domain.ActionSell,
		Quantity:    pos.Quantity,
		Price:       price,
		RealizedPnL: &pnl,
		Reason:      reason,
		Timestamp:   now,
	})
	log.Printf("closed %s x%d @ %.2f (%s), pnl %.2f", symbol, pos.Quantity, price, reason, pnl)

	if err := e.checkInvariants(); err != nil {
		return nil, err
	}
	return trade, nil
}

func (e *Engine) appendTrade(t domain.Trade) *domain.Trade {
	e.lastID++
	t.ID = e.lastID
	e.trades = append(e.trades, t)
	return &e.trades[len(e.trades)-1]
}

func (e *Engine) checkInvariants() error {
	if e.cash < 0 {
		return fmt.Errorf("%w: cash %.4f < 0", ErrInvariantViolation, e.cash)
	}
	for s, p := range e.positions {
		if p.Quantity < 0 {
			return fmt.Errorf("%w: %s quantity %d < 0", ErrInvariantViolation, s, p.Quantity)
		}
		if p.EntryPrice <= 0 {
			return fmt.Errorf("%w: %s entry price %.4f <= 0", ErrInvariantViolation, s, p.EntryPrice)
		}
	}
	return nil
}

// Cash returns current free cash.
func (e *Engine) Cash() float64 { return e.cash }

// Position returns the open position for a symbol, if any.
func (e *Engine) Position(symbol string) (domain.Position, bool) {
	p, ok := e.positions[symbol]
	return p, ok
}

// OpenPositions returns a copy of all open positions.
func (e *Engine) OpenPositions() map[string]domain.Position {
	out := make(map[string]domain.Position, len(e.positions))
	for s, p := range e.positions {
		out[s] = p
	}
	return out
}

// View values the portfolio at the supplied prices. total_value is always
// cash plus the sum of quantity times current price; positions without a
// current price are valued at entry.
func (e *Engine) View(prices map[string]float64) domain.PortfolioView {
	var positionsValue float64
	positions := make(map[string]domain.Position, len(e.positions))
	for s, p := range e.positions {
		positions[s] = p
		price, ok := prices[s]
		if !ok {
			price = p.EntryPrice
		}
		positionsValue += float64(p.Quantity) * price
	}
	total := e.cash + positionsValue
	return domain.PortfolioView{
		Cash:           e.cash,
		PositionsValue: positionsValue,
		TotalValue:     total,
		PnL:            total - e.cfg.StartingCash,
		PnLPct:         (total - e.cfg.StartingCash) / e.cfg.StartingCash * 100,
		Positions:      positions,
	}
}

// RecentTrades returns up to limit ledger entries, newest first.
func (e *Engine) RecentTrades(limit int) []domain.Trade {
	if limit <= 0 || limit > len(e.trades) {
		limit = len(e.trades)
	}
	out := make([]domain.Trade, 0, limit)
	for i := len(e.trades) - 1; i >= len(e.trades)-limit; i-- {
		out = append(out, e.trades[i])
	}
	return out
}

// Performance aggregates the closed side of the ledger.
func (e *Engine) Performance() domain.PerformanceSummary {
	sum := domain.PerformanceSummary{TotalTrades: len(e.trades)}
	for _, t := range e.trades {
		if t.RealizedPnL == nil {
			continue
		}
		sum.ClosedTrades++
		sum.TotalPnL += *t.RealizedPnL
		if *t.RealizedPnL > 0 {
			sum.Wins++
		} else {
			sum.Losses++
		}
	}
	if sum.ClosedTrades > 0 {
		sum.WinRate = float64(sum.Wins) / float64(sum.ClosedTrades)
		sum.AvgTradePnL = sum.TotalPnL / float64(sum.ClosedTrades)
	}
	return sum
}
