package domain

import (
	"errors"
	"time"
)

// ErrUnknownSymbol is returned for any request naming a symbol outside the
// tracked universe. No state is mutated on this path.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Action is the closed set of trade decisions a cycle can emit.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

func (a Action) IsValid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionHold
}

// PricePoint is one synthetic tick in a symbol's append-only history.
type PricePoint struct {
	Symbol    string    `json:"symbol"`
	Seq       int64     `json:"index"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// TickQuote is the per-symbol view returned from one cycle.
type TickQuote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	Volume    int64   `json:"volume"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Timestamp int64   `json:"timestamp"`
}

// IndicatorSnapshot holds the rolling statistics for one symbol at one
// cycle. SMA fields are nil until their window is full; callers must treat
// nil as "not yet available", never as zero.
type IndicatorSnapshot struct {
	SMA5       *float64 `json:"sma_5"`
	SMA20      *float64 `json:"sma_20"`
	RSI        float64  `json:"rsi"`
	Volatility float64  `json:"volatility"`
}

// ForecastResult is the short-horizon price forecast for one symbol,
// recomputed fresh each cycle. Horizon indices continue from the last
// observed sequence index with no gaps.
type ForecastResult struct {
	Symbol     string    `json:"symbol"`
	StartSeq   int64     `json:"start_index"`
	Horizon    []float64 `json:"prediction"`
	Confidence float64   `json:"confidence"`
}

// Signal is a discrete trade decision scoped to one symbol and one cycle.
// Confidence is an integer percentage in [0,100].
type Signal struct {
	Action     Action `json:"signal"`
	Confidence int    `json:"confidence"`
}

// SymbolPrediction bundles everything the boundary layer shows per symbol
// per cycle: the signal, the forecast, the indicator snapshot, and the
// advisory model outputs (nil when their models are not fitted yet).
type SymbolPrediction struct {
	Symbol       string            `json:"symbol"`
	Signal       Action            `json:"signal"`
	Confidence   int               `json:"confidence"`
	Prediction   []float64         `json:"prediction"`
	Indicators   IndicatorSnapshot `json:"indicators"`
	AnomalyScore *float64          `json:"anomaly_score,omitempty"`
	MLProbUp     *float64          `json:"ml_prob_up,omitempty"`
}

// Position is a single open long. At most one per symbol.
type Position struct {
	Symbol     string    `json:"symbol"`
	Quantity   int64     `json:"qty"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
}

// Trade is one immutable ledger entry. RealizedPnL is set only on closing
// trades. IDs are assigned from a single counter shared across symbols, so
// id order is cycle order.
type Trade struct {
	ID          int64     `json:"id"`
	Symbol      string    `json:"symbol"`
	Action      Action    `json:"action"`
	Quantity    int64     `json:"qty"`
	Price       float64   `json:"price"`
	RealizedPnL *float64  `json:"pnl,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// PortfolioView is a read-only snapshot of the portfolio valued at the
// prices passed to the trading engine when it was built.
type PortfolioView struct {
	Cash           float64             `json:"cash"`
	PositionsValue float64             `json:"positions_value"`
	TotalValue     float64             `json:"total_value"`
	PnL            float64             `json:"pnl"`
	PnLPct         float64             `json:"pnl_pct"`
	Positions      map[string]Position `json:"positions"`
}

// PnLSample is one point of the per-cycle portfolio value series.
type PnLSample struct {
	Seq        int64   `json:"sequence_index"`
	TotalValue float64 `json:"total_value"`
}

// PerformanceSummary aggregates the closed-trade ledger.
type PerformanceSummary struct {
	TotalTrades  int     `json:"total_trades"`
	ClosedTrades int     `json:"closed_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	TotalPnL     float64 `json:"total_pnl"`
	AvgTradePnL  float64 `json:"avg_trade_pnl"`
}

// CycleResult is everything one tick() cycle produced.
type CycleResult struct {
	Ticks       []TickQuote                 `json:"ticks"`
	Predictions map[string]SymbolPrediction `json:"predictions"`
	Portfolio   PortfolioView               `json:"portfolio"`
	Trades      []Trade                     `json:"trades"`
}

// ConversationMessage is one turn of an advisor chat.
type ConversationMessage struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// DefaultSymbols is the tracked universe, fixed for a run.
var DefaultSymbols = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"}

// BasePrices seeds the generator's starting price per symbol. Symbols
// configured without a base price start at DefaultBasePrice.
var BasePrices = map[string]float64{
	"AAPL":  178.50,
	"GOOGL": 141.80,
	"MSFT":  378.90,
	"AMZN":  178.25,
	"TSLA":  248.50,
}

const DefaultBasePrice = 100.00
