package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"paperdesk/internal/anomaly"
	"paperdesk/internal/domain"
	"paperdesk/internal/forecast"
	"paperdesk/internal/market"
	"paperdesk/internal/ml/direction"
	"paperdesk/internal/signal"
	"paperdesk/internal/ta"
	"paperdesk/internal/trading"
)

const quoteCacheTTL = 90 * time.Second

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// SimService owns the whole simulation state and runs the cycle pipeline:
// advance prices, recompute indicators and forecasts, decide signals, apply
// exits and fills, and sample the portfolio value. One mutex serializes
// every entry point, so callers from any goroutine observe each cycle as
// atomic and two identically seeded services replay identical runs.
type SimService struct {
	mu sync.Mutex

	tracer    trace.Tracer
	gen       *market.Generator
	windows   ta.Windows
	predictor *forecast.Predictor
	signals   *signal.Engine
	engine    *trading.Engine
	pnl       *trading.PnLTracker
	direction *direction.Service
	anomaly   *anomaly.Detector
	redis     RedisClient

	horizon int
	quotes  map[string]domain.TickQuote
}

func NewSimService(
	tracer trace.Tracer,
	gen *market.Generator,
	windows ta.Windows,
	predictor *forecast.Predictor,
	signals *signal.Engine,
	engine *trading.Engine,
	pnl *trading.PnLTracker,
	directionSvc *direction.Service,
	detector *anomaly.Detector,
	redisClient RedisClient,
	horizon int,
) *SimService {
	if horizon <= 0 {
		horizon = 10
	}
	// A nil *redis.Client arriving through the interface is still a
	// non-nil interface value; treat it as cache disabled.
	if c, ok := redisClient.(*redis.Client); ok && c == nil {
		redisClient = nil
	}
	return &SimService{
		tracer:    tracer,
		gen:       gen,
		windows:   windows,
		predictor: predictor,
		signals:   signals,
		engine:    engine,
		pnl:       pnl,
		direction: directionSvc,
		anomaly:   detector,
		redis:     redisClient,
		horizon:   horizon,
		quotes:    make(map[string]domain.TickQuote),
	}
}

// RunCycle advances every symbol once and runs the full pipeline for each.
// Exit rules are evaluated before the cycle's signal, so a position opened
// this cycle is never closed by the same price print. Returns an error only
// on invariant violations; callers should stop the run then.
func (s *SimService) RunCycle(ctx context.Context) (domain.CycleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "sim-service.run-cycle")
	defer span.End()

	quotes := s.gen.AdvanceAll()
	result := domain.CycleResult{
		Ticks:       quotes,
		Predictions: make(map[string]domain.SymbolPrediction, len(quotes)),
	}

	for _, q := range quotes {
		s.quotes[q.Symbol] = q

		closes := s.gen.Closes(q.Symbol)
		ind := ta.Snapshot(closes, s.windows)

		history, err := s.gen.History(q.Symbol, 0)
		if err != nil {
			return result, err
		}
		fc := s.predictor.Forecast(history, s.horizon)
		sig := s.signals.Decide(ind, fc, q.Price)

		exit, err := s.engine.CheckExits(q.Symbol, q.Price)
		if err != nil {
			return result, err
		}
		if exit != nil {
			result.Trades = append(result.Trades, *exit)
		}

		fill, err := s.engine.ExecuteSignal(q.Symbol, sig, q.Price)
		if err != nil {
			return result, err
		}
		if fill != nil {
			result.Trades = append(result.Trades, *fill)
		}

		result.Predictions[q.Symbol] = domain.SymbolPrediction{
			Symbol:       q.Symbol,
			Signal:       sig.Action,
			Confidence:   sig.Confidence,
			Prediction:   fc.Horizon,
			Indicators:   ind,
			AnomalyScore: s.anomaly.Score(q.Symbol, closes),
			MLProbUp:     s.direction.ProbUp(q.Symbol, closes),
		}
	}

	result.Portfolio = s.engine.View(s.gen.CurrentPrices())
	s.pnl.Sample(result.Portfolio.TotalValue)

	if s.redis != nil {
		for _, q := range quotes {
			if err := s.setQuoteCache(ctx, q); err != nil {
				log.Printf("redis cache write error for %s: %v", q.Symbol, err)
			}
		}
	}

	return result, nil
}

// History returns up to limit retained price points for a symbol together
// with the forecast over the full retained window, so clients get the
// series and the projection in one call.
func (s *SimService) History(ctx context.Context, symbol string, limit int) ([]domain.PricePoint, domain.ForecastResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(ctx, "sim-service.history")
	defer span.End()

	points, err := s.gen.History(symbol, limit)
	if err != nil {
		return nil, domain.ForecastResult{}, err
	}
	full, err := s.gen.History(symbol, 0)
	if err != nil {
		return nil, domain.ForecastResult{}, err
	}
	return points, s.predictor.Forecast(full, s.horizon), nil
}

// Portfolio values the portfolio at the current prices.
func (s *SimService) Portfolio(ctx context.Context) domain.PortfolioView {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(ctx, "sim-service.portfolio")
	defer span.End()

	return s.engine.View(s.gen.CurrentPrices())
}

// PnL returns up to limit trailing portfolio value samples, oldest first.
func (s *SimService) PnL(ctx context.Context, limit int) []domain.PnLSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(ctx, "sim-service.pnl")
	defer span.End()

	return s.pnl.Recent(limit)
}

// Trades returns up to limit ledger entries, newest first.
func (s *SimService) Trades(ctx context.Context, limit int) []domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(ctx, "sim-service.trades")
	defer span.End()

	return s.engine.RecentTrades(limit)
}

// Performance aggregates the closed side of the trade ledger.
func (s *SimService) Performance(ctx context.Context) domain.PerformanceSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(ctx, "sim-service.performance")
	defer span.End()

	return s.engine.Performance()
}

// CloseSession force-closes every open position at current prices and
// samples the resulting all-cash portfolio value.
func (s *SimService) CloseSession(ctx context.Context) ([]domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(ctx, "sim-service.close-session")
	defer span.End()

	closed, err := s.engine.CloseAll(s.gen.CurrentPrices())
	if err != nil {
		return closed, err
	}
	view := s.engine.View(s.gen.CurrentPrices())
	s.pnl.Sample(view.TotalValue)
	log.Printf("session closed: %d positions liquidated, total value %.2f", len(closed), view.TotalValue)
	return closed, nil
}

// Refresh recalibrates the generator's noise scales and refits the
// advisory models on the retained history. Runs between cycles, never
// inside one.
func (s *SimService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(ctx, "sim-service.refresh")
	defer span.End()

	s.gen.Recalibrate()

	closesBySymbol := make(map[string][]float64)
	for _, sym := range s.gen.Symbols() {
		closesBySymbol[sym] = s.gen.Closes(sym)
	}
	s.direction.RetrainAll(closesBySymbol)
	s.anomaly.RefitAll(closesBySymbol)
	return nil
}

// CurrentPrices returns the latest price per tracked symbol.
func (s *SimService) CurrentPrices() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen.CurrentPrices()
}

// Symbols returns the tracked universe in generation order.
func (s *SimService) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen.Symbols()
}

// LatestQuote returns the most recent cycle's quote for a symbol. The
// Redis cache is consulted first so restarts can serve quotes from a
// still-warm cache; the in-memory copy is authoritative.
func (s *SimService) LatestQuote(ctx context.Context, symbol string) (domain.TickQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(ctx, "sim-service.latest-quote")
	defer span.End()

	if q, ok := s.quotes[symbol]; ok {
		return q, nil
	}
	if s.redis != nil {
		q, err := s.getQuoteCache(ctx, symbol)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if q != nil {
			return *q, nil
		}
	}
	// No cycle has run yet: fall back to the warmed-up last price.
	price, err := s.gen.LastPrice(symbol)
	if err != nil {
		return domain.TickQuote{}, err
	}
	return domain.TickQuote{Symbol: symbol, Price: price}, nil
}

func (s *SimService) setQuoteCache(ctx context.Context, q domain.TickQuote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, "tick:"+q.Symbol, data, quoteCacheTTL).Err()
}

func (s *SimService) getQuoteCache(ctx context.Context, symbol string) (*domain.TickQuote, error) {
	data, err := s.redis.Get(ctx, "tick:"+symbol).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var q domain.TickQuote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}
