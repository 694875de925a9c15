package market

import (
	"math"
	"math/rand"
	"time"

	"paperdesk/internal/domain"
)

const (
	// Per-tick move is clamped to this band around the previous price.
	maxMovePct = 0.05
	// Prices never fall below this fraction of the symbol's base price.
	floorPct = 0.10

	halfSpreadPct = 0.0005

	volumeMin = 100_000
	volumeMax = 5_000_000
)

// Config fixes the generator parameters for one run.
type Config struct {
	Symbols   []string
	Seed      int64
	Drift     float64
	NoiseStd  float64
	Retention int
	Warmup    int
}

// Generator produces the synthetic price series for the tracked universe.
// Each call to Advance draws next = last * (1 + drift + noise) from a
// single seeded source, so a fixed seed reproduces the full run. Histories
// are bounded: beyond the retention window the oldest points are evicted.
//
// Generator is not safe for concurrent use; the owning service serializes
// access behind its cycle lock.
type Generator struct {
	symbols   []string
	base      map[string]float64
	last      map[string]float64
	noise     map[string]float64
	history   map[string][]domain.PricePoint
	seq       map[string]int64
	rng       *rand.Rand
	drift     float64
	retention int
	now       func() time.Time
}

func NewGenerator(cfg Config) *Generator {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = append([]string(nil), domain.DefaultSymbols...)
	}
	if cfg.NoiseStd < 0 {
		cfg.NoiseStd = 0.001
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 200
	}

	g := &Generator{
		symbols:   append([]string(nil), cfg.Symbols...),
		base:      make(map[string]float64, len(cfg.Symbols)),
		last:      make(map[string]float64, len(cfg.Symbols)),
		noise:     make(map[string]float64, len(cfg.Symbols)),
		history:   make(map[string][]domain.PricePoint, len(cfg.Symbols)),
		seq:       make(map[string]int64, len(cfg.Symbols)),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		drift:     cfg.Drift,
		retention: cfg.Retention,
		now:       time.Now,
	}

	for _, s := range g.symbols {
		base, ok := domain.BasePrices[s]
		if !ok {
			base = domain.DefaultBasePrice
		}
		g.base[s] = base
		g.last[s] = base
		g.noise[s] = cfg.NoiseStd
	}

	for i := 0; i < cfg.Warmup; i++ {
		for _, s := range g.symbols {
			g.advance(s)
		}
	}

	return g
}

// Symbols returns the tracked universe in generation order.
func (g *Generator) Symbols() []string {
	return append([]string(nil), g.symbols...)
}

// Advance produces the next price point for one symbol and appends it to
// that symbol's history.
func (g *Generator) Advance(symbol string) (domain.PricePoint, error) {
	if _, ok := g.last[symbol]; !ok {
		return domain.PricePoint{}, domain.ErrUnknownSymbol
	}
	return g.advance(symbol), nil
}

// AdvanceAll advances every symbol once, in fixed universe order, and
// returns the resulting quotes with change, volume, and bid/ask fields.
func (g *Generator) AdvanceAll() []domain.TickQuote {
	quotes := make([]domain.TickQuote, 0, len(g.symbols))
	for _, s := range g.symbols {
		prev := g.last[s]
		point := g.advance(s)

		spread := point.Price * halfSpreadPct
		quotes = append(quotes, domain.TickQuote{
			Symbol:    s,
			Price:     point.Price,
			Change:    point.Price - prev,
			ChangePct: (point.Price - prev) / prev * 100,
			Volume:    point.Volume,
			Bid:       point.Price - spread,
			Ask:       point.Price + spread,
			Timestamp: point.Timestamp.Unix(),
		})
	}
	return quotes
}

func (g *Generator) advance(symbol string) domain.PricePoint {
	last := g.last[symbol]
	noise := g.rng.NormFloat64() * g.noise[symbol]
	next := last * (1 + g.drift + noise)

	// Bound the per-tick move, then enforce the hard positive floor.
	next = math.Min(next, last*(1+maxMovePct))
	next = math.Max(next, last*(1-maxMovePct))
	next = math.Max(next, g.base[symbol]*floorPct)

	seq := g.seq[symbol]
	g.seq[symbol] = seq + 1
	g.last[symbol] = next

	point := domain.PricePoint{
		Symbol:    symbol,
		Seq:       seq,
		Price:     next,
		Volume:    volumeMin + g.rng.Int63n(volumeMax-volumeMin+1),
		Timestamp: g.now(),
	}

	buf := append(g.history[symbol], point)
	if len(buf) > g.retention {
		buf = buf[len(buf)-g.retention:]
	}
	g.history[symbol] = buf

	return point
}

// History returns up to the last n retained points for a symbol.
func (g *Generator) History(symbol string, n int) ([]domain.PricePoint, error) {
	buf, ok := g.history[symbol]
	if !ok {
		return nil, domain.ErrUnknownSymbol
	}
	if n <= 0 || n > len(buf) {
		n = len(buf)
	}
	out := make([]domain.PricePoint, n)
	copy(out, buf[len(buf)-n:])
	return out, nil
}

// Closes returns the retained close series for a symbol, oldest first.
func (g *Generator) Closes(symbol string) []float64 {
	buf := g.history[symbol]
	out := make([]float64, len(buf))
	for i, p := range buf {
		out[i] = p.Price
	}
	return out
}

// LastPrice returns the current price for a symbol.
func (g *Generator) LastPrice(symbol string) (float64, error) {
	p, ok := g.last[symbol]
	if !ok {
		return 0, domain.ErrUnknownSymbol
	}
	return p, nil
}

// CurrentPrices returns the current price for every tracked symbol.
func (g *Generator) CurrentPrices() map[string]float64 {
	out := make(map[string]float64, len(g.last))
	for s, p := range g.last {
		out[s] = p
	}
	return out
}

// Recalibrate re-derives each symbol's noise scale from its realized
// volatility over the retained history, keeping the scale inside a sane
// band. Called by the daily refresh task, never mid-cycle.
func (g *Generator) Recalibrate() {
	const lo, hi = 0.0005, 0.005
	for _, s := range g.symbols {
		closes := g.Closes(s)
		if len(closes) < 2 {
			continue
		}
		returns := make([]float64, 0, len(closes)-1)
		for i := 1; i < len(closes); i++ {
			returns = append(returns, closes[i]/closes[i-1]-1)
		}
		var mean float64
		for _, r := range returns {
			mean += r
		}
		mean /= float64(len(returns))
		var variance float64
		for _, r := range returns {
			d := r - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(len(returns)))
		if std == 0 {
			continue
		}
		g.noise[s] = math.Min(math.Max(std, lo), hi)
	}
}
