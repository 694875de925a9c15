// Command mcp runs the paper desk as an MCP server over stdio, giving
// agent clients read-only access to prices, history, the portfolio, and
// the trade ledger. The simulation is advanced by a background poller so
// the desk keeps moving while the server is up.
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"paperdesk/internal/anomaly"
	"paperdesk/internal/config"
	"paperdesk/internal/forecast"
	"paperdesk/internal/job"
	"paperdesk/internal/market"
	"paperdesk/internal/mcptool"
	"paperdesk/internal/ml/direction"
	"paperdesk/internal/service"
	"paperdesk/internal/signal"
	"paperdesk/internal/ta"
	"paperdesk/internal/trading"
	"paperdesk/pkg/tracing"
)

func main() {
	godotenv.Load()

	// Logs must not pollute the stdio transport.
	log.SetOutput(os.Stderr)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := tracing.InitTracer(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	gen := market.NewGenerator(market.Config{
		Symbols:   cfg.Symbols,
		Seed:      cfg.Seed,
		Drift:     cfg.Drift,
		NoiseStd:  cfg.NoiseStd,
		Retention: cfg.Retention,
		Warmup:    cfg.WarmupPoints,
	})

	sim := service.NewSimService(
		tracer,
		gen,
		ta.Windows{SMAShort: cfg.SMAShort, SMALong: cfg.SMALong, RSI: cfg.RSIWindow, Volatility: cfg.VolWindow},
		forecast.NewPredictor(forecast.Config{
			Window:     cfg.ForecastWindow,
			MinSamples: cfg.ForecastMinSamples,
			Degree:     2,
		}),
		signal.NewEngine(signal.Config{
			MinForecastConfidence: cfg.MinForecastConfidence,
			Oversold:              cfg.RSIOversold,
			Overbought:            cfg.RSIOverbought,
		}),
		trading.NewEngine(trading.Config{
			StartingCash:       cfg.StartingCash,
			TradeQty:           cfg.TradeQty,
			MaxOpenPositions:   cfg.MaxOpenPositions,
			MinTradeConfidence: cfg.MinTradeConfidence,
			StopLossPct:        cfg.StopLossPct,
			TakeProfitPct:      cfg.TakeProfitPct,
		}),
		trading.NewPnLTracker(),
		direction.NewService(direction.DefaultTrainOptions()),
		anomaly.NewDetector(),
		nil,
		cfg.ForecastHorizon,
	)

	pollSecs := cfg.CyclePollSecs
	if pollSecs <= 0 {
		pollSecs = 5
	}
	go job.NewCyclePoller(tracer, sim, pollSecs).Start(ctx)

	server := mcptool.NewServer(sim, "1.0.0")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
