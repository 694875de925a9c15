package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"paperdesk/internal/advisor"
	"paperdesk/internal/anomaly"
	"paperdesk/internal/bot"
	"paperdesk/internal/cache"
	"paperdesk/internal/config"
	"paperdesk/internal/forecast"
	"paperdesk/internal/handler"
	"paperdesk/internal/job"
	"paperdesk/internal/market"
	"paperdesk/internal/ml/direction"
	"paperdesk/internal/service"
	"paperdesk/internal/signal"
	"paperdesk/internal/ta"
	"paperdesk/internal/trading"
	"paperdesk/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "paperdesk/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newSimFunc             = service.NewSimService
	newPollerFunc          = job.NewCyclePoller
	startPollerFunc        = func(p *job.CyclePoller, ctx context.Context) { go p.Start(ctx) }
	newRefreshJobFunc      = job.NewRefreshJob
	startRefreshJobFunc    = func(j *job.RefreshJob, ctx context.Context) { go j.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Paperdesk API
// @version         1.0
// @description     A simulated intraday paper-trading desk with OpenTelemetry tracing.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Redis (optional, quote cache only). Leave the interface nil
	// when no client was created so the service skips the cache.
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initRedisFunc(ctx)
	var quoteCache service.RedisClient
	if cache.Client != nil {
		quoteCache = cache.Client
	}

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Build the simulation pipeline
	gen := market.NewGenerator(market.Config{
		Symbols:   cfg.Symbols,
		Seed:      cfg.Seed,
		Drift:     cfg.Drift,
		NoiseStd:  cfg.NoiseStd,
		Retention: cfg.Retention,
		Warmup:    cfg.WarmupPoints,
	})
	log.Printf("market generator seeded with %d (%d symbols, %d warmup points)", cfg.Seed, len(cfg.Symbols), cfg.WarmupPoints)

	sim := newSimFunc(
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
		quoteCache,
		cfg.ForecastHorizon,
	)

	// Self-driving mode: advance cycles on a timer when configured;
	// otherwise /api/tick drives the simulation.
	if cfg.CyclePollSecs > 0 {
		poller := newPollerFunc(tracer, sim, cfg.CyclePollSecs)
		startPollerFunc(poller, ctx)
	}

	// Daily recalibration and advisory model refit
	refreshJob := newRefreshJobFunc(tracer, sim, cfg.RefreshHourUTC)
	startRefreshJobFunc(refreshJob, ctx)

	// Advisor (optional, needs an OpenAI key)
	var adv *advisor.AdvisorService
	if cfg.OpenAIAPIKey != "" {
		adv = advisor.NewAdvisorService(
			tracer,
			advisor.NewOpenAIClient(cfg.OpenAIAPIKey),
			sim,
			advisor.NewMemoryConversationStore(),
			cfg.OpenAIModel,
			cfg.AdvisorMaxHistory,
		)
	}

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(sim, adv)

	// Create handlers and routes
	h := newHandlerFunc(tracer, sim)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("paperdesk"))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
