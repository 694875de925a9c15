package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	RedisURL         string
	TelegramBotToken string
	APIKey           string

	Symbols      []string
	Seed         int64
	Drift        float64
	NoiseStd     float64
	Retention    int
	WarmupPoints int

	CyclePollSecs  int
	RefreshHourUTC int

	SMAShort  int
	SMALong   int
	RSIWindow int
	VolWindow int

	ForecastWindow     int
	ForecastMinSamples int
	ForecastHorizon    int

	MinForecastConfidence float64
	RSIOversold           float64
	RSIOverbought         float64

	MinTradeConfidence int
	TradeQty           int64
	MaxOpenPositions   int
	StopLossPct        float64
	TakeProfitPct      float64
	StartingCash       float64

	OpenAIAPIKey      string
	OpenAIModel       string
	AdvisorMaxHistory int
}

func Load() *Config {
	cfg := &Config{
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
	}

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, snapshot caching disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, advisor will be disabled")
	}

	cfg.Symbols = append([]string(nil), defaultSymbols...)
	if v := strings.TrimSpace(os.Getenv("SIM_SYMBOLS")); v != "" {
		var symbols []string
		for _, s := range strings.Split(v, ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s != "" {
				symbols = append(symbols, s)
			}
		}
		if len(symbols) > 0 {
			cfg.Symbols = symbols
		}
	}

	cfg.Seed = time.Now().UnixNano()
	if v := strings.TrimSpace(os.Getenv("SIM_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}

	cfg.Drift = 0.0
	if v := strings.TrimSpace(os.Getenv("SIM_DRIFT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > -1 && n < 1 {
			cfg.Drift = n
		}
	}

	cfg.NoiseStd = 0.001
	if v := strings.TrimSpace(os.Getenv("SIM_NOISE_STD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 && n < 0.1 {
			cfg.NoiseStd = n
		}
	}

	cfg.Retention = 200
	if v := strings.TrimSpace(os.Getenv("SIM_RETENTION")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retention = n
		}
	}

	cfg.WarmupPoints = 100
	if v := strings.TrimSpace(os.Getenv("SIM_WARMUP")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.WarmupPoints = n
		}
	}

	cfg.CyclePollSecs = 0
	if v := strings.TrimSpace(os.Getenv("CYCLE_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CyclePollSecs = n
		}
	}

	cfg.RefreshHourUTC = 0
	if v := strings.TrimSpace(os.Getenv("REFRESH_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.RefreshHourUTC = n
		}
	}

	cfg.SMAShort = intEnv("SMA_SHORT", 5)
	cfg.SMALong = intEnv("SMA_LONG", 20)
	cfg.RSIWindow = intEnv("RSI_WINDOW", 14)
	cfg.VolWindow = intEnv("VOL_WINDOW", 20)

	cfg.ForecastWindow = intEnv("FORECAST_WINDOW", 30)
	cfg.ForecastMinSamples = intEnv("FORECAST_MIN_SAMPLES", 10)
	cfg.ForecastHorizon = intEnv("FORECAST_HORIZON", 10)

	cfg.MinForecastConfidence = 0.30
	if v := strings.TrimSpace(os.Getenv("MIN_FORECAST_CONFIDENCE")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 && n <= 1 {
			cfg.MinForecastConfidence = n
		}
	}

	cfg.RSIOversold = 40
	if v := strings.TrimSpace(os.Getenv("RSI_OVERSOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 100 {
			cfg.RSIOversold = n
		}
	}

	cfg.RSIOverbought = 60
	if v := strings.TrimSpace(os.Getenv("RSI_OVERBOUGHT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 100 {
			cfg.RSIOverbought = n
		}
	}
	if cfg.RSIOversold >= cfg.RSIOverbought {
		log.Printf("Warning: RSI_OVERSOLD %.0f >= RSI_OVERBOUGHT %.0f, using defaults", cfg.RSIOversold, cfg.RSIOverbought)
		cfg.RSIOversold = 40
		cfg.RSIOverbought = 60
	}

	cfg.MinTradeConfidence = 30
	if v := strings.TrimSpace(os.Getenv("MIN_TRADE_CONFIDENCE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 100 {
			cfg.MinTradeConfidence = n
		}
	}

	cfg.TradeQty = 10
	if v := strings.TrimSpace(os.Getenv("TRADE_QTY")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.TradeQty = n
		}
	}

	cfg.MaxOpenPositions = intEnv("MAX_OPEN_POSITIONS", 5)

	cfg.StopLossPct = 0.02
	if v := strings.TrimSpace(os.Getenv("STOP_LOSS_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.StopLossPct = n
		}
	}

	cfg.TakeProfitPct = 0.04
	if v := strings.TrimSpace(os.Getenv("TAKE_PROFIT_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.TakeProfitPct = n
		}
	}

	cfg.StartingCash = 100000
	if v := strings.TrimSpace(os.Getenv("STARTING_CASH")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.StartingCash = n
		}
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.AdvisorMaxHistory = intEnv("ADVISOR_MAX_HISTORY", 20)

	return cfg
}

var defaultSymbols = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"}

func intEnv(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
