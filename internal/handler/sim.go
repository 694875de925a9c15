package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"paperdesk/internal/domain"
	"paperdesk/internal/trading"
)

// Tick godoc
// @Summary      Advance the simulation by one cycle
// @Description  Generates one price tick per symbol, recomputes indicators and forecasts, applies exits and fills, and returns the full cycle result
// @Tags         simulation
// @Produce      json
// @Success      200  {object}  domain.CycleResult
// @Failure      500  {object}  map[string]string
// @Router       /api/tick [get]
func (h *Handler) Tick(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.tick")
	defer span.End()

	result, err := h.sim.RunCycle(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, trading.ErrInvariantViolation) {
			span.SetAttributes(attribute.Bool("invariant_violation", true))
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetHistory godoc
// @Summary      Get recent price history for a symbol
// @Description  Returns up to limit retained price points, oldest first, plus the latest forecast
// @Tags         simulation
// @Produce      json
// @Param        symbol  path   string  true   "Symbol (e.g., AAPL)"
// @Param        limit   query  int     false  "Number of points (default 100, max 500)"  default(100)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/history/{symbol} [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	limit := 100
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	points, fc, err := h.sim.History(ctx, symbol, limit)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSymbol) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "unknown symbol: " + symbol,
				"supported_symbols": h.sim.Symbols(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":     symbol,
		"history":    points,
		"prediction": fc,
	})
}

// GetPortfolio godoc
// @Summary      Get the current portfolio
// @Description  Returns cash, open positions, and total value at current prices
// @Tags         portfolio
// @Produce      json
// @Success      200  {object}  domain.PortfolioView
// @Router       /api/portfolio [get]
func (h *Handler) GetPortfolio(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-portfolio")
	defer span.End()

	c.JSON(http.StatusOK, h.sim.Portfolio(ctx))
}

// GetPnL godoc
// @Summary      Get the portfolio value series
// @Description  Returns up to limit trailing per-cycle portfolio value samples, oldest first
// @Tags         portfolio
// @Produce      json
// @Param        limit  query  int  false  "Number of samples (default all)"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/pnl [get]
func (h *Handler) GetPnL(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-pnl")
	defer span.End()

	limit := 0
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	c.JSON(http.StatusOK, gin.H{"pnl": h.sim.PnL(ctx, limit)})
}

// GetTrades godoc
// @Summary      Get recent trades
// @Description  Returns up to limit trade ledger entries, newest first
// @Tags         portfolio
// @Produce      json
// @Param        limit  query  int  false  "Number of trades (default 50, max 500)"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Router       /api/trades [get]
func (h *Handler) GetTrades(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-trades")
	defer span.End()

	limit := 50
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	c.JSON(http.StatusOK, gin.H{"trades": h.sim.Trades(ctx, limit)})
}

// GetPerformance godoc
// @Summary      Get trade performance statistics
// @Description  Returns win rate and realized pnl aggregates over the closed trades
// @Tags         portfolio
// @Produce      json
// @Success      200  {object}  domain.PerformanceSummary
// @Router       /api/performance [get]
func (h *Handler) GetPerformance(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-performance")
	defer span.End()

	c.JSON(http.StatusOK, h.sim.Performance(ctx))
}

// CloseSession godoc
// @Summary      Close the trading session
// @Description  Force-closes every open position at current prices and returns the closing trades
// @Tags         portfolio
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/session/close [post]
func (h *Handler) CloseSession(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.close-session")
	defer span.End()

	closed, err := h.sim.CloseSession(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"closed_trades": closed,
		"portfolio":     h.sim.Portfolio(ctx),
	})
}
