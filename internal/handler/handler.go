package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"paperdesk/internal/service"
)

type Handler struct {
	tracer trace.Tracer
	sim    *service.SimService
}

func New(tracer trace.Tracer, sim *service.SimService) *Handler {
	return &Handler{
		tracer: tracer,
		sim:    sim,
	}
}

// RegisterRoutes wires the simulation API. Only the session-close route
// mutates state outside the regular cycle, so it alone sits behind the
// API key check.
func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)
	r.GET("/api/tick", h.Tick)
	r.GET("/api/history/:symbol", h.GetHistory)
	r.GET("/api/portfolio", h.GetPortfolio)
	r.GET("/api/pnl", h.GetPnL)
	r.GET("/api/trades", h.GetTrades)
	r.GET("/api/performance", h.GetPerformance)
	r.POST("/api/session/close", APIKeyAuth(apiKey), h.CloseSession)
}
