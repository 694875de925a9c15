package mcptool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"paperdesk/internal/domain"
	"paperdesk/internal/service"
)

// NewServer exposes the simulation read-only over MCP so agent clients can
// inspect the desk. Tools never advance the simulation or place trades.
func NewServer(sim *service.SimService, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "paperdesk",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_prices",
		Description: "Current simulated price for every tracked symbol",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in struct{}) (*mcp.CallToolResult, PricesResult, error) {
		return nil, PricesResult{Prices: sim.CurrentPrices()}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_portfolio",
		Description: "Cash, open positions, and total portfolio value at current prices",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in struct{}) (*mcp.CallToolResult, domain.PortfolioView, error) {
		return nil, sim.Portfolio(ctx), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_pnl",
		Description: "Per-cycle portfolio value series, oldest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in LimitInput) (*mcp.CallToolResult, PnLResult, error) {
		return nil, PnLResult{PnL: sim.PnL(ctx, in.Limit)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_trades",
		Description: "Trade ledger entries, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in LimitInput) (*mcp.CallToolResult, TradesResult, error) {
		return nil, TradesResult{Trades: sim.Trades(ctx, in.Limit)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_history",
		Description: "Recent simulated price points for one symbol, oldest first, plus the latest forecast",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in HistoryInput) (*mcp.CallToolResult, HistoryResult, error) {
		points, fc, err := sim.History(ctx, in.Symbol, in.Limit)
		if err != nil {
			return nil, HistoryResult{}, err
		}
		return nil, HistoryResult{Symbol: in.Symbol, History: points, Prediction: fc}, nil
	})

	return server
}

type LimitInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries to return, 0 for all"`
}

type HistoryInput struct {
	Symbol string `json:"symbol" jsonschema:"tracked symbol, e.g. AAPL"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of points to return, 0 for all"`
}

type PricesResult struct {
	Prices map[string]float64 `json:"prices"`
}

type PnLResult struct {
	PnL []domain.PnLSample `json:"pnl"`
}

type TradesResult struct {
	Trades []domain.Trade `json:"trades"`
}

type HistoryResult struct {
	Symbol     string                `json:"symbol"`
	History    []domain.PricePoint   `json:"history"`
	Prediction domain.ForecastResult `json:"prediction"`
}
