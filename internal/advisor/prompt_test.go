package advisor

import (
	"strings"
	"testing"

	"paperdesk/internal/domain"
)

func TestBuildSystemPromptIncludesContext(t *testing.T) {
	t.Parallel()

	prompt := BuildSystemPrompt("AAPL: $180.00")
	if !strings.Contains(prompt, "AAPL: $180.00") {
		t.Fatal("market context missing from prompt")
	}
	if !strings.Contains(prompt, "paper-trading desk") {
		t.Fatal("desk philosophy missing from prompt")
	}
}

func TestFormatMarketContext(t *testing.T) {
	t.Parallel()

	pnl := 42.50
	got := FormatMarketContext(
		[]domain.TickQuote{{Symbol: "AAPL", Price: 180.25, ChangePct: 0.4, Volume: 1200000}},
		domain.PortfolioView{
			Cash:       98197.50,
			TotalValue: 100042.50,
			PnLPct:     0.0425,
			Positions: map[string]domain.Position{
				"AAPL": {Symbol: "AAPL", Quantity: 10, EntryPrice: 176.00, StopLoss: 172.48, TakeProfit: 183.04},
			},
		},
		[]domain.Trade{{ID: 3, Symbol: "AAPL", Action: domain.ActionSell, Quantity: 10, Price: 180.25, RealizedPnL: &pnl, Reason: "take profit"}},
	)

	for _, want := range []string{"AAPL: $180.25", "total $100042.50", "x10 @ $176.00", "#3 SELL AAPL", "pnl +42.50"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in context:\n%s", want, got)
		}
	}
}

func TestFormatMarketContextEmptyDesk(t *testing.T) {
	t.Parallel()

	got := FormatMarketContext(nil, domain.PortfolioView{Cash: 100000, TotalValue: 100000}, nil)
	if !strings.Contains(got, "Open Positions: none") {
		t.Fatalf("expected flat-desk summary, got:\n%s", got)
	}
}
