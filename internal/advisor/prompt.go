package advisor

import (
	"fmt"
	"strings"
	"time"

	"paperdesk/internal/domain"
)

const deskPhilosophy = `You are the assistant for a simulated intraday paper-trading desk. All prices are synthetic and all trades are paper fills. Your role is to explain what the desk's signals and portfolio are doing, NOT to generate signals yourself.

Rules:
- Always reference the specific prices, positions, and trades you are given.
- Never fabricate data. If data is unavailable, say so.
- The desk goes long only: BUY opens a position, SELL closes it, and stop loss / take profit exits fire automatically.
- When asked about a symbol, summarize: current price, whether the desk holds it, and recent trades in it.
- Remind the user this is a simulation only if they appear to treat it as real money.
- Keep responses concise. You are talking via Telegram.`

func BuildSystemPrompt(marketContext string) string {
	var sb strings.Builder
	sb.WriteString(deskPhilosophy)
	sb.WriteString("\n\n--- DESK STATE (as of ")
	sb.WriteString(time.Now().UTC().Format(time.RFC822))
	sb.WriteString(") ---\n")
	sb.WriteString(marketContext)
	return sb.String()
}

func FormatMarketContext(quotes []domain.TickQuote, portfolio domain.PortfolioView, trades []domain.Trade) string {
	var sb strings.Builder

	if len(quotes) > 0 {
		sb.WriteString("\nCurrent Prices:\n")
		for _, q := range quotes {
			sb.WriteString(fmt.Sprintf("  %s: $%.2f (%+.2f%%, vol: %d)\n",
				q.Symbol, q.Price, q.ChangePct, q.Volume))
		}
	}

	sb.WriteString(fmt.Sprintf("\nPortfolio: cash $%.2f, total $%.2f, pnl %+.2f%%\n",
		portfolio.Cash, portfolio.TotalValue, portfolio.PnLPct))
	if len(portfolio.Positions) > 0 {
		sb.WriteString("Open Positions:\n")
		for _, p := range portfolio.Positions {
			sb.WriteString(fmt.Sprintf("  %s x%d @ $%.2f (stop $%.2f, take $%.2f)\n",
				p.Symbol, p.Quantity, p.EntryPrice, p.StopLoss, p.TakeProfit))
		}
	} else {
		sb.WriteString("Open Positions: none\n")
	}

	if len(trades) > 0 {
		sb.WriteString("Recent Trades:\n")
		for _, t := range trades {
			line := fmt.Sprintf("  #%d %s %s x%d @ $%.2f (%s)",
				t.ID, t.Action, t.Symbol, t.Quantity, t.Price, t.Reason)
			if t.RealizedPnL != nil {
				line += fmt.Sprintf(" pnl %+.2f", *t.RealizedPnL)
			}
			sb.WriteString(line + "\n")
		}
	}

	return sb.String()
}
