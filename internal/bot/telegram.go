package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"paperdesk/internal/advisor"
	"paperdesk/internal/service"
)

func StartTelegramBot(sim *service.SimService, adv *advisor.AdvisorService) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price AAPL\nTracked: %s", strings.Join(sim.Symbols(), ", ")))
		}
		symbol := strings.ToUpper(args[0])
		quote, err := sim.LatestQuote(context.Background(), symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nTracked: %s", symbol, strings.Join(sim.Symbols(), ", ")))
		}
		msg := fmt.Sprintf(
			"%s (simulated)\nPrice: $%.2f\nChange: %+.2f%%\nBid/Ask: $%.2f / $%.2f",
			symbol, quote.Price, quote.ChangePct, quote.Bid, quote.Ask,
		)
		return c.Send(msg)
	})

	b.Handle("/portfolio", func(c tele.Context) error {
		view := sim.Portfolio(context.Background())
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Paper Portfolio\nCash: $%.2f\nTotal: $%.2f (%+.2f%%)\n", view.Cash, view.TotalValue, view.PnLPct))
		if len(view.Positions) == 0 {
			sb.WriteString("No open positions")
		} else {
			sb.WriteString("Positions:\n")
			for _, p := range view.Positions {
				sb.WriteString(fmt.Sprintf("  %s x%d @ $%.2f\n", p.Symbol, p.Quantity, p.EntryPrice))
			}
		}
		return c.Send(sb.String())
	})

	b.Handle("/trades", func(c tele.Context) error {
		trades := sim.Trades(context.Background(), 10)
		if len(trades) == 0 {
			return c.Send("No trades yet")
		}
		var sb strings.Builder
		sb.WriteString("Recent Trades:\n")
		for _, t := range trades {
			line := fmt.Sprintf("#%d %s %s x%d @ $%.2f (%s)", t.ID, t.Action, t.Symbol, t.Quantity, t.Price, t.Reason)
			if t.RealizedPnL != nil {
				line += fmt.Sprintf(" pnl %+.2f", *t.RealizedPnL)
			}
			sb.WriteString(line + "\n")
		}
		return c.Send(sb.String())
	})

	b.Handle("/ask", func(c tele.Context) error {
		if adv == nil {
			return c.Send("Advisor is not configured (OPENAI_API_KEY not set)")
		}
		question := strings.TrimSpace(strings.Join(c.Args(), " "))
		if question == "" {
			return c.Send("Usage: /ask should I worry about the TSLA position?")
		}
		reply, err := adv.Ask(context.Background(), c.Chat().ID, question)
		if err != nil {
			log.Printf("advisor error: %v", err)
			return c.Send("Advisor is unavailable right now, try again later")
		}
		return c.Send(reply)
	})

	log.Println("Telegram bot started")
	go b.Start()
}
