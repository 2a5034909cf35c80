// Command history prints the ledger summary and recent trades, and writes today's
// per-day report.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/ledger"
	"signal-trader/internal/logger"
	"signal-trader/internal/report"
	"signal-trader/internal/store"
)

const recentTrades = 5

func main() {
	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	st, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open ledger: %v", err)
	}
	defer closeStore()

	l := ledger.Open(ctx, st)
	records := l.Records()
	if len(records) == 0 {
		fmt.Println("No trading history found.")
		return
	}

	s := l.Summary()
	fmt.Println("=== Performance Summary ===")
	fmt.Printf("Total trades:       %d\n", s.TotalTrades)
	fmt.Printf("Buy / sell trades:  %d / %d\n", s.BuyTrades, s.SellTrades)
	fmt.Printf("Total P/L:          %s\n", s.TotalProfitLoss.StringFixed(2))
	fmt.Printf("Average P/L:        %s\n", s.AverageProfitLoss.StringFixed(2))
	fmt.Printf("Win rate:           %s%%\n", s.WinRate.StringFixed(2))
	fmt.Println()

	fmt.Printf("=== Last %d Trades ===\n", recentTrades)
	for _, r := range l.Recent(recentTrades) {
		fmt.Printf("%s  %-4s %s @ %s  P/L %s  [%s]\n",
			r.Time.UTC().Format(time.RFC3339), r.Action,
			r.Quantity.String(), r.Price.StringFixed(2),
			r.ProfitLoss.StringFixed(2), r.OrderID)
	}

	path, err := report.WriteDay(cfg.Report.Dir, time.Now(), records)
	if err != nil {
		log.Fatalf("write report: %v", err)
	}
	if path != "" {
		fmt.Println()
		fmt.Println("Daily report written:", path)
	}
}

func openStore(cfg *store.Config) (interfaces.LedgerStore, func(), error) {
	if cfg.Ledger.Backend == "SQLITE" {
		s, err := ledger.OpenSQLStore(cfg.Ledger.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	return ledger.NewCSVStore(cfg.Ledger.Path), func() {}, nil
}
