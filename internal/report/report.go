// Package report writes per-day CSV summaries of the trade ledger.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"signal-trader/internal/types"
)

// DayRow aggregates one symbol's trades on one UTC day.
type DayRow struct {
	Date      string
	Symbol    string
	Trades    int
	BuyQty    decimal.Decimal
	BuyValue  decimal.Decimal
	SellQty   decimal.Decimal
	SellValue decimal.Decimal
	// LedgerPnL sums the ledger's per-trade P/L convention.
	LedgerPnL decimal.Decimal
}

func (r DayRow) BuyAvg() decimal.Decimal {
	if r.BuyQty.IsZero() {
		return decimal.Zero
	}
	return r.BuyValue.Div(r.BuyQty)
}

func (r DayRow) SellAvg() decimal.Decimal {
	if r.SellQty.IsZero() {
		return decimal.Zero
	}
	return r.SellValue.Div(r.SellQty)
}

// RealizedPnL prices the matched quantity at the difference of average sell and buy prices.
func (r DayRow) RealizedPnL() decimal.Decimal {
	matched := decimal.Min(r.BuyQty, r.SellQty)
	return matched.Mul(r.SellAvg().Sub(r.BuyAvg()))
}

// Daily groups records by UTC day and symbol, oldest day first.
func Daily(records []types.TradeRecord) []DayRow {
	rows := map[string]*DayRow{}
	for _, rec := range records {
		date := rec.Time.UTC().Format("2006-01-02")
		key := date + "|" + rec.Symbol
		row := rows[key]
		if row == nil {
			row = &DayRow{Date: date, Symbol: rec.Symbol}
			rows[key] = row
		}
		row.Trades++
		value := rec.Price.Mul(rec.Quantity)
		switch rec.Action {
		case types.ActionBuy:
			row.BuyQty = row.BuyQty.Add(rec.Quantity)
			row.BuyValue = row.BuyValue.Add(value)
		case types.ActionSell:
			row.SellQty = row.SellQty.Add(rec.Quantity)
			row.SellValue = row.SellValue.Add(value)
		}
		row.LedgerPnL = row.LedgerPnL.Add(rec.ProfitLoss)
	}

	out := make([]DayRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

var headers = []string{"date", "symbol", "trades", "buy_qty", "buy_avg", "sell_qty", "sell_avg", "realized_pnl", "ledger_pnl", "gross_buy_value", "gross_sell_value"}

// WriteDay writes the rows for day to dir/YYYY-MM-DD.csv with a TOTAL line.
// It returns an empty path when there were no trades that day.
func WriteDay(dir string, day time.Time, records []types.TradeRecord) (string, error) {
	date := day.UTC().Format("2006-01-02")
	var rows []DayRow
	for _, r := range Daily(records) {
		if r.Date == date {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return "", nil
	}

	outPath := filepath.Join(dir, date+".csv")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(headers); err != nil {
		return "", err
	}
	var totalBuy, totalSell, totalRealized, totalLedger decimal.Decimal
	trades := 0
	for _, r := range rows {
		rec := []string{
			r.Date, r.Symbol, fmt.Sprint(r.Trades),
			r.BuyQty.String(), r.BuyAvg().StringFixed(4),
			r.SellQty.String(), r.SellAvg().StringFixed(4),
			r.RealizedPnL().StringFixed(2), r.LedgerPnL.StringFixed(2),
			r.BuyValue.StringFixed(2), r.SellValue.StringFixed(2),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		trades += r.Trades
		totalBuy = totalBuy.Add(r.BuyValue)
		totalSell = totalSell.Add(r.SellValue)
		totalRealized = totalRealized.Add(r.RealizedPnL())
		totalLedger = totalLedger.Add(r.LedgerPnL)
	}
	if err := w.Write([]string{"TOTAL", "", fmt.Sprint(trades), "", "", "", "", totalRealized.StringFixed(2), totalLedger.StringFixed(2), totalBuy.StringFixed(2), totalSell.StringFixed(2)}); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}
