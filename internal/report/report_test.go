package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-trader/internal/types"
)

func rec(day int, action types.Action, price, qty, pnl string) types.TradeRecord {
	return types.TradeRecord{
		Time:       time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC),
		Symbol:     "BTCUSDT",
		Action:     action,
		Price:      decimal.RequireFromString(price),
		Quantity:   decimal.RequireFromString(qty),
		ProfitLoss: decimal.RequireFromString(pnl),
	}
}

func TestDailyAggregates(t *testing.T) {
	records := []types.TradeRecord{
		rec(2, types.ActionBuy, "100", "1", "-100"),
		rec(1, types.ActionBuy, "90", "1", "-90"),
		rec(2, types.ActionBuy, "110", "1", "-110"),
		rec(2, types.ActionSell, "120", "1", "120"),
	}
	rows := Daily(records)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-01", rows[0].Date)

	d := rows[1]
	assert.Equal(t, 3, d.Trades)
	assert.Equal(t, "105", d.BuyAvg().String())
	assert.Equal(t, "120", d.SellAvg().String())
	assert.Equal(t, "15", d.RealizedPnL().String())
	assert.Equal(t, "-90", d.LedgerPnL.String())
}

func TestWriteDay(t *testing.T) {
	dir := t.TempDir()
	records := []types.TradeRecord{
		rec(2, types.ActionBuy, "100", "0.5", "-50"),
		rec(2, types.ActionSell, "110", "0.5", "55"),
	}
	path, err := WriteDay(dir, time.Date(2024, 3, 2, 23, 0, 0, 0, time.UTC), records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2024-03-02.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	lines, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, headers, lines[0])
	assert.Equal(t, "5.00", lines[1][7])
	assert.Equal(t, "5.00", lines[1][8])
	assert.Equal(t, "TOTAL", lines[2][0])

	path, err = WriteDay(dir, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), records)
	require.NoError(t, err)
	assert.Empty(t, path)
}
