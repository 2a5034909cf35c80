package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-trader/internal/types"
)

func TestSQLStoreReplacesTablesOnSave(t *testing.T) {
	store, err := OpenSQLStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	l := Open(ctx, store)
	_, err = l.Append(ctx, types.TradeRecord{Action: types.ActionBuy, Price: d("100"), Quantity: d("0.001"), Time: time.Unix(1, 0).UTC()})
	require.NoError(t, err)
	_, err = l.Append(ctx, types.TradeRecord{Action: types.ActionSell, Price: d("120"), Quantity: d("0.001"), Time: time.Unix(2, 0).UTC()})
	require.NoError(t, err)

	recs, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, types.ActionBuy, recs[0].Action)
	assert.True(t, recs[0].ProfitLoss.Equal(d("-0.1")), recs[0].ProfitLoss.String())
	assert.True(t, recs[1].ProfitLoss.Equal(d("0.12")))

	sum, err := store.LastSummary(ctx)
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, 2, sum.TotalTrades)
	assert.True(t, sum.WinRate.Equal(d("50")))
}
