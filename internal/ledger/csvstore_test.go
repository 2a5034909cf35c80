package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-trader/internal/types"
)

func TestCSVStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trading_history.csv")
	store := NewCSVStore(path)
	ts := time.Date(2024, 3, 9, 16, 0, 0, 0, time.UTC)

	recs := []types.TradeRecord{
		{Time: ts, Symbol: "BTCUSDT", Action: types.ActionBuy, Price: d("64000.5"), Quantity: d("0.001"), ProfitLoss: d("-64.0005"), OrderID: "42", Reasoning: "momentum, \"strong\"\nsecond line"},
		{Time: ts.Add(8 * time.Hour), Symbol: "BTCUSDT", Action: types.ActionSell, Price: d("65000"), Quantity: d("0.001"), ProfitLoss: d("65"), OrderID: "43"},
	}
	require.NoError(t, store.Save(context.Background(), recs, ComputeSummary(recs, ts)))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[0].Reasoning, got[0].Reasoning)
	assert.True(t, got[0].Price.Equal(recs[0].Price))
	assert.True(t, got[1].ProfitLoss.Equal(d("65")))
	assert.True(t, got[0].Time.Equal(ts))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "performance,2,1,1,")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestCSVStoreCorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("trade,not-a-time,BUY,1,1,-1,x,y,z\n"), 0o644))

	l := Open(context.Background(), NewCSVStore(path))
	assert.Empty(t, l.Records())

	_, err := os.Stat(path + ".corrupt")
	assert.NoError(t, err)

	_, err = l.Append(context.Background(), types.TradeRecord{Action: types.ActionSell, Price: d("100"), Quantity: d("0.01")})
	require.NoError(t, err)

	reloaded, err := NewCSVStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, reloaded, 1)
}

func TestCSVStoreLoadErrors(t *testing.T) {
	cases := map[string]string{
		"unknown section": "bogus,1,2\n",
		"short trade":     "trade,2024-01-01T00:00:00Z,BUY\n",
		"bad action":      "trade,2024-01-01T00:00:00Z,HOLD,1,1,0,,,\n",
		"bad decimal":     "trade,2024-01-01T00:00:00Z,BUY,abc,1,0,,,\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ledger.csv")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := NewCSVStore(path).Load(context.Background())
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}
