package decision

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"signal-trader/internal/types"
)

type mockReasoner struct{ mock.Mock }

func (m *mockReasoner) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func TestDecideParsesProviderText(t *testing.T) {
	r := &mockReasoner{}
	r.On("Complete", mock.Anything, "sys", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "MARKET DATA") && strings.Contains(p, "Recommendation")
	})).Return("4. Recommendation: BUY\n6. Confidence Level: 8/10", nil)

	e := NewEngine(r, "sys", DefaultLimits(), time.Second)
	d := e.Decide(context.Background(), types.MarketSnapshot{Symbol: "BTCUSDT", LastPrice: 50000}, nil, nil, nil)

	assert.Equal(t, types.ActionBuy, d.Action)
	require.NotNil(t, d.Confidence)
	assert.InDelta(t, 80.0, *d.Confidence, 1e-9)
	r.AssertExpectations(t)
}

func TestDecideProviderErrorHolds(t *testing.T) {
	r := &mockReasoner{}
	r.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

	d := NewEngine(r, "sys", DefaultLimits(), 0).Decide(context.Background(), types.MarketSnapshot{Symbol: "BTCUSDT"}, nil, nil, nil)
	assert.Equal(t, types.ActionHold, d.Action)
	assert.Contains(t, d.Reasoning, "rate limited")
	assert.Nil(t, d.Confidence)
}

func TestBuildPromptBoundsContext(t *testing.T) {
	change := 2.5
	snap := types.MarketSnapshot{
		Symbol:    "BTCUSDT",
		LastPrice: 64000,
		Change24h: &change,
		Trend:     &types.TrendStats{Count: 24, Mean: 63000, RSI: 55},
	}
	var news []types.NewsItem
	for i := 0; i < 8; i++ {
		news = append(news, types.NewsItem{Title: "headline " + string(rune('A'+i))})
	}
	var posts []types.SentimentSample
	for i := 0; i < 7; i++ {
		posts = append(posts, types.SentimentSample{Text: "post", AuthorHandle: "CoinDesk"})
	}
	var history []types.TradeRecord
	for i := 0; i < 9; i++ {
		history = append(history, types.TradeRecord{
			Time:     time.Date(2024, 3, 1, i, 0, 0, 0, time.UTC),
			Action:   types.ActionBuy,
			Price:    decimal.NewFromInt(100),
			Quantity: decimal.RequireFromString("0.001"),
		})
	}

	p := BuildPrompt(snap, news, posts, history, Limits{MaxHeadlines: 3, MaxSentiment: 5, History: 2})

	assert.Contains(t, p, "24h Price Change: 2.50%")
	assert.Contains(t, p, "RSI(14) 55.0")
	assert.Contains(t, p, "headline C")
	assert.NotContains(t, p, "headline D")
	assert.Equal(t, 5, strings.Count(p, "@CoinDesk"))
	assert.Equal(t, 2, strings.Count(p, "BUY 0.001 @ 100"))
	assert.Contains(t, p, "2024-03-01 08:00")
	assert.Contains(t, p, "6. Confidence Level")
}

func TestBuildPromptUnavailableChange(t *testing.T) {
	p := BuildPrompt(types.MarketSnapshot{Symbol: "BTCUSDT"}, nil, nil, nil, DefaultLimits())
	assert.Contains(t, p, "24h Price Change: unavailable")
	assert.Contains(t, p, "Current Price: unavailable")
	assert.Contains(t, p, "no previous trades")
}
