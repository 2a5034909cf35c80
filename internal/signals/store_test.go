package signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/retry"
	"signal-trader/internal/types"
)

type mockMarket struct{ mock.Mock }

func (m *mockMarket) Ticker(ctx context.Context, symbol string) (types.Ticker, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(types.Ticker), args.Error(1)
}

func (m *mockMarket) HistoricalCandles(ctx context.Context, symbol, interval string, since time.Time) ([]types.Candle, error) {
	args := m.Called(ctx, symbol, interval, since)
	c, _ := args.Get(0).([]types.Candle)
	return c, args.Error(1)
}

type mockNews struct {
	mock.Mock
	name string
}

func (m *mockNews) Name() string { return m.name }

func (m *mockNews) Search(ctx context.Context, query string, from, to time.Time) ([]byte, error) {
	args := m.Called(ctx, query, from, to)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type mockSocial struct{ mock.Mock }

func (m *mockSocial) Search(ctx context.Context, query string, from, to time.Time) ([]byte, error) {
	args := m.Called(ctx, query, from, to)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

var fixedNow = time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)

func candles(n int, start float64) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		c := start + float64(i)
		out[i] = types.Candle{Ts: int64(i), Open: c, High: c + 1, Low: c - 1, Close: c, Vol: 2}
	}
	return out
}

func testConfig() Config {
	return Config{
		NewsQuery:   "bitcoin",
		SocialQuery: "bitcoin has:links",
		SocialRetry: retry.Policy{MaxAttempts: 2, Delay: time.Millisecond},
	}
}

const oneTweet = `{"data":[{"id":"1","text":"hi","author_id":"a"}]}`

func TestGatherFewerThan24CandlesLeavesChangeUnavailable(t *testing.T) {
	md := &mockMarket{}
	md.On("HistoricalCandles", mock.Anything, "BTCUSDT", "1h", mock.Anything).Return(candles(10, 100), nil)
	md.On("Ticker", mock.Anything, "BTCUSDT").Return(types.Ticker{LastPrice: 109, PriceChangePercent: 1.5}, nil)

	news := &mockNews{name: "DEEPSEARCH"}
	news.On("Search", mock.Anything, "bitcoin", mock.Anything, mock.Anything).Return([]byte(`{"articles":[{"title":"x"}]}`), nil)
	social := &mockSocial{}
	social.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]byte(oneTweet), nil)

	s := NewStore(md, []interfaces.NewsSource{news}, social, testConfig(), WithClock(func() time.Time { return fixedNow }))
	snap, items, sent, degraded := s.Gather(context.Background(), "BTCUSDT", 24*time.Hour)

	assert.Nil(t, snap.Change24h)
	assert.False(t, snap.ChangeAvailable())
	assert.Equal(t, 109.0, snap.LastPrice)
	assert.Equal(t, 1.5, snap.PriceChangePercent)
	require.NotNil(t, snap.Trend)
	assert.Equal(t, 10, snap.Trend.Count)
	assert.Len(t, items, 1)
	assert.Len(t, sent, 1)
	assert.Empty(t, degraded)
}

func TestGatherDerivesFromCandlesWhenTickerFails(t *testing.T) {
	md := &mockMarket{}
	md.On("HistoricalCandles", mock.Anything, "BTCUSDT", "1h", fixedNow.Add(-7*24*time.Hour)).Return(candles(30, 100), nil)
	md.On("Ticker", mock.Anything, "BTCUSDT").Return(types.Ticker{}, errors.New("503"))

	s := NewStore(md, nil, nil, testConfig(), WithClock(func() time.Time { return fixedNow }))
	snap, _, _, degraded := s.Gather(context.Background(), "BTCUSDT", 24*time.Hour)

	// closes 100..129, last 24 start at 106
	require.NotNil(t, snap.Change24h)
	assert.InDelta(t, (129.0-106.0)/106.0*100, *snap.Change24h, 1e-9)
	assert.Equal(t, 129.0, snap.LastPrice)
	assert.Equal(t, 130.0, snap.High24h)
	assert.Equal(t, 105.0, snap.Low24h)
	assert.Equal(t, 48.0, snap.Volume24h)
	assert.Equal(t, 23.0, snap.PriceChange)
	assert.NotContains(t, degraded, SourceMarket)
	assert.Contains(t, degraded, SourceNews)
	md.AssertExpectations(t)
}

func TestGatherOneSourceFailingLeavesOthersIntact(t *testing.T) {
	md := &mockMarket{}
	md.On("HistoricalCandles", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down"))
	md.On("Ticker", mock.Anything, mock.Anything).Return(types.Ticker{}, errors.New("down"))

	primary := &mockNews{name: "DEEPSEARCH"}
	primary.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("401"))
	fallback := &mockNews{name: "GOOGLE_NEWS"}
	fallback.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]byte(`{"results":[{"title":"a"},{"title":"b"}]}`), nil)

	social := &mockSocial{}
	social.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]byte(oneTweet), nil)

	s := NewStore(md, []interfaces.NewsSource{primary, fallback}, social, testConfig(), WithClock(func() time.Time { return fixedNow }))
	snap, items, sent, degraded := s.Gather(context.Background(), "BTCUSDT", 24*time.Hour)

	assert.Equal(t, []string{SourceMarket}, degraded)
	assert.Equal(t, "BTCUSDT", snap.Symbol)
	assert.Equal(t, fixedNow, snap.Time)
	assert.Zero(t, snap.LastPrice)
	assert.Len(t, items, 2)
	assert.Len(t, sent, 1)
	primary.AssertNumberOfCalls(t, "Search", 1)
}

func TestGatherSentimentRetriesThenGivesUp(t *testing.T) {
	md := &mockMarket{}
	md.On("HistoricalCandles", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(candles(1, 1), nil)
	md.On("Ticker", mock.Anything, mock.Anything).Return(types.Ticker{LastPrice: 1}, nil)

	social := &mockSocial{}
	social.On("Search", mock.Anything, "bitcoin has:links", fixedNow.Add(-6*time.Hour), fixedNow).Return([]byte(`{"data":[]}`), nil)

	cfg := testConfig()
	cfg.SocialLookback = 6 * time.Hour
	s := NewStore(md, nil, social, cfg, WithClock(func() time.Time { return fixedNow }))
	_, _, sent, degraded := s.Gather(context.Background(), "BTCUSDT", 24*time.Hour)

	assert.NotNil(t, sent)
	assert.Empty(t, sent)
	assert.Contains(t, degraded, SourceSentiment)
	social.AssertNumberOfCalls(t, "Search", 2)
}
