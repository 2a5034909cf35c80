// Package signals gathers one cycle's market, news and social inputs for a single asset.
package signals

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
	"signal-trader/internal/retry"
	"signal-trader/internal/ta"
	"signal-trader/internal/trace"
	"signal-trader/internal/types"
)

const (
	SourceMarket    = "market"
	SourceNews      = "news"
	SourceSentiment = "sentiment"

	// trailing samples for the 24h change and the trend block
	changeSamples = 24
)

type Config struct {
	CandleInterval string
	Window         time.Duration
	NewsQuery      string
	SocialQuery    string
	// SocialLookback overrides the Gather lookback for the social search when set.
	SocialLookback time.Duration
	SocialRetry    retry.Policy
}

type Store struct {
	market interfaces.MarketData
	news   []interfaces.NewsSource
	social interfaces.SocialSource
	cfg    Config
	now    func() time.Time
}

var _ interfaces.SignalGatherer = (*Store)(nil)

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore wires the providers. news is tried in order; social may be nil to disable sentiment.
func NewStore(market interfaces.MarketData, news []interfaces.NewsSource, social interfaces.SocialSource, cfg Config, opts ...Option) *Store {
	if cfg.CandleInterval == "" {
		cfg.CandleInterval = "1h"
	}
	if cfg.Window <= 0 {
		cfg.Window = 7 * 24 * time.Hour
	}
	if cfg.SocialRetry.MaxAttempts == 0 {
		cfg.SocialRetry = retry.Default()
	}
	s := &Store{market: market, news: news, social: social, cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Gather fetches the three sources concurrently and waits for all of them. A failing
// source comes back empty and is named in degraded; it never cancels the others.
func (s *Store) Gather(ctx context.Context, asset string, lookback time.Duration) (types.MarketSnapshot, []types.NewsItem, []types.SentimentSample, []string) {
	ctx, span := trace.StartSpan(ctx, "signals.Gather")
	defer span.End()

	now := s.now()
	var (
		snap                     types.MarketSnapshot
		news                     []types.NewsItem
		sentiment                []types.SentimentSample
		marketOK, newsOK, sentOK bool
	)

	var g errgroup.Group
	g.Go(func() error {
		snap, marketOK = s.snapshot(ctx, asset, now)
		return nil
	})
	g.Go(func() error {
		news, newsOK = s.headlines(ctx, now.Add(-lookback), now)
		return nil
	})
	g.Go(func() error {
		socialLookback := lookback
		if s.cfg.SocialLookback > 0 {
			socialLookback = s.cfg.SocialLookback
		}
		sentiment, sentOK = s.sentiment(ctx, now.Add(-socialLookback), now)
		return nil
	})
	_ = g.Wait()

	var degraded []string
	for _, d := range []struct {
		name string
		ok   bool
	}{{SourceMarket, marketOK}, {SourceNews, newsOK}, {SourceSentiment, sentOK}} {
		if !d.ok {
			degraded = append(degraded, d.name)
			logger.Warn(ctx, "Signal source degraded", "source", d.name, "asset", asset)
		}
	}

	logger.Info(ctx, "Signals gathered",
		"asset", asset,
		"last_price", snap.LastPrice,
		"candles", len(snap.Candles),
		"news", len(news),
		"sentiment", len(sentiment),
		"degraded", degraded,
	)
	return snap, news, sentiment, degraded
}

func (s *Store) snapshot(ctx context.Context, asset string, now time.Time) (types.MarketSnapshot, bool) {
	snap := types.MarketSnapshot{Symbol: asset, Time: now}

	candles, cerr := s.market.HistoricalCandles(ctx, asset, s.cfg.CandleInterval, now.Add(-s.cfg.Window))
	if cerr != nil {
		logger.Warn(ctx, "Historical candles unavailable", "source", SourceMarket, "asset", asset, "error", cerr)
	}
	tk, terr := s.market.Ticker(ctx, asset)
	if terr != nil {
		logger.Warn(ctx, "Ticker unavailable", "source", SourceMarket, "asset", asset, "error", terr)
	}
	if cerr != nil && terr != nil {
		return snap, false
	}

	if terr == nil {
		snap.LastPrice = tk.LastPrice
		snap.PriceChange = tk.PriceChange
		snap.PriceChangePercent = tk.PriceChangePercent
		snap.High24h = tk.High
		snap.Low24h = tk.Low
		snap.Volume24h = tk.Volume
	}

	if len(candles) > 0 {
		snap.Candles = candles
		closes := ta.Closes(candles)
		pct, ok := ta.PercentChange(closes, changeSamples)
		if ok {
			snap.Change24h = &pct
		}
		snap.Trend = ta.Describe(closes, changeSamples)
		if terr != nil {
			fillFromCandles(&snap, candles, pct, ok)
		}
	}
	return snap, true
}

// fillFromCandles derives the 24h fields when the ticker call failed.
func fillFromCandles(snap *types.MarketSnapshot, candles []types.Candle, pct float64, pctOK bool) {
	tail := candles
	if len(tail) > changeSamples {
		tail = tail[len(tail)-changeSamples:]
	}
	last := tail[len(tail)-1]
	snap.LastPrice = last.Close
	snap.High24h, snap.Low24h = tail[0].High, tail[0].Low
	for _, c := range tail {
		if c.High > snap.High24h {
			snap.High24h = c.High
		}
		if c.Low < snap.Low24h {
			snap.Low24h = c.Low
		}
		snap.Volume24h += c.Vol
	}
	if pctOK {
		snap.PriceChangePercent = pct
		snap.PriceChange = last.Close - tail[0].Close
	}
}

func (s *Store) headlines(ctx context.Context, from, to time.Time) ([]types.NewsItem, bool) {
	for _, src := range s.news {
		op := logger.StartOperation(ctx, "news.Search", "provider", src.Name())
		raw, err := src.Search(op.GetContext(), s.cfg.NewsQuery, from, to)
		if err != nil {
			op.EndWithError(err, "source", SourceNews)
			continue
		}
		items := NormalizeNews(raw)
		op.End("count", len(items))
		if len(items) == 0 {
			logger.Warn(ctx, "News provider returned no articles", "source", SourceNews, "provider", src.Name())
			continue
		}
		return items, true
	}
	return []types.NewsItem{}, false
}

func (s *Store) sentiment(ctx context.Context, from, to time.Time) ([]types.SentimentSample, bool) {
	if s.social == nil {
		return []types.SentimentSample{}, true
	}
	samples, attempts := retry.Collect(ctx, s.cfg.SocialRetry, SourceSentiment, func(ctx context.Context) ([]types.SentimentSample, error) {
		raw, err := s.social.Search(ctx, s.cfg.SocialQuery, from, to)
		if err != nil {
			return nil, err
		}
		return NormalizeTweets(raw), nil
	})
	logger.Debug(ctx, "Sentiment fetched", "count", len(samples), "attempts", attempts)
	return samples, len(samples) > 0
}
