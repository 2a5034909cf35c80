package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"signal-trader/internal/broker"
	"signal-trader/internal/broker/binance"
	"signal-trader/internal/broker/brokerobs"
	"signal-trader/internal/broker/zerodha"
	"signal-trader/internal/decision"
	"signal-trader/internal/engine"
	"signal-trader/internal/engine/engineobs"
	"signal-trader/internal/executor"
	"signal-trader/internal/interfaces"
	"signal-trader/internal/ledger"
	"signal-trader/internal/llm"
	"signal-trader/internal/llm/claude"
	"signal-trader/internal/llm/gemini"
	"signal-trader/internal/llm/llmobs"
	"signal-trader/internal/llm/noop"
	"signal-trader/internal/llm/openai"
	"signal-trader/internal/logger"
	"signal-trader/internal/metrics"
	"signal-trader/internal/news"
	"signal-trader/internal/retry"
	"signal-trader/internal/signals"
	"signal-trader/internal/social"
	"signal-trader/internal/store"
	"signal-trader/internal/trace"
	"signal-trader/internal/tradelog"
)

// initializeSystem loads .env and brings up logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path, secrets string) (*store.Config, *store.Credentials, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, nil, err
	}
	creds, err := store.LoadCredentials(secrets)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load credentials", err)
		return nil, nil, err
	}
	if err := creds.Require(cfg); err != nil {
		logger.ErrorWithErr(ctx, "Credentials incomplete", err)
		return nil, nil, err
	}
	return cfg, creds, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// initializeMarket returns the market data provider and the order sink. In DRY_RUN
// the sink is a paper broker priced off the same market data.
func initializeMarket(ctx context.Context, cfg *store.Config, creds *store.Credentials) (interfaces.MarketData, interfaces.Broker) {
	var (
		md  interfaces.MarketData
		brk interfaces.Broker
		p   pinger
	)
	switch cfg.Market.Provider {
	case "ZERODHA":
		z := zerodha.NewZerodha(zerodha.Params{
			APIKey:      creds.KiteAPIKey,
			AccessToken: creds.KiteAccessToken,
			Exchange:    cfg.Asset.Exchange,
			BaseURI:     cfg.Market.BaseURL,
		})
		md, brk, p = z, z, z
	default:
		b := binance.New(binance.Params{
			APIKey:    creds.BinanceAPIKey,
			SecretKey: creds.BinanceSecretKey,
			BaseURL:   cfg.Market.BaseURL,
		})
		md, brk, p = b, b, b
	}

	if err := p.Ping(ctx); err != nil {
		logger.Warn(ctx, "Market provider unreachable at startup", "provider", cfg.Market.Provider, "error", err)
	}

	md = brokerobs.WrapMarket(md)
	if cfg.Mode == store.ModeDryRun {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
		brk = broker.NewPaper(md)
	}
	return md, brokerobs.Wrap(brk)
}

func initializeNews(cfg *store.Config, creds *store.Credentials) []interfaces.NewsSource {
	var sources []interfaces.NewsSource
	for _, name := range cfg.News.Providers {
		switch name {
		case "DEEPSEARCH":
			sources = append(sources, news.NewDeepSearch(news.DeepSearchParams{
				APIKey:        creds.DeepSearchKey,
				BaseURL:       cfg.News.BaseURL,
				Language:      cfg.News.Language,
				RatePerSecond: cfg.News.RatePerSecond,
				Timeout:       cfg.News.Timeout,
			}))
		case "GOOGLE_NEWS":
			sources = append(sources, news.NewGoogleNews(news.GoogleNewsParams{
				Language: cfg.News.Language,
				MaxItems: cfg.News.MaxItems,
				Timeout:  cfg.News.Timeout,
			}))
		}
	}
	return sources
}

// initializeSocial returns nil when sentiment is turned off.
func initializeSocial(cfg *store.Config, creds *store.Credentials) interfaces.SocialSource {
	if cfg.Social.Provider != "TWITTER" {
		return nil
	}
	return social.NewTwitter(social.TwitterParams{
		BearerToken:   creds.TwitterBearer,
		BaseURL:       cfg.Social.BaseURL,
		MaxResults:    cfg.Social.MaxResults,
		RatePerSecond: cfg.Social.RatePerSecond,
	})
}

func initializeReasoner(ctx context.Context, cfg *store.Config, creds *store.Credentials) interfaces.Reasoner {
	p := llm.Params{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Endpoint:    cfg.LLM.Endpoint,
		Timeout:     cfg.LLM.Timeout,
	}

	var r interfaces.Reasoner
	switch cfg.LLM.Provider {
	case "OPENAI":
		p.APIKey = creds.OpenAIKey
		r = openai.New(p)
	case "CLAUDE":
		p.APIKey = creds.ClaudeKey
		r = claude.New(p)
	case "GEMINI":
		p.APIKey = creds.GeminiKey
		r = gemini.New(p)
	default:
		r = noop.New()
		logger.Warn(ctx, "No LLM provider configured - every decision will be HOLD")
	}
	return llmobs.Wrap(cfg.LLM.Provider, r)
}

// openLedger picks the persistence backend. The returned closer releases it.
func openLedger(ctx context.Context, cfg *store.Config) (*ledger.Ledger, func(), error) {
	switch cfg.Ledger.Backend {
	case "SQLITE":
		s, err := ledger.OpenSQLStore(cfg.Ledger.Path)
		if err != nil {
			return nil, nil, err
		}
		return ledger.Open(ctx, s), func() { _ = s.Close() }, nil
	default:
		return ledger.Open(ctx, ledger.NewCSVStore(cfg.Ledger.Path)), func() {}, nil
	}
}

func compressOldJournals(ctx context.Context, j *tradelog.Journal, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	n, err := j.CompressOlder(retentionDays)
	if err != nil {
		logger.Warn(ctx, "Failed to compress old journals", "error", err)
		return
	}
	if n > 0 {
		logger.Info(ctx, "Compressed old journals", "files", n)
	}
}

// initializeOrchestrator wires every component into the scheduled engine.
func initializeOrchestrator(ctx context.Context, cfg *store.Config, creds *store.Credentials) (*engine.Orchestrator, func(), error) {
	qty, err := cfg.Quantity()
	if err != nil {
		return nil, nil, err
	}

	md, brk := initializeMarket(ctx, cfg, creds)
	soc := initializeSocial(cfg, creds)
	socialQuery := ""
	if soc != nil {
		socialQuery = social.BuildQuery(cfg.Social.Keywords, cfg.Social.Accounts, cfg.Social.VerifiedOnly)
	}
	gatherer := signals.NewStore(md, initializeNews(cfg, creds), soc, signals.Config{
		CandleInterval: cfg.Market.CandleInterval,
		Window:         cfg.Market.Window,
		NewsQuery:      cfg.News.Query,
		SocialQuery:    socialQuery,
		SocialLookback: cfg.Social.Lookback,
		SocialRetry:    retry.Policy{MaxAttempts: cfg.Social.Retry.MaxAttempts, Delay: cfg.Social.Retry.Delay},
	})

	decider := decision.NewEngine(initializeReasoner(ctx, cfg, creds), cfg.LLM.System, decision.Limits{
		MaxHeadlines: cfg.Decision.MaxHeadlines,
		MaxSentiment: cfg.Decision.MaxSentiment,
		History:      cfg.Decision.History,
	}, cfg.LLM.Timeout)

	l, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	journal := tradelog.New(cfg.Journal.Dir)
	compressOldJournals(ctx, journal, cfg.Journal.RetentionDays)

	m := metrics.New()
	eng := engine.New(engine.Config{
		Asset:           cfg.Asset.Symbol,
		Quantity:        qty,
		Lookback:        cfg.News.Lookback,
		History:         cfg.Decision.History,
		MetricsTextfile: cfg.Metrics.Textfile,
	}, gatherer, decider, executor.New(brk), l,
		engine.WithJournal(journal),
		engine.WithMetrics(m),
	)

	orch := engine.NewOrchestrator(engineobs.Wrap(eng), engine.Schedule{
		Interval:     cfg.Schedule.Interval,
		PollInterval: cfg.Schedule.PollInterval,
		RunOnStart:   cfg.Schedule.RunOnStart,
	}, m)
	return orch, closeLedger, nil
}
