package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	ModeDryRun = "DRY_RUN"
	ModeLive   = "LIVE"

	DefaultSystemPrompt = `You are an expert cryptocurrency trading analyst with deep knowledge of Bitcoin markets, technical analysis, and sentiment analysis. Your role is to:

1. Analyze market data, news, and social sentiment to make informed trading decisions
2. Consider multiple factors including:
   - Technical indicators from price data
   - Market sentiment from news and social media
   - Historical trading patterns
   - Risk management principles
3. Provide clear, data-driven recommendations with specific reasoning
4. Maintain a conservative approach to risk management

Your analysis should be thorough but concise, focusing on actionable insights.`
)

// RetryConfig is the bounded fixed-delay policy applied to flaky sources.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

type Config struct {
	Mode string `yaml:"mode"`

	Asset struct {
		Symbol   string `yaml:"symbol"`
		Quantity string `yaml:"quantity"`
		Exchange string `yaml:"exchange"`
	} `yaml:"asset"`

	Schedule struct {
		Interval     time.Duration `yaml:"interval"`
		PollInterval time.Duration `yaml:"poll_interval"`
		RunOnStart   bool          `yaml:"run_on_start"`
	} `yaml:"schedule"`

	Market struct {
		Provider       string        `yaml:"provider"`
		CandleInterval string        `yaml:"candle_interval"`
		Window         time.Duration `yaml:"window"`
		BaseURL        string        `yaml:"base_url"`
	} `yaml:"market"`

	News struct {
		Providers     []string      `yaml:"providers"`
		Query         string        `yaml:"query"`
		Lookback      time.Duration `yaml:"lookback"`
		Language      string        `yaml:"language"`
		MaxItems      int           `yaml:"max_items"`
		BaseURL       string        `yaml:"base_url"`
		RatePerSecond float64       `yaml:"rate_per_second"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"news"`

	Social struct {
		Provider      string        `yaml:"provider"`
		Accounts      []string      `yaml:"accounts"`
		Keywords      []string      `yaml:"keywords"`
		VerifiedOnly  bool          `yaml:"verified_only"`
		MaxResults    int           `yaml:"max_results"`
		Lookback      time.Duration `yaml:"lookback"`
		BaseURL       string        `yaml:"base_url"`
		RatePerSecond float64       `yaml:"rate_per_second"`
		Retry         RetryConfig   `yaml:"retry"`
	} `yaml:"social"`

	LLM struct {
		Provider    string        `yaml:"provider"`
		Model       string        `yaml:"model"`
		MaxTokens   int           `yaml:"max_tokens"`
		Temperature float32       `yaml:"temperature"`
		System      string        `yaml:"system"`
		Endpoint    string        `yaml:"endpoint"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Decision struct {
		MaxHeadlines int `yaml:"max_headlines"`
		MaxSentiment int `yaml:"max_sentiment"`
		History      int `yaml:"history"`
	} `yaml:"decision"`

	Ledger struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"ledger"`

	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`

	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`

	Report struct {
		Dir string `yaml:"dir"`
	} `yaml:"report"`
}

// Quantity parses the configured fixed trade size.
func (c *Config) Quantity() (decimal.Decimal, error) {
	q, err := decimal.NewFromString(strings.TrimSpace(c.Asset.Quantity))
	if err != nil {
		return decimal.Zero, fmt.Errorf("asset.quantity %q: %w", c.Asset.Quantity, err)
	}
	return q, nil
}

func (c *Config) Validate() error {
	if c.Mode != ModeDryRun && c.Mode != ModeLive {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Asset.Symbol == "" {
		return errors.New("asset.symbol cannot be empty")
	}
	q, err := c.Quantity()
	if err != nil {
		return err
	}
	if !q.IsPositive() {
		return fmt.Errorf("asset.quantity must be positive, got %s", q)
	}
	switch c.Market.Provider {
	case "BINANCE":
	case "ZERODHA":
		if !q.Equal(q.Truncate(0)) {
			return fmt.Errorf("asset.quantity must be a whole number for ZERODHA, got %s", q)
		}
	default:
		return fmt.Errorf("market.provider must be 'BINANCE' or 'ZERODHA', got '%s'", c.Market.Provider)
	}
	for _, p := range c.News.Providers {
		if p != "DEEPSEARCH" && p != "GOOGLE_NEWS" {
			return fmt.Errorf("news.providers: unknown provider '%s'", p)
		}
	}
	if c.Social.Provider != "TWITTER" && c.Social.Provider != "NONE" {
		return fmt.Errorf("social.provider must be 'TWITTER' or 'NONE', got '%s'", c.Social.Provider)
	}
	switch c.LLM.Provider {
	case "OPENAI", "CLAUDE", "GEMINI", "NOOP":
	default:
		return fmt.Errorf("llm.provider must be 'OPENAI', 'CLAUDE', 'GEMINI' or 'NOOP', got '%s'", c.LLM.Provider)
	}
	if c.Ledger.Backend != "CSV" && c.Ledger.Backend != "SQLITE" {
		return fmt.Errorf("ledger.backend must be 'CSV' or 'SQLITE', got '%s'", c.Ledger.Backend)
	}
	if c.Social.Retry.MaxAttempts < 1 {
		return fmt.Errorf("social.retry.max_attempts must be at least 1, got %d", c.Social.Retry.MaxAttempts)
	}
	if c.Decision.MaxHeadlines > 5 || c.Decision.MaxSentiment > 5 {
		return errors.New("decision.max_headlines and decision.max_sentiment are capped at 5")
	}
	return nil
}

// LoadConfig reads the YAML file, fills defaults and validates.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDryRun
	}
	if c.Asset.Symbol == "" {
		c.Asset.Symbol = "BTCUSDT"
	}
	if c.Asset.Quantity == "" {
		c.Asset.Quantity = "0.001"
	}
	if c.Schedule.Interval == 0 {
		c.Schedule.Interval = 8 * time.Hour
	}
	if c.Schedule.PollInterval == 0 {
		c.Schedule.PollInterval = 60 * time.Second
	}
	if c.Market.Provider == "" {
		c.Market.Provider = "BINANCE"
	}
	if c.Market.CandleInterval == "" {
		c.Market.CandleInterval = "1h"
	}
	if c.Market.Window == 0 {
		c.Market.Window = 7 * 24 * time.Hour
	}
	if c.News.Providers == nil {
		c.News.Providers = []string{"DEEPSEARCH", "GOOGLE_NEWS"}
	}
	if c.News.Query == "" {
		c.News.Query = "bitcoin OR BTC OR cryptocurrency"
	}
	if c.News.Lookback == 0 {
		c.News.Lookback = 24 * time.Hour
	}
	if c.News.Language == "" {
		c.News.Language = "en"
	}
	if c.News.MaxItems == 0 {
		c.News.MaxItems = 20
	}
	if c.News.Timeout == 0 {
		c.News.Timeout = 30 * time.Second
	}
	if c.Social.Provider == "" {
		c.Social.Provider = "TWITTER"
	}
	if len(c.Social.Accounts) == 0 {
		c.Social.Accounts = []string{"CoinDesk", "Cointelegraph", "TheBlock__", "BitcoinMagazine", "DocumentingBTC"}
	}
	if len(c.Social.Keywords) == 0 {
		c.Social.Keywords = []string{"bitcoin", "ethereum", "crypto", "altcoin"}
	}
	if c.Social.MaxResults == 0 {
		c.Social.MaxResults = 20
	}
	if c.Social.Lookback == 0 {
		c.Social.Lookback = 6 * time.Hour
	}
	if c.Social.Retry.MaxAttempts == 0 {
		c.Social.Retry.MaxAttempts = 3
	}
	if c.Social.Retry.Delay == 0 {
		c.Social.Retry.Delay = 60 * time.Second
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NOOP"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.System == "" {
		c.LLM.System = DefaultSystemPrompt
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.Decision.MaxHeadlines == 0 {
		c.Decision.MaxHeadlines = 5
	}
	if c.Decision.MaxSentiment == 0 {
		c.Decision.MaxSentiment = 5
	}
	if c.Decision.History == 0 {
		c.Decision.History = 5
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = "CSV"
	}
	if c.Ledger.Path == "" {
		if c.Ledger.Backend == "SQLITE" {
			c.Ledger.Path = "trading_history.db"
		} else {
			c.Ledger.Path = "trading_history.csv"
		}
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
	if c.Report.Dir == "" {
		c.Report.Dir = "reports"
	}
}
