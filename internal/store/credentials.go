package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

var ErrMissingCredential = errors.New("missing required credential")

// Credentials are opaque secrets resolved once at startup.
type Credentials struct {
	BinanceAPIKey    string
	BinanceSecretKey string
	KiteAPIKey       string
	KiteAccessToken  string
	OpenAIKey        string
	ClaudeKey        string
	GeminiKey        string
	DeepSearchKey    string
	TwitterBearer    string
}

// env aliases per key, first match wins
var credentialEnv = map[string][]string{
	"binance.api_key":      {"BINANCE_API_KEY"},
	"binance.secret_key":   {"BINANCE_SECRET_KEY", "BINANCE_API_SECRET"},
	"kite.api_key":         {"KITE_API_KEY"},
	"kite.access_token":    {"KITE_ACCESS_TOKEN"},
	"openai.api_key":       {"OPENAI_API_KEY"},
	"claude.api_key":       {"CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	"gemini.api_key":       {"GEMINI_API_KEY"},
	"deepsearch.api_key":   {"DEEPSEARCH_API_KEY"},
	"twitter.bearer_token": {"TWITTER_BEARER_TOKEN"},
}

// LoadCredentials reads the process environment and, when present, a secrets file.
// Environment values take precedence over the file.
func LoadCredentials(secretsFile string) (*Credentials, error) {
	v := viper.New()
	for key, envs := range credentialEnv {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if secretsFile != "" {
		if _, err := os.Stat(secretsFile); err == nil {
			v.SetConfigFile(secretsFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read secrets file %s: %w", secretsFile, err)
			}
		}
	}

	get := func(k string) string { return strings.TrimSpace(v.GetString(k)) }
	return &Credentials{
		BinanceAPIKey:    get("binance.api_key"),
		BinanceSecretKey: get("binance.secret_key"),
		KiteAPIKey:       get("kite.api_key"),
		KiteAccessToken:  get("kite.access_token"),
		OpenAIKey:        get("openai.api_key"),
		ClaudeKey:        get("claude.api_key"),
		GeminiKey:        get("gemini.api_key"),
		DeepSearchKey:    get("deepsearch.api_key"),
		TwitterBearer:    get("twitter.bearer_token"),
	}, nil
}

// Require checks that every provider selected in cfg has its secrets.
func (c *Credentials) Require(cfg *Config) error {
	need := map[string]string{}
	switch cfg.Market.Provider {
	case "BINANCE":
		need["BINANCE_API_KEY"] = c.BinanceAPIKey
		need["BINANCE_SECRET_KEY"] = c.BinanceSecretKey
	case "ZERODHA":
		need["KITE_API_KEY"] = c.KiteAPIKey
		need["KITE_ACCESS_TOKEN"] = c.KiteAccessToken
	}
	switch cfg.LLM.Provider {
	case "OPENAI":
		need["OPENAI_API_KEY"] = c.OpenAIKey
	case "CLAUDE":
		need["CLAUDE_API_KEY"] = c.ClaudeKey
	case "GEMINI":
		need["GEMINI_API_KEY"] = c.GeminiKey
	}
	if cfg.Social.Provider == "TWITTER" {
		need["TWITTER_BEARER_TOKEN"] = c.TwitterBearer
	}
	for _, p := range cfg.News.Providers {
		if p == "DEEPSEARCH" {
			need["DEEPSEARCH_API_KEY"] = c.DeepSearchKey
		}
	}

	var missing []string
	for name, val := range need {
		if val == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}
	return nil
}
