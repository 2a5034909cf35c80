// Package news holds the headline providers. Each returns the provider's raw JSON so
// that a single normalizer in the signals package handles every shape.
package news

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"signal-trader/internal/api"
	"signal-trader/internal/interfaces"
)

const DefaultDeepSearchURL = "https://api-v2.deepsearch.com"

type DeepSearchParams struct {
	APIKey        string
	BaseURL       string
	Language      string
	RatePerSecond float64
	Timeout       time.Duration
}

// DeepSearch queries the global-articles endpoint.
type DeepSearch struct {
	client *api.Client
	p      DeepSearchParams
}

var _ interfaces.NewsSource = (*DeepSearch)(nil)

func NewDeepSearch(p DeepSearchParams) *DeepSearch {
	if p.BaseURL == "" {
		p.BaseURL = DefaultDeepSearchURL
	}
	if p.Language == "" {
		p.Language = "en"
	}
	return &DeepSearch{
		p: p,
		client: api.NewClient(
			api.WithName("deepsearch"),
			api.WithBaseURL(p.BaseURL),
			api.WithTimeout(p.Timeout),
			api.WithRateLimit(p.RatePerSecond, 1),
			api.WithHeader("Authorization", "Bearer "+p.APIKey),
			api.WithLogging(true),
		),
	}
}

func (d *DeepSearch) Name() string { return "DEEPSEARCH" }

func (d *DeepSearch) Search(ctx context.Context, query string, from, to time.Time) ([]byte, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("from", from.UTC().Format("2006-01-02"))
	q.Set("to", to.UTC().Format("2006-01-02"))
	q.Set("lang", d.p.Language)
	q.Set("sort", "date")
	q.Set("order", "desc")
	q.Set("api_key", d.p.APIKey)

	resp, err := d.client.GET(ctx, "/v1/global-articles", q)
	if err != nil {
		return nil, fmt.Errorf("deepsearch search: %w", err)
	}
	return resp.Body, nil
}
