// Package social fetches recent posts from the X (Twitter) v2 search API.
package social

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"signal-trader/internal/api"
	"signal-trader/internal/interfaces"
)

const DefaultTwitterURL = "https://api.twitter.com"

type TwitterParams struct {
	BearerToken   string
	BaseURL       string
	MaxResults    int
	RatePerSecond float64
	Timeout       time.Duration
}

type Twitter struct {
	client *api.Client
	p      TwitterParams
}

var _ interfaces.SocialSource = (*Twitter)(nil)

func NewTwitter(p TwitterParams) *Twitter {
	if p.BaseURL == "" {
		p.BaseURL = DefaultTwitterURL
	}
	// the API accepts 10..100
	if p.MaxResults < 10 {
		p.MaxResults = 10
	}
	if p.MaxResults > 100 {
		p.MaxResults = 100
	}
	return &Twitter{
		p: p,
		client: api.NewClient(
			api.WithName("twitter"),
			api.WithBaseURL(p.BaseURL),
			api.WithTimeout(p.Timeout),
			api.WithRateLimit(p.RatePerSecond, 1),
			api.WithHeader("Authorization", "Bearer "+p.BearerToken),
			api.WithLogging(true),
		),
	}
}

func (t *Twitter) Search(ctx context.Context, query string, from, to time.Time) ([]byte, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("start_time", from.UTC().Format(time.RFC3339))
	// end_time must be at least 10s in the past
	end := to.UTC().Add(-10 * time.Second)
	if end.After(from) {
		q.Set("end_time", end.Format(time.RFC3339))
	}
	q.Set("max_results", strconv.Itoa(t.p.MaxResults))
	q.Set("tweet.fields", "created_at,author_id,public_metrics,entities")
	q.Set("expansions", "author_id")
	q.Set("user.fields", "name,username")

	resp, err := t.client.GET(ctx, "/2/tweets/search/recent", q)
	if err != nil {
		return nil, fmt.Errorf("twitter search: %w", err)
	}
	return resp.Body, nil
}

// BuildQuery assembles a recent-search query from keywords and an account allow-list.
// Retweets and replies are always excluded and posts must carry links.
func BuildQuery(keywords, accounts []string, verifiedOnly bool) string {
	var parts []string
	if len(keywords) > 0 {
		parts = append(parts, group(keywords, ""))
	}
	parts = append(parts, "has:links")
	if verifiedOnly {
		parts = append(parts, "is:verified")
	}
	parts = append(parts, "-is:retweet", "-is:reply")
	if len(accounts) > 0 {
		parts = append(parts, group(accounts, "from:"))
	}
	return strings.Join(parts, " ")
}

func group(terms []string, prefix string) string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(strings.TrimPrefix(t, "@"))
		if t == "" {
			continue
		}
		out = append(out, prefix+t)
	}
	if len(out) == 1 {
		return out[0]
	}
	return "(" + strings.Join(out, " OR ") + ")"
}
