package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"signal-trader/internal/api"
	"signal-trader/internal/interfaces"
	"signal-trader/internal/logger"
)

const DefaultGoogleNewsURL = "https://news.google.com"

type GoogleNewsParams struct {
	BaseURL  string
	Language string
	MaxItems int
	Timeout  time.Duration
}

// GoogleNews scrapes the Google News RSS search feed. It is the keyless fallback when
// the primary headline API is down or returns nothing.
type GoogleNews struct {
	p GoogleNewsParams
}

var _ interfaces.NewsSource = (*GoogleNews)(nil)

func NewGoogleNews(p GoogleNewsParams) *GoogleNews {
	if p.BaseURL == "" {
		p.BaseURL = DefaultGoogleNewsURL
	}
	if p.Language == "" {
		p.Language = "en"
	}
	if p.MaxItems <= 0 {
		p.MaxItems = 20
	}
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	return &GoogleNews{p: p}
}

func (g *GoogleNews) Name() string { return "GOOGLE_NEWS" }

type rssItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Source      string `json:"source"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// Search returns {"results":[...]} so the shared normalizer can read it like any other provider.
func (g *GoogleNews) Search(ctx context.Context, query string, from, to time.Time) ([]byte, error) {
	items := []rssItem{}

	c := colly.NewCollector(colly.MaxDepth(1), colly.StdlibContext(ctx))
	c.SetRequestTimeout(g.p.Timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", api.BrowserHeaders()["User-Agent"])
	})

	c.OnXML("//item", func(e *colly.XMLElement) {
		if len(items) >= g.p.MaxItems {
			return
		}
		it := rssItem{
			Title:       strings.TrimSpace(e.ChildText("title")),
			Link:        strings.TrimSpace(e.ChildText("link")),
			Source:      strings.TrimSpace(e.ChildText("source")),
			Date:        strings.TrimSpace(e.ChildText("pubDate")),
			Description: strings.TrimSpace(e.ChildText("description")),
		}
		if pub, err := time.Parse(time.RFC1123, it.Date); err == nil {
			if pub.Before(from) || pub.After(to) {
				return
			}
			it.Date = pub.UTC().Format(time.RFC3339)
		}
		items = append(items, it)
	})

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("google news %d: %w", r.StatusCode, err)
	})

	// when:Nd narrows the feed server-side; exact filtering happens in OnXML.
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s when:%dd", query, lookbackDays(from, to)))
	q.Set("hl", g.p.Language)
	target := strings.TrimRight(g.p.BaseURL, "/") + "/rss/search?" + q.Encode()

	if err := c.Visit(target); err != nil {
		return nil, fmt.Errorf("failed to visit google news: %w", err)
	}
	c.Wait()
	if scrapeErr != nil {
		return nil, scrapeErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug(ctx, "Google News scraping completed", "query", query, "articles", len(items))
	return json.Marshal(map[string]any{"results": items})
}

func lookbackDays(from, to time.Time) int {
	d := int(to.Sub(from).Hours()/24 + 0.999)
	if d < 1 {
		return 1
	}
	return d
}
