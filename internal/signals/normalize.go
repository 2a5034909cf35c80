package signals

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"signal-trader/internal/types"
)

// envelope keys, first non-empty array wins
var newsEnvelopes = []string{"articles", "data", "results"}

// NormalizeNews maps any known provider payload onto NewsItem. Items with every field
// empty are dropped. Invalid JSON yields an empty slice.
func NormalizeNews(raw []byte) []types.NewsItem {
	out := []types.NewsItem{}
	if !gjson.ValidBytes(raw) {
		return out
	}
	root := gjson.ParseBytes(raw)

	var list []gjson.Result
	for _, key := range newsEnvelopes {
		if arr := root.Get(key); arr.IsArray() && len(arr.Array()) > 0 {
			list = arr.Array()
			break
		}
	}

	for _, a := range list {
		if !a.IsObject() {
			continue
		}
		item := types.NewsItem{
			Title:       strings.TrimSpace(a.Get("title").String()),
			PublishedAt: firstString(a, "publishedAt", "published_at", "date"),
			Source:      newsSource(a),
			URL:         firstString(a, "url", "link"),
			Description: stripHTML(firstString(a, "description", "summary")),
		}
		if item.IsEmpty() {
			continue
		}
		out = append(out, item)
	}
	return out
}

func newsSource(a gjson.Result) string {
	src := a.Get("source")
	if src.IsObject() {
		return strings.TrimSpace(src.Get("name").String())
	}
	if src.Type == gjson.String {
		return strings.TrimSpace(src.String())
	}
	return ""
}

func firstString(a gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(a.Get(k).String()); v != "" {
			return v
		}
	}
	return ""
}

// stripHTML returns the text content of an HTML fragment. Plain text passes through.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// NormalizeTweets reads an X v2 recent-search payload, joining authors from includes.users.
func NormalizeTweets(raw []byte) []types.SentimentSample {
	out := []types.SentimentSample{}
	if !gjson.ValidBytes(raw) {
		return out
	}
	root := gjson.ParseBytes(raw)

	type author struct{ name, handle string }
	users := map[string]author{}
	root.Get("includes.users").ForEach(func(_, u gjson.Result) bool {
		users[u.Get("id").String()] = author{name: u.Get("name").String(), handle: u.Get("username").String()}
		return true
	})

	root.Get("data").ForEach(func(_, t gjson.Result) bool {
		text := strings.TrimSpace(t.Get("text").String())
		if text == "" {
			return true
		}
		a := users[t.Get("author_id").String()]
		s := types.SentimentSample{
			ID:           t.Get("id").String(),
			Text:         text,
			AuthorName:   a.name,
			AuthorHandle: a.handle,
			Likes:        t.Get("public_metrics.like_count").Int(),
			Retweets:     t.Get("public_metrics.retweet_count").Int(),
			Replies:      t.Get("public_metrics.reply_count").Int(),
		}
		if ts, err := time.Parse(time.RFC3339, t.Get("created_at").String()); err == nil {
			s.CreatedAt = ts
		}
		t.Get("entities.urls").ForEach(func(_, u gjson.Result) bool {
			if link := u.Get("expanded_url").String(); link != "" {
				s.URLs = append(s.URLs, link)
			}
			return true
		})
		out = append(out, s)
		return true
	})
	return out
}
