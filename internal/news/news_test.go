package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestDeepSearchRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/global-articles", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "bitcoin", q.Get("q"))
		assert.Equal(t, "2024-03-01", q.Get("from"))
		assert.Equal(t, "2024-03-02", q.Get("to"))
		assert.Equal(t, "en", q.Get("lang"))
		assert.Equal(t, "date", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("order"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"title":"t"}]}`))
	}))
	defer srv.Close()

	d := NewDeepSearch(DeepSearchParams{APIKey: "key", BaseURL: srv.URL})
	to := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	raw, err := d.Search(context.Background(), "bitcoin", to.Add(-24*time.Hour), to)
	require.NoError(t, err)
	assert.Equal(t, "t", gjson.GetBytes(raw, "data.0.title").String())
}

func TestDeepSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewDeepSearch(DeepSearchParams{BaseURL: srv.URL}).Search(context.Background(), "x", time.Now(), time.Now())
	assert.Error(t, err)
}

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<item>
  <title>Bitcoin tops $70k</title>
  <link>https://example.com/a</link>
  <pubDate>Sat, 02 Mar 2024 10:00:00 GMT</pubDate>
  <description>&lt;a href="x"&gt;Bitcoin tops&lt;/a&gt;</description>
  <source url="https://example.com">Example Wire</source>
</item>
<item>
  <title>Old story</title>
  <link>https://example.com/old</link>
  <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
</item>
</channel></rss>`

func TestGoogleNewsScrapesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rss/search", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("q"), "bitcoin")
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	g := NewGoogleNews(GoogleNewsParams{BaseURL: srv.URL})
	to := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	raw, err := g.Search(context.Background(), "bitcoin", to.Add(-24*time.Hour), to)
	require.NoError(t, err)

	results := gjson.GetBytes(raw, "results").Array()
	require.Len(t, results, 1)
	assert.Equal(t, "Bitcoin tops $70k", results[0].Get("title").String())
	assert.Equal(t, "https://example.com/a", results[0].Get("link").String())
	assert.Equal(t, "Example Wire", results[0].Get("source").String())
	assert.Equal(t, "2024-03-02T10:00:00Z", results[0].Get("date").String())
}

func TestLookbackDays(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 1, lookbackDays(now.Add(-6*time.Hour), now))
	assert.Equal(t, 2, lookbackDays(now.Add(-36*time.Hour), now))
}
