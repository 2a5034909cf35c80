package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	q := BuildQuery([]string{"bitcoin", "crypto"}, []string{"@CoinDesk", "TheBlock__"}, true)
	assert.Equal(t, "(bitcoin OR crypto) has:links is:verified -is:retweet -is:reply (from:CoinDesk OR from:TheBlock__)", q)

	q = BuildQuery([]string{"bitcoin"}, nil, false)
	assert.Equal(t, "bitcoin has:links -is:retweet -is:reply", q)
}

func TestTwitterSearchRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "bitcoin has:links", q.Get("query"))
		assert.Equal(t, "20", q.Get("max_results"))
		assert.Equal(t, "author_id", q.Get("expansions"))
		assert.Equal(t, "2024-03-02T06:00:00Z", q.Get("start_time"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	tw := NewTwitter(TwitterParams{BearerToken: "tok", BaseURL: srv.URL, MaxResults: 20})
	to := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	raw, err := tw.Search(context.Background(), "bitcoin has:links", to.Add(-6*time.Hour), to)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(raw))
}

func TestTwitterRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title":"Too Many Requests"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewTwitter(TwitterParams{BaseURL: srv.URL}).Search(context.Background(), "x", time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)
}
