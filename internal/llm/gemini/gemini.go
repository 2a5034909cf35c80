package gemini

import (
	"context"
	"fmt"
	"net/url"

	"signal-trader/internal/api"
	"signal-trader/internal/interfaces"
	"signal-trader/internal/llm"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-1.5-pro"
)

// Reasoner calls the Gemini generateContent endpoint.
type Reasoner struct {
	p      llm.Params
	client *api.Client
}

var _ interfaces.Reasoner = (*Reasoner)(nil)

func New(p llm.Params) *Reasoner {
	if p.Endpoint == "" {
		p.Endpoint = DefaultEndpoint
	}
	if p.Model == "" {
		p.Model = DefaultModel
	}
	return &Reasoner{
		p: p,
		client: api.NewClient(
			api.WithName("gemini"),
			api.WithBaseURL(p.Endpoint),
			api.WithTimeout(p.Timeout),
			api.WithHeader("x-goog-api-key", p.APIKey),
		),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

func (r *Reasoner) Complete(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"systemInstruction": content{Parts: []part{{Text: system}}},
		"contents":          []content{{Role: "user", Parts: []part{{Text: user}}}},
		"generationConfig": map[string]any{
			"temperature":     r.p.Temperature,
			"maxOutputTokens": r.p.MaxTokens,
		},
	}
	path := "/v1beta/models/" + url.PathEscape(r.p.Model) + ":generateContent"
	resp, err := r.client.POST(ctx, path, body)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return llm.JoinText(resp.Body, "candidates.0.content.parts.#.text")
}
