package claude

import (
	"context"
	"fmt"

	"signal-trader/internal/api"
	"signal-trader/internal/interfaces"
	"signal-trader/internal/llm"
)

const (
	DefaultEndpoint = "https://api.anthropic.com"
	DefaultModel    = "claude-3-5-sonnet-latest"
	apiVersion      = "2023-06-01"
)

// Reasoner calls the Anthropic messages API.
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
			api.WithName("claude"),
			api.WithBaseURL(p.Endpoint),
			api.WithTimeout(p.Timeout),
			api.WithHeader("x-api-key", p.APIKey),
			api.WithHeader("anthropic-version", apiVersion),
		),
	}
}

func (r *Reasoner) Complete(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model":  r.p.Model,
		"system": system,
		"messages": []map[string]string{
			{"role": "user", "content": user},
		},
		"max_tokens":  r.p.MaxTokens,
		"temperature": r.p.Temperature,
	}
	resp, err := r.client.POST(ctx, "/v1/messages", body)
	if err != nil {
		return "", fmt.Errorf("claude completion: %w", err)
	}
	// only text blocks; tool_use and thinking blocks carry no answer text
	return llm.JoinText(resp.Body, `content.#(type=="text")#.text`)
}
