package openai

import (
	"context"
	"fmt"

	"signal-trader/internal/api"
	"signal-trader/internal/interfaces"
	"signal-trader/internal/llm"
)

const (
	DefaultEndpoint = "https://api.openai.com"
	DefaultModel    = "gpt-4"
)

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
			api.WithName("openai"),
			api.WithBaseURL(p.Endpoint),
			api.WithTimeout(p.Timeout),
			api.WithHeader("Authorization", "Bearer "+p.APIKey),
		),
	}
}

func (r *Reasoner) Complete(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model": r.p.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": r.p.Temperature,
		"max_tokens":  r.p.MaxTokens,
	}
	resp, err := r.client.POST(ctx, "/v1/chat/completions", body)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	return llm.JoinText(resp.Body, "choices.0.message.content")
}
