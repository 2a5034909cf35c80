// Package llm holds what the reasoning providers share. Each provider lives in its own
// subpackage and implements interfaces.Reasoner.
package llm

import (
	"errors"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrEmptyCompletion is returned when a provider answers without any text.
var ErrEmptyCompletion = errors.New("empty completion")

type Params struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	// Endpoint overrides the provider base URL, for proxies and tests.
	Endpoint string
	Timeout  time.Duration
}

// JoinText concatenates the non-empty strings a gjson path yields.
func JoinText(body []byte, path string) (string, error) {
	var parts []string
	for _, r := range gjson.GetBytes(body, path).Array() {
		if s := r.String(); strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
