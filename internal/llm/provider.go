// Package llm is the model-call collaborator: a thin provider abstraction
// over the Anthropic and OpenAI SDKs plus the retry/backoff controller that
// wraps every external call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/openai/openai-go"
	ooption "github.com/openai/openai-go/option"
)

// Request is a single text-completion request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature *float64
}

// Response carries the raw model text plus usage counters.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Provider issues one completion call. Implementations must be safe for
// concurrent use; each call is independent.
type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Options selects and configures a concrete provider.
type Options struct {
	// Type is "anthropic", "openai" or "openai_compatible".
	Type    string
	BaseURL string
	APIKey  string
}

// New builds a provider from Options.
func New(opts Options) (Provider, error) {
	providerType := strings.ToLower(strings.TrimSpace(opts.Type))
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("missing provider api key")
	}
	baseURL := strings.TrimSpace(opts.BaseURL)

	switch providerType {
	case "openai", "openai_compatible":
		reqOpts := []ooption.RequestOption{ooption.WithAPIKey(apiKey)}
		if baseURL != "" {
			reqOpts = append(reqOpts, ooption.WithBaseURL(baseURL))
		}
		return &openAIProvider{client: openai.NewClient(reqOpts...)}, nil
	case "anthropic":
		reqOpts := []aoption.RequestOption{aoption.WithAPIKey(apiKey)}
		if baseURL != "" {
			reqOpts = append(reqOpts, aoption.WithBaseURL(baseURL))
		}
		return &anthropicProvider{client: anthropic.NewClient(reqOpts...)}, nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q", opts.Type)
	}
}
