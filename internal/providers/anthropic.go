package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicBackend calls the Anthropic Messages API through the official SDK.
// SDK retries are disabled; retrying is the Retrier's job.
type AnthropicBackend struct {
	httpClient *http.Client
}

// NewAnthropicBackend creates the backend. httpClient may be nil.
func NewAnthropicBackend(httpClient *http.Client) *AnthropicBackend {
	return &AnthropicBackend{httpClient: httpClient}
}

// Name returns the provider id.
func (b *AnthropicBackend) Name() string {
	return ProviderAnthropic
}

// Complete sends one Messages request.
func (b *AnthropicBackend) Complete(ctx context.Context, cfg Config, req Request) (*Completion, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClientFor(b.httpClient, cfg)),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(cfg.Model),
		MaxTokens: int64(maxTokens(cfg)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &Completion{
		Text:         text.String(),
		Raw:          json.RawMessage(message.RawJSON()),
		Model:        string(message.Model),
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		cerr := statusError(apiErr.StatusCode, []byte(apiErr.RawJSON()))
		cerr.Err = err
		return cerr
	}
	return networkError(err)
}

var _ Backend = (*AnthropicBackend)(nil)
