package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIBackend calls the Chat Completions API through the official SDK.
type OpenAIBackend struct {
	httpClient *http.Client
}

// NewOpenAIBackend creates the backend. httpClient may be nil.
func NewOpenAIBackend(httpClient *http.Client) *OpenAIBackend {
	return &OpenAIBackend{httpClient: httpClient}
}

// Name returns the provider id.
func (b *OpenAIBackend) Name() string {
	return ProviderOpenAI
}

// Complete sends one chat completion request.
func (b *OpenAIBackend) Complete(ctx context.Context, cfg Config, req Request) (*Completion, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClientFor(b.httpClient, cfg)),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(cfg.Model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(maxTokens(cfg))),
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	raw := json.RawMessage(completion.RawJSON())
	if len(completion.Choices) == 0 {
		return &Completion{Raw: raw}, &CallError{Kind: KindProvider, Message: "response contained no choices"}
	}
	return &Completion{
		Text:         completion.Choices[0].Message.Content,
		Raw:          raw,
		Model:        completion.Model,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}, nil
}

// mapOpenAIError turns SDK API errors into provider errors carrying the
// structured message.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = extractErrorMessage([]byte(apiErr.RawJSON()))
		}
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &CallError{Kind: KindProvider, StatusCode: apiErr.StatusCode, Message: msg, Err: err}
	}
	return networkError(err)
}

var _ Backend = (*OpenAIBackend)(nil)
