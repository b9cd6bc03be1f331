package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultGeminiBaseURL is the public Generative Language endpoint.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiBackend calls generateContent over plain HTTP.
type GeminiBackend struct {
	httpClient *http.Client
}

// NewGeminiBackend creates the backend. httpClient may be nil.
func NewGeminiBackend(httpClient *http.Client) *GeminiBackend {
	return &GeminiBackend{httpClient: httpClient}
}

// Name returns the provider id.
func (b *GeminiBackend) Name() string {
	return ProviderGemini
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// Complete sends one generateContent request.
func (b *GeminiBackend) Complete(ctx context.Context, cfg Config, req Request) (*Completion, error) {
	body := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.User}}}},
		GenerationConfig: geminiGenerationConfig{MaxOutputTokens: maxTokens(cfg)},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &CallError{Kind: KindProvider, Message: fmt.Sprintf("encode request: %v", err), Err: err}
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultGeminiBaseURL
	}
	endpoint := strings.TrimRight(base, "/") + "/v1beta/models/" + url.PathEscape(cfg.Model) + ":generateContent"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, configError("invalid gemini endpoint: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("x-goog-api-key", cfg.APIKey)

	resp, err := httpClientFor(b.httpClient, cfg).Do(httpReq)
	if err != nil {
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, networkError(err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, statusError(resp.StatusCode, raw)
	}

	var gr geminiResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return &Completion{Raw: raw}, &CallError{Kind: KindProvider, StatusCode: resp.StatusCode, Message: "malformed JSON response: " + err.Error(), Err: err}
	}
	if len(gr.Candidates) == 0 {
		return &Completion{Raw: raw}, &CallError{Kind: KindProvider, Message: "response contained no candidates"}
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	model := gr.ModelVersion
	if model == "" {
		model = cfg.Model
	}
	return &Completion{
		Text:         text.String(),
		Raw:          json.RawMessage(raw),
		Model:        model,
		InputTokens:  gr.UsageMetadata.PromptTokenCount,
		OutputTokens: gr.UsageMetadata.CandidatesTokenCount,
	}, nil
}

var _ Backend = (*GeminiBackend)(nil)
