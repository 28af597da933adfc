package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"eco-menu/internal/config"
	"eco-menu/internal/history"
	"eco-menu/internal/media"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
	anthropicModel   = "claude-3-5-sonnet-20241022"
)

// anthropicProvider is the multimodal-chat binding. It seeds every
// assistant reply with "{" to bias the model toward raw JSON output.
type anthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicProvider creates the Anthropic messages-API binding.
func NewAnthropicProvider(cfg *config.Config) Provider {
	baseURL := cfg.AnthropicBaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &anthropicProvider{
		apiKey:  cfg.AnthropicAPIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) SeedsResponseWithOpeningBrace() bool { return true }

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicContent struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model string `json:"model"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// RecognizeIngredients sends the image with the fixed recognition
// instruction. The returned text starts after the prefilled "{".
func (p *anthropicProvider) RecognizeIngredients(ctx context.Context, image media.EncodedImage) (Completion, error) {
	req := anthropicRequest{
		Model:     anthropicModel,
		MaxTokens: recognizeMaxTokens,
		System:    recognizeSystemPrompt,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicContent{
					{
						Type: "image",
						Source: &anthropicImageSource{
							Type:      "base64",
							MediaType: image.MediaType,
							Data:      image.Data,
						},
					},
					{Type: "text", Text: recognizeUserPrompt},
				},
			},
			prefillMessage(),
		},
	}
	return p.complete(ctx, req)
}

// GenerateMenu sends the interpolated menu prompt.
func (p *anthropicProvider) GenerateMenu(ctx context.Context, ingredients []string, recent []history.Entry) (Completion, error) {
	req := anthropicRequest{
		Model:     anthropicModel,
		MaxTokens: menuMaxTokens,
		System:    menuSystemPrompt,
		Messages: []anthropicMessage{
			{
				Role:    "user",
				Content: []anthropicContent{{Type: "text", Text: buildMenuPrompt(ingredients, recent)}},
			},
			prefillMessage(),
		},
	}
	return p.complete(ctx, req)
}

// prefillMessage is the assistant turn fixing the reply's first character
// to "{" so the model completes a bare JSON object.
func prefillMessage() anthropicMessage {
	return anthropicMessage{
		Role:    "assistant",
		Content: []anthropicContent{{Type: "text", Text: "{"}},
	}
}

func (p *anthropicProvider) complete(ctx context.Context, req anthropicRequest) (Completion, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return Completion{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to marshal request body: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return Completion{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Completion{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Completion{}, &ProviderError{
			Provider: p.Name(),
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("body=%s", string(bodyBytes)),
		}
	}

	var apiResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Completion{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	for _, block := range apiResp.Content {
		if block.Type == "text" {
			return Completion{
				Text: block.Text,
				Usage: TokenUsage{
					PromptTokens:     apiResp.Usage.InputTokens,
					CompletionTokens: apiResp.Usage.OutputTokens,
					Model:            apiResp.Model,
				},
			}, nil
		}
	}

	return Completion{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no text block in response")}
}
