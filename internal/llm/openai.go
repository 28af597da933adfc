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
	openaiBaseURL = "https://api.openai.com"
	openaiModel   = "gpt-4o"
)

// openaiProvider is the image-plus-text completion binding. It relies on
// response_format json_object instead of a prefill, so the returned text is
// a complete JSON document.
type openaiProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIProvider creates the OpenAI chat-completions binding.
func NewOpenAIProvider(cfg *config.Config) Provider {
	baseURL := cfg.OpenAIBaseURL
	if baseURL == "" {
		baseURL = openaiBaseURL
	}
	return &openaiProvider{
		apiKey:  cfg.OpenAIAPIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) SeedsResponseWithOpeningBrace() bool { return false }

// RecognizeIngredients sends the image as an image_url data URL part.
func (p *openaiProvider) RecognizeIngredients(ctx context.Context, image media.EncodedImage) (Completion, error) {
	reqBody := map[string]interface{}{
		"model": openaiModel,
		"messages": []map[string]interface{}{
			{
				"role":    "system",
				"content": recognizeSystemPrompt,
			},
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type":      "image_url",
						"image_url": map[string]string{"url": image.DataURL()},
					},
					{
						"type": "text",
						"text": recognizeUserPrompt,
					},
				},
			},
		},
		"max_tokens":      recognizeMaxTokens,
		"temperature":     0.1,
		"response_format": map[string]string{"type": "json_object"},
	}
	return p.complete(ctx, reqBody)
}

// GenerateMenu sends the interpolated menu prompt.
func (p *openaiProvider) GenerateMenu(ctx context.Context, ingredients []string, recent []history.Entry) (Completion, error) {
	reqBody := map[string]interface{}{
		"model": openaiModel,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": menuSystemPrompt,
			},
			{
				"role":    "user",
				"content": buildMenuPrompt(ingredients, recent),
			},
		},
		"max_tokens":      menuMaxTokens,
		"temperature":     0.1,
		"response_format": map[string]string{"type": "json_object"},
	}
	return p.complete(ctx, reqBody)
}

func (p *openaiProvider) complete(ctx context.Context, reqBody map[string]interface{}) (Completion, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return Completion{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to marshal request body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return Completion{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
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

	var apiResp struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Completion{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(apiResp.Choices) == 0 {
		return Completion{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no content generated")}
	}

	return Completion{
		Text: apiResp.Choices[0].Message.Content,
		Usage: TokenUsage{
			PromptTokens:     apiResp.Usage.PromptTokens,
			CompletionTokens: apiResp.Usage.CompletionTokens,
			Model:            apiResp.Model,
		},
	}, nil
}
