package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

type providerClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAIProvider(apiKey, model string) (providerClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	if model == "" {
		model = "gpt-4.1-mini"
	}
	return &openAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

func (p *openAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGeminiProvider(apiKey, model string) (providerClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &geminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *geminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("gemini client is nil")
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", fmt.Errorf("gemini returned empty result")
	}
	return result.Text(), nil
}

type ollamaProvider struct {
	client   *http.Client
	endpoint string
	model    string
}

func newOllamaProvider(endpoint, model string) providerClient {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &ollamaProvider{
		client:   &http.Client{Timeout: 60 * time.Second},
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
	}
}

func (p *ollamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":  p.model,
		"prompt": prompt,
		"stream": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama error: %s", parsed.Error)
	}
	return parsed.Response, nil
}

func buildProvider(p Provider) (providerClient, error) {
	switch p.ID {
	case "openai":
		return newOpenAIProvider(p.APIKey, p.Model)
	case "gemini":
		return newGeminiProvider(p.APIKey, p.Model)
	case "ollama":
		return newOllamaProvider(p.Endpoint, p.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p.ID)
	}
}
