package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/driftline/chatrelay/internal/errors"
)

const (
	completionTemperature = 0.7
	completionMaxTokens   = 512
)

// Completer is the single-call completion surface consumed by the relay.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
// There is deliberately no client-side timeout: the relay does not bound the
// provider call, and a provider-side timeout surfaces as a provider error.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete performs one request/response completion call. All failure modes
// (transport, status, decode, empty choices) normalize to a provider error.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		return "", apperrors.Provider(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Provider(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Dur("elapsed", elapsed).
			Msg("completion request error")
		return "", apperrors.Provider(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Provider(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("completion request failed")
		return "", apperrors.Provider(fmt.Errorf("completion failed with status %d: %s", resp.StatusCode, providerErrorMessage(raw)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", apperrors.Provider(fmt.Errorf("decode response: %w", err))
	}
	if len(completion.Choices) == 0 {
		return "", apperrors.Provider(fmt.Errorf("completion returned no choices"))
	}

	log.Debug().
		Str("model", c.model).
		Dur("elapsed", elapsed).
		Int("responseLength", len(completion.Choices[0].Message.Content)).
		Msg("completion successful")

	return completion.Choices[0].Message.Content, nil
}

func providerErrorMessage(raw []byte) string {
	var completion chatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err == nil && completion.Error != nil {
		return completion.Error.Message
	}
	return string(raw)
}
