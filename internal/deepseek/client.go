// Package deepseek is a minimal client for the DeepSeek chat-completions API,
// covering the non-streaming reasoner calls this server makes.
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reasonchat/reasonchat/internal/models"
)

type Client struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// Completion is one reasoner response: the intermediate reasoning and the
// final answer, which the API returns as independent segments.
type Completion struct {
	Reasoning        string
	Answer           string
	PromptTokens     int
	CompletionTokens int
}

func New(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Complete submits the full message sequence and returns both response
// segments. Errors carry the upstream failure message so the caller can
// surface it verbatim.
func (c *Client) Complete(ctx context.Context, msgs []models.Message) (*Completion, error) {
	reqData := chatRequest{
		Model:    c.model,
		Messages: make([]wireMessage, 0, len(msgs)),
		Stream:   false,
	}
	for _, msg := range msgs {
		reqData.Messages = append(reqData.Messages, wireMessage{Role: msg.Role, Content: msg.Content})
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, apiError(res.Status, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	msg := parsed.Choices[0].Message
	return &Completion{
		Reasoning:        msg.ReasoningContent,
		Answer:           msg.Content,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}

// apiError prefers the structured upstream error message, falling back to the
// raw body when the payload isn't the documented error shape.
func apiError(status string, body []byte) error {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("upstream API error (%v): %v", status, parsed.Error.Message)
	}
	return fmt.Errorf("unexpected status code: %v, body: %v", status, string(body))
}
