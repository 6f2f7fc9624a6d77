// Package llm is the production response producer: a minimal client for
// OpenAI-compatible chat-completion endpoints. The consensus core never
// imports it; it plugs into the orchestrator as the Producer collaborator.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config holds the connection settings for one backend.
type Config struct {
	BaseURL     string        `json:"base_url" toml:"base_url"`
	APIKey      string        `json:"-" toml:"-"`
	Model       string        `json:"model" toml:"model"`
	MaxTokens   int           `json:"max_tokens" toml:"max_tokens"`
	Temperature float64       `json:"temperature" toml:"temperature"`
	Timeout     time.Duration `json:"timeout" toml:"timeout"`
}

// DefaultConfig returns settings for a local OpenAI-compatible server.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:8000/v1",
		Model:       "default",
		MaxTokens:   1024,
		Temperature: 0.7,
		Timeout:     120 * time.Second,
	}
}

// Client talks to one chat-completion backend. It implements the
// orchestrator's Producer contract.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a client. A zero timeout falls back to the default.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Produce generates one agent's response for the given prompt. The agent ID
// is carried for logging only; the backend model is shared.
func (c *Client) Produce(ctx context.Context, agentID, prompt string) (string, string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", "", fmt.Errorf("encoding chat request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", "", fmt.Errorf("reading chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("chat completion: backend returned %s: %s", resp.Status, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", "", fmt.Errorf("decoding chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", "", fmt.Errorf("chat completion: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", "", fmt.Errorf("chat completion: backend returned no choices")
	}

	c.logger.Debug("agent response generated",
		"agent", agentID,
		"model", c.cfg.Model,
		"elapsed", time.Since(start))
	return parsed.Choices[0].Message.Content, c.cfg.Model, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
