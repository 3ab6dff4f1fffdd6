package simplify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medreconcile/medreconcile-api/interfaces"
	"github.com/medreconcile/medreconcile-api/logging"
	"github.com/medreconcile/medreconcile-api/metrics"
)

var _ interfaces.Simplifier = (*Client)(nil)

const defaultModel = "gpt-4o-mini"

// Client rewrites instructions through a chat completion API. When the call
// fails it falls back to the substitution table so the endpoint stays
// available.
type Client struct {
	baseURL  string
	apiKey   string
	model    string
	http     *http.Client
	fallback *StaticSimplifier
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    defaultModel,
		http:     &http.Client{Timeout: timeout},
		fallback: NewStaticSimplifier(),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Simplify(ctx context.Context, text, readingLevel string) (*interfaces.SimplifiedText, error) {
	level, err := normalizeLevel(readingLevel)
	if err != nil {
		return nil, err
	}

	simplified, err := c.complete(ctx, text, level)
	if err != nil {
		logging.Warn("Generative simplification failed, using substitution table", "error", err)
		return c.fallback.Simplify(ctx, text, level)
	}

	return newResult(text, simplified, level, liveConfidence, c.fallback.explainedTerms(text)), nil
}

func (c *Client) complete(ctx context.Context, text, level string) (string, error) {
	start := time.Now()
	outcome := "success"
	defer func() {
		metrics.GatewayRequestDuration.WithLabelValues("simplifier", outcome).Observe(time.Since(start).Seconds())
	}()

	prompt := fmt.Sprintf(
		"Rewrite the following medication instructions at a %s reading level. "+
			"Keep every dosage and timing detail exact. Reply with the rewritten text only.\n\n%s",
		level, text)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You simplify medical instructions for patients without changing their meaning."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		outcome = "error"
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		outcome = "error"
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "error"
		return "", fmt.Errorf("simplifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		outcome = "error"
		return "", fmt.Errorf("simplifier returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		outcome = "error"
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		outcome = "error"
		return "", fmt.Errorf("decode simplifier response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		outcome = "error"
		return "", fmt.Errorf("simplifier returned no content")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
