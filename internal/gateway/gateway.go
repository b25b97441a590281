// Package gateway provides the HTTP client for the generative-text API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hirevox/interview-server/internal/config"
	"github.com/hirevox/interview-server/internal/domain"
)

// ErrEmptyCompletion is returned when the API answers 2xx but the response
// body carries no generated text.
var ErrEmptyCompletion = errors.New("response contained no completion text")

// GatewayError reports a failed generation call. Status is zero for pure
// transport failures.
type GatewayError struct {
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway call failed with status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("gateway call failed: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Client issues generation requests against a Gemini-style generateContent
// endpoint. It performs exactly one HTTP POST per call and never retries;
// retry policy belongs to the caller.
type Client struct {
	httpClient      *http.Client
	endpoint        string
	apiKey          string
	maxOutputTokens int
	topP            float64
	logger          *slog.Logger
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg config.GatewayConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:      &http.Client{Timeout: cfg.RequestTimeout},
		endpoint:        cfg.Endpoint,
		apiKey:          cfg.APIKey,
		maxOutputTokens: cfg.MaxOutputTokens,
		topP:            cfg.TopP,
		logger:          logger,
	}
}

// Configured reports whether an API key is present. Calls without a key will
// be rejected upstream; health reporting uses this to flag a misconfigured
// deployment.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents         []domain.Turn    `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateTurn sends the full transcript to the generation endpoint and
// returns the model's reply text. The transcript is sent as-is; the gateway
// keeps no conversation state of its own.
func (c *Client) GenerateTurn(ctx context.Context, transcript []domain.Turn, temperature float64) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: transcript,
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: c.maxOutputTokens,
			TopP:            c.topP,
		},
	})
	if err != nil {
		return "", &GatewayError{Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &GatewayError{Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &GatewayError{Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close gateway response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain a bounded amount so the error log carries the upstream reason.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &GatewayError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status: %s", bytes.TrimSpace(detail)),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &GatewayError{Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", &GatewayError{Status: resp.StatusCode, Err: ErrEmptyCompletion}
	}

	text := out.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", &GatewayError{Status: resp.StatusCode, Err: ErrEmptyCompletion}
	}

	c.logger.Debug("gateway turn generated",
		"turns", len(transcript),
		"temperature", temperature,
		"reply_length", len(text),
		"duration", time.Since(start),
	)
	return text, nil
}
