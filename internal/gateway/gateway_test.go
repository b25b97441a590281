package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hirevox/interview-server/internal/config"
	"github.com/hirevox/interview-server/internal/domain"
)

func testConfig(endpoint string) config.GatewayConfig {
	return config.GatewayConfig{
		Endpoint:        endpoint,
		APIKey:          "test-key",
		RequestTimeout:  2 * time.Second,
		MaxOutputTokens: 512,
		TopP:            0.95,
	}
}

func completionBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func TestGenerateTurnSendsFullTranscript(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("Expected API key header, got %q", r.Header.Get("x-goog-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(completionBody("Tell me about yourself."))); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)

	transcript := []domain.Turn{
		domain.UserTurn("You are an interviewer. Ask an opening question."),
		domain.ModelTurn("Welcome! What drew you to this role?"),
		domain.UserTurn("I like building things."),
	}

	reply, err := c.GenerateTurn(context.Background(), transcript, 0.7)
	if err != nil {
		t.Fatalf("GenerateTurn failed: %v", err)
	}
	if reply != "Tell me about yourself." {
		t.Errorf("Unexpected reply: %q", reply)
	}

	if len(got.Contents) != 3 {
		t.Fatalf("Expected 3 turns in payload, got %d", len(got.Contents))
	}
	for i, turn := range transcript {
		if got.Contents[i].Role != turn.Role || got.Contents[i].Parts[0].Text != turn.Parts[0].Text {
			t.Errorf("Turn %d mismatch: sent %+v, got %+v", i, turn, got.Contents[i])
		}
	}
	if got.GenerationConfig.Temperature != 0.7 {
		t.Errorf("Expected temperature 0.7, got %v", got.GenerationConfig.Temperature)
	}
	if got.GenerationConfig.MaxOutputTokens != 512 {
		t.Errorf("Expected maxOutputTokens 512, got %d", got.GenerationConfig.MaxOutputTokens)
	}
	if got.GenerationConfig.TopP != 0.95 {
		t.Errorf("Expected topP 0.95, got %v", got.GenerationConfig.TopP)
	}
}

func TestGenerateTurnNon2xxIsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)

	_, err := c.GenerateTurn(context.Background(), []domain.Turn{domain.UserTurn("hi")}, 0.5)
	if err == nil {
		t.Fatal("Expected error for 429 response")
	}

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("Expected *GatewayError, got %T", err)
	}
	if gwErr.Status != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", gwErr.Status)
	}
}

func TestGenerateTurnMissingCompletionIsHardFailure(t *testing.T) {
	cases := map[string]string{
		"no candidates":  `{"candidates":[]}`,
		"no parts":       `{"candidates":[{"content":{"parts":[]}}]}`,
		"empty text":     `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
		"malformed body": `{"candidates":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if _, err := w.Write([]byte(body)); err != nil {
					t.Errorf("Failed to write response: %v", err)
				}
			}))
			defer srv.Close()

			c := NewClient(testConfig(srv.URL), nil)
			_, err := c.GenerateTurn(context.Background(), []domain.Turn{domain.UserTurn("hi")}, 0.5)

			var gwErr *GatewayError
			if !errors.As(err, &gwErr) {
				t.Fatalf("Expected *GatewayError, got %v", err)
			}
		})
	}
}

func TestGenerateTurnTransportFailure(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	_, err := c.GenerateTurn(context.Background(), []domain.Turn{domain.UserTurn("hi")}, 0.5)

	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("Expected *GatewayError, got %v", err)
	}
	if gwErr.Status != 0 {
		t.Errorf("Expected zero status for transport failure, got %d", gwErr.Status)
	}
}

func TestGenerateTurnRespectsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(testConfig(srv.URL), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GenerateTurn(ctx, []domain.Turn{domain.UserTurn("hi")}, 0.5)
	if err == nil {
		t.Fatal("Expected error when context deadline passes")
	}
}

func TestConfigured(t *testing.T) {
	cfg := testConfig("http://example.invalid")
	if !NewClient(cfg, nil).Configured() {
		t.Error("Expected client with key to be configured")
	}
	cfg.APIKey = ""
	if NewClient(cfg, nil).Configured() {
		t.Error("Expected client without key to not be configured")
	}
}
