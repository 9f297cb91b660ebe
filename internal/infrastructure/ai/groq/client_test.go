package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nutriplan/dietplan/internal/infrastructure/config"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

func newTestClient(t *testing.T, baseURL, apiKey string) *Client {
	t.Helper()
	return NewClient(config.AIConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   "llama3-70b-8192",
		Timeout: 5 * time.Second,
	}, zaptest.NewLogger(t), WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
}

func TestGeneratePlan_Success(t *testing.T) {
	var got ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3-70b-8192","choices":[{"message":{"role":"assistant","content":"PLAN"}}]}`))
	}))
	defer server.Close()

	result, err := newTestClient(t, server.URL, "gsk_test").GeneratePlan(context.Background(), "make me a plan")

	require.NoError(t, err)
	assert.Equal(t, "PLAN", result.Text)
	assert.Equal(t, "llama3-70b-8192", result.Model)

	assert.Equal(t, "llama3-70b-8192", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, Message{Role: "user", Content: "make me a plan"}, got.Messages[0])
}

func TestGeneratePlan_EmptyContentIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	}))
	defer server.Close()

	result, err := newTestClient(t, server.URL, "key").GeneratePlan(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "", result.Text)
	assert.Equal(t, "llama3-70b-8192", result.Model, "falls back to the configured model")
}

func TestGeneratePlan_APIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"RateLimitedWithMessage", http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, "rate limited"},
		{"UnauthorizedWithMessage", http.StatusUnauthorized, `{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`, "Invalid API Key"},
		{"ServerErrorPlainText", http.StatusInternalServerError, `upstream exploded`, NoErrorDetail},
		{"EmptyBody", http.StatusBadGateway, ``, NoErrorDetail},
		{"ErrorWithoutMessage", http.StatusBadRequest, `{"error":{}}`, NoErrorDetail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result, err := newTestClient(t, server.URL, "key").GeneratePlan(context.Background(), "p")

			assert.Nil(t, result)
			appErr, ok := apperrors.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, apperrors.CodeAPI, appErr.Code)
			assert.Equal(t, tt.status, appErr.UpstreamStatus)
			assert.Equal(t, tt.wantMessage, appErr.Message)
		})
	}
}

func TestGeneratePlan_MalformedResponse(t *testing.T) {
	bodies := map[string]string{
		"NotJSON":        `<html>ok</html>`,
		"NoChoices":      `{"choices":[]}`,
		"ChoicesMissing": `{"id":"x"}`,
		"NoContent":      `{"choices":[{"message":{"role":"assistant"}}]}`,
		"NullContent":    `{"choices":[{"message":{"content":null}}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL, "key").GeneratePlan(context.Background(), "p")

			assert.True(t, apperrors.Is(err, apperrors.CodeMalformedResponse), "got %v", err)
		})
	}
}

func TestGeneratePlan_MissingKeyFailsBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	_, err := client.GeneratePlan(context.Background(), "p")

	assert.True(t, apperrors.Is(err, apperrors.CodeConfig), "got %v", err)
	assert.False(t, client.Configured())
	assert.Zero(t, calls.Load())
}

func TestGeneratePlan_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url, "key").GeneratePlan(context.Background(), "p")

	assert.True(t, apperrors.Is(err, apperrors.CodeTransport), "got %v", err)
}

func TestGeneratePlan_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, server.URL, "key").GeneratePlan(ctx, "p")

	assert.True(t, apperrors.Is(err, apperrors.CodeTransport), "got %v", err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
