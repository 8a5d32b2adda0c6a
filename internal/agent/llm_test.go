package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscrm/crm/internal/agent"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) *agent.OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := agent.NewOpenAIClient(agent.OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-test",
		BaseURL: srv.URL + "/v1",
		Timeout: 5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestOpenAIClientComplete(t *testing.T) {
	var got chatRequest
	c := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-test-0613",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Close the Acme deal."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	})

	out, err := c.Complete(context.Background(), "be brief", "what next?")
	require.NoError(t, err)
	assert.Equal(t, agent.Completion{
		Content:          "Close the Acme deal.",
		Model:            "gpt-test-0613",
		PromptTokens:     12,
		CompletionTokens: 5,
	}, out)

	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "what next?", got.Messages[1].Content)
}

func TestOpenAIClientAPIError(t *testing.T) {
	c := newOpenAIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "upstream exploded", "type": "server_error"}}`))
	})

	_, err := c.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestOpenAIClientNoChoices(t *testing.T) {
	c := newOpenAIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
	})

	_, err := c.Complete(context.Background(), "s", "p")
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAIClientCancelledWhileWaitingForLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	t.Cleanup(srv.Close)

	c, err := agent.NewOpenAIClient(agent.OpenAIConfig{
		APIKey:        "k",
		BaseURL:       srv.URL + "/v1",
		RatePerMinute: 1,
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.Model())

	_, err = c.Complete(context.Background(), "s", "p")
	require.NoError(t, err, "first call uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, "s", "p")
	assert.Error(t, err, "second call within a minute must wait")
}

func TestNewOpenAIClientWithoutKeyIsDisabled(t *testing.T) {
	_, err := agent.NewOpenAIClient(agent.OpenAIConfig{}, zerolog.Nop())
	assert.True(t, errors.Is(err, agent.ErrDisabled))
}
