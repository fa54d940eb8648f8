package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req chatCompletionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "gpt-4o-mini", req.Model)
			require.Len(t, req.Messages, 2)
			assert.Equal(t, RoleSystem, req.Messages[0].Role)

			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{
						"message":       map[string]string{"content": `{"files":[]}`},
						"finish_reason": "stop",
					},
				},
			})
		}))
		defer srv.Close()

		cli := NewOpenAIClientWithHTTP(srv.URL, "test-key", srv.Client())

		resp, err := cli.Complete(ctx, Request{
			Model: "gpt-4o-mini",
			Messages: []Message{
				{Role: RoleSystem, Content: "you scaffold apps"},
				{Role: RoleUser, Content: "build a todo app"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, `{"files":[]}`, resp.Content)
		assert.Equal(t, "stop", resp.FinishReason)
	})

	t.Run("validation - empty model", func(t *testing.T) {
		cli := NewOpenAIClientWithHTTP("http://unused", "", nil)
		_, err := cli.Complete(ctx, Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
		assert.ErrorIs(t, err, ErrEmptyModel)
	})

	t.Run("validation - no messages", func(t *testing.T) {
		cli := NewOpenAIClientWithHTTP("http://unused", "", nil)
		_, err := cli.Complete(ctx, Request{Model: "gpt-4o-mini"})
		assert.ErrorIs(t, err, ErrNoMessages)
	})

	t.Run("provider error with structured body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "rate limit exceeded"},
			})
		}))
		defer srv.Close()

		cli := NewOpenAIClientWithHTTP(srv.URL, "test-key", srv.Client())

		_, err := cli.Complete(ctx, Request{
			Model:    "gpt-4o-mini",
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})

		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
		assert.Equal(t, "rate limit exceeded", perr.Message)
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer srv.Close()

		cli := NewOpenAIClientWithHTTP(srv.URL, "", srv.Client())

		_, err := cli.Complete(ctx, Request{
			Model:    "gpt-4o-mini",
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})

		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})
}
