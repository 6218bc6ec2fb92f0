package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mathtutor/apiserver/config"
	"github.com/mathtutor/apiserver/internal/store"
	"github.com/mathtutor/apiserver/types"
)

func seedUser(t *testing.T, memStore *store.MemoryStore) {
	t.Helper()
	err := memStore.Put(context.Background(), types.User{
		UID:   "uid-1",
		Email: "x@y.com",
		Name:  "N",
	})
	require.NoError(t, err)
}

func newTestChatService(memStore *store.MemoryStore, endpoint string, timeout time.Duration) *ChatService {
	cfg := config.AIConfig{
		Endpoint: endpoint,
		Model:    "gpt-3.5-turbo",
		Timeout:  timeout,
	}
	return NewChatService(memStore, cfg, "test-key", testLogger())
}

func TestChat_RelaysAnswer(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotReq completionRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "2 + 2 = 4"}},
			},
		})
	}))
	defer upstream.Close()

	memStore := store.NewMemoryStore()
	seedUser(t, memStore)
	s := newTestChatService(memStore, upstream.URL, time.Second)

	result, err := s.Chat(context.Background(), ChatRequest{
		Email:   strPtr("X@Y.com"),
		Message: strPtr("what is 2+2?"),
	})
	require.NoError(t, err)
	require.Equal(t, "N", result.Name)
	require.Equal(t, "2 + 2 = 4", result.AIResponse)

	require.Equal(t, "Bearer test-key", gotAuth)
	require.Equal(t, "gpt-3.5-turbo", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	require.Equal(t, "system", gotReq.Messages[0].Role)
	require.Equal(t, "what is 2+2?", gotReq.Messages[1].Content)
	require.Equal(t, completionMaxTokens, gotReq.MaxTokens)
}

func TestChat_UnknownUser(t *testing.T) {
	t.Parallel()

	s := newTestChatService(store.NewMemoryStore(), "http://unused.invalid", time.Second)

	_, err := s.Chat(context.Background(), ChatRequest{
		Email:   strPtr("nobody@y.com"),
		Message: strPtr("hi"),
	})
	require.ErrorIs(t, err, ErrUnknownUser)
}

func TestChat_MissingFields(t *testing.T) {
	t.Parallel()

	s := newTestChatService(store.NewMemoryStore(), "http://unused.invalid", time.Second)

	_, err := s.Chat(context.Background(), ChatRequest{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, []string{"user_email", "message"}, validationErr.Fields)
}

func TestChat_UpstreamTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer upstream.Close()
	defer close(release)

	memStore := store.NewMemoryStore()
	seedUser(t, memStore)
	s := newTestChatService(memStore, upstream.URL, 50*time.Millisecond)

	_, err := s.Chat(context.Background(), ChatRequest{
		Email:   strPtr("x@y.com"),
		Message: strPtr("hi"),
	})
	require.ErrorIs(t, err, ErrUpstreamTimeout)
}

func TestChat_UpstreamError(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	memStore := store.NewMemoryStore()
	seedUser(t, memStore)
	s := newTestChatService(memStore, upstream.URL, time.Second)

	_, err := s.Chat(context.Background(), ChatRequest{
		Email:   strPtr("x@y.com"),
		Message: strPtr("hi"),
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUpstreamTimeout)
}
