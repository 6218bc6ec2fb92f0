package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mathtutor/apiserver/config"
	"github.com/mathtutor/apiserver/internal/store"
)

const (
	systemPrompt = "You are a helpful math tutor. Provide clear, step-by-step explanations for mathematical problems."

	completionMaxTokens   = 500
	completionTemperature = 0.7
	defaultChatTimeout    = 25 * time.Second
)

// ChatService verifies the caller's account and relays their message to an
// OpenAI-compatible chat-completions API.
type ChatService struct {
	store    store.UserStore
	client   *http.Client
	logger   *slog.Logger
	endpoint string
	model    string
	apiKey   string
	timeout  time.Duration
}

func NewChatService(userStore store.UserStore, cfg config.AIConfig, apiKey string, logger *slog.Logger) *ChatService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultChatTimeout
	}
	return &ChatService{
		store:    userStore,
		client:   &http.Client{},
		logger:   logger,
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   apiKey,
		timeout:  timeout,
	}
}

// ChatRequest carries the raw chat payload.
type ChatRequest struct {
	Email   *string `json:"user_email"`
	Message *string `json:"message"`
}

func (r ChatRequest) validate() error {
	var missing []string
	if r.Email == nil || strings.TrimSpace(*r.Email) == "" {
		missing = append(missing, "user_email")
	}
	if r.Message == nil || *r.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// ChatResult is the relayed answer plus the caller's display name.
type ChatResult struct {
	Name       string
	AIResponse string
}

// Chat resolves the email on the store's read path, then performs one
// outbound call with a hard deadline. A deadline overrun maps to
// ErrUpstreamTimeout; an unknown email maps to ErrUnknownUser.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	if err := req.validate(); err != nil {
		return ChatResult{}, err
	}

	user, err := s.store.GetByEmail(ctx, normalizeEmail(*req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ChatResult{}, ErrUnknownUser
		}
		return ChatResult{}, fmt.Errorf("query user: %w", err)
	}

	answer, err := s.complete(ctx, *req.Message)
	if err != nil {
		return ChatResult{}, err
	}

	return ChatResult{Name: user.Name, AIResponse: answer}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *ChatService) complete(ctx context.Context, message string) (string, error) {
	payload := completionRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", ErrUpstreamTimeout
		}
		return "", fmt.Errorf("call completion api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.ErrorContext(ctx, "completion api error", "status", resp.StatusCode)
		return "", fmt.Errorf("completion api returned status %d", resp.StatusCode)
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}
	return result.Choices[0].Message.Content, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
