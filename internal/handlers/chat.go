package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mathtutor/apiserver/internal/services"
)

// ChatHandler relays user messages to the completion API.
type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRouter registers the chat route on the given router.
func ChatRouter(r chi.Router, chatService *services.ChatService) {
	handler := NewChatHandler(chatService)

	r.Post("/", handler.Chat)
}

// ChatResponse carries the relayed answer.
type ChatResponse struct {
	Name       string `json:"user_name"`
	AIResponse string `json:"ai_response"`
	Message    string `json:"message"`
}

// Chat verifies the user exists and relays their message upstream.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req services.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := h.chatService.Chat(r.Context(), req)
	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Error())
		case errors.Is(err, services.ErrUnknownUser):
			writeError(w, http.StatusUnauthorized, "user not found")
		case errors.Is(err, services.ErrUpstreamTimeout):
			writeError(w, http.StatusRequestTimeout, "request timeout")
		default:
			writeError(w, http.StatusInternalServerError, "server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Name:       result.Name,
		AIResponse: result.AIResponse,
		Message:    "AI response generated successfully",
	})
}
