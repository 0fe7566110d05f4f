package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"flowstateAPI/middleware"
	"flowstateAPI/services"
)

type ChatbotHandler struct {
	chatbotService *services.ChatbotService
}

func NewChatbotHandler(chatbotService *services.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{
		chatbotService: chatbotService,
	}
}

// SendMessage forwards a chat message to the assistant. The service owns the
// upstream timeout, so no 5 second cap here.
func (h *ChatbotHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		Message string                 `json:"message"`
		History []services.ChatMessage `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.chatbotService.SendMessage(ctx, req.Message, req.History)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, "Message is required")
		case errors.Is(err, services.ErrChatNotConfigured):
			respondWithError(w, http.StatusServiceUnavailable, "The assistant isn't set up yet. Ask the administrator to configure an API key.")
		case errors.Is(err, services.ErrChatOverCapacity):
			respondWithError(w, http.StatusServiceUnavailable, "The assistant is over capacity right now. Please try again in about 30 seconds.")
		default:
			respondWithError(w, http.StatusInternalServerError, "Something went wrong talking to the assistant. Please try again.")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, reply)
}
