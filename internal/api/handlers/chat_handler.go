package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/legalmind/internal/api/middlewares"
	"github.com/markdave123-py/legalmind/internal/services"
)

type ChatHandler struct {
	chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.chat.Query(r.Context(), middleware.CallerID(r.Context()), chi.URLParam(r, "id"), req.Question, req.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
