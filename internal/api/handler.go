// Package api exposes the chat service over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/reasonchat/reasonchat/internal/chat"
	"github.com/reasonchat/reasonchat/internal/db"
	"github.com/reasonchat/reasonchat/internal/models"
)

type Handler struct {
	db     *db.Database
	chat   *chat.Service
	logger *zap.Logger
}

func NewHandler(database *db.Database, chatService *chat.Service, logger *zap.Logger) *Handler {
	return &Handler{
		db:     database,
		chat:   chatService,
		logger: logger,
	}
}

type MessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type MessageResponse struct {
	ConversationID string          `json:"conversation_id"`
	Message        *models.Message `json:"message"`
}

type UpdateConversationRequest struct {
	Title string `json:"title"`
}

// HandleMessage runs one chat turn. A blank conversation_id starts a new
// conversation. Upstream API failures still answer 200: the message content is
// the error display string, and the serving loop carries on.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	convID := req.ConversationID
	if convID == "" {
		conv, err := h.chat.StartConversation(r.Context(), req.Content)
		if err != nil {
			h.logger.Error("Failed to create conversation", zap.Error(err))
			http.Error(w, fmt.Sprintf("Failed to create conversation: %v", err), http.StatusInternalServerError)
			return
		}
		convID = conv.ID
	}

	response, err := h.chat.Respond(r.Context(), convID, req.Content)
	if err != nil {
		h.logger.Error("Failed to process message", zap.Error(err))
		http.Error(w, fmt.Sprintf("Failed to process message: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(MessageResponse{
		ConversationID: convID,
		Message:        response,
	}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conversations, err := h.db.GetConversations()
	if err != nil {
		h.logger.Error("Failed to get conversations",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(conversations); err != nil {
		h.logger.Error("Failed to encode conversations", zap.Error(err))
	}
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	convID := r.URL.Query().Get("conversation_id")
	if convID == "" {
		http.Error(w, "Query parameter 'conversation_id' is required", http.StatusBadRequest)
		return
	}

	messages, err := h.db.GetConversationHistory(convID)
	if err != nil {
		h.logger.Error("Failed to get messages", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(messages); err != nil {
		h.logger.Error("Failed to encode messages", zap.Error(err))
	}
}

func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	convID := r.URL.Query().Get("conversation_id")
	if convID == "" {
		http.Error(w, "Query parameter 'conversation_id' is required", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteConversation(convID); err != nil {
		h.logger.Error("Failed to delete conversation", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UpdateConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	convID := r.URL.Query().Get("conversation_id")
	if convID == "" {
		http.Error(w, "Query parameter 'conversation_id' is required", http.StatusBadRequest)
		return
	}

	var req UpdateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.UpdateConversationTitle(convID, req.Title); err != nil {
		h.logger.Error("Failed to update conversation", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
