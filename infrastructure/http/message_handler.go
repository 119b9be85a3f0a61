package http

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Prateek-02/ChatterHub/errors"
	"github.com/Prateek-02/ChatterHub/services"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

const defaultSearchLimit = 20

// MessageHandler is the request-style fallback for non-socket clients:
// history fetch, message send, and full-text search.
type MessageHandler struct {
	chat services.IChatService
	log  *slog.Logger
}

func NewMessageHandler(chat services.IChatService, log *slog.Logger) *MessageHandler {
	return &MessageHandler{chat: chat, log: log}
}

func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/messages/search", h.handleSearch)
	r.Get("/messages/{recipientId}", h.handleHistory)
	r.Post("/messages", h.handleSend)
}

func (h *MessageHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var limit *int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = lo.ToPtr(parsed)
	}

	history, err := h.chat.History(r.Context(), caller, chi.URLParam(r, "recipientId"), limit)
	switch {
	case err == nil:
		if history == nil {
			history = []services.PopulatedMessage{}
		}
		respondJSON(w, http.StatusOK, history)
	case stderrors.Is(err, errors.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "Recipient not found")
	default:
		h.log.Error("history fetch failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch messages")
	}
}

type sendRequest struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}

func (h *MessageHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	caller, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	message, err := h.chat.SendMessage(r.Context(), caller, req.RecipientID, req.Text)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, message)
	case stderrors.Is(err, errors.ErrMissingRecipient), stderrors.Is(err, errors.ErrEmptyText):
		respondError(w, http.StatusBadRequest, "Receiver and text required")
	case stderrors.Is(err, errors.ErrTextTooLong):
		respondError(w, http.StatusBadRequest, "Message too long")
	case stderrors.Is(err, errors.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "Recipient not found")
	default:
		h.log.Error("message send failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to post message")
	}
}

func (h *MessageHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	caller, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	results, err := h.chat.Search(r.Context(), caller, query, limit)
	if err != nil {
		h.log.Error("message search failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to search messages")
		return
	}
	if results == nil {
		results = []services.PopulatedMessage{}
	}
	respondJSON(w, http.StatusOK, results)
}
