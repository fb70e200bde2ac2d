package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avelar/jotter/internal/config"
	convmodel "github.com/avelar/jotter/internal/model/conversation"
	conversationService "github.com/avelar/jotter/internal/service/conversation"
	"github.com/avelar/jotter/internal/storage/sqlite"
	"github.com/avelar/jotter/pkg/utils"
)

// Handler exposes the active journaling session and the durable
// conversation record over HTTP.
type Handler struct {
	sessions *conversationService.Service
	cfg      config.JournalConfig
}

// New creates the session handler.
func New(sessions *conversationService.Service, cfg config.JournalConfig) *Handler {
	return &Handler{sessions: sessions, cfg: cfg}
}

// RegisterRoutes wires the session and conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleStartSession)
	r.Get("/session", h.handleSummary)
	r.Post("/session/interactions", h.handleRecordInteraction)
	r.Post("/session/messages", h.handleRecordMessage)
	r.Post("/session/clear", h.handleClear)
	r.Post("/session/load", h.handleLoad)

	r.Get("/conversations", h.handleRecentConversations)
	r.Get("/conversations/statistics", h.handleStatistics)
	r.Delete("/conversations/{sessionID}", h.handleDeleteConversation)
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.StartNewSession(r.Context())
	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"sessionId":  sessionID,
		"journalDir": h.cfg.JournalDir,
	})
}

func (h *Handler) handleRecordInteraction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserMessage      string             `json:"userMessage"`
		AssistantMessage string             `json:"assistantMessage"`
		Metadata         convmodel.Metadata `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessions.AddInteraction(r.Context(), payload.UserMessage, payload.AssistantMessage, payload.Metadata); err != nil {
		if errors.Is(err, convmodel.ErrEmptyMessage) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to record interaction")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.sessions.Summary())
}

func (h *Handler) handleRecordMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Speaker  string             `json:"speaker"`
		Message  string             `json:"message"`
		Metadata convmodel.Metadata `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch convmodel.Speaker(payload.Speaker) {
	case convmodel.SpeakerUser:
		err = h.sessions.AddUserMessage(r.Context(), payload.Message, payload.Metadata)
	case convmodel.SpeakerAssistant:
		err = h.sessions.AddAssistantMessage(r.Context(), payload.Message, payload.Metadata)
	default:
		utils.RespondError(w, http.StatusBadRequest, "speaker must be user or assistant")
		return
	}
	if err != nil {
		if errors.Is(err, convmodel.ErrEmptyMessage) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to record message")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.sessions.Summary())
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.sessions.Summary())
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear()
	utils.RespondJSON(w, http.StatusOK, h.sessions.Summary())
}

func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	if err := h.sessions.LoadFromStore(r.Context(), payload.SessionID); err != nil {
		if errors.Is(err, sqlite.ErrConversationNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.sessions.Summary())
}

func (h *Handler) handleRecentConversations(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	infos, err := h.sessions.RecentConversations(r.Context(), limit)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	utils.RespondJSON(w, http.StatusOK, infos)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sessions.StoreStatistics(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to get statistics")
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	deleted, err := h.sessions.DeleteConversation(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}
	if !deleted {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"deleted": sessionID})
}

func parsePositiveInt(raw string) (int, error) {
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if val < 1 {
		return 0, fmt.Errorf("value %d out of range", val)
	}
	return val, nil
}
