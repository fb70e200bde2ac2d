package journal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	conversationService "github.com/avelar/jotter/internal/service/conversation"
	journalService "github.com/avelar/jotter/internal/service/journal"
	"github.com/avelar/jotter/pkg/utils"
)

// Handler exposes journal finalization and the persisted collection.
type Handler struct {
	journals *journalService.Service
	sessions *conversationService.Service
}

// New creates the journal handler.
func New(journals *journalService.Service, sessions *conversationService.Service) *Handler {
	return &Handler{journals: journals, sessions: sessions}
}

// RegisterRoutes wires the journal routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/journal/entries", h.handleFinalize)
	r.Delete("/journal/entries", h.handleDelete)
	r.Post("/journal/entries/tags", h.handleAddTags)
	r.Get("/journal/recent", h.handleRecent)
	r.Get("/journal/recent/content", h.handleRecentContent)
	r.Get("/journal/statistics", h.handleStatistics)
}

// handleFinalize converts the active session plus authored text into a
// saved journal entry.
func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title             string   `json:"title"`
		Path              string   `json:"path"`
		Summary           string   `json:"summary"`
		EmotionalAnalysis string   `json:"emotionalAnalysis"`
		Reflections       string   `json:"reflections"`
		Tags              []string `json:"tags"`
		MoodRating        *int     `json:"moodRating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snapshot, err := h.sessions.Snapshot()
	if err != nil {
		if errors.Is(err, conversationService.ErrNoActiveConversation) {
			utils.RespondError(w, http.StatusConflict, "no conversation to summarize, start a session first")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to snapshot conversation")
		return
	}

	entry := h.journals.CreateEntry(payload.Title, snapshot, payload.Summary, payload.EmotionalAnalysis, payload.Reflections)
	for _, tag := range payload.Tags {
		entry.AddTag(tag)
	}
	if payload.MoodRating != nil {
		if err := entry.SetMoodRating(*payload.MoodRating); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	path, err := h.journals.SaveEntry(entry, payload.Path)
	if err != nil {
		var pathErr *journalService.PathValidationError
		if errors.As(err, &pathErr) {
			utils.RespondError(w, http.StatusBadRequest, pathErr.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to save journal entry")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"filePath":   path,
		"wordCount":  entry.Metadata.WordCount,
		"entryCount": entry.Metadata.EntryCount,
		"tags":       entry.Metadata.Tags,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		utils.RespondError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}

	if err := h.journals.DeleteEntry(path); err != nil {
		switch {
		case errors.Is(err, journalService.ErrJournalNotFound):
			utils.RespondError(w, http.StatusNotFound, "journal entry not found")
		default:
			var pathErr *journalService.PathValidationError
			if errors.As(err, &pathErr) {
				utils.RespondError(w, http.StatusBadRequest, pathErr.Error())
				return
			}
			utils.RespondError(w, http.StatusInternalServerError, "failed to delete journal entry")
		}
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"deleted": path})
}

// handleAddTags answers the tag-edit request the way the system treats
// it: editing tags on an already-rendered file needs markdown re-parsing,
// which is out of scope.
func (h *Handler) handleAddTags(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Path string `json:"path"`
		Tags string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tags := splitTags(payload.Tags)
	utils.RespondJSON(w, http.StatusNotImplemented, map[string]any{
		"message": "tag editing on saved entries requires markdown parsing and is not supported",
		"path":    payload.Path,
		"tags":    tags,
	})
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	entries, err := h.journals.RecentJournals(limit)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to list recent journals")
		return
	}
	if entries == nil {
		entries = []journalService.Info{}
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleRecentContent(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	content, err := h.journals.RecentJournalsContent(limit)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to read recent journals")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.journals.CollectionStatistics()
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
