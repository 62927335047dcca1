package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/go-chi/chi/v5"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type HistoryHandler struct {
	historyService services.HistoryService
}

func NewHistoryHandler(hs services.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: hs}
}

// ListHandler обрабатывает GET /history?limit=N
func (h *HistoryHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > maxHistoryLimit {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
		limit = l
	}

	entries := make([]models.HistoryEntry, 0, limit)
	for entry, err := range h.historyService.ListHistory(r.Context()) {
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		entries = append(entries, entry)
		if len(entries) == limit {
			break
		}
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"history": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStatsHandler обрабатывает GET /stats/{ownerID}
func (h *HistoryHandler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.historyService.GetStats(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetStatsHandler обрабатывает DELETE /stats/{ownerID} и DELETE /stats (сброс всей статистики).
func (h *HistoryHandler) ResetStatsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.historyService.ResetStats(r.Context(), chi.URLParam(r, "ownerID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
