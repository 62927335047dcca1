package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/go-chi/chi/v5"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
	}
}

type createTournamentInput struct {
	Name             string `json:"name"`
	ParticipantCount int    `json:"participant_count"`
	TeamID           string `json:"team_id"`
}

// CreateHandler обрабатывает POST /tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input createTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input.Name, input.ParticipantCount, input.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if subject, err := middleware.GetSubjectFromContext(r.Context()); err == nil {
		slog.InfoContext(r.Context(), "tournament created by user",
			slog.String("tournament_id", tournament.ID), slog.String("subject", subject))
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /tournaments/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.GetBracket(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartHandler обрабатывает POST /tournaments/{tournamentID}/start
func (h *TournamentHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.Start(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ActionHandler обрабатывает POST /tournaments/{tournamentID}/matches/{matchID}/actions
func (h *TournamentHandler) ActionHandler(w http.ResponseWriter, r *http.Request) {
	var action services.PlayerAction
	if err := readJSON(w, r, &action); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.tournamentService.SubmitPlayerAction(r.Context(),
		chi.URLParam(r, "tournamentID"), chi.URLParam(r, "matchID"), action)

	var tournament *models.Tournament
	if result != nil {
		tournament = result.Tournament
	}
	if err != nil && !completedDespite(err, tournament) {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	env := jsonResponse{"turn": result.Outcome, "tournament": tournament}
	if err != nil {
		env["warning"] = err.Error()
	}
	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ForfeitHandler обрабатывает POST /tournaments/{tournamentID}/matches/{matchID}/forfeit
func (h *TournamentHandler) ForfeitHandler(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.Forfeit(r.Context(), chi.URLParam(r, "tournamentID"), chi.URLParam(r, "matchID"))
	if err != nil && !completedDespite(err, tournament) {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	env := jsonResponse{"tournament": tournament}
	if err != nil {
		env["warning"] = err.Error()
	}
	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// completedDespite reports whether the result was committed and only the
// history write failed; the scheduler retries that write.
func completedDespite(err error, t *models.Tournament) bool {
	return t != nil && errors.Is(err, services.ErrHistoryWrite)
}
