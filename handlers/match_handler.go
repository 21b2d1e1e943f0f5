package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Dosada05/competition-system/middleware"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

func matchIDs(r *http.Request) (bracketID, matchID int, err error) {
	if bracketID, err = getIDFromURL(r, "bracketID"); err != nil {
		return 0, 0, err
	}
	if matchID, err = getIDFromURL(r, "matchID"); err != nil {
		return 0, 0, err
	}
	return bracketID, matchID, nil
}

func (h *MatchHandler) respondMatch(w http.ResponseWriter, r *http.Request, match *models.Match, err error) {
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler godoc
// @Summary List matches of a bracket
// @Tags matches
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Success 200 {object} map[string]interface{} "matches"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brackets/{bracketID}/matches [get]
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatches(r.Context(), bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler godoc
// @Summary Get a match
// @Tags matches
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brackets/{bracketID}/matches/{matchID} [get]
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, matchID, err := matchIDs(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetMatch(r.Context(), bracketID, matchID)
	h.respondMatch(w, r, match, err)
}

// SubmitResultHandler godoc
// @Summary Submit a match result
// @Tags matches
// @Description Privileged roles finalize the match, judges leave a pending result.
// @Accept json
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Param matchID path int true "Match ID"
// @Param body body services.SubmitResultInput true "Winner and score"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Role not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /brackets/{bracketID}/matches/{matchID}/result [post]
func (h *MatchHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	submitter, err := middleware.SubmitterFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to submit results")
		return
	}
	bracketID, matchID, err := matchIDs(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinnerID <= 0 {
		badRequestResponse(w, r, errors.New("winner_id is required"))
		return
	}
	input.BracketID, input.MatchID, input.Submitter = bracketID, matchID, submitter

	match, err := h.matchService.SubmitResult(r.Context(), input)
	h.respondMatch(w, r, match, err)
}

// ConfirmHandler godoc
// @Summary Confirm a completed match
// @Tags matches
// @Accept json
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Param matchID path int true "Match ID"
// @Param body body services.ConfirmInput false "Notes"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /brackets/{bracketID}/matches/{matchID}/confirm [post]
func (h *MatchHandler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	submitter, err := middleware.SubmitterFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to confirm results")
		return
	}
	bracketID, matchID, err := matchIDs(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ConfirmInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.BracketID, input.MatchID, input.Submitter = bracketID, matchID, submitter

	match, err := h.matchService.ConfirmResult(r.Context(), input)
	h.respondMatch(w, r, match, err)
}

// ApproveHandler godoc
// @Summary Approve the pending result
// @Tags matches
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Role not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /brackets/{bracketID}/matches/{matchID}/approve [post]
func (h *MatchHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	approver, err := middleware.SubmitterFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to approve results")
		return
	}
	bracketID, matchID, err := matchIDs(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ApproveResult(r.Context(), services.ApproveInput{
		BracketID: bracketID,
		MatchID:   matchID,
		Approver:  approver,
	})
	h.respondMatch(w, r, match, err)
}

type scheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// ScheduleHandler godoc
// @Summary Set the match start time
// @Tags matches
// @Accept json
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Param matchID path int true "Match ID"
// @Param body body scheduleRequest true "Start time"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Role not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /brackets/{bracketID}/matches/{matchID}/schedule [patch]
func (h *MatchHandler) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, matchID, err := matchIDs(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input scheduleRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ScheduleMatch(r.Context(), bracketID, matchID, input.ScheduledAt)
	h.respondMatch(w, r, match, err)
}

// StartHandler godoc
// @Summary Start a match
// @Tags matches
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Role not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /brackets/{bracketID}/matches/{matchID}/start [post]
func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, matchID, err := matchIDs(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.StartMatch(r.Context(), bracketID, matchID)
	h.respondMatch(w, r, match, err)
}

// CancelHandler godoc
// @Summary Cancel a match
// @Tags matches
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Role not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /brackets/{bracketID}/matches/{matchID}/cancel [post]
func (h *MatchHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, matchID, err := matchIDs(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.CancelMatch(r.Context(), bracketID, matchID)
	h.respondMatch(w, r, match, err)
}

// MatchResultsHandler godoc
// @Summary List result rows of a match
// @Tags results
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "results"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brackets/{bracketID}/matches/{matchID}/results [get]
func (h *MatchHandler) MatchResultsHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, matchID, err := matchIDs(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	results, err := h.matchService.ListMatchResults(r.Context(), bracketID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResultsHandler godoc
// @Summary List result rows of a bracket
// @Tags results
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Success 200 {object} map[string]interface{} "results"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brackets/{bracketID}/results [get]
func (h *MatchHandler) ResultsHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	results, err := h.matchService.ListResults(r.Context(), bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StandingsHandler godoc
// @Summary Final placements of a bracket
// @Tags results
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Success 200 {object} map[string]interface{} "standings"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brackets/{bracketID}/standings [get]
func (h *MatchHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.matchService.ListStandings(r.Context(), bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
