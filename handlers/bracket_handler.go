package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bs}
}

type generateBracketRequest struct {
	Type models.BracketType `json:"type"`
}

func (h *BracketHandler) readType(w http.ResponseWriter, r *http.Request) (models.BracketType, error) {
	var input generateBracketRequest
	if err := readJSON(w, r, &input); err != nil {
		return "", err
	}
	if !input.Type.Valid() {
		return "", fmt.Errorf("unsupported bracket type %q", input.Type)
	}
	return input.Type, nil
}

// GenerateCategoryHandler godoc
// @Summary Generate the bracket of a category
// @Tags brackets
// @Description Replaces the category bracket with one built from its confirmed registrations.
// @Accept json
// @Produce json
// @Param competitionID path int true "Competition ID"
// @Param categoryID path int true "Category ID"
// @Param body body generateBracketRequest true "Bracket type"
// @Success 201 {object} map[string]interface{} "bracket"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Role not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Failure 422 {object} map[string]string "Validation failed"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /competitions/{competitionID}/categories/{categoryID}/bracket [post]
func (h *BracketHandler) GenerateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.generate(w, r, competitionID, &categoryID)
}

// GenerateTeamHandler godoc
// @Summary Generate the bracket of a team competition
// @Tags brackets
// @Accept json
// @Produce json
// @Param competitionID path int true "Competition ID"
// @Param body body generateBracketRequest true "Bracket type"
// @Success 201 {object} map[string]interface{} "bracket"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Role not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Not allowed in the current state"
// @Failure 422 {object} map[string]string "Validation failed"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /competitions/{competitionID}/bracket [post]
func (h *BracketHandler) GenerateTeamHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.generate(w, r, competitionID, nil)
}

func (h *BracketHandler) generate(w http.ResponseWriter, r *http.Request, competitionID int, categoryID *int) {
	bracketType, err := h.readType(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GenerateForCategory(r.Context(), services.GenerateInput{
		CompetitionID: competitionID,
		CategoryID:    categoryID,
		Type:          bracketType,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RegenerateHandler godoc
// @Summary Regenerate every category bracket
// @Tags brackets
// @Description Partial failures answer 207 with the created brackets and per-category errors.
// @Accept json
// @Produce json
// @Param competitionID path int true "Competition ID"
// @Param body body generateBracketRequest true "Bracket type"
// @Success 200 {object} services.BatchResult
// @Success 207 {object} services.BatchResult "Some categories failed"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Role not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /competitions/{competitionID}/brackets/regenerate [post]
func (h *BracketHandler) RegenerateHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	bracketType, err := h.readType(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.RegenerateCompetition(r.Context(), competitionID, bracketType)
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, services.ErrPartialBatchFailure) && result != nil:
		status = http.StatusMultiStatus
	default:
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, status, jsonResponse{"created": result.Created, "errors": result.Errors}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler godoc
// @Summary List brackets of a competition
// @Tags brackets
// @Produce json
// @Param competitionID path int true "Competition ID"
// @Success 200 {object} map[string]interface{} "brackets"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /competitions/{competitionID}/brackets [get]
func (h *BracketHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	list, err := h.bracketService.ListBrackets(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"brackets": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler godoc
// @Summary Get a bracket with its matches and tree
// @Tags brackets
// @Produce json
// @Param bracketID path int true "Bracket ID"
// @Success 200 {object} map[string]interface{} "bracket"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /brackets/{bracketID} [get]
func (h *BracketHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	bracketID, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByCategoryHandler godoc
// @Summary Get the bracket of a category
// @Tags brackets
// @Produce json
// @Param competitionID path int true "Competition ID"
// @Param categoryID path int true "Category ID"
// @Success 200 {object} map[string]interface{} "bracket"
// @Failure 400 {object} map[string]string "Invalid ID or body"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /competitions/{competitionID}/categories/{categoryID}/bracket [get]
func (h *BracketHandler) GetByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracketByScope(r.Context(), competitionID, &categoryID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
