package handler

import (
	"errors"
	"net/http"
	"strconv"

	"deeds_api/internal/app/service"
	"deeds_api/internal/common"

	"github.com/go-chi/chi/v5"
)

// BoardHandler serves the public read-only endpoints: leaderboard,
// profile aggregates, and the deed catalog.
type BoardHandler struct {
	boardService *service.LeaderboardService
	deedService  *service.DeedService
}

func NewBoardHandler(boardService *service.LeaderboardService, deedService *service.DeedService) *BoardHandler {
	return &BoardHandler{boardService: boardService, deedService: deedService}
}

func (h *BoardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/leaderboard", h.leaderboard)
	r.Get("/profile", h.profile)
	r.Get("/deed_catalog", h.catalog)
}

func (h *BoardHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.boardService.GetLeaderboard(r.Context())
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Unable to load leaderboard at this time.")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *BoardHandler) profile(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		common.RespondWithError(w, http.StatusBadRequest, "Missing or invalid user_id.")
		return
	}

	summary, err := h.boardService.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Kept a 200 with a message payload, which is what the
			// front-end pages expect for an unknown id.
			common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "User not found"})
			return
		}
		common.RespondWithError(w, http.StatusInternalServerError, "Unable to load profile at this time.")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *BoardHandler) catalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deedService.GetCatalog(r.Context())
	if err != nil {
		common.RespondWithError(w, http.StatusInternalServerError, "Unable to load the deed catalog at this time.")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}
