package handler

import (
	"encoding/json"
	"net/http"

	"deeds_api/internal/api/middleware"
	"deeds_api/internal/app/service"
	"deeds_api/internal/common"

	"github.com/go-chi/chi/v5"
)

type DeedHandler struct {
	deedService *service.DeedService
}

func NewDeedHandler(deedService *service.DeedService) *DeedHandler {
	return &DeedHandler{deedService: deedService}
}

func (h *DeedHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All deed routes require a session
	r.Get("/", h.listDeeds)
	r.Post("/", h.createDeed)
}

// RegisterVerifyRoutes mounts the admin-only verification endpoint.
func (h *DeedHandler) RegisterVerifyRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.AdminOnly)
	r.Post("/", h.verifyDeed)
}

func (h *DeedHandler) createDeed(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing session context.")
		return
	}

	var req service.CreateDeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload.")
		return
	}

	resp, err := h.deedService.CreateDeed(r.Context(), session, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *DeedHandler) listDeeds(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing session context.")
		return
	}

	deeds, err := h.deedService.ListDeeds(r.Context(), session,
		r.URL.Query().Get("status"), r.URL.Query().Get("user_id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, deeds)
}

type verifyDeedRequest struct {
	DeedID int64 `json:"deed_id"`
}

func (h *DeedHandler) verifyDeed(w http.ResponseWriter, r *http.Request) {
	var req verifyDeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload.")
		return
	}

	resp, err := h.deedService.VerifyDeed(r.Context(), req.DeedID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
