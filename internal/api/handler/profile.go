package handler

import (
	"net/http"

	"github.com/remiblancher/goodkey-cms/internal/api/service"
)

// ProfileHandler handles token profile requests.
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: profileService}
}

// Get handles GET /api/v1/token/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Get(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
