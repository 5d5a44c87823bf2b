package handler

import (
	"encoding/json"
	"net/http"

	"github.com/remiblancher/goodkey-cms/internal/api/dto"
	apierrors "github.com/remiblancher/goodkey-cms/internal/api/errors"
	"github.com/remiblancher/goodkey-cms/internal/api/middleware"
	"github.com/remiblancher/goodkey-cms/internal/api/service"
)

// maxSignRequestSize bounds the JSON body of a sign request.
const maxSignRequestSize = 64 << 10

// CMSHandler handles CMS-related HTTP requests.
type CMSHandler struct {
	service *service.CMSService
}

// NewCMSHandler creates a new CMSHandler.
func NewCMSHandler(cmsService *service.CMSService) *CMSHandler {
	return &CMSHandler{service: cmsService}
}

// Sign handles POST / and POST /api/v1/cms/sign
func (h *CMSHandler) Sign(w http.ResponseWriter, r *http.Request) {
	var req dto.CMSSignRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSignRequestSize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("Invalid JSON"))
		return
	}
	if req.Hash == nil {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("Hash parameter is required"))
		return
	}

	der, err := h.service.Sign(r.Context(), *req.Hash, middleware.GetRequestID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(der)
}
