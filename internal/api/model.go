package api

import (
	"net/http"

	"github.com/yourusername/churnguard/internal/service"
)

// ModelHandler exposes the model registry
type ModelHandler struct {
	scoring *service.ScoringService
}

// NewModelHandler creates a new model handler
func NewModelHandler(scoring *service.ScoringService) *ModelHandler {
	return &ModelHandler{scoring: scoring}
}

// Active handles GET /api/v1/model
func (h *ModelHandler) Active(w http.ResponseWriter, r *http.Request) {
	model, err := h.scoring.ActiveModel(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model)
}
