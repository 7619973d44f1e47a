package api

import (
	"net/http"

	"github.com/yourusername/churnguard/internal/service"
)

// IngestHandler serves portfolio reload endpoints
type IngestHandler struct {
	ingestion *service.IngestionService
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(ingestSvc *service.IngestionService) *IngestHandler {
	return &IngestHandler{ingestion: ingestSvc}
}

// IngestRequest names the source the portfolio is reloaded from.
// Exactly one of path or url must be set.
type IngestRequest struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Ingest handles POST /api/v1/portfolio/ingest
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if (req.Path == "") == (req.URL == "") {
		writeError(w, http.StatusBadRequest, "exactly one of path or url must be set")
		return
	}

	var (
		stats *service.IngestStats
		err   error
	)
	if req.Path != "" {
		stats, err = h.ingestion.IngestFile(r.Context(), req.Path)
	} else {
		stats, err = h.ingestion.IngestURL(r.Context(), req.URL)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
