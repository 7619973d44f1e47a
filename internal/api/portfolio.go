package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/yourusername/churnguard/internal/policy"
	"github.com/yourusername/churnguard/internal/service"
)

// PortfolioHandler serves portfolio-level statistics
type PortfolioHandler struct {
	policy *service.PolicyService
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(policySvc *service.PolicyService) *PortfolioHandler {
	return &PortfolioHandler{policy: policySvc}
}

// SummaryResponse is the portfolio summary payload
type SummaryResponse struct {
	Summary    *policy.Summary  `json:"summary"`
	Breakdown  policy.Breakdown `json:"breakdown"`
	Assessment string           `json:"assessment"`
}

// Summary handles GET /api/v1/portfolio/summary
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	params, threshold, err := paramsFromQuery(r, h.policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, breakdown, err := h.policy.Simulate(r.Context(), params, threshold)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SummaryResponse{
		Summary:    summary,
		Breakdown:  breakdown,
		Assessment: policy.AssessThreshold(threshold),
	})
}

// paramsFromQuery resolves business parameters from query string with
// configured fallbacks.
func paramsFromQuery(r *http.Request, policySvc *service.PolicyService) (policy.Params, float64, error) {
	params := policySvc.DefaultParams()
	threshold := policySvc.DefaultThreshold()

	if v := r.URL.Query().Get("ltv"); v != "" {
		ltv, err := decimal.NewFromString(v)
		if err != nil {
			return params, 0, errInvalidQuery("ltv")
		}
		params.CustomerLTV = ltv
	}
	if v := r.URL.Query().Get("cost"); v != "" {
		cost, err := decimal.NewFromString(v)
		if err != nil {
			return params, 0, errInvalidQuery("cost")
		}
		params.OfferCost = cost
	}
	if v := r.URL.Query().Get("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, 0, errInvalidQuery("threshold")
		}
		threshold = t
	}

	return params, threshold, nil
}

type queryError string

func (e queryError) Error() string { return string(e) }

func errInvalidQuery(field string) error {
	return queryError("invalid query parameter: " + field)
}
