package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/yourusername/churnguard/internal/models"
	"github.com/yourusername/churnguard/internal/policy"
	"github.com/yourusername/churnguard/internal/service"
)

// PolicyHandler serves threshold optimization and simulation endpoints
type PolicyHandler struct {
	policy *service.PolicyService
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policySvc *service.PolicyService) *PolicyHandler {
	return &PolicyHandler{policy: policySvc}
}

// PolicyRequest carries business parameters for optimization and simulation
type PolicyRequest struct {
	CustomerLTV *float64 `json:"customer_ltv,omitempty"`
	OfferCost   *float64 `json:"offer_cost,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty"`
}

func (h *PolicyHandler) resolveParams(req PolicyRequest) policy.Params {
	params := h.policy.DefaultParams()
	if req.CustomerLTV != nil {
		params.CustomerLTV = decimal.NewFromFloat(*req.CustomerLTV)
	}
	if req.OfferCost != nil {
		params.OfferCost = decimal.NewFromFloat(*req.OfferCost)
	}
	return params
}

// OptimizeResponse is the result of a full grid sweep
type OptimizeResponse struct {
	RunID         string              `json:"run_id,omitempty"`
	ModelVersion  string              `json:"model_version"`
	BestThreshold float64             `json:"best_threshold"`
	BestProfit    string              `json:"best_profit"`
	Assessment    string              `json:"assessment"`
	Summary       *policy.Summary     `json:"summary"`
	Curve         []policy.CurvePoint `json:"curve"`
	PRCurve       []policy.PRPoint    `json:"pr_curve,omitempty"`
}

// Curve handles GET /api/v1/policy/curve
func (h *PolicyHandler) Curve(w http.ResponseWriter, r *http.Request) {
	params, _, err := paramsFromQuery(r, h.policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.policy.Curve(r.Context(), params, nil)
	if err != nil {
		writePolicyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OptimizeResponse{
		ModelVersion:  result.ModelVersion,
		BestThreshold: result.Curve.BestThreshold,
		BestProfit:    result.Curve.BestProfit.StringFixed(2),
		Assessment:    policy.AssessThreshold(result.Curve.BestThreshold),
		Summary:       result.Summary,
		Curve:         result.Curve.Points,
		PRCurve:       result.PRCurve,
	})
}

// Optimize handles POST /api/v1/policy/optimize
func (h *PolicyHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, run, err := h.policy.Optimize(r.Context(), h.resolveParams(req), nil)
	if err != nil {
		writePolicyError(w, err)
		return
	}

	resp := OptimizeResponse{
		ModelVersion:  result.ModelVersion,
		BestThreshold: result.Curve.BestThreshold,
		BestProfit:    result.Curve.BestProfit.StringFixed(2),
		Assessment:    policy.AssessThreshold(result.Curve.BestThreshold),
		Summary:       result.Summary,
		Curve:         result.Curve.Points,
		PRCurve:       result.PRCurve,
	}
	if run != nil {
		resp.RunID = run.ID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// SimulateResponse is the outcome of evaluating one threshold
type SimulateResponse struct {
	Summary    *policy.Summary  `json:"summary"`
	Breakdown  policy.Breakdown `json:"breakdown"`
	Assessment string           `json:"assessment"`
}

// Simulate handles POST /api/v1/policy/simulate
func (h *PolicyHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	threshold := h.policy.DefaultThreshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	summary, breakdown, err := h.policy.Simulate(r.Context(), h.resolveParams(req), threshold)
	if err != nil {
		writePolicyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SimulateResponse{
		Summary:    summary,
		Breakdown:  breakdown,
		Assessment: policy.AssessThreshold(threshold),
	})
}

// Runs handles GET /api/v1/policy/runs
func (h *PolicyHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid query parameter: limit")
			return
		}
		limit = n
	}

	runs, err := h.policy.RecentRuns(r.Context(), limit)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"runs": []*models.PolicyRun{}})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func writePolicyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, policy.ErrInvalidParams),
		errors.Is(err, policy.ErrInvalidThreshold),
		errors.Is(err, policy.ErrEmptyGrid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, policy.ErrEmptyPortfolio):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
