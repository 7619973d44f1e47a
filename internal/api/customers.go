package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/churnguard/internal/models"
	"github.com/yourusername/churnguard/internal/policy"
	"github.com/yourusername/churnguard/internal/service"
)

// CustomersHandler serves single-customer scoring and what-if endpoints
type CustomersHandler struct {
	scoring *service.ScoringService
	policy  *service.PolicyService
}

// NewCustomersHandler creates a new customers handler
func NewCustomersHandler(scoringSvc *service.ScoringService, policySvc *service.PolicyService) *CustomersHandler {
	return &CustomersHandler{scoring: scoringSvc, policy: policySvc}
}

// ScoreRequest carries a customer profile and optional decision overrides
type ScoreRequest struct {
	Customer    *models.Customer `json:"customer"`
	CustomerLTV *float64         `json:"customer_ltv,omitempty"`
	OfferCost   *float64         `json:"offer_cost,omitempty"`
	Threshold   *float64         `json:"threshold,omitempty"`
}

// ScoreResponse pairs a churn probability with the retention decision
type ScoreResponse struct {
	CustomerID   string          `json:"customer_id"`
	Probability  float64         `json:"probability"`
	ModelVersion string          `json:"model_version"`
	Decision     policy.Decision `json:"decision"`
}

// Score handles POST /api/v1/customers/score
func (h *CustomersHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeBody(r, &req); err != nil || req.Customer == nil {
		writeError(w, http.StatusBadRequest, "invalid request body: customer is required")
		return
	}

	prediction, err := h.scoring.ScoreAdHoc(r.Context(), req.Customer)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.respond(w, prediction, req)
}

// ScoreByID handles GET /api/v1/customers/{id}/score
func (h *CustomersHandler) ScoreByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	_, prediction, err := h.scoring.ScoreCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.respond(w, prediction, ScoreRequest{})
}

func (h *CustomersHandler) respond(w http.ResponseWriter, prediction *models.Prediction, req ScoreRequest) {
	params := h.policy.DefaultParams()
	threshold := h.policy.DefaultThreshold()
	if req.CustomerLTV != nil {
		params.CustomerLTV = decimal.NewFromFloat(*req.CustomerLTV)
	}
	if req.OfferCost != nil {
		params.OfferCost = decimal.NewFromFloat(*req.OfferCost)
	}
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	decision := h.policy.Decide(prediction.Probability, threshold, params, prediction.CustomerID.String())

	writeJSON(w, http.StatusOK, ScoreResponse{
		CustomerID:   prediction.CustomerID.String(),
		Probability:  prediction.Probability,
		ModelVersion: prediction.ModelVersion,
		Decision:     decision,
	})
}

// SensitivityRequest sweeps one feature of a customer profile
type SensitivityRequest struct {
	Customer *models.Customer `json:"customer"`
	Feature  string           `json:"feature"`
	Values   []float64        `json:"values"`
}

// Sensitivity handles POST /api/v1/customers/sensitivity
func (h *CustomersHandler) Sensitivity(w http.ResponseWriter, r *http.Request) {
	var req SensitivityRequest
	if err := decodeBody(r, &req); err != nil || req.Customer == nil {
		writeError(w, http.StatusBadRequest, "invalid request body: customer is required")
		return
	}

	points, err := h.scoring.Sensitivity(r.Context(), req.Customer, req.Feature, req.Values)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"feature":            req.Feature,
		"points":             points,
		"supported_features": service.SensitivityFeatureNames(),
	})
}
