package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formscore/formscore/internal/conditions"
	"github.com/formscore/formscore/internal/forms"
	"github.com/formscore/formscore/internal/observability/metrics"
	"github.com/formscore/formscore/internal/schema"
	"github.com/formscore/formscore/internal/scoring"
	"github.com/formscore/formscore/internal/validation"
	"github.com/formscore/formscore/pkg/logging"
)

// FormsHandler serves form configs and stateless evaluation: visibility,
// validation and risk scoring.
type FormsHandler struct {
	registry *forms.Registry
	logger   *logging.Logger
	metrics  *metrics.EngineMetrics
}

// NewFormsHandler creates a forms handler. metrics may be nil.
func NewFormsHandler(registry *forms.Registry, logger *logging.Logger, m *metrics.EngineMetrics) *FormsHandler {
	return &FormsHandler{
		registry: registry,
		logger:   logger,
		metrics:  m,
	}
}

// ListForms handles GET /forms requests
func (h *FormsHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	list := h.registry.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"forms": list,
		"count": len(list),
	})
}

// GetForm handles GET /forms/{formID} requests
func (h *FormsHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// RegisterForm handles POST /forms requests
func (h *FormsHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	var cfg schema.FormConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.logger.Error("failed to decode form config", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.registry.Register(&cfg); err != nil {
		if errors.Is(err, forms.ErrAlreadyRegistered) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("form registered", "form_id", cfg.ID)
	writeJSON(w, http.StatusCreated, cfg)
}

type evaluateRequest struct {
	Values schema.FormValues `json:"values"`
}

// Visibility handles POST /forms/{formID}/visibility requests
func (h *FormsHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	cfg, values, ok := h.decodeEvaluate(w, r)
	if !ok {
		return
	}

	visible := conditions.VisibleQuestions(cfg.Questions(), values)
	ids := make([]string, 0, len(visible))
	for _, q := range visible {
		ids = append(ids, q.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{"visible": ids})
}

// Validate handles POST /forms/{formID}/validate requests
func (h *FormsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cfg, values, ok := h.decodeEvaluate(w, r)
	if !ok {
		return
	}

	errs := validation.ValidateForm(cfg.Questions(), values)
	valid := len(errs) == 0
	h.metrics.ObserveValidation(cfg.ID, valid)

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  valid,
		"errors": errs,
	})
}

// Score handles POST /forms/{formID}/score requests
func (h *FormsHandler) Score(w http.ResponseWriter, r *http.Request) {
	cfg, values, ok := h.decodeEvaluate(w, r)
	if !ok {
		return
	}

	score := scoring.CalculateRiskScore(cfg, values)
	h.metrics.ObserveScore(cfg.ID, string(score.Level), float64(score.TotalScore))

	writeJSON(w, http.StatusOK, score)
}

func (h *FormsHandler) lookup(w http.ResponseWriter, r *http.Request) (*schema.FormConfig, bool) {
	formID := chi.URLParam(r, "formID")
	cfg, err := h.registry.Get(formID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return cfg, true
}

func (h *FormsHandler) decodeEvaluate(w http.ResponseWriter, r *http.Request) (*schema.FormConfig, schema.FormValues, bool) {
	cfg, ok := h.lookup(w, r)
	if !ok {
		return nil, nil, false
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode form values", "form_id", cfg.ID, "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, nil, false
	}
	if req.Values == nil {
		req.Values = schema.FormValues{}
	}

	if err := req.Values.CheckShapes(cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}
	return cfg, req.Values, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
