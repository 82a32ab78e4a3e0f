package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formscore/formscore/internal/formstate"
	"github.com/formscore/formscore/internal/schema"
	"github.com/formscore/formscore/pkg/logging"
)

// StateHandler serves autosave state, drafts, and import/export.
type StateHandler struct {
	store  *formstate.Store
	logger *logging.Logger
}

// NewStateHandler creates a state handler.
func NewStateHandler(store *formstate.Store, logger *logging.Logger) *StateHandler {
	return &StateHandler{
		store:  store,
		logger: logger,
	}
}

type saveStateRequest struct {
	Values  schema.FormValues `json:"values"`
	DraftID string            `json:"draftId,omitempty"`
}

// SaveState handles PUT /forms/{formID}/state requests
func (h *StateHandler) SaveState(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	var req saveStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode state payload", "form_id", formID, "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	state, err := h.store.SaveFormState(r.Context(), formID, req.Values, req.DraftID)
	if err != nil {
		h.logger.Error("failed to save form state", "form_id", formID, "error", err)
		http.Error(w, "Failed to save form state", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// LoadState handles GET /forms/{formID}/state requests
func (h *StateHandler) LoadState(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	state := h.store.LoadFormState(r.Context(), formID)
	if state == nil {
		http.Error(w, "no saved state", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ClearState handles DELETE /forms/{formID}/state requests
func (h *StateHandler) ClearState(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	h.store.ClearFormState(r.Context(), formID)
	w.WriteHeader(http.StatusNoContent)
}

type saveDraftRequest struct {
	Name    string            `json:"name"`
	Values  schema.FormValues `json:"values"`
	DraftID string            `json:"draftId,omitempty"`
}

// SaveDraft handles POST /forms/{formID}/drafts requests
func (h *StateHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	var req saveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode draft payload", "form_id", formID, "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "draft name is required", http.StatusBadRequest)
		return
	}

	draftID, err := h.store.SaveDraft(r.Context(), formID, req.Name, req.Values, req.DraftID)
	if err != nil {
		h.logger.Error("failed to save draft", "form_id", formID, "error", err)
		http.Error(w, "Failed to save draft", http.StatusInternalServerError)
		return
	}

	h.logger.Info("draft saved", "form_id", formID, "draft_id", draftID)
	writeJSON(w, http.StatusCreated, map[string]string{"draftId": draftID})
}

// ListDrafts handles GET /forms/{formID}/drafts requests
func (h *StateHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	drafts := h.store.DraftsList(r.Context(), formID)
	writeJSON(w, http.StatusOK, map[string]any{
		"drafts": drafts,
		"count":  len(drafts),
	})
}

// LoadDraft handles GET /forms/{formID}/drafts/{draftID} requests
func (h *StateHandler) LoadDraft(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	draftID := chi.URLParam(r, "draftID")

	state := h.store.LoadDraft(r.Context(), formID, draftID)
	if state == nil {
		http.Error(w, "draft not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteDraft handles DELETE /forms/{formID}/drafts/{draftID} requests
func (h *StateHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	draftID := chi.URLParam(r, "draftID")

	h.store.DeleteDraft(r.Context(), formID, draftID)
	w.WriteHeader(http.StatusNoContent)
}

type renameDraftRequest struct {
	Name string `json:"name"`
}

// RenameDraft handles PATCH /forms/{formID}/drafts/{draftID} requests
func (h *StateHandler) RenameDraft(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	draftID := chi.URLParam(r, "draftID")

	var req renameDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "new name is required", http.StatusBadRequest)
		return
	}

	h.store.RenameDraft(r.Context(), formID, draftID, req.Name)
	w.WriteHeader(http.StatusNoContent)
}

// ExportState handles GET /forms/{formID}/export requests
func (h *StateHandler) ExportState(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	payload, err := h.store.ExportFormState(r.Context(), formID)
	if err != nil {
		if errors.Is(err, formstate.ErrNoState) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to export form state", "form_id", formID, "error", err)
		http.Error(w, "Failed to export form state", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(payload))
}

// ImportState handles POST /forms/{formID}/import requests
func (h *StateHandler) ImportState(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	state, err := h.store.ImportFormState(r.Context(), formID, string(payload))
	if err != nil {
		switch {
		case errors.Is(err, formstate.ErrFormIDMismatch):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, formstate.ErrInvalidPayload):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to import form state", "form_id", formID, "error", err)
			http.Error(w, "Failed to import form state", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// StorageInfo handles GET /storage/info requests
func (h *StateHandler) StorageInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.StorageInfo(r.Context())
	if err != nil {
		h.logger.Error("failed to gather storage info", "error", err)
		http.Error(w, "Failed to gather storage info", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ClearStorage handles DELETE /storage requests
func (h *StateHandler) ClearStorage(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAll(r.Context()); err != nil {
		h.logger.Error("failed to clear storage", "error", err)
		http.Error(w, "Failed to clear storage", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
