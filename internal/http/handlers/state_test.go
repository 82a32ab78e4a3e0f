package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formscore/formscore/internal/formstate"
	"github.com/formscore/formscore/internal/kvstore"
	"github.com/formscore/formscore/internal/schema"
	"github.com/formscore/formscore/pkg/logging"
)

func newStateRouter(t *testing.T) (*chi.Mux, *formstate.Store) {
	t.Helper()

	store := formstate.NewStore(kvstore.NewMemoryStore(), "fs", logging.Default(), nil)
	h := NewStateHandler(store, logging.Default())

	r := chi.NewRouter()
	r.Route("/forms/{formID}", func(r chi.Router) {
		r.Put("/state", h.SaveState)
		r.Get("/state", h.LoadState)
		r.Delete("/state", h.ClearState)
		r.Post("/drafts", h.SaveDraft)
		r.Get("/drafts", h.ListDrafts)
		r.Get("/drafts/{draftID}", h.LoadDraft)
		r.Delete("/drafts/{draftID}", h.DeleteDraft)
		r.Patch("/drafts/{draftID}", h.RenameDraft)
		r.Get("/export", h.ExportState)
		r.Post("/import", h.ImportState)
	})
	r.Get("/storage/info", h.StorageInfo)
	r.Delete("/storage", h.ClearStorage)
	return r, store
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestSaveStateEchoesPersistedState(t *testing.T) {
	r, _ := newStateRouter(t)

	rr := do(t, r, http.MethodPut, "/forms/intake/state", `{"values":{"age":40}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var state formstate.PersistedFormState
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, "intake", state.FormID)
	assert.Equal(t, schema.NumberValue(40), state.Values["age"])
	assert.False(t, state.Timestamp.IsZero())
	assert.False(t, state.AutoSave.IsDraft)
}

func TestSaveStateBadBody(t *testing.T) {
	r, _ := newStateRouter(t)
	rr := do(t, r, http.MethodPut, "/forms/intake/state", "not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSaveDraftRequiresName(t *testing.T) {
	r, _ := newStateRouter(t)
	rr := do(t, r, http.MethodPost, "/forms/intake/drafts", `{"values":{}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRenameDraftRequiresName(t *testing.T) {
	r, _ := newStateRouter(t)
	rr := do(t, r, http.MethodPatch, "/forms/intake/drafts/d1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportMissingStateIs404(t *testing.T) {
	r, _ := newStateRouter(t)
	rr := do(t, r, http.MethodGet, "/forms/intake/export", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestImportGarbageIs400(t *testing.T) {
	r, _ := newStateRouter(t)
	rr := do(t, r, http.MethodPost, "/forms/intake/import", "not json at all")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestImportMismatchedFormIs409(t *testing.T) {
	r, _ := newStateRouter(t)

	require.Equal(t, http.StatusOK,
		do(t, r, http.MethodPut, "/forms/other/state", `{"values":{}}`).Code)
	exported := do(t, r, http.MethodGet, "/forms/other/export", "")
	require.Equal(t, http.StatusOK, exported.Code)

	rr := do(t, r, http.MethodPost, "/forms/intake/import", exported.Body.String())
	assert.Equal(t, http.StatusConflict, rr.Code)
}
