package formstate

import (
	"time"

	"github.com/formscore/formscore/internal/schema"
)

// PersistedFormState is the stored snapshot of one form's answers, either the
// single current autosave or a named draft.
type PersistedFormState struct {
	FormID    string            `json:"formId"`
	Values    schema.FormValues `json:"values"`
	AutoSave  AutoSaveState     `json:"autoSave"`
	Timestamp time.Time         `json:"timestamp"`
}

// AutoSaveState carries save metadata. DraftID is empty for the current
// autosave state.
type AutoSaveState struct {
	LastSavedAt time.Time `json:"lastSavedAt"`
	IsDraft     bool      `json:"isDraft"`
	DraftID     string    `json:"draftId"`
}

// DraftEntry is one row of a form's draft index.
type DraftEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StorageInfo aggregates usage across the whole namespace.
type StorageInfo struct {
	Namespace  string `json:"namespace"`
	ItemCount  int    `json:"itemCount"`
	FormCount  int    `json:"formCount"`
	TotalBytes int64  `json:"totalBytes"`
}
