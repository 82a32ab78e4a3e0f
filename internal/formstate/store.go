// Package formstate persists work-in-progress form answers: a single current
// autosave per form plus independently named drafts, all under one key
// namespace.
//
// The failure policy is asymmetric on purpose. Reads degrade softly (nil or
// empty results, logged) so presentation code only ever checks for nil;
// writes fail loudly so callers can tell the user their data was NOT saved.
// Delete and rename are best-effort cleanup and swallow errors.
package formstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/formscore/formscore/internal/kvstore"
	"github.com/formscore/formscore/internal/observability/metrics"
	"github.com/formscore/formscore/internal/schema"
	"github.com/formscore/formscore/pkg/logging"
)

// DefaultNamespace prefixes every key when no namespace is configured.
const DefaultNamespace = "formscore"

// Store persists form state through an injected key-value capability.
//
// A single mutex serializes operations so read-modify-write sequences on the
// drafts index are atomic within this process. Multiple processes sharing a
// backend keep last-write-wins semantics; the deployment model is one writer
// per form session.
type Store struct {
	mu      sync.Mutex
	kv      kvstore.KeyValueStore
	ns      string
	logger  *logging.Logger
	metrics *metrics.StoreMetrics

	now   func() time.Time
	newID func() string
}

// NewStore creates a form state store. metrics may be nil.
func NewStore(kv kvstore.KeyValueStore, namespace string, logger *logging.Logger, m *metrics.StoreMetrics) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		kv:      kv,
		ns:      namespace,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

func (s *Store) stateKey(formID string) string {
	return fmt.Sprintf("%s:%s", s.ns, formID)
}

func (s *Store) draftsIndexKey(formID string) string {
	return fmt.Sprintf("%s:drafts:%s", s.ns, formID)
}

func (s *Store) draftKey(formID, draftID string) string {
	return fmt.Sprintf("%s:draft:%s:%s", s.ns, formID, draftID)
}

// SaveFormState writes the current answers for a form. A non-empty draftID
// marks the state as belonging to that draft. Returns the written state.
func (s *Store) SaveFormState(ctx context.Context, formID string, values schema.FormValues, draftID string) (*PersistedFormState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observeLatency("save_state")()

	state, err := s.writeState(ctx, s.stateKey(formID), formID, values, draftID)
	if err != nil {
		s.metrics.ObserveOp("save_state", "error")
		return nil, err
	}
	s.metrics.ObserveOp("save_state", "ok")
	return state, nil
}

func (s *Store) writeState(ctx context.Context, key, formID string, values schema.FormValues, draftID string) (*PersistedFormState, error) {
	if values == nil {
		values = schema.FormValues{}
	}
	now := s.now()
	state := &PersistedFormState{
		FormID: formID,
		Values: values,
		AutoSave: AutoSaveState{
			LastSavedAt: now,
			IsDraft:     draftID != "",
			DraftID:     draftID,
		},
		Timestamp: now,
	}

	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error("failed to encode form state", "form_id", formID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		s.logger.Error("failed to persist form state", "form_id", formID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return state, nil
}

// LoadFormState returns the current state for a form, or nil when nothing is
// saved or the stored payload cannot be read. Load never fails hard.
func (s *Store) LoadFormState(ctx context.Context, formID string) *PersistedFormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observeLatency("load_state")()

	return s.readState(ctx, s.stateKey(formID), formID, "load_state")
}

func (s *Store) readState(ctx context.Context, key, formID, op string) *PersistedFormState {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if err != kvstore.ErrNotFound {
			s.logger.Warn("failed to read form state, degrading to empty", "form_id", formID, "error", err)
			s.metrics.ObserveOp(op, "error")
		} else {
			s.metrics.ObserveOp(op, "miss")
		}
		return nil
	}

	var state PersistedFormState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.logger.Warn("corrupt form state, degrading to empty", "form_id", formID, "error", err)
		s.metrics.ObserveOp(op, "error")
		return nil
	}
	s.metrics.ObserveOp(op, "ok")
	return &state
}

// ClearFormState removes the current state. Best-effort: failures are logged
// and swallowed.
func (s *Store) ClearFormState(ctx context.Context, formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, s.stateKey(formID)); err != nil {
		s.logger.Warn("failed to clear form state", "form_id", formID, "error", err)
		s.metrics.ObserveOp("clear_state", "error")
		return
	}
	s.metrics.ObserveOp("clear_state", "ok")
}

// SaveDraft snapshots values under a named draft and upserts the form's draft
// index. A fresh draft id is generated when draftID is empty. Returns the
// draft id.
func (s *Store) SaveDraft(ctx context.Context, formID, name string, values schema.FormValues, draftID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observeLatency("save_draft")()

	if draftID == "" {
		draftID = s.newID()
	}

	if _, err := s.writeState(ctx, s.draftKey(formID, draftID), formID, values, draftID); err != nil {
		s.metrics.ObserveOp("save_draft", "error")
		return "", err
	}

	now := s.now()
	index := s.readIndex(ctx, formID)
	found := false
	for i := range index {
		if index[i].ID == draftID {
			index[i].Name = name
			index[i].UpdatedAt = now
			found = true
			break
		}
	}
	if !found {
		index = append(index, DraftEntry{ID: draftID, Name: name, CreatedAt: now, UpdatedAt: now})
	}

	if err := s.writeIndex(ctx, formID, index); err != nil {
		s.metrics.ObserveOp("save_draft", "error")
		return "", err
	}

	s.metrics.ObserveOp("save_draft", "ok")
	return draftID, nil
}

// LoadDraft returns a draft's state, or nil when missing or unreadable.
func (s *Store) LoadDraft(ctx context.Context, formID, draftID string) *PersistedFormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observeLatency("load_draft")()

	return s.readState(ctx, s.draftKey(formID, draftID), formID, "load_draft")
}

// DraftsList returns the form's draft index, or an empty slice when the index
// is missing or unreadable.
func (s *Store) DraftsList(ctx context.Context, formID string) []DraftEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readIndex(ctx, formID)
}

func (s *Store) readIndex(ctx context.Context, formID string) []DraftEntry {
	raw, err := s.kv.Get(ctx, s.draftsIndexKey(formID))
	if err != nil {
		if err != kvstore.ErrNotFound {
			s.logger.Warn("failed to read drafts index, degrading to empty", "form_id", formID, "error", err)
		}
		return []DraftEntry{}
	}

	var index []DraftEntry
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		s.logger.Warn("corrupt drafts index, degrading to empty", "form_id", formID, "error", err)
		return []DraftEntry{}
	}
	return index
}

func (s *Store) writeIndex(ctx context.Context, formID string, index []DraftEntry) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := s.kv.Set(ctx, s.draftsIndexKey(formID), string(data)); err != nil {
		s.logger.Error("failed to persist drafts index", "form_id", formID, "error", err)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// DeleteDraft removes a draft's data and filters it out of the index.
// Best-effort: failures are logged and swallowed.
func (s *Store) DeleteDraft(ctx context.Context, formID, draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, s.draftKey(formID, draftID)); err != nil {
		s.logger.Warn("failed to delete draft data", "form_id", formID, "draft_id", draftID, "error", err)
	}

	index := s.readIndex(ctx, formID)
	filtered := index[:0]
	for _, entry := range index {
		if entry.ID != draftID {
			filtered = append(filtered, entry)
		}
	}
	if err := s.writeIndex(ctx, formID, filtered); err != nil {
		s.logger.Warn("failed to update drafts index after delete", "form_id", formID, "error", err)
	}
	s.metrics.ObserveOp("delete_draft", "ok")
}

// RenameDraft updates a draft's display name in the index. A missing draft is
// a no-op; failures are logged and swallowed.
func (s *Store) RenameDraft(ctx context.Context, formID, draftID, newName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.readIndex(ctx, formID)
	for i := range index {
		if index[i].ID != draftID {
			continue
		}
		index[i].Name = newName
		index[i].UpdatedAt = s.now()
		if err := s.writeIndex(ctx, formID, index); err != nil {
			s.logger.Warn("failed to rename draft", "form_id", formID, "draft_id", draftID, "error", err)
		}
		return
	}
}

// ExportFormState serializes the form's current state to a JSON string.
// Unlike Load, export fails when nothing is saved: exporting nothing is a
// caller mistake worth surfacing.
func (s *Store) ExportFormState(ctx context.Context, formID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, s.stateKey(formID))
	if err != nil {
		if err == kvstore.ErrNotFound {
			return "", fmt.Errorf("%w: %s", ErrNoState, formID)
		}
		return "", fmt.Errorf("formstate: failed to export state for %s: %w", formID, err)
	}
	return raw, nil
}

// ImportFormState parses an exported payload and saves it as the form's
// current state. The payload's formId must match the target form.
func (s *Store) ImportFormState(ctx context.Context, formID, payload string) (*PersistedFormState, error) {
	var state PersistedFormState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if state.FormID != formID {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrFormIDMismatch, state.FormID, formID)
	}
	return s.SaveFormState(ctx, formID, state.Values, state.AutoSave.DraftID)
}

// StorageInfo scans the namespace and reports aggregate usage.
func (s *Store) StorageInfo(ctx context.Context) (*StorageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.Keys(ctx, s.ns+":")
	if err != nil {
		return nil, fmt.Errorf("formstate: failed to scan namespace: %w", err)
	}

	info := &StorageInfo{Namespace: s.ns}
	forms := make(map[string]struct{})
	for _, key := range keys {
		value, err := s.kv.Get(ctx, key)
		if err != nil {
			continue
		}
		info.ItemCount++
		info.TotalBytes += int64(len(key) + len(value))

		rest := strings.TrimPrefix(key, s.ns+":")
		if !strings.Contains(rest, ":") {
			forms[rest] = struct{}{}
		}
	}
	info.FormCount = len(forms)
	return info, nil
}

// ClearAll purges every key under the namespace.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.Keys(ctx, s.ns+":")
	if err != nil {
		return fmt.Errorf("formstate: failed to scan namespace: %w", err)
	}
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("formstate: failed to purge key %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) observeLatency(op string) func() {
	start := time.Now()
	return func() {
		s.metrics.ObserveOpLatency(op, time.Since(start).Seconds())
	}
}
