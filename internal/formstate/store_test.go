package formstate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formscore/formscore/internal/kvstore"
	"github.com/formscore/formscore/internal/schema"
	"github.com/formscore/formscore/pkg/logging"
)

func newTestStore(t *testing.T) (*Store, *kvstore.MemoryStore) {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	store := NewStore(kv, "fs", logging.NewWithWriter("error", testWriter{t}), nil)

	seq := 0
	store.newID = func() string {
		seq++
		return fmt.Sprintf("draft-%d", seq)
	}
	store.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return store, kv
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func sampleValues() schema.FormValues {
	return schema.FormValues{
		"name": schema.StringValue("Ada"),
		"age":  schema.NumberValue(36),
		"tags": schema.ListValue("vip"),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveFormState(ctx, "kyc", sampleValues(), "")
	require.NoError(t, err)
	assert.Equal(t, "kyc", saved.FormID)
	assert.False(t, saved.AutoSave.IsDraft)
	assert.Empty(t, saved.AutoSave.DraftID)

	loaded := store.LoadFormState(ctx, "kyc")
	require.NotNil(t, loaded)
	assert.Equal(t, sampleValues(), loaded.Values)
	assert.Equal(t, saved.Timestamp, loaded.Timestamp)
}

func TestLoadMissingIsNil(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Nil(t, store.LoadFormState(context.Background(), "nothing-here"))
}

func TestLoadCorruptStateDegradesToNil(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "fs:kyc", "{not json"))
	assert.Nil(t, store.LoadFormState(ctx, "kyc"))
}

func TestClearFormState(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveFormState(ctx, "kyc", sampleValues(), "")
	require.NoError(t, err)

	store.ClearFormState(ctx, "kyc")
	assert.Nil(t, store.LoadFormState(ctx, "kyc"))
}

func TestDraftLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id1, err := store.SaveDraft(ctx, "kyc", "first pass", sampleValues(), "")
	require.NoError(t, err)
	assert.Equal(t, "draft-1", id1)

	id2, err := store.SaveDraft(ctx, "kyc", "second pass", sampleValues(), "")
	require.NoError(t, err)
	require.Len(t, store.DraftsList(ctx, "kyc"), 2)

	// Saving an existing draft updates the entry instead of appending.
	_, err = store.SaveDraft(ctx, "kyc", "first pass, revised", sampleValues(), id1)
	require.NoError(t, err)
	index := store.DraftsList(ctx, "kyc")
	require.Len(t, index, 2)
	assert.Equal(t, "first pass, revised", index[0].Name)

	loaded := store.LoadDraft(ctx, "kyc", id1)
	require.NotNil(t, loaded)
	assert.True(t, loaded.AutoSave.IsDraft)
	assert.Equal(t, id1, loaded.AutoSave.DraftID)
	assert.Equal(t, sampleValues(), loaded.Values)

	store.DeleteDraft(ctx, "kyc", id1)
	index = store.DraftsList(ctx, "kyc")
	require.Len(t, index, 1)
	assert.Equal(t, id2, index[0].ID)
	assert.Nil(t, store.LoadDraft(ctx, "kyc", id1))
}

func TestRenameDraft(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveDraft(ctx, "kyc", "old name", sampleValues(), "")
	require.NoError(t, err)

	store.RenameDraft(ctx, "kyc", id, "new name")
	index := store.DraftsList(ctx, "kyc")
	require.Len(t, index, 1)
	assert.Equal(t, "new name", index[0].Name)

	// Renaming an unknown draft is a no-op.
	store.RenameDraft(ctx, "kyc", "ghost", "whatever")
	assert.Len(t, store.DraftsList(ctx, "kyc"), 1)
}

func TestDraftsListDegradesToEmpty(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	assert.Empty(t, store.DraftsList(ctx, "kyc"))

	require.NoError(t, kv.Set(ctx, "fs:drafts:kyc", "[{corrupt"))
	assert.Empty(t, store.DraftsList(ctx, "kyc"))
}

func TestExportImportRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.ExportFormState(ctx, "kyc")
	assert.ErrorIs(t, err, ErrNoState)

	_, err = store.SaveFormState(ctx, "kyc", sampleValues(), "")
	require.NoError(t, err)

	payload, err := store.ExportFormState(ctx, "kyc")
	require.NoError(t, err)

	store.ClearFormState(ctx, "kyc")
	imported, err := store.ImportFormState(ctx, "kyc", payload)
	require.NoError(t, err)
	assert.Equal(t, sampleValues(), imported.Values)

	loaded := store.LoadFormState(ctx, "kyc")
	require.NotNil(t, loaded)
	assert.Equal(t, sampleValues(), loaded.Values)
}

func TestImportMismatchAndGarbage(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveFormState(ctx, "kyc", sampleValues(), "")
	require.NoError(t, err)
	payload, err := store.ExportFormState(ctx, "kyc")
	require.NoError(t, err)

	_, err = store.ImportFormState(ctx, "other-form", payload)
	assert.ErrorIs(t, err, ErrFormIDMismatch)

	_, err = store.ImportFormState(ctx, "kyc", "not json at all")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestStorageInfoAndClearAll(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveFormState(ctx, "kyc", sampleValues(), "")
	require.NoError(t, err)
	_, err = store.SaveFormState(ctx, "onboarding", sampleValues(), "")
	require.NoError(t, err)
	_, err = store.SaveDraft(ctx, "kyc", "wip", sampleValues(), "")
	require.NoError(t, err)

	// A key outside the namespace must not be counted or purged.
	require.NoError(t, kv.Set(ctx, "unrelated:key", "x"))

	info, err := store.StorageInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fs", info.Namespace)
	assert.Equal(t, 4, info.ItemCount, "two states, one draft, one index")
	assert.Equal(t, 2, info.FormCount)
	assert.Positive(t, info.TotalBytes)

	require.NoError(t, store.ClearAll(ctx))

	info, err = store.StorageInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.ItemCount)

	_, err = kv.Get(ctx, "unrelated:key")
	assert.NoError(t, err)
}

// failingKV simulates a backend whose writes fail.
type failingKV struct {
	kvstore.KeyValueStore
	setErr error
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.KeyValueStore.Set(ctx, key, value)
}

func TestWriteFailuresAreLoud(t *testing.T) {
	kv := &failingKV{KeyValueStore: kvstore.NewMemoryStore(), setErr: errors.New("disk full")}
	store := NewStore(kv, "fs", logging.NewWithWriter("error", testWriter{t}), nil)
	ctx := context.Background()

	_, err := store.SaveFormState(ctx, "kyc", sampleValues(), "")
	assert.ErrorIs(t, err, ErrWriteFailed)

	_, err = store.SaveDraft(ctx, "kyc", "wip", sampleValues(), "")
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestDefaultDraftIDsAreUnique(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	store := NewStore(kv, "fs", logging.NewWithWriter("error", testWriter{t}), nil)
	ctx := context.Background()

	id1, err := store.SaveDraft(ctx, "kyc", "a", nil, "")
	require.NoError(t, err)
	id2, err := store.SaveDraft(ctx, "kyc", "b", nil, "")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Len(t, store.DraftsList(ctx, "kyc"), 2)
}
