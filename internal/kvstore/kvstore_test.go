package kvstore

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, store KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "fs:missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "fs:kyc", `{"a":1}`))
	require.NoError(t, store.Set(ctx, "fs:drafts:kyc", `[]`))
	require.NoError(t, store.Set(ctx, "other:kyc", `x`))

	value, err := store.Get(ctx, "fs:kyc")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, value)

	require.NoError(t, store.Set(ctx, "fs:kyc", `{"a":2}`))
	value, err = store.Get(ctx, "fs:kyc")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, value, "set replaces")

	keys, err := store.Keys(ctx, "fs:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fs:kyc", "fs:drafts:kyc"}, keys)

	require.NoError(t, store.Delete(ctx, "fs:kyc"))
	_, err = store.Get(ctx, "fs:kyc")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "fs:kyc"), "deleting a missing key is fine")
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	runStoreContract(t, NewRedisStore(client, nil))
}

func TestRedisStoreGetFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, nil)

	mr.Close()

	_, err := store.Get(context.Background(), "fs:kyc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound, "connection failures are not missing keys")
}
