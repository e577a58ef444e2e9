package transcript

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T, opts ...StoreOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, opts...)
	require.NoError(t, err)
	return store, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newRedisTestStore(t, WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	tr := New("s1", time.Now())
	tr.Append(RoleUser, "churn by segment?", time.Now())
	tr.Append(RoleAssistant, "Enterprise churn is 2%.", time.Now())
	require.NoError(t, store.Save(ctx, tr))

	assert.True(t, mr.Exists("genie:transcript:s1"))
	assert.Equal(t, time.Hour, mr.TTL("genie:transcript:s1"))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, RoleAssistant, got.Turns[1].Role)
	assert.Equal(t, "Enterprise churn is 2%.", got.Turns[1].Content)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisTestStore(t, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New("s2", time.Now())))
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "s2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	store, mr := newRedisTestStore(t, WithKeyPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New("s3", time.Now())))
	assert.True(t, mr.Exists("test:s3"))

	require.NoError(t, store.Delete(ctx, "s3"))
	assert.False(t, mr.Exists("test:s3"))

	_, err := store.Load(ctx, "s3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreRejectsInvalid(t *testing.T) {
	store, _ := newRedisTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, nil), ErrNilTranscript)
	assert.ErrorIs(t, store.Save(ctx, &Transcript{}), ErrInvalidSession)
	assert.ErrorIs(t, store.Delete(ctx, ""), ErrInvalidSession)
}
