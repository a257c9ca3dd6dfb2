package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/eligibility"
)

func newMiniredisStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewSessionStore(rdb, newTestBuilder(), time.Hour, logger.NewTestLogger(t)), mr
}

func cachedCount(s *SessionStore) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func TestSessionStore_PutAndGet(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	stored, err := store.Put(ctx, "s-1", creditWeightedArtifact())
	require.NoError(t, err)

	raw, err := mr.Get("eligibility:model:s-1")
	require.NoError(t, err)
	assert.Equal(t, string(creditWeightedArtifact()), raw)
	assert.Equal(t, time.Hour, mr.TTL("eligibility:model:s-1"))

	loaded, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Same(t, stored, loaded, "cached handle is reused while bytes are unchanged")
}

func TestSessionStore_RebuildsFromRedis(t *testing.T) {
	first, mr := newMiniredisStore(t)
	ctx := context.Background()

	_, err := first.Put(ctx, "s-2", creditWeightedArtifact())
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	second := NewSessionStore(rdb, newTestBuilder(), time.Hour, logger.NewNoOpLogger())

	handle, err := second.Get(ctx, "s-2")
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, "loan-approval", handle.Metadata().Name)
}

func TestSessionStore_ReplacedArtifactInvalidatesCache(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "s-3", creditWeightedArtifact())
	require.NoError(t, err)

	require.NoError(t, mr.Set("eligibility:model:s-3", string(treeArtifact())))

	handle, err := store.Get(ctx, "s-3")
	require.NoError(t, err)
	assert.Equal(t, KindDecisionTree, handle.Metadata().Kind)
}

func TestSessionStore_ExpiredSessionsLeaveCache(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()
	clock := time.Now()
	store.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		_, err := store.Put(ctx, fmt.Sprintf("abandoned-%d", i), creditWeightedArtifact())
		require.NoError(t, err)
	}
	assert.Equal(t, 50, cachedCount(store))

	mr.FastForward(2 * time.Hour)
	clock = clock.Add(2 * time.Hour)
	assert.Empty(t, mr.Keys())

	_, err := store.Put(ctx, "fresh", creditWeightedArtifact())
	require.NoError(t, err)
	assert.Equal(t, 1, cachedCount(store))

	handle, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, handle)
}

func TestSessionStore_MissingAndExpired(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	handle, err := store.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, handle)

	provider, err := store.Provider(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, provider)

	_, err = store.Put(ctx, "s-4", creditWeightedArtifact())
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	provider, err = store.Provider(ctx, "s-4")
	require.NoError(t, err)
	assert.Nil(t, provider)

	_, err = eligibility.Evaluate(ctx, eligibility.RawInputs{}, provider, eligibility.FieldOrderV1, nil)
	assert.ErrorIs(t, err, eligibility.ErrNoModelLoaded)
}

func TestSessionStore_RejectsInvalidArtifact(t *testing.T) {
	store, mr := newMiniredisStore(t)

	_, err := store.Put(context.Background(), "s-5", []byte(`{"kind":"svm"}`))
	assert.Equal(t, eligibility.KindModelLoadError, eligibility.KindOf(err))
	assert.False(t, mr.Exists("eligibility:model:s-5"))

	_, err = store.Put(context.Background(), "", creditWeightedArtifact())
	assert.Error(t, err)
}

func TestSessionStore_Delete(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "s-6", creditWeightedArtifact())
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "s-6"))

	assert.False(t, mr.Exists("eligibility:model:s-6"))
	handle, err := store.Get(ctx, "s-6")
	require.NoError(t, err)
	assert.Nil(t, handle)
}

func TestSessionStore_RedisErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSessionStore(db, newTestBuilder(), time.Minute, logger.NewNoOpLogger())
	ctx := context.Background()

	mock.ExpectGet("eligibility:model:s-7").SetErr(errors.New("connection refused"))
	_, err := store.Get(ctx, "s-7")
	assert.ErrorContains(t, err, "connection refused")

	mock.ExpectSet("eligibility:model:s-7", creditWeightedArtifact(), time.Minute).SetErr(errors.New("READONLY"))
	_, err = store.Put(ctx, "s-7", creditWeightedArtifact())
	assert.ErrorContains(t, err, "READONLY")

	assert.NoError(t, mock.ExpectationsWereMet())
}
