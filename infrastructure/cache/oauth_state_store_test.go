package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCodecRoundTrip(t *testing.T) {
	verifier := "v3rifier"
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := &model.OAuthState{State: "abc", UserID: "42", Platform: model.PlatformTwitter, CodeVerifier: &verifier, CreatedAt: created}

	raw, err := encodeState(in)
	require.NoError(t, err)
	out, err := decodeState("abc", raw)
	require.NoError(t, err)

	assert.Equal(t, "abc", out.State)
	assert.Equal(t, "42", out.UserID)
	assert.Equal(t, model.PlatformTwitter, out.Platform)
	require.NotNil(t, out.CodeVerifier)
	assert.Equal(t, verifier, *out.CodeVerifier)
	assert.True(t, created.Equal(out.CreatedAt))
}

func TestStateKeys(t *testing.T) {
	assert.Equal(t, "oauth_state:abc", stateKey("abc"))
	assert.Equal(t, "oauth_state_owner:42:linkedin", ownerKey("42", model.PlatformLinkedIn))
}

func TestDecodeStateRejectsGarbage(t *testing.T) {
	_, err := decodeState("abc", []byte("not json"))
	assert.Error(t, err)
}

func newMiniredisStore(t *testing.T) (*miniredis.Miniredis, *OAuthStateStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewOAuthStateStore(client).(*OAuthStateStore)
}

func TestOAuthStateStore_SingleUseAndInvalidation(t *testing.T) {
	_, store := newMiniredisStore(t)
	ctx := context.Background()
	first := &model.OAuthState{State: "first", UserID: "u1", Platform: model.PlatformLinkedIn}
	second := &model.OAuthState{State: "second", UserID: "u1", Platform: model.PlatformLinkedIn}

	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.InvalidateUnused(ctx, "u1", model.PlatformLinkedIn))
	require.NoError(t, store.Create(ctx, second))

	_, err := store.Consume(ctx, "first")
	require.ErrorIs(t, err, errs.ErrNotFound)

	got, err := store.Consume(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, got.Used)

	_, err = store.Consume(ctx, "second")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestOAuthStateStore_StaleStateIsReportedExpired(t *testing.T) {
	mr, store := newMiniredisStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return created }

	require.NoError(t, store.Create(ctx, &model.OAuthState{State: "late", UserID: "u1", Platform: model.PlatformTwitter}))
	require.NoError(t, store.Create(ctx, &model.OAuthState{State: "gone", UserID: "u2", Platform: model.PlatformTwitter}))
	assert.Greater(t, mr.TTL(stateKey("late")), model.OAuthStateTTL)

	mr.FastForward(model.OAuthStateTTL + time.Minute)
	got, err := store.Consume(ctx, "late")
	require.NoError(t, err)
	assert.True(t, got.Expired(created.Add(model.OAuthStateTTL+time.Minute)))

	mr.FastForward(model.OAuthStateTTL)
	_, err = store.Consume(ctx, "gone")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

// Runs against a real Redis when REDIS_TEST_ADDR is set.
func TestOAuthStateStore_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewCache(ctx, addr, "", os.Getenv("REDIS_TEST_PASSWORD"))
	require.NoError(t, err)
	defer client.Close()

	store := NewOAuthStateStore(client)
	first := &model.OAuthState{State: "first-" + time.Now().Format("150405.000"), UserID: "u1", Platform: model.PlatformLinkedIn}
	second := &model.OAuthState{State: "second-" + time.Now().Format("150405.000"), UserID: "u1", Platform: model.PlatformLinkedIn}

	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.InvalidateUnused(ctx, "u1", model.PlatformLinkedIn))
	require.NoError(t, store.Create(ctx, second))

	_, err = store.Consume(ctx, first.State)
	require.ErrorIs(t, err, errs.ErrNotFound)

	got, err := store.Consume(ctx, second.State)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = store.Consume(ctx, second.State)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
