package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entra-demo/internal/domain"
)

func sessionCookie(id string) *http.Cookie {
	return &http.Cookie{Name: CookieName, Value: id}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	data := &Data{State: "abc", Claims: &domain.ClaimSet{OID: "oid-1"}}
	require.NoError(t, store.Put(ctx, "sid", data, time.Minute))

	got, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.State)
	require.NotNil(t, got.Claims)
	assert.Equal(t, "oid-1", got.Claims.OID)

	// Get returns a copy; mutating it must not affect the stored session.
	got.State = "mutated"
	again, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "abc", again.State)

	require.NoError(t, store.Delete(ctx, "sid"))
	_, err = store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid", &Data{State: "abc"}, -time.Second))
	_, err := store.Get(ctx, "sid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_LoadCreatesSessionAndCookie(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	sess := mgr.Load(w, r)
	require.NotEmpty(t, sess.ID())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, sess.ID(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestManager_LoadRoundTrip(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), false)
	ctx := context.Background()

	first := mgr.New()
	first.Data().State = "persisted"
	require.NoError(t, first.Save(ctx))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie(first.ID()))

	sess := mgr.Load(w, r)
	assert.Equal(t, first.ID(), sess.ID())
	assert.Equal(t, "persisted", sess.Data().State)
	// No new cookie issued for a known session.
	assert.Empty(t, w.Result().Cookies())
}

func TestManager_LoadReplacesExpiredSession(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, false)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "old-id", &Data{State: "stale"}, -time.Second))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie("old-id"))

	sess := mgr.Load(w, r)
	assert.NotEqual(t, "old-id", sess.ID())
	assert.Empty(t, sess.Data().State)
	require.Len(t, w.Result().Cookies(), 1)
}

func TestSession_Destroy(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), false)
	ctx := context.Background()

	sess := mgr.New()
	sess.Data().Claims = &domain.ClaimSet{OID: "oid-1"}
	require.NoError(t, sess.Save(ctx))

	require.NoError(t, sess.Destroy(ctx))
	assert.Nil(t, sess.Data().Claims)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(sessionCookie(sess.ID()))
	fresh := mgr.Load(w, r)
	assert.NotEqual(t, sess.ID(), fresh.ID())
}
