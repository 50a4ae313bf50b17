// Package session provides the server-side browser session used by the
// identity gateway as its token cache. The gateway never holds a session
// itself; handlers load one per request and pass it in explicitly.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"entra-demo/internal/domain"
)

// ErrNotFound is returned by a Store when no session exists for the ID.
var ErrNotFound = errors.New("session not found")

// CookieName identifies the browser session.
const CookieName = "entra_session"

// DefaultTTL bounds how long an idle session survives server-side.
const DefaultTTL = 24 * time.Hour

// Data is everything stored server-side for one browser session. The token
// and claims are owned by the identity gateway; the state/nonce/verifier
// triple only lives between begin-login and the callback.
type Data struct {
	State        string           `json:"state,omitempty"`
	Nonce        string           `json:"nonce,omitempty"`
	PKCEVerifier string           `json:"pkce_verifier,omitempty"`
	Claims       *domain.ClaimSet `json:"claims,omitempty"`
	Token        *oauth2.Token    `json:"token,omitempty"`
}

// Store persists session data by ID.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Put(ctx context.Context, id string, data *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Manager ties sessions to the browser via an HttpOnly cookie.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
}

// NewManager creates a session manager. secure controls the cookie's Secure
// flag and should be true behind TLS.
func NewManager(store Store, secure bool) *Manager {
	return &Manager{store: store, ttl: DefaultTTL, secure: secure}
}

// New returns an empty session with a fresh ID that has not been persisted.
func (m *Manager) New() *Session {
	return &Session{id: uuid.NewString(), data: &Data{}, store: m.store, ttl: m.ttl}
}

// Load resolves the request's session, creating a new one (and setting the
// cookie) when the request carries none or the stored copy has expired.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		data, err := m.store.Get(r.Context(), cookie.Value)
		if err == nil {
			return &Session{id: cookie.Value, data: data, store: m.store, ttl: m.ttl}
		}
	}

	sess := m.New()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl / time.Second),
	})
	return sess
}

// Session is one browser session bound to its backing store.
type Session struct {
	id    string
	data  *Data
	store Store
	ttl   time.Duration
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// Data returns the mutable session payload. Call Save to persist changes.
func (s *Session) Data() *Data { return s.data }

// Save writes the session payload back to the store.
func (s *Session) Save(ctx context.Context) error {
	return s.store.Put(ctx, s.id, s.data, s.ttl)
}

// Destroy removes the session server-side and clears the in-memory payload.
func (s *Session) Destroy(ctx context.Context) error {
	s.data = &Data{}
	return s.store.Delete(ctx, s.id)
}
