// Package audit turns a verified claim set into a durable login audit row.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entra-demo/internal/domain"
)

// LoginStore persists one audit row per call.
type LoginStore interface {
	InsertLogin(ctx context.Context, rec domain.LoginRecord) error
}

// Recorder writes login audit records. Recording is best-effort by contract:
// it returns the error for the caller to log and discard, never to block the
// user-facing flow on.
type Recorder struct {
	store  LoginStore
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock injects the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRecorder creates a recorder backed by the given store.
func NewRecorder(store LoginStore, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{store: store, clock: time.Now, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends exactly one row for the claim set, or none on failure. The
// returned error is informational; callers deliberately discard it.
func (r *Recorder) Record(ctx context.Context, claims *domain.ClaimSet) error {
	if claims == nil {
		return fmt.Errorf("record login: no claims")
	}

	rec := toRecord(claims, r.clock())
	if err := r.store.InsertLogin(ctx, rec); err != nil {
		r.logger.Error("record login", "oid", claims.OID, "error", err)
		return fmt.Errorf("record login: %w", err)
	}

	r.logger.Debug("login recorded", "oid", claims.OID)
	return nil
}

// toRecord maps claims onto the user_logins columns. Absent string claims
// become NULL; iat/exp of zero become the Unix epoch. The epoch conversion is
// naive local time, matching how the rows have always been stored.
func toRecord(claims *domain.ClaimSet, now time.Time) domain.LoginRecord {
	return domain.LoginRecord{
		OID:               nullable(claims.OID),
		Name:              nullable(claims.Name),
		PreferredUsername: nullable(claims.PreferredUsername),
		Audience:          nullable(claims.Audience),
		Issuer:            nullable(claims.Issuer),
		IssuedAt:          time.Unix(claims.IssuedAt, 0),
		ExpiresAt:         time.Unix(claims.ExpiresAt, 0),
		TenantID:          nullable(claims.TenantID),
		AccessTime:        now,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
