// Package downstream orchestrates the call-downstream-API flow: acquire a
// token, record the login, relay the token to the API.
package downstream

import (
	"context"
	"log/slog"

	"entra-demo/internal/domain"
	"entra-demo/internal/session"
)

// Outcome is the terminal state of one Call invocation.
type Outcome int

const (
	// OutcomeResult carries the parsed downstream payload.
	OutcomeResult Outcome = iota
	// OutcomeRedirectToLogin means the session needs re-authentication.
	OutcomeRedirectToLogin
	// OutcomeError is any failure after token acquisition; detail is logged,
	// never shown.
	OutcomeError
)

// Result is what the handler renders.
type Result struct {
	Outcome Outcome
	Payload map[string]any
}

// TokenSource is the slice of the identity gateway this service needs.
type TokenSource interface {
	TokenForUser(ctx context.Context, sess *session.Session, scopes []string) (string, error)
	CurrentUser(sess *session.Session) *domain.ClaimSet
}

// Recorder appends the login audit row.
type Recorder interface {
	Record(ctx context.Context, claims *domain.ClaimSet) error
}

// API is the downstream HTTP client.
type API interface {
	Me(ctx context.Context, accessToken string) (map[string]any, error)
}

// Service runs the downstream-call state machine.
type Service struct {
	gateway  TokenSource
	recorder Recorder
	api      API
	scopes   []string
	logger   *slog.Logger
}

// NewService wires the orchestrator.
func NewService(gateway TokenSource, recorder Recorder, api API, scopes []string, logger *slog.Logger) *Service {
	return &Service{gateway: gateway, recorder: recorder, api: api, scopes: scopes, logger: logger}
}

// Call acquires a token for the session, records the login, and relays the
// token to the downstream API. The audit row is written before the API call,
// so a downstream failure still leaves exactly one row.
func (s *Service) Call(ctx context.Context, sess *session.Session) Result {
	token, err := s.gateway.TokenForUser(ctx, sess, s.scopes)
	if err != nil {
		// Expired session or revoked consent: back to login, nothing recorded.
		s.logger.Info("token acquisition failed, re-authentication required", "error", err)
		return Result{Outcome: OutcomeRedirectToLogin}
	}

	// Best-effort audit: the error channel is discarded on purpose, the
	// recorder has already logged it.
	_ = s.recorder.Record(ctx, s.gateway.CurrentUser(sess))

	payload, err := s.api.Me(ctx, token)
	if err != nil {
		s.logger.Error("downstream API call failed", "error", err)
		return Result{Outcome: OutcomeError}
	}

	return Result{Outcome: OutcomeResult, Payload: payload}
}
