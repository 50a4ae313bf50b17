// Package ui wires the HTTP routes to the identity gateway and the
// downstream orchestrator, and renders the server-side pages.
package ui

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	gomponents "maragu.dev/gomponents"

	"entra-demo/internal/config"
	"entra-demo/internal/domain"
	"entra-demo/internal/identity"
	"entra-demo/internal/service/downstream"
	"entra-demo/internal/session"
)

// appVersion is surfaced in the page footers.
const appVersion = "0.8.0"

// AuthGateway is the slice of the identity gateway the handlers call.
type AuthGateway interface {
	LogIn(ctx context.Context, sess *session.Session) (identity.AuthParams, error)
	CompleteLogIn(ctx context.Context, sess *session.Session, query url.Values) error
	CurrentUser(sess *session.Session) *domain.ClaimSet
	LogOut(ctx context.Context, sess *session.Session, postLogoutRedirect string) (string, error)
}

// DownstreamService runs the call-downstream-API flow.
type DownstreamService interface {
	Call(ctx context.Context, sess *session.Session) downstream.Result
}

// Handler holds the dependencies for all routes. Gateway is nil when client
// credentials are missing; every route that needs it renders the
// config-error page instead.
type Handler struct {
	Gateway    AuthGateway
	Downstream DownstreamService
	Sessions   *session.Manager
	Cfg        *config.Config
	Logger     *slog.Logger
}

// NewHandler builds the route handler.
func NewHandler(
	gateway AuthGateway,
	downstreamSvc DownstreamService,
	sessions *session.Manager,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		Gateway:    gateway,
		Downstream: downstreamSvc,
		Sessions:   sessions,
		Cfg:        cfg,
		Logger:     logger,
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

// RenderError renders the generic error page. It is also handed to the
// recovery middleware so panics end up on the same page.
func RenderError(w http.ResponseWriter, status int, message string) {
	renderHTML(w, status, errorPage(message))
}
