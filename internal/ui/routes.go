package ui

import (
	"github.com/go-chi/chi/v5"

	"entra-demo/internal/config"
)

// MountRoutes registers the five application routes. Only GET is accepted.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Index)
	r.Get("/login", h.Login)
	r.Get(config.RedirectPath, h.AuthResponse)
	r.Get("/call_downstream_api", h.CallDownstreamAPI)
	r.Get("/logout", h.Logout)
}
