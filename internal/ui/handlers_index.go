package ui

import (
	"net/http"

	"entra-demo/internal/service/downstream"
)

// Index renders the home page. The configuration check takes precedence over
// the authentication check.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if !h.Cfg.HasClientCredentials() || h.Gateway == nil {
		renderHTML(w, http.StatusOK, configErrorPage())
		return
	}

	sess := h.Sessions.Load(w, r)
	user := h.Gateway.CurrentUser(sess)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	renderHTML(w, http.StatusOK, indexPage(user, h.Cfg.B2CProfileAuthority))
}

// CallDownstreamAPI runs the downstream orchestrator and renders its outcome.
func (h *Handler) CallDownstreamAPI(w http.ResponseWriter, r *http.Request) {
	if h.Gateway == nil {
		renderHTML(w, http.StatusOK, configErrorPage())
		return
	}

	sess := h.Sessions.Load(w, r)
	result := h.Downstream.Call(r.Context(), sess)
	switch result.Outcome {
	case downstream.OutcomeRedirectToLogin:
		http.Redirect(w, r, "/login", http.StatusFound)
	case downstream.OutcomeResult:
		renderHTML(w, http.StatusOK, displayPage(result.Payload))
	default:
		RenderError(w, http.StatusOK, "An error occurred while fetching data.")
	}
}
