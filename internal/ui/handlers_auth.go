package ui

import (
	"errors"
	"net/http"

	"entra-demo/internal/identity"
)

// Login starts the authorization-code flow and renders the sign-in page with
// the gateway-provided parameters.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Gateway == nil {
		renderHTML(w, http.StatusOK, configErrorPage())
		return
	}

	sess := h.Sessions.Load(w, r)
	params, err := h.Gateway.LogIn(r.Context(), sess)
	if err != nil {
		h.Logger.Error("begin login", "error", err)
		RenderError(w, http.StatusInternalServerError, "Could not start the sign-in flow.")
		return
	}
	renderHTML(w, http.StatusOK, loginPage(params.AuthURL, h.Cfg.B2CResetPasswordAuthority))
}

// AuthResponse is the OAuth redirect callback. Provider-reported errors are
// shown with their detail; anything else redirects back to the index.
func (h *Handler) AuthResponse(w http.ResponseWriter, r *http.Request) {
	if h.Gateway == nil {
		renderHTML(w, http.StatusOK, configErrorPage())
		return
	}

	sess := h.Sessions.Load(w, r)
	if err := h.Gateway.CompleteLogIn(r.Context(), sess, r.URL.Query()); err != nil {
		var authErr *identity.AuthError
		if errors.As(err, &authErr) {
			renderHTML(w, http.StatusOK, authErrorPage(authErr.Code, authErr.Description))
			return
		}
		h.Logger.Error("complete login", "error", err)
		renderHTML(w, http.StatusOK, authErrorPage("login_failed", "The sign-in response could not be processed."))
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout clears the session and sends the browser to the provider's
// end-session endpoint.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.Gateway == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	sess := h.Sessions.Load(w, r)
	target, err := h.Gateway.LogOut(r.Context(), sess, h.Cfg.ExternalURL+"/")
	if err != nil {
		h.Logger.Error("logout", "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
