// Package identity wraps the OIDC authorization-code flow against Microsoft
// Entra ID / B2C. The gateway is stateless between requests: every operation
// takes the caller's session explicitly, which doubles as the token cache.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"entra-demo/internal/domain"
	"entra-demo/internal/session"
)

// Config carries the app-registration settings for one authority.
type Config struct {
	Authority    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// AuthError is a callback failure reported by the provider itself, surfaced
// to the auth-error page with its original detail.
type AuthError struct {
	Code        string
	Description string
}

func (e *AuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

// AuthParams is what the login page needs to send the user to the provider.
type AuthParams struct {
	AuthURL string
	State   string
}

// Gateway performs begin-login, complete-login, token acquisition, and
// logout-URL construction against a single discovered authority.
type Gateway struct {
	oauth      oauth2.Config
	verifier   *oidc.IDTokenVerifier
	authority  string
	endSession string
	logger     *slog.Logger
}

// New discovers the authority's endpoints and builds a gateway. Discovery is
// done once at startup; a provider outage at that point is fatal.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Gateway, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Authority)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}

	// end_session_endpoint is optional in discovery metadata; Entra and B2C
	// both publish it.
	var extra struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := provider.Claims(&extra); err != nil {
		logger.Warn("could not parse provider metadata extras", "error", err)
	}

	scopes := append([]string{oidc.ScopeOpenID, "profile"}, cfg.Scopes...)
	return &Gateway{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		verifier:   provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		authority:  cfg.Authority,
		endSession: extra.EndSessionEndpoint,
		logger:     logger,
	}, nil
}

// LogIn starts the authorization-code flow: it stores a fresh state, nonce,
// and PKCE verifier in the session and returns the provider URL the browser
// must visit. The account-selection prompt is always forced.
func (g *Gateway) LogIn(ctx context.Context, sess *session.Session) (AuthParams, error) {
	state, err := randomToken()
	if err != nil {
		return AuthParams{}, err
	}
	nonce, err := randomToken()
	if err != nil {
		return AuthParams{}, err
	}
	pkce := oauth2.GenerateVerifier()

	data := sess.Data()
	data.State = state
	data.Nonce = nonce
	data.PKCEVerifier = pkce
	if err := sess.Save(ctx); err != nil {
		return AuthParams{}, fmt.Errorf("save session: %w", err)
	}

	authURL := g.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oidc.Nonce(nonce),
		oauth2.S256ChallengeOption(pkce),
	)
	return AuthParams{AuthURL: authURL, State: state}, nil
}

// CompleteLogIn finishes the flow from the callback query parameters. It
// returns an *AuthError when the provider reported one, so handlers can show
// its detail; any other error means the exchange or verification failed.
func (g *Gateway) CompleteLogIn(ctx context.Context, sess *session.Session, query url.Values) error {
	if code := query.Get("error"); code != "" {
		return &AuthError{Code: code, Description: query.Get("error_description")}
	}

	data := sess.Data()
	if data.State == "" || query.Get("state") != data.State {
		return fmt.Errorf("state mismatch")
	}
	code := query.Get("code")
	if code == "" {
		return fmt.Errorf("authorization code missing from callback")
	}

	token, err := g.oauth.Exchange(ctx, code, oauth2.VerifierOption(data.PKCEVerifier))
	if err != nil {
		return fmt.Errorf("code exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return fmt.Errorf("no id_token in token response")
	}
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return fmt.Errorf("id token verification: %w", err)
	}

	var claims struct {
		OID               string `json:"oid"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		TenantID          string `json:"tid"`
		Subject           string `json:"sub"`
		Nonce             string `json:"nonce"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return fmt.Errorf("parse claims: %w", err)
	}
	if claims.Nonce != data.Nonce {
		return fmt.Errorf("nonce mismatch")
	}

	oid := claims.OID
	if oid == "" {
		// B2C tokens may carry only sub.
		oid = claims.Subject
	}
	audience := ""
	if len(idToken.Audience) > 0 {
		audience = idToken.Audience[0]
	}

	data.Claims = &domain.ClaimSet{
		OID:               oid,
		Name:              claims.Name,
		PreferredUsername: claims.PreferredUsername,
		Audience:          audience,
		Issuer:            idToken.Issuer,
		IssuedAt:          idToken.IssuedAt.Unix(),
		ExpiresAt:         idToken.Expiry.Unix(),
		TenantID:          claims.TenantID,
	}
	data.Token = token
	data.State = ""
	data.Nonce = ""
	data.PKCEVerifier = ""
	if err := sess.Save(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	g.logger.Info("user logged in", "oid", oid, "issuer", idToken.Issuer)
	return nil
}

// CurrentUser returns the session's verified claims, or nil when the session
// is not authenticated.
func (g *Gateway) CurrentUser(sess *session.Session) *domain.ClaimSet {
	return sess.Data().Claims
}

// TokenForUser returns a valid access token for the session, refreshing it
// through the provider when expired. An error means the user has to log in
// again. The refreshed token is written back to the session cache.
func (g *Gateway) TokenForUser(ctx context.Context, sess *session.Session, _ []string) (string, error) {
	data := sess.Data()
	if data.Token == nil {
		return "", fmt.Errorf("no token in session")
	}

	// TokenSource reuses the cached token while valid and refreshes with the
	// originally granted scopes otherwise.
	fresh, err := g.oauth.TokenSource(ctx, data.Token).Token()
	if err != nil {
		return "", fmt.Errorf("acquire token: %w", err)
	}
	if fresh.AccessToken != data.Token.AccessToken {
		data.Token = fresh
		if err := sess.Save(ctx); err != nil {
			g.logger.Warn("could not persist refreshed token", "error", err)
		}
	}
	return fresh.AccessToken, nil
}

// LogOut clears the session and returns the provider's end-session URL, which
// sends the browser back to postLogoutRedirect afterwards.
func (g *Gateway) LogOut(ctx context.Context, sess *session.Session, postLogoutRedirect string) (string, error) {
	if err := sess.Destroy(ctx); err != nil {
		return "", fmt.Errorf("destroy session: %w", err)
	}

	endpoint := g.endSession
	if endpoint == "" {
		endpoint = g.authority + "/oauth2/v2.0/logout"
	}
	return endpoint + "?post_logout_redirect_uri=" + url.QueryEscape(postLogoutRedirect), nil
}

func randomToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
