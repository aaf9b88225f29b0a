package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/apperror"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/service"
)

// AuthHandler manages the GitHub OAuth login flow and session cookies.
//
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorize page
//   - HandleGitHubCallback → receive the code, sign the user in, set cookie
//   - HandleLogout         → clear the session cookie
//   - HandleMe             → the signed-in user's own profile
type AuthHandler struct {
	github *auth.GitHubProvider
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(github *auth.GitHubProvider, authSvc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		github: github,
		auth:   authSvc,
		logger: logger,
	}
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// The random state lands in a short-lived HttpOnly cookie; the callback
// verifies the round-tripped value to block CSRF-initiated flows.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// Flow: verify the CSRF state, exchange the code for the GitHub profile
// and access token, reconcile the user row, issue the session JWT as an
// HttpOnly cookie, redirect home.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// GitHub reports a user-denied authorization via the error param
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	exchange, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.auth.SignIn(r.Context(), exchange)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.Int64("githubID", exchange.User.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// HttpOnly keeps the JWT out of reach of page scripts; SameSite=Lax
	// keeps it off cross-site POSTs. Set Secure behind HTTPS.
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.SessionLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// Stateless sessions mean "logout" is deleting the client-side cookie; the
// token itself stays valid until expiry, but the browser can no longer
// send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if !sess.Authenticated() {
		// Unreachable on a RequireAuth-protected route, but be safe.
		writeError(w, apperror.Unauthorized())
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), sess.UserID)
	if err != nil {
		h.logger.Error("HandleMe: user lookup failed", slog.String("userID", sess.UserID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
