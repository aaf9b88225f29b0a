package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write
// session values in the context — no collisions with other packages.
type contextKey string

const sessionKey contextKey = "session"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the "token" HttpOnly cookie, validates it, and
// stores the Session in the request context. If the token is missing or
// invalid, it returns 401 Unauthorized and stops the request chain.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := extractSession(r, tokens)
			if err != nil {
				// Not http.Error — that would stamp text/plain over the
				// JSON body.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the session if a valid token is present but does
// NOT block the request otherwise.
//
// Used on GET /api/projects, where anonymous visitors see PUBLIC projects
// and signed-in members additionally see INTERNAL plus their own PRIVATE
// ones. Handlers call SessionFromContext — a zero-value Session means the
// request is anonymous.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, err := extractSession(r, tokens); err == nil && sess.Authenticated() {
				ctx := context.WithValue(r.Context(), sessionKey, sess)
				r = r.WithContext(ctx)
			}
			// Always continue — no 401 even if no token
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext retrieves the caller's Session from the request
// context. Returns a zero-value (anonymous) Session if no valid token was
// presented.
func SessionFromContext(ctx context.Context) Session {
	sess, ok := ctx.Value(sessionKey).(Session)
	if !ok {
		return Session{}
	}
	return sess
}

// extractSession reads the JWT cookie and validates it. Shared by
// RequireAuth and OptionalAuth.
func extractSession(r *http.Request, tokens *TokenService) (Session, error) {
	cookie, err := r.Cookie("token")
	if err != nil {
		// http.ErrNoCookie — not an error, just anonymous
		return Session{}, err
	}

	return tokens.Validate(cookie.Value)
}
