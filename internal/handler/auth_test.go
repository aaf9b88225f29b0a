package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/handler"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/repository/sqlite"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/service"
)

func newAuthTestStack(t *testing.T) (*handler.AuthHandler, *sqlite.DB, *auth.TokenService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("auth-handler-test-secret-0123")
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}

	provider := auth.NewGitHubProvider("client-id", "client-secret", "http://localhost:8080/auth/github/callback")
	h := handler.NewAuthHandler(provider, service.NewAuthService(db, tokens, logger), logger)
	return h, db, tokens
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHandleGitHubLogin(t *testing.T) {
	h, _, _ := newAuthTestStack(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/login", nil)
	rr := httptest.NewRecorder()
	h.HandleGitHubLogin(rr, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)

	state := cookieByName(rr.Result().Cookies(), "oauth_state")
	if state == nil {
		t.Fatal("state cookie must be set")
	}
	assert.NotEmpty(t, state.Value)
	assert.True(t, state.HttpOnly)

	// The redirect must carry the same state GitHub will echo back.
	loc, err := url.Parse(rr.Header().Get("Location"))
	assert.NoError(t, err)
	assert.Equal(t, "github.com", loc.Host)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
	assert.Equal(t, "client-id", loc.Query().Get("client_id"))
}

func TestHandleGitHubCallback_StateChecks(t *testing.T) {
	h, _, _ := newAuthTestStack(t)

	t.Run("missing state cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=x&state=abc", nil)
		rr := httptest.NewRecorder()
		h.HandleGitHubCallback(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=x&state=evil", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "good"})
		rr := httptest.NewRecorder()
		h.HandleGitHubCallback(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("user denied authorization", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=good&error=access_denied", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "good"})
		rr := httptest.NewRecorder()
		h.HandleGitHubCallback(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/?auth=denied", rr.Header().Get("Location"))
	})

	t.Run("missing code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=good", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "good"})
		rr := httptest.NewRecorder()
		h.HandleGitHubCallback(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleLogout(t *testing.T) {
	h, _, _ := newAuthTestStack(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rr := httptest.NewRecorder()
	h.HandleLogout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	token := cookieByName(rr.Result().Cookies(), "token")
	if assert.NotNil(t, token, "token cookie must be cleared") {
		assert.Empty(t, token.Value)
		assert.Negative(t, token.MaxAge)
	}
}

func TestHandleMe(t *testing.T) {
	h, db, tokens := newAuthTestStack(t)

	user := &model.User{Email: "me@lab.dev", Name: "Me"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	token, err := tokens.Generate(auth.Session{UserID: user.ID, AccessToken: "gho_test"})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	router := chi.NewRouter()
	router.With(auth.RequireAuth(tokens)).Get("/api/me", h.HandleMe)

	t.Run("without session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("with session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var got model.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "me@lab.dev", got.Email)
	})
}
