package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/gh"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/handler"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/repository/sqlite"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/service"
)

// mockGitHub implements gh.API so no test touches the network.
type mockGitHub struct {
	repos  []model.RemoteRepo
	branch string
	html   string
}

func (m *mockGitHub) ListOwnRepos(_ context.Context) ([]model.RemoteRepo, error) {
	return m.repos, nil
}

func (m *mockGitHub) DefaultBranch(_ context.Context, _, _ string) (string, error) {
	return m.branch, nil
}

func (m *mockGitHub) ReadmeHTML(_ context.Context, _, _ string) (string, error) {
	return m.html, nil
}

// testAPI is a full API stack over an in-memory database: real services,
// real sqlite, real middleware, mock GitHub.
type testAPI struct {
	router *chi.Mux
	db     *sqlite.DB
	tokens *auth.TokenService
}

func newTestAPI(t *testing.T, github gh.API) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789")
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}

	factory := func(_ context.Context, _ string) gh.API { return github }

	memberHandler := handler.NewMemberHandler(service.NewMemberService(db, logger), logger)
	projectHandler := handler.NewProjectHandler(service.NewProjectService(db, logger), logger)
	githubHandler := handler.NewGitHubHandler(service.NewGitHubService(db, factory, logger), logger)

	// Same route layout as the server package, minus the global chrome.
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/projects", projectHandler.HandleList)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/members", memberHandler.HandleList)
			r.Post("/members", memberHandler.HandleCreate)
			r.Delete("/members", memberHandler.HandleDelete)
			r.Post("/projects", projectHandler.HandleCreate)
			r.Patch("/projects/{id}", projectHandler.HandleUpdate)
			r.Delete("/projects/{id}", projectHandler.HandleDelete)
			r.Get("/projects/{id}/readme", githubHandler.HandleReadme)
			r.Get("/repos", githubHandler.HandleRepos)
		})
	})

	return &testAPI{router: router, db: db, tokens: tokens}
}

// signUp creates a member and returns their session cookie.
func (a *testAPI) signUp(t *testing.T, email string) (*model.User, *http.Cookie) {
	t.Helper()

	user := &model.User{Email: email, Name: "Member " + email}
	if err := a.db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}

	token, err := a.tokens.Generate(auth.Session{UserID: user.ID, AccessToken: "gho_test"})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	return user, &http.Cookie{Name: "token", Value: token}
}

// do runs a request through the router and returns the recorder.
func (a *testAPI) do(method, path string, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func registerBody(githubID int64, visibility string) string {
	b := fmt.Sprintf(`{"githubId": %d, "name": "corpus-tools", "fullName": "lab/corpus-tools", "htmlUrl": "https://github.com/lab/corpus-tools"`, githubID)
	if visibility != "" {
		b += fmt.Sprintf(`, "visibility": %q`, visibility)
	}
	return b + "}"
}

func TestProjectEndpoints(t *testing.T) {
	api := newTestAPI(t, &mockGitHub{})
	owner, ownerCookie := api.signUp(t, "owner@lab.dev")
	_, visitorCookie := api.signUp(t, "visitor@lab.dev")

	t.Run("register requires auth", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/projects", registerBody(1, ""), nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("register", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/projects", registerBody(1, "PRIVATE"), ownerCookie)
		assert.Equal(t, http.StatusOK, rr.Code)

		var p model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, owner.ID, p.UserID)
		assert.Equal(t, model.VisibilityPrivate, p.Visibility)
		assert.NotNil(t, p.Owner)
	})

	t.Run("register duplicate is conflict", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/projects", registerBody(1, ""), visitorCookie)
		assert.Equal(t, http.StatusConflict, rr.Code)

		var errRes handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "conflict", errRes.Error)
	})

	t.Run("register missing fields", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/projects", `{}`, ownerCookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var errRes handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&errRes))
		assert.Equal(t, "validation_error", errRes.Error)
		assert.Len(t, errRes.Details, 4)
	})

	t.Run("register malformed body", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/projects", `{"githubId":`, ownerCookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("anonymous list hides non-public", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/projects", "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var projects []model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&projects))
		assert.Empty(t, projects) // the only project so far is PRIVATE
	})

	t.Run("owner list shows own private", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/projects", "", ownerCookie)
		assert.Equal(t, http.StatusOK, rr.Code)

		var projects []model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&projects))
		assert.Len(t, projects, 1)
	})

	// Grab the project ID for the mutation cases.
	var projectID string
	{
		rr := api.do(http.MethodGet, "/api/projects", "", ownerCookie)
		var projects []model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&projects))
		if assert.Len(t, projects, 1) {
			projectID = projects[0].ID
		}
	}

	t.Run("update by non-owner is forbidden", func(t *testing.T) {
		rr := api.do(http.MethodPatch, "/api/projects/"+projectID, `{"featured": true}`, visitorCookie)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("update by owner", func(t *testing.T) {
		rr := api.do(http.MethodPatch, "/api/projects/"+projectID, `{"visibility": "PUBLIC", "featured": true}`, ownerCookie)
		assert.Equal(t, http.StatusOK, rr.Code)

		var p model.Project
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&p))
		assert.Equal(t, model.VisibilityPublic, p.Visibility)
		assert.True(t, p.Featured)
	})

	t.Run("update unknown project", func(t *testing.T) {
		rr := api.do(http.MethodPatch, "/api/projects/nonexistent", `{"featured": true}`, ownerCookie)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete by non-owner is forbidden", func(t *testing.T) {
		rr := api.do(http.MethodDelete, "/api/projects/"+projectID, "", visitorCookie)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("delete by owner", func(t *testing.T) {
		rr := api.do(http.MethodDelete, "/api/projects/"+projectID, "", ownerCookie)
		assert.Equal(t, http.StatusOK, rr.Code)

		var res map[string]bool
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.True(t, res["success"])
	})
}

func TestMemberEndpoints(t *testing.T) {
	api := newTestAPI(t, &mockGitHub{})
	self, selfCookie := api.signUp(t, "self@lab.dev")

	t.Run("list requires auth", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/members", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("create", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/members", `{"email": "new@lab.dev", "name": "New"}`, selfCookie)
		assert.Equal(t, http.StatusOK, rr.Code)

		var u model.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, "new@lab.dev", u.Email)
	})

	t.Run("create duplicate email", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/members", `{"email": "new@lab.dev"}`, selfCookie)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("create invalid email", func(t *testing.T) {
		rr := api.do(http.MethodPost, "/api/members", `{"email": "nope"}`, selfCookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("list", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/members", "", selfCookie)
		assert.Equal(t, http.StatusOK, rr.Code)

		var members []model.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&members))
		assert.Len(t, members, 2)
	})

	t.Run("cannot delete own account", func(t *testing.T) {
		rr := api.do(http.MethodDelete, "/api/members?id="+self.ID, "", selfCookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("delete another member", func(t *testing.T) {
		other, _ := api.signUp(t, "other@lab.dev")
		rr := api.do(http.MethodDelete, "/api/members?id="+other.ID, "", selfCookie)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("delete unknown member", func(t *testing.T) {
		rr := api.do(http.MethodDelete, "/api/members?id=nonexistent", "", selfCookie)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete member who owns projects", func(t *testing.T) {
		owner, ownerCookie := api.signUp(t, "projectowner@lab.dev")
		reg := api.do(http.MethodPost, "/api/projects", registerBody(99, ""), ownerCookie)
		assert.Equal(t, http.StatusOK, reg.Code)

		rr := api.do(http.MethodDelete, "/api/members?id="+owner.ID, "", selfCookie)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestGitHubEndpoints(t *testing.T) {
	github := &mockGitHub{
		repos: []model.RemoteRepo{
			{ID: 1, FullName: "lab/a"},
			{ID: 2, FullName: "lab/b"},
		},
		branch: "main",
		html:   `<img src="./logo.png">`,
	}
	api := newTestAPI(t, github)
	_, cookie := api.signUp(t, "member@lab.dev")

	t.Run("repos requires auth", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/repos", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("repos", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/repos", "", cookie)
		assert.Equal(t, http.StatusOK, rr.Code)

		var repos []model.RemoteRepo
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&repos))
		assert.Len(t, repos, 2)
	})

	t.Run("readme", func(t *testing.T) {
		reg := api.do(http.MethodPost, "/api/projects", registerBody(1, ""), cookie)
		assert.Equal(t, http.StatusOK, reg.Code)
		var p model.Project
		assert.NoError(t, json.NewDecoder(reg.Body).Decode(&p))

		rr := api.do(http.MethodGet, "/api/projects/"+p.ID+"/readme", "", cookie)
		assert.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			Content string `json:"content"`
			Owner   string `json:"owner"`
			Repo    string `json:"repo"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "lab", res.Owner)
		assert.Equal(t, "corpus-tools", res.Repo)
		assert.Contains(t, res.Content, "https://raw.githubusercontent.com/lab/corpus-tools/main/logo.png")
	})

	t.Run("readme for unknown project", func(t *testing.T) {
		rr := api.do(http.MethodGet, "/api/projects/nonexistent/readme", "", cookie)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
