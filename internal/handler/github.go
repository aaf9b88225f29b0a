package handler

import (
	"log/slog"
	"net/http"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/service"
)

// GitHubHandler exposes the GitHub-proxied endpoints: the caller's
// repository listing and project READMEs.
type GitHubHandler struct {
	github *service.GitHubService
	logger *slog.Logger
}

func NewGitHubHandler(github *service.GitHubService, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{github: github, logger: logger}
}

// HandleRepos returns the caller's own GitHub repositories — the picker
// list for project registration.
//
// HTTP: GET /api/repos
func (h *GitHubHandler) HandleRepos(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())

	repos, err := h.github.ListRepos(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, repos)
}

// HandleReadme returns a project's README rendered as HTML with relative
// links rewritten to absolute GitHub URLs.
//
// HTTP: GET /api/projects/{id}/readme
func (h *GitHubHandler) HandleReadme(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	id := r.PathValue("id")

	result, err := h.github.Readme(r.Context(), sess, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
