package handler

import (
	"log/slog"
	"net/http"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/service"
)

// ProjectHandler exposes the project archive endpoints.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// HandleList returns the projects the caller may see.
//
// HTTP: GET /api/projects
// Auth: optional — anonymous callers get PUBLIC projects only; signed-in
// members additionally get INTERNAL and their own PRIVATE projects.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())

	projects, err := h.projects.List(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

// HandleCreate registers a GitHub repository as a new project.
//
// HTTP: POST /api/projects
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())

	var in service.RegisterProjectInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}

	project, err := h.projects.Register(r.Context(), sess, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// HandleUpdate mutates visibility/featured/category/tags. Owner only.
//
// HTTP: PATCH /api/projects/{id}
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	id := r.PathValue("id")

	var in service.UpdateProjectInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}

	project, err := h.projects.Update(r.Context(), sess, id, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// HandleDelete removes a project from the archive. Owner only.
//
// HTTP: DELETE /api/projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.projects.Delete(r.Context(), sess, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
