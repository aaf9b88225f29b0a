package handler

import (
	"log/slog"
	"net/http"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/service"
)

// MemberHandler exposes the member registry endpoints.
type MemberHandler struct {
	members *service.MemberService
	logger  *slog.Logger
}

func NewMemberHandler(members *service.MemberService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: members, logger: logger}
}

// HandleList returns all members, newest first.
//
// HTTP: GET /api/members
func (h *MemberHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())

	members, err := h.members.List(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

// HandleCreate registers a member profile by hand.
//
// HTTP: POST /api/members
// BODY: {"email": "...", "name": "...", "githubLogin": "...", "bio": "..."}
func (h *MemberHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())

	var in service.CreateMemberInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}

	member, err := h.members.Create(r.Context(), sess, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

// HandleDelete removes a member. The target comes from the query string;
// deleting yourself is rejected by the service.
//
// HTTP: DELETE /api/members?id=<id>
func (h *MemberHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	id := r.URL.Query().Get("id")

	if err := h.members.Delete(r.Context(), sess, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
