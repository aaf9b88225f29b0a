package model

import "time"

// Visibility is the access tier of a registered project.
//
// The three tiers form the entire access-control model — there are no roles,
// groups, or delegation. PUBLIC is visible to anyone, INTERNAL to any
// signed-in member, PRIVATE to the owner alone. The predicate that evaluates
// a (project, viewer) pair lives in the policy package.
type Visibility string

const (
	VisibilityPublic   Visibility = "PUBLIC"
	VisibilityInternal Visibility = "INTERNAL"
	VisibilityPrivate  Visibility = "PRIVATE"
)

// Valid reports whether v is one of the three defined tiers.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityInternal, VisibilityPrivate:
		return true
	}
	return false
}

// Project is a GitHub repository registered into the lab's archive.
//
// GitHubID is the remote repository's immutable numeric identifier and is
// UNIQUE across all projects — it is the natural key that prevents the same
// repository being registered twice. FullName ("owner/repo") is mutable on
// GitHub's side and is only used for display and for the README proxy.
//
// Stars/Forks/Watchers are mirrored from GitHub once, at registration time.
// They are NOT kept live — there is no sync or webhook mechanism.
//
// Topics and Tags are ordered string sequences. The repository layer
// serializes them to JSON text columns and decodes them on read; an absent
// column value decodes to an empty slice, never an error.
type Project struct {
	ID          string     `json:"id"`
	GitHubID    int64      `json:"githubId"`
	Name        string     `json:"name"`
	FullName    string     `json:"fullName"` // "owner/repo"
	Description string     `json:"description"`
	HTMLURL     string     `json:"htmlUrl"`
	Homepage    string     `json:"homepage"`
	Language    string     `json:"language"`
	Topics      []string   `json:"topics"`
	Stars       int        `json:"stars"`
	Forks       int        `json:"forks"`
	Watchers    int        `json:"watchers"`
	Visibility  Visibility `json:"visibility"`
	Featured    bool       `json:"featured"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	UserID      string     `json:"userId"` // Owner — sole authority for mutation
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Owner is filled by list/get queries that join the users table.
	// nil when the record was loaded without the projection.
	Owner *Owner `json:"user,omitempty"`
}
