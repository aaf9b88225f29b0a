// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a member of the research lab directory.
//
// Users come into existence two ways: a GitHub OAuth sign-in, or an explicit
// member registration through the members API. In both cases email is the
// required unique key. The GitHub fields are optional — a manually registered
// member has no GitHub identity until they sign in for the first time, at
// which point the sign-in flow attaches it to the existing row.
//
// WHY GitHubID int64?
// GitHub user IDs are integers (e.g. 1234567). Using int64 avoids overflow
// for large GitHub account numbers. Zero means "not linked yet"; the UNIQUE
// constraint on github_id in the DB ensures one GitHub account maps to
// exactly one member.
type User struct {
	ID          string    `json:"id"          db:"id"`
	Email       string    `json:"email"       db:"email"`        // Unique, required
	Name        string    `json:"name"        db:"name"`         // Display name (may be empty)
	GitHubID    int64     `json:"githubId"    db:"github_id"`    // GitHub's numeric user ID, 0 = not linked
	GitHubLogin string    `json:"githubLogin" db:"github_login"` // GitHub username
	Bio         string    `json:"bio"         db:"bio"`
	Image       string    `json:"image"       db:"image"` // Profile picture URL
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// Owner is the narrow projection of a project's owning user embedded in
// project responses. Display fields only — never the email.
type Owner struct {
	Name        string `json:"name"`
	GitHubLogin string `json:"githubLogin"`
}
