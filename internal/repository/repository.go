// Package repository defines the persistence interfaces. Services depend on
// these interfaces, never on a concrete database — tests swap in in-memory
// mocks, and the sqlite implementation lives in the sqlite subpackage.
//
// Both interfaces are implemented by the same sqlite.DB, so method names
// carry the entity name to keep the sets disjoint.
package repository

import (
	"context"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
)

// ProjectFilter narrows a project listing to what the viewer may see.
// It carries the same inputs as policy.CanView; the sqlite implementation
// translates it into a WHERE clause and a test pins the two together.
type ProjectFilter struct {
	ViewerID      string
	Authenticated bool
}

type UserRepository interface {
	// CreateUser inserts a new member. Returns a Conflict error if the
	// email is already registered.
	CreateUser(ctx context.Context, user *model.User) error

	// UpsertUser reconciles a GitHub sign-in with the users table:
	// matched by github_id first, then by email (a pre-registered member
	// signing in for the first time), otherwise inserted. Profile fields
	// are refreshed on every call.
	UpsertUser(ctx context.Context, user *model.User) error

	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// ListUsers returns all members, newest registration first.
	ListUsers(ctx context.Context) ([]model.User, error)

	DeleteUser(ctx context.Context, id string) error
}

type ProjectRepository interface {
	// CreateProject inserts a new project. Returns a Conflict error if a
	// project with the same githubId already exists.
	CreateProject(ctx context.Context, project *model.Project) error

	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetProjectByGitHubID(ctx context.Context, githubID int64) (*model.Project, error)

	// ListProjects returns the projects visible under the filter, each
	// joined with the owner projection, ordered featured-desc then
	// updatedAt-desc.
	ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error)

	UpdateProject(ctx context.Context, project *model.Project) error
	DeleteProject(ctx context.Context, id string) error
}
