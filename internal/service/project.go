package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/apperror"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/repository"
)

// ProjectService handles registration, listing, and owner-only mutation of
// archived projects.
type ProjectService struct {
	projects repository.ProjectRepository
	logger   *slog.Logger
}

func NewProjectService(projects repository.ProjectRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		logger:   logger,
	}
}

// List returns the projects the caller may see, with owner projections,
// featured first then most recently updated. Anonymous callers are allowed
// — they simply see PUBLIC projects only.
func (s *ProjectService) List(ctx context.Context, sess auth.Session) ([]model.Project, error) {
	projects, err := s.projects.ListProjects(ctx, repository.ProjectFilter{
		ViewerID:      sess.UserID,
		Authenticated: sess.Authenticated(),
	})
	if err != nil {
		s.logger.Error("failed to list projects", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	return projects, nil
}

// Register archives one of the caller's GitHub repositories as a new
// project owned by the session user.
//
// The githubId — the remote repository's immutable numeric identifier — is
// the natural key: registering the same repository twice is a Conflict no
// matter who tries. Creation is a single INSERT; there is no partial-write
// state to clean up.
func (s *ProjectService) Register(ctx context.Context, sess auth.Session, in RegisterProjectInput) (*model.Project, error) {
	if !sess.Authenticated() {
		return nil, apperror.Unauthorized()
	}

	if err := checkInput(in); err != nil {
		return nil, err
	}

	if _, err := s.projects.GetProjectByGitHubID(ctx, in.GitHubID); err == nil {
		return nil, apperror.Conflict("project", fmt.Sprintf("githubId %d", in.GitHubID))
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking existing project: %w", err)
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityInternal
	}

	project := &model.Project{
		GitHubID:    in.GitHubID,
		Name:        in.Name,
		FullName:    in.FullName,
		Description: in.Description,
		HTMLURL:     in.HTMLURL,
		Homepage:    in.Homepage,
		Language:    in.Language,
		Topics:      in.Topics,
		Stars:       in.Stars,
		Forks:       in.Forks,
		Watchers:    in.Watchers,
		Visibility:  visibility,
		Category:    in.Category,
		Tags:        in.Tags,
		UserID:      sess.UserID,
	}

	if err := s.projects.CreateProject(ctx, project); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create project",
			slog.Int64("githubId", in.GitHubID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project registered",
		slog.String("id", project.ID),
		slog.String("fullName", project.FullName),
		slog.String("visibility", string(project.Visibility)),
		slog.String("owner", sess.UserID),
	)

	// Re-read through the join so the response carries the owner
	// projection like every other project payload.
	return s.projects.GetProjectByID(ctx, project.ID)
}

// Update applies an owner-only mutation: visibility, featured, category
// (null clears it), and tags. The ownership check is the sole
// authorization mechanism — there is no admin override.
func (s *ProjectService) Update(ctx context.Context, sess auth.Session, id string, in UpdateProjectInput) (*model.Project, error) {
	if !sess.Authenticated() {
		return nil, apperror.Unauthorized()
	}

	if err := checkInput(in); err != nil {
		return nil, err
	}

	project, err := s.projects.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.UserID != sess.UserID {
		return nil, apperror.Forbidden("only the owner can modify a project")
	}

	if in.Visibility != nil {
		project.Visibility = *in.Visibility
	}
	if in.Featured != nil {
		project.Featured = *in.Featured
	}
	if in.Category.Set {
		if in.Category.Value == nil {
			project.Category = ""
		} else {
			project.Category = *in.Category.Value
		}
	}
	if in.Tags != nil {
		project.Tags = in.Tags
	}

	if err := s.projects.UpdateProject(ctx, project); err != nil {
		s.logger.Error("failed to update project",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating project: %w", err)
	}

	s.logger.Info("project updated",
		slog.String("id", id),
		slog.String("visibility", string(project.Visibility)),
	)

	return s.projects.GetProjectByID(ctx, id)
}

// Delete removes a project from the archive. Owner only. The remote GitHub
// repository is never touched.
func (s *ProjectService) Delete(ctx context.Context, sess auth.Session, id string) error {
	if !sess.Authenticated() {
		return apperror.Unauthorized()
	}

	project, err := s.projects.GetProjectByID(ctx, id)
	if err != nil {
		return err
	}
	if project.UserID != sess.UserID {
		return apperror.Forbidden("only the owner can delete a project")
	}

	if err := s.projects.DeleteProject(ctx, id); err != nil {
		return err
	}

	s.logger.Info("project deleted",
		slog.String("id", id),
		slog.String("fullName", project.FullName),
	)
	return nil
}
