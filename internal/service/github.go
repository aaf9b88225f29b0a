package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/apperror"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/gh"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/repository"
)

// GitHubService proxies the two GitHub-backed operations: the caller's
// repository listing (project registration picker) and the rendered README
// of an archived project.
//
// Every call runs with the session's own access token, so a client is
// built per request through the injected factory — tests substitute a mock
// and never touch the network.
type GitHubService struct {
	projects  repository.ProjectRepository
	newClient gh.Factory
	logger    *slog.Logger
}

func NewGitHubService(projects repository.ProjectRepository, newClient gh.Factory, logger *slog.Logger) *GitHubService {
	return &GitHubService{
		projects:  projects,
		newClient: newClient,
		logger:    logger,
	}
}

// ReadmeResult is the README proxy response payload.
type ReadmeResult struct {
	Content string `json:"content"` // rendered HTML, links rewritten
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
}

// ListRepos returns the repositories the caller owns on GitHub — the list
// a member registers projects from.
func (s *GitHubService) ListRepos(ctx context.Context, sess auth.Session) ([]model.RemoteRepo, error) {
	if !sess.Authenticated() || sess.AccessToken == "" {
		return nil, apperror.Unauthorized()
	}

	repos, err := s.newClient(ctx, sess.AccessToken).ListOwnRepos(ctx)
	if err != nil {
		s.logger.Error("failed to list GitHub repositories",
			slog.String("user", sess.UserID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("failed to fetch repositories from GitHub")
	}

	return repos, nil
}

// Readme fetches a project's README rendered as HTML and rewrites relative
// asset and link paths to absolute GitHub URLs.
//
// Two remote calls, in order: the repository lookup (for the default
// branch, which anchors the rewritten URLs) and the README itself. A 404
// from either surfaces as NotFound; any other remote failure is an
// upstream error. Nothing is retried or cached.
func (s *GitHubService) Readme(ctx context.Context, sess auth.Session, projectID string) (*ReadmeResult, error) {
	if !sess.Authenticated() || sess.AccessToken == "" {
		return nil, apperror.Unauthorized()
	}

	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	owner, repo, ok := strings.Cut(project.FullName, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("project %s has malformed fullName %q", projectID, project.FullName)
	}

	client := s.newClient(ctx, sess.AccessToken)

	branch, err := client.DefaultBranch(ctx, owner, repo)
	if err != nil {
		if gh.IsNotFound(err) {
			return nil, apperror.NotFound("README", project.FullName)
		}
		s.logger.Error("failed to resolve default branch",
			slog.String("fullName", project.FullName),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("failed to fetch README from GitHub")
	}

	html, err := client.ReadmeHTML(ctx, owner, repo)
	if err != nil {
		if gh.IsNotFound(err) {
			return nil, apperror.NotFound("README", project.FullName)
		}
		s.logger.Error("failed to fetch README",
			slog.String("fullName", project.FullName),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("failed to fetch README from GitHub")
	}

	return &ReadmeResult{
		Content: rewriteRelativeLinks(html, owner, repo, branch),
		Owner:   owner,
		Repo:    repo,
	}, nil
}
