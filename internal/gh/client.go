// Package gh wraps the slice of the GitHub REST API this app consumes:
// the caller's repository listing, a repository's default branch, and the
// README pre-rendered as HTML.
//
// Every call is made with the signed-in member's own OAuth access token
// (pulled from their session), so clients are cheap per-request values —
// there is no app-level GitHub identity and nothing is cached or retried.
package gh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v53/github"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
)

// API is the interface services program against; tests substitute a mock.
type API interface {
	ListOwnRepos(ctx context.Context) ([]model.RemoteRepo, error)
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)
	ReadmeHTML(ctx context.Context, owner, repo string) (string, error)
}

// Factory builds an API client for a given access token. Injected into
// services so handler tests never touch the network.
type Factory func(ctx context.Context, accessToken string) API

// Client is the production implementation backed by go-github.
type Client struct {
	gh *github.Client
}

var _ API = (*Client)(nil)

// New returns an API client authenticated with the given OAuth token.
func New(ctx context.Context, accessToken string) API {
	return &Client{gh: github.NewTokenClient(ctx, accessToken)}
}

// ListOwnRepos returns every repository owned by the authenticated user,
// most recently updated first. Pagination is followed to completion —
// GitHub caps a page at 100 entries.
func (c *Client) ListOwnRepos(ctx context.Context) ([]model.RemoteRepo, error) {
	opts := &github.RepositoryListOptions{
		Sort:        "updated",
		Affiliation: "owner",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []model.RemoteRepo
	for {
		repos, resp, err := c.gh.Repositories.List(ctx, "", opts)
		if err != nil {
			return nil, fmt.Errorf("gh: listing repositories: %w", err)
		}

		for _, r := range repos {
			all = append(all, model.RemoteRepo{
				ID:          r.GetID(),
				Name:        r.GetName(),
				FullName:    r.GetFullName(),
				Description: r.GetDescription(),
				HTMLURL:     r.GetHTMLURL(),
				Homepage:    r.GetHomepage(),
				Language:    r.GetLanguage(),
				Topics:      r.Topics,
				Stars:       r.GetStargazersCount(),
				Forks:       r.GetForksCount(),
				Watchers:    r.GetWatchersCount(),
				Private:     r.GetPrivate(),
				UpdatedAt:   r.GetUpdatedAt().Format(time.RFC3339),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// DefaultBranch returns the branch GitHub treats as canonical for the
// repository — needed to resolve relative README asset paths.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	repository, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("gh: getting repository %s/%s: %w", owner, repo, err)
	}
	return repository.GetDefaultBranch(), nil
}

// ReadmeHTML fetches the repository README rendered as HTML by GitHub.
//
// go-github has no typed endpoint for the HTML media type, so this goes
// through NewRequest/Do directly with the vnd.github.html Accept header;
// passing an io.Writer as the response target makes Do copy the raw body.
func (c *Client) ReadmeHTML(ctx context.Context, owner, repo string) (string, error) {
	u := fmt.Sprintf("repos/%s/%s/readme", owner, repo)
	req, err := c.gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("gh: building readme request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.html")

	var buf bytes.Buffer
	if _, err := c.gh.Do(ctx, req, &buf); err != nil {
		return "", fmt.Errorf("gh: fetching readme for %s/%s: %w", owner, repo, err)
	}

	return buf.String(), nil
}

// IsNotFound reports whether err is a GitHub 404 — a repository without a
// README, or one the token cannot see. Callers surface this as NotFound
// rather than an upstream failure.
func IsNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) &&
		ghErr.Response != nil &&
		ghErr.Response.StatusCode == http.StatusNotFound
}
