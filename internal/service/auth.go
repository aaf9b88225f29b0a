package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/repository"
)

// AuthService orchestrates the GitHub OAuth callback: reconcile the GitHub
// profile with the users table, then issue the session JWT. It never reads
// HTTP requests or sets cookies — that stays in the handler.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// AuthResult bundles the reconciled user with the issued session token so
// the handler can set the cookie and redirect in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignIn completes a GitHub sign-in.
//
// The upsert refreshes the GitHub profile fields on every sign-in, and a
// member who was registered by hand before ever signing in gets their
// GitHub identity attached to the existing row (matched by email) instead
// of a duplicate account.
//
// GitHub users can hide their email, but email is this system's required
// unique key — in that case the stable GitHub noreply address stands in.
func (s *AuthService) SignIn(ctx context.Context, res *auth.ExchangeResult) (*AuthResult, error) {
	if res == nil || res.User == nil {
		return nil, fmt.Errorf("service/auth: GitHub exchange result must not be nil")
	}
	ghUser := res.User

	email := ghUser.Email
	if email == "" {
		email = fmt.Sprintf("%s@users.noreply.github.com", ghUser.Login)
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}

	user := &model.User{
		Email:       email,
		Name:        name,
		GitHubID:    ghUser.ID,
		GitHubLogin: ghUser.Login,
		Bio:         ghUser.Bio,
		Image:       ghUser.AvatarURL,
	}

	if err := s.users.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.GitHubLogin),
	)

	token, err := s.tokens.Generate(auth.Session{
		UserID:      user.ID,
		AccessToken: res.AccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{
		User:  user,
		Token: token,
	}, nil
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/me handler after the middleware validates the session.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
