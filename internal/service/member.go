// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; services enforce the rules and
// return domain errors; repositories talk to the database. Every service
// method takes the caller's auth.Session explicitly — there is no ambient
// "current user" anywhere, so the authorization inputs of each operation
// are visible in its signature.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/apperror"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/repository"
)

// MemberService handles the member registry: listing, manual registration,
// and removal of researcher profiles.
type MemberService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewMemberService(users repository.UserRepository, logger *slog.Logger) *MemberService {
	return &MemberService{
		users:  users,
		logger: logger,
	}
}

// List returns every member, newest registration first. The directory is
// internal — anonymous callers are rejected.
func (s *MemberService) List(ctx context.Context, sess auth.Session) ([]model.User, error) {
	if !sess.Authenticated() {
		return nil, apperror.Unauthorized()
	}

	members, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list members", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing members: %w", err)
	}

	return members, nil
}

// Create registers a member profile by hand, ahead of their first GitHub
// sign-in. Email is the unique key; registering an email twice is a
// Conflict.
func (s *MemberService) Create(ctx context.Context, sess auth.Session, in CreateMemberInput) (*model.User, error) {
	if !sess.Authenticated() {
		return nil, apperror.Unauthorized()
	}

	in.Email = strings.TrimSpace(in.Email)
	if err := checkInput(in); err != nil {
		return nil, err
	}

	// Friendlier than relying on the constraint alone; the constraint
	// still backstops a race (see sqlite.CreateUser).
	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, apperror.Conflict("user", "email "+in.Email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking existing member: %w", err)
	}

	user := &model.User{
		Email:       in.Email,
		Name:        strings.TrimSpace(in.Name),
		GitHubLogin: strings.TrimSpace(in.GitHubLogin),
		Bio:         in.Bio,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create member",
			slog.String("email", in.Email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating member: %w", err)
	}

	s.logger.Info("member created",
		slog.String("id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Delete removes a member by ID. Deleting your own account through this
// endpoint is forbidden — the one hand-written rule that distinguishes
// member deletion from a generic delete-by-id.
func (s *MemberService) Delete(ctx context.Context, sess auth.Session, id string) error {
	if !sess.Authenticated() {
		return apperror.Unauthorized()
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "member id is required")
	}
	if id == sess.UserID {
		return apperror.ValidationFailed("id", "cannot delete your own account")
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.logger.Info("member deleted",
		slog.String("id", id),
		slog.String("deletedBy", sess.UserID),
	)
	return nil
}
