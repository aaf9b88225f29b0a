package service

import (
	"context"
	"testing"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/auth"
	"github.com/sunhaksan-research-lab/sunhaksan/internal/model"
)

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo, *auth.TokenService) {
	t.Helper()
	repo := newMockUserRepo()
	tokens, err := auth.NewTokenService("test-secret-key-for-auth-service")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return NewAuthService(repo, tokens, testLogger()), repo, tokens
}

func githubExchange() *auth.ExchangeResult {
	return &auth.ExchangeResult{
		User: &auth.GitHubUser{
			ID:        987654,
			Login:     "jinpark",
			Name:      "Jin Park",
			Email:     "jin@lab.dev",
			Bio:       "corpus linguistics",
			AvatarURL: "https://avatars.githubusercontent.com/u/987654",
		},
		AccessToken: "gho_exchange",
	}
}

func TestSignIn_NewUser(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)

	result, err := svc.SignIn(context.Background(), githubExchange())
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if result.User.ID == "" {
		t.Error("expected user to have an ID")
	}
	if result.User.Email != "jin@lab.dev" {
		t.Errorf("Email = %q, want %q", result.User.Email, "jin@lab.dev")
	}
	if result.User.GitHubID != 987654 {
		t.Errorf("GitHubID = %d, want 987654", result.User.GitHubID)
	}

	// The issued token must round-trip back to the session: internal user
	// ID plus the GitHub access token the proxy endpoints need.
	sess, err := tokens.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sess.UserID != result.User.ID {
		t.Errorf("session UserID = %q, want %q", sess.UserID, result.User.ID)
	}
	if sess.AccessToken != "gho_exchange" {
		t.Errorf("session AccessToken = %q, want %q", sess.AccessToken, "gho_exchange")
	}
}

func TestSignIn_HiddenEmailFallback(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	res := githubExchange()
	res.User.Email = "" // GitHub profile email hidden

	result, err := svc.SignIn(context.Background(), res)
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if result.User.Email != "jinpark@users.noreply.github.com" {
		t.Errorf("Email = %q, want noreply fallback", result.User.Email)
	}
}

func TestSignIn_EmptyNameFallsBackToLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	res := githubExchange()
	res.User.Name = ""

	result, err := svc.SignIn(context.Background(), res)
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if result.User.Name != "jinpark" {
		t.Errorf("Name = %q, want login fallback %q", result.User.Name, "jinpark")
	}
}

func TestSignIn_AttachesToPreregisteredMember(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	// A member registered by hand, before their first sign-in.
	pre := &model.User{Email: "jin@lab.dev", Name: "Jin (pre)"}
	if err := repo.CreateUser(context.Background(), pre); err != nil {
		t.Fatalf("setup: CreateUser() error = %v", err)
	}

	result, err := svc.SignIn(context.Background(), githubExchange())
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if result.User.ID != pre.ID {
		t.Errorf("sign-in created a duplicate account: got ID %q, want existing %q", result.User.ID, pre.ID)
	}
	if result.User.GitHubID != 987654 {
		t.Errorf("GitHubID = %d, want attached 987654", result.User.GitHubID)
	}
}

func TestSignIn_SecondSignInSameAccount(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	first, err := svc.SignIn(context.Background(), githubExchange())
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	// Profile changed on GitHub between sign-ins.
	res := githubExchange()
	res.User.Bio = "now doing syntax"

	second, err := svc.SignIn(context.Background(), res)
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if second.User.ID != first.User.ID {
		t.Errorf("second sign-in got ID %q, want same account %q", second.User.ID, first.User.ID)
	}
	if second.User.Bio != "now doing syntax" {
		t.Errorf("Bio = %q, want refreshed profile", second.User.Bio)
	}
}

func TestSignIn_NilExchange(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	if _, err := svc.SignIn(context.Background(), nil); err == nil {
		t.Error("SignIn(nil) should error")
	}
	if _, err := svc.SignIn(context.Background(), &auth.ExchangeResult{}); err == nil {
		t.Error("SignIn with nil user should error")
	}
}
