package authgate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegisterIssuesSessionImmediately(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Register(ctx, "alice", "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.UserID == "" {
		t.Fatal("expected a user ID on the new record")
	}
	if result.User.PasswordHash == "correct horse" {
		t.Fatal("password must not be stored in the clear")
	}

	got, err := engine.CurrentUser(ctx, result.SessionToken)
	if err != nil {
		t.Fatalf("current user on fresh registration: %v", err)
	}
	if got.UserID != result.User.UserID {
		t.Fatalf("session subject mismatch: %s vs %s", got.UserID, result.User.UserID)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Register(ctx, "bob", "bob@example.com", "password-one"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Same email, different username.
	if _, err := engine.Register(ctx, "robert", "bob@example.com", "password-two"); !errors.Is(err, ErrDuplicateResource) {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}

	// Same username, different email.
	if _, err := engine.Register(ctx, "bob", "other@example.com", "password-two"); !errors.Is(err, ErrDuplicateResource) {
		t.Fatalf("expected duplicate username rejection, got %v", err)
	}

	snap := engine.MetricsSnapshot()
	if got := snap.Counters[MetricAccountCreationDuplicate]; got != 2 {
		t.Fatalf("expected 2 duplicate rejections counted, got %d", got)
	}
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		pass     string
	}{
		{"empty username", "", "a@example.com", "password"},
		{"empty email", "alice", "", "password"},
		{"empty password", "alice", "a@example.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.Register(ctx, tc.username, tc.email, tc.pass); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestRegisterStoresArgon2Hash(t *testing.T) {
	engine, provider, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Register(ctx, "carol", "carol@example.com", "real-password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	stored, err := provider.GetUserByID(ctx, result.User.UserID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id PHC hash, got %q", stored.PasswordHash)
	}
}

func TestChangePasswordFlow(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "dave", "dave@example.com", "old-password")

	// Wrong current password is an authorization failure and is checked
	// before the confirmation mismatch.
	err := engine.ChangePassword(ctx, user.UserID, "wrong", "new-password", "different")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	err = engine.ChangePassword(ctx, user.UserID, "old-password", "new-password", "different")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	if err := engine.ChangePassword(ctx, user.UserID, "old-password", "new-password", "new-password"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	// The old password is dead, the new one works.
	if _, err := engine.Login(ctx, "dave@example.com", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to fail, got %v", err)
	}
	if _, err := engine.Login(ctx, "dave@example.com", "new-password"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	err := engine.ChangePassword(context.Background(), "no-such-user", "a", "b", "b")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
