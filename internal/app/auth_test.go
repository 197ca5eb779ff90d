package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/roomie/internal/app"
	"github.com/neomorfeo/roomie/internal/domain"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	accounts := newMemAccounts()
	auth := app.NewAuthService(accounts, plainTokens{}, time.Hour)

	account, err := auth.Register(ctx, "  Ops@Example.com ", "secret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if account.Email != "ops@example.com" || account.ID == "" {
		t.Errorf("account = %+v", account)
	}
	if account.PasswordHash == "secret" || account.PasswordHash == "" {
		t.Error("expected the password to be hashed")
	}

	token, session, err := auth.Login(ctx, "OPS@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !session.IsAuthenticated() || session.UserID != account.ID {
		t.Errorf("session = %+v", session)
	}

	resolved, err := auth.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.UserID != account.ID {
		t.Errorf("Resolve = %+v", resolved)
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		taken    bool
	}{
		{name: "missing email", password: "secret"},
		{name: "missing password", email: "ops@example.com"},
		{name: "email taken", email: "ops@example.com", password: "other", taken: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			auth := app.NewAuthService(newMemAccounts(), plainTokens{}, 0)
			if _, err := auth.Register(ctx, "ops@example.com", "secret"); err != nil {
				t.Fatalf("seeding account: %v", err)
			}

			_, err := auth.Register(ctx, tt.email, tt.password)
			if err == nil {
				t.Fatal("expected an error")
			}
			var taken *domain.EmailTakenError
			if errors.As(err, &taken) != tt.taken {
				t.Errorf("EmailTakenError = %v, want %v (err %v)", !tt.taken, tt.taken, err)
			}
		})
	}
}

func TestAuthService_LoginRejections(t *testing.T) {
	ctx := context.Background()
	auth := app.NewAuthService(newMemAccounts(), plainTokens{}, time.Hour)
	if _, err := auth.Register(ctx, "ops@example.com", "secret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "ops@example.com", password: "nope"},
		{name: "unknown email", email: "who@example.com", password: "secret"},
		{name: "empty password", email: "ops@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, session, err := auth.Login(ctx, tt.email, tt.password)
			var authErr *domain.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *AuthError, got %v", err)
			}
			if token != "" || session.IsAuthenticated() {
				t.Errorf("got token %q and session %+v on rejection", token, session)
			}
		})
	}
}

func TestAuthService_LogoutRevokes(t *testing.T) {
	ctx := context.Background()
	auth := app.NewAuthService(newMemAccounts(), plainTokens{}, time.Hour)
	auth.Register(ctx, "ops@example.com", "secret")
	token, _, err := auth.Login(ctx, "ops@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := auth.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if err := auth.Logout(ctx, token); err != nil {
		t.Errorf("second Logout = %v, want nil", err)
	}

	_, err = auth.Resolve(ctx, token)
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Errorf("Resolve after logout = %v, want *AuthError", err)
	}
}

func TestAuthService_ResolveRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	accounts := newMemAccounts()
	auth := app.NewAuthService(accounts, plainTokens{}, time.Hour)
	auth.Register(ctx, "ops@example.com", "secret")
	token, _, _ := auth.Login(ctx, "ops@example.com", "secret")
	claims, _ := plainTokens{}.Verify(token)

	forged, _ := plainTokens{}.Issue(domain.TokenClaims{UserID: "someone-else", SessionID: claims.SessionID, ExpiresAt: claims.ExpiresAt})
	unknownSession, _ := plainTokens{}.Issue(domain.TokenClaims{UserID: claims.UserID, SessionID: "missing", ExpiresAt: claims.ExpiresAt})

	for name, tok := range map[string]string{
		"malformed":       "garbage",
		"user mismatch":   forged,
		"unknown session": unknownSession,
	} {
		t.Run(name, func(t *testing.T) {
			var authErr *domain.AuthError
			if _, err := auth.Resolve(ctx, tok); !errors.As(err, &authErr) {
				t.Errorf("Resolve = %v, want *AuthError", err)
			}
		})
	}
}

func TestAuthService_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	auth := app.NewAuthService(newMemAccounts(), plainTokens{}, time.Millisecond)
	auth.Register(ctx, "ops@example.com", "secret")
	token, _, err := auth.Login(ctx, "ops@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := auth.Resolve(ctx, token); err == nil {
		t.Error("expected an expired session to be rejected")
	}
}
