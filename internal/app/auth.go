package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/neomorfeo/roomie/internal/domain"
)

// DefaultSessionTTL is how long a sign-in stays valid.
const DefaultSessionTTL = 24 * time.Hour

// AuthService is the server side of the identity provider.
type AuthService struct {
	accounts domain.AccountStore
	tokens   domain.TokenIssuer
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService creates an auth service. A non-positive ttl uses DefaultSessionTTL.
func NewAuthService(accounts domain.AccountStore, tokens domain.TokenIssuer, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an operator account.
func (s *AuthService) Register(ctx context.Context, email, password string) (domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Account{}, fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hashing password: %w", err)
	}

	account := domain.Account{
		ID:           generateID(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// Login checks credentials and opens a session. Every rejection is an
// *domain.AuthError.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.Session, error) {
	account, err := s.accounts.AccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.Session{}, &domain.AuthError{Reason: "invalid credentials"}
		}
		return "", domain.Session{}, &domain.AuthError{Reason: "account lookup", Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", domain.Session{}, &domain.AuthError{Reason: "invalid credentials"}
	}

	now := s.now()
	session := domain.AuthSession{
		ID:        generateID(),
		UserID:    account.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.accounts.CreateSession(ctx, session); err != nil {
		return "", domain.Session{}, &domain.AuthError{Reason: "opening session", Err: err}
	}

	token, err := s.tokens.Issue(domain.TokenClaims{
		UserID:    account.ID,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return "", domain.Session{}, &domain.AuthError{Reason: "issuing token", Err: err}
	}

	return token, domain.SignedIn(account.ID), nil
}

// Resolve returns the session a bearer token belongs to. Revoked or expired
// sessions are rejected with *domain.AuthError.
func (s *AuthService) Resolve(ctx context.Context, token string) (domain.Session, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Session{}, &domain.AuthError{Reason: "invalid token", Err: err}
	}

	session, err := s.accounts.SessionByID(ctx, claims.SessionID)
	if err != nil {
		return domain.Session{}, &domain.AuthError{Reason: "unknown session", Err: err}
	}
	if session.UserID != claims.UserID || !session.Active(s.now()) {
		return domain.Session{}, &domain.AuthError{Reason: "session expired or revoked"}
	}

	return domain.SignedIn(session.UserID), nil
}

// Logout revokes the session a bearer token belongs to. Revoking twice is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return &domain.AuthError{Reason: "invalid token", Err: err}
	}
	if err := s.accounts.RevokeSession(ctx, claims.SessionID, s.now()); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
