package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Compile-time check: AccountStore implements domain.AccountStore.
var _ domain.AccountStore = (*AccountStore)(nil)

// AccountStore implements domain.AccountStore using SQLite.
type AccountStore struct {
	db *sql.DB
}

func (s *AccountStore) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.Email, a.PasswordHash, formatTime(a.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &domain.EmailTakenError{Email: a.Email}
		}
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (s *AccountStore) AccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	var a domain.Account
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM accounts WHERE email = ?`, email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("scanning account: %w", err)
	}
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}

func (s *AccountStore) CreateSession(ctx context.Context, session domain.AuthSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.UserID, formatTime(session.CreatedAt), formatTime(session.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *AccountStore) SessionByID(ctx context.Context, id string) (domain.AuthSession, error) {
	var session domain.AuthSession
	var createdAt, expiresAt string
	var revokedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, expires_at, revoked_at FROM auth_sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.UserID, &createdAt, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AuthSession{}, domain.ErrNotFound
		}
		return domain.AuthSession{}, fmt.Errorf("scanning session: %w", err)
	}
	session.CreatedAt = parseTime(createdAt)
	session.ExpiresAt = parseTime(expiresAt)
	if revokedAt.Valid {
		t := parseTime(revokedAt.String)
		session.RevokedAt = &t
	}
	return session, nil
}

// RevokeSession marks a session revoked. Revoking an already revoked session
// keeps the first revocation time.
func (s *AccountStore) RevokeSession(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE auth_sessions SET revoked_at = COALESCE(revoked_at, ?) WHERE id = ?`,
		formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
