package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/neomorfeo/roomie/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store owns the SQLite database and hands out the per-kind repositories.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dataSourceName == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready store.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Tenants returns the tenant repository.
func (s *Store) Tenants() *TenantRepository { return &TenantRepository{db: s.db} }

// Rooms returns the room repository.
func (s *Store) Rooms() *RoomRepository { return &RoomRepository{db: s.db} }

// Payments returns the payment repository.
func (s *Store) Payments() *PaymentRepository { return &PaymentRepository{db: s.db} }

// Accounts returns the account and session store.
func (s *Store) Accounts() *AccountStore { return &AccountStore{db: s.db} }

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// timeFormat is fixed-width so that text ordering matches time ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

// owner returns the acting operator or a forbidden RepositoryError.
func owner(ctx context.Context, op string, kind domain.Kind) (string, error) {
	id, ok := domain.OwnerFrom(ctx)
	if !ok {
		return "", &domain.RepositoryError{Op: op, Kind: kind, Err: domain.ErrForbidden}
	}
	return id, nil
}

// recordID returns the id requested by the caller or a fresh one.
func recordID(ctx context.Context) string {
	if id, ok := domain.RecordIDFrom(ctx); ok {
		return id
	}
	return uuid.NewString()
}

// nullable maps an optional field to a column value; "" is stored as NULL.
func nullable(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return *s
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// updateSet accumulates the SET clause of a partial update.
type updateSet struct {
	columns []string
	args    []any
}

func (u *updateSet) add(column string, value any) {
	u.columns = append(u.columns, column+" = ?")
	u.args = append(u.args, value)
}

func (u *updateSet) optional(column string, value *string) {
	if value != nil {
		u.add(column, nullable(value))
	}
}

func (u *updateSet) empty() bool { return len(u.columns) == 0 }

// exec runs UPDATE table SET ... WHERE id = ? AND owner_id = ?.
func (u *updateSet) exec(ctx context.Context, db *sql.DB, table, id, ownerID string) (sql.Result, error) {
	query := "UPDATE " + table + " SET " + strings.Join(u.columns, ", ") + " WHERE id = ? AND owner_id = ?"
	args := append(u.args, id, ownerID)
	return db.ExecContext(ctx, query, args...)
}

// classify maps driver errors onto domain sentinels.
func classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %v", domain.ErrInvalidForm, err)
	}
	return err
}

// mutate wraps a write and its affected-rows check into RepositoryError form.
func mutate(op string, kind domain.Kind, result sql.Result, err error) error {
	if err != nil {
		return &domain.RepositoryError{Op: op, Kind: kind, Err: classify(err)}
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return &domain.RepositoryError{Op: op, Kind: kind, Err: fmt.Errorf("checking rows affected: %w", err)}
	}
	if rows == 0 {
		return &domain.RepositoryError{Op: op, Kind: kind, Err: domain.ErrNotFound}
	}
	return nil
}
