package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Compile-time check: PaymentRepository implements domain.PaymentRepository.
var _ domain.PaymentRepository = (*PaymentRepository)(nil)

// PaymentRepository implements domain.PaymentRepository using SQLite.
type PaymentRepository struct {
	db *sql.DB
}

func (r *PaymentRepository) List(ctx context.Context) ([]domain.Payment, error) {
	ownerID, err := owner(ctx, "list", domain.KindPayment)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, tenant, room, amount, paid_at, note, created_at
		 FROM payments WHERE owner_id = ?
		 ORDER BY created_at DESC, rowid DESC`, ownerID,
	)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "list", Kind: domain.KindPayment, Err: err}
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		var room, note sql.NullString
		var createdAt string
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Tenant, &room, &p.Amount, &p.PaidAt, &note, &createdAt); err != nil {
			return nil, &domain.RepositoryError{Op: "list", Kind: domain.KindPayment, Err: fmt.Errorf("scanning payment row: %w", err)}
		}
		p.Room = fromNull(room)
		p.Note = fromNull(note)
		p.CreatedAt = parseTime(createdAt)
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.RepositoryError{Op: "list", Kind: domain.KindPayment, Err: err}
	}

	return payments, nil
}

func (r *PaymentRepository) Create(ctx context.Context, v domain.PaymentValues, ownerID string) error {
	if ownerID == "" {
		return &domain.RepositoryError{Op: "create", Kind: domain.KindPayment, Err: domain.ErrForbidden}
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, owner_id, tenant, room, amount, paid_at, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recordID(ctx), ownerID, v.Tenant, nullable(v.Room), v.Amount, v.PaidAt, nullable(v.Note),
		formatTime(time.Now()),
	)
	return mutate("create", domain.KindPayment, result, err)
}

func (r *PaymentRepository) Update(ctx context.Context, id string, v domain.PaymentValues) error {
	ownerID, err := owner(ctx, "update", domain.KindPayment)
	if err != nil {
		return err
	}

	var set updateSet
	if v.Tenant != "" {
		set.add("tenant", v.Tenant)
	}
	set.optional("room", v.Room)
	if v.Amount != 0 {
		set.add("amount", v.Amount)
	}
	if v.PaidAt != "" {
		set.add("paid_at", v.PaidAt)
	}
	set.optional("note", v.Note)
	if set.empty() {
		set.add("id", id)
	}

	result, err := set.exec(ctx, r.db, "payments", id, ownerID)
	return mutate("update", domain.KindPayment, result, err)
}

func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	ownerID, err := owner(ctx, "delete", domain.KindPayment)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ? AND owner_id = ?`, id, ownerID)
	return mutate("delete", domain.KindPayment, result, err)
}
