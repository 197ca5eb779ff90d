package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Compile-time check: TenantRepository implements domain.TenantRepository.
var _ domain.TenantRepository = (*TenantRepository)(nil)

// TenantRepository implements domain.TenantRepository using SQLite.
// Every call is scoped to the operator carried by the context.
type TenantRepository struct {
	db *sql.DB
}

func (r *TenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	ownerID, err := owner(ctx, "list", domain.KindTenant)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, phone, address, room, created_at
		 FROM tenants WHERE owner_id = ?
		 ORDER BY created_at DESC, rowid DESC`, ownerID,
	)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "list", Kind: domain.KindTenant, Err: err}
	}
	defer rows.Close()

	tenants := []domain.Tenant{}
	for rows.Next() {
		var t domain.Tenant
		var phone, address, room sql.NullString
		var createdAt string
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &phone, &address, &room, &createdAt); err != nil {
			return nil, &domain.RepositoryError{Op: "list", Kind: domain.KindTenant, Err: fmt.Errorf("scanning tenant row: %w", err)}
		}
		t.Phone = fromNull(phone)
		t.Address = fromNull(address)
		t.Room = fromNull(room)
		t.IsAssigned = t.Room != nil
		t.CreatedAt = parseTime(createdAt)
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.RepositoryError{Op: "list", Kind: domain.KindTenant, Err: err}
	}

	return tenants, nil
}

func (r *TenantRepository) Create(ctx context.Context, v domain.TenantValues, ownerID string) error {
	if ownerID == "" {
		return &domain.RepositoryError{Op: "create", Kind: domain.KindTenant, Err: domain.ErrForbidden}
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (id, owner_id, name, phone, address, room, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		recordID(ctx), ownerID, v.Name, nullable(v.Phone), nullable(v.Address), nullable(v.Room),
		formatTime(time.Now()),
	)
	return mutate("create", domain.KindTenant, result, err)
}

func (r *TenantRepository) Update(ctx context.Context, id string, v domain.TenantValues) error {
	ownerID, err := owner(ctx, "update", domain.KindTenant)
	if err != nil {
		return err
	}

	var set updateSet
	if v.Name != "" {
		set.add("name", v.Name)
	}
	set.optional("phone", v.Phone)
	set.optional("address", v.Address)
	set.optional("room", v.Room)
	if set.empty() {
		set.add("id", id)
	}

	result, err := set.exec(ctx, r.db, "tenants", id, ownerID)
	return mutate("update", domain.KindTenant, result, err)
}

func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	ownerID, err := owner(ctx, "delete", domain.KindTenant)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ? AND owner_id = ?`, id, ownerID)
	return mutate("delete", domain.KindTenant, result, err)
}
