package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/roomie/internal/domain"
)

// Compile-time check: RoomRepository implements domain.RoomRepository.
var _ domain.RoomRepository = (*RoomRepository)(nil)

// RoomRepository implements domain.RoomRepository using SQLite. Occupants
// are counted from the owner's tenants assigned to the room's number.
type RoomRepository struct {
	db *sql.DB
}

func (r *RoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	ownerID, err := owner(ctx, "list", domain.KindRoom)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.owner_id, r.number, r.capacity, r.created_at,
		        (SELECT COUNT(*) FROM tenants t WHERE t.owner_id = r.owner_id AND t.room = r.number)
		 FROM rooms r WHERE r.owner_id = ?
		 ORDER BY r.created_at DESC, r.rowid DESC`, ownerID,
	)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "list", Kind: domain.KindRoom, Err: err}
	}
	defer rows.Close()

	rooms := []domain.Room{}
	for rows.Next() {
		var room domain.Room
		var createdAt string
		if err := rows.Scan(&room.ID, &room.OwnerID, &room.Number, &room.Capacity, &createdAt, &room.Occupants); err != nil {
			return nil, &domain.RepositoryError{Op: "list", Kind: domain.KindRoom, Err: fmt.Errorf("scanning room row: %w", err)}
		}
		room.CreatedAt = parseTime(createdAt)
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.RepositoryError{Op: "list", Kind: domain.KindRoom, Err: err}
	}

	return rooms, nil
}

func (r *RoomRepository) Create(ctx context.Context, v domain.RoomValues, ownerID string) error {
	if ownerID == "" {
		return &domain.RepositoryError{Op: "create", Kind: domain.KindRoom, Err: domain.ErrForbidden}
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (id, owner_id, number, capacity, created_at) VALUES (?, ?, ?, ?, ?)`,
		recordID(ctx), ownerID, v.Number, v.Capacity, formatTime(time.Now()),
	)
	return mutate("create", domain.KindRoom, result, err)
}

func (r *RoomRepository) Update(ctx context.Context, id string, v domain.RoomValues) error {
	ownerID, err := owner(ctx, "update", domain.KindRoom)
	if err != nil {
		return err
	}

	var set updateSet
	if v.Number != "" {
		set.add("number", v.Number)
	}
	if v.Capacity != 0 {
		set.add("capacity", v.Capacity)
	}
	if set.empty() {
		set.add("id", id)
	}

	result, err := set.exec(ctx, r.db, "rooms", id, ownerID)
	return mutate("update", domain.KindRoom, result, err)
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	ownerID, err := owner(ctx, "delete", domain.KindRoom)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ? AND owner_id = ?`, id, ownerID)
	return mutate("delete", domain.KindRoom, result, err)
}
